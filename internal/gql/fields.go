package gql

import (
	"context"
	"fmt"

	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/schema"
	"github.com/taylordaughtry/formie/internal/variables"
)

// FieldInterface returns the interface implemented by every field type and
// runs the field generator the first time it is registered.
func (t *Types) FieldInterface() *Entity {
	return t.materialize(FieldInterfaceName, func() *Entity {
		return &Entity{
			Kind:         schema.TypeKindInterface,
			Description:  "This is the interface implemented by all fields.",
			FieldsFunc:   t.fieldInterfaceFields,
			TypeResolver: concreteTypeName,
		}
	}, func(t *Types) { t.generate(t.gens.Fields) })
}

func (t *Types) fieldInterfaceFields() ([]*FieldDef, error) {
	return []*FieldDef{
		field("id", "The field’s ID.", named("ID")),
		field("handle", "The field’s handle.", named("String")),
		field("label", "The field’s label.", named("String")),
		field("type", "The field’s type.", named("String")),
		field("instructions", "The field’s instructions.", named("String")),
		field("required", "Whether the field is required.", named("Boolean")),
		field("visibility", "The field’s visibility.", named("String")),
		field("placeholder", "The field’s placeholder.", named("String")),
		field("cssClasses", "The field’s CSS classes.", named("String")),
		field("isHidden", "Whether the field is left out of rendered forms.", named("Boolean")),
		field("labelPosition", "The field’s label position override.", named("String")),
		field("subfieldLabelPosition", "The field’s subfield label position override.", named("String")),
		field("instructionsPosition", "The field’s instructions position override.", named("String")),
		resolved("resolvedLabelPosition", "The position the field’s label renders in.", named("String"), resolveLabelPosition,
			schema.NewInputValue("subfield", "Resolve the position of subfield labels.", named("Boolean")).SetDefault(false),
		),
		resolved("resolvedInstructionsPosition", "The position the field’s instructions render in.", named("String"), resolveInstructionsPosition),
		resolved("inputHtml", "The field’s rendered HTML.", named("String"), t.resolveInputHTML,
			schema.NewInputValue("options", "The field will be rendered with these JSON serialized options.", named("String")),
		),
	}, nil
}

// fieldDefinitions is the field set of the concrete type for kind.
func (t *Types) fieldDefinitions(kind form.Kind) ([]*FieldDef, error) {
	fields, err := t.fieldInterfaceFields()
	if err != nil {
		return nil, err
	}
	var own []*FieldDef
	if kind.HasOptions() {
		own = append(own, field("options", "The field’s options.", listOf(t.FieldOptionType().Name)))
	}
	if kind.HasNestedRows() {
		own = append(own, field("nestedRows", "The field’s nested rows.", listOf(t.RowInterface().Name)))
	}
	return MergeFieldDefinitions(fields, own)
}

func sourceField(source any, name string) (*form.Field, *form.Form, error) {
	fd, ok := source.(*form.Field)
	if !ok || fd == nil {
		return nil, nil, fmt.Errorf("gql: %s: expected a field, got %T", name, source)
	}
	f := fd.Form()
	if f == nil {
		return nil, nil, fmt.Errorf("gql: %s: field %s is not attached to a form", name, fd.Handle)
	}
	return fd, f, nil
}

func resolveLabelPosition(_ context.Context, source any, args map[string]any) (any, error) {
	fd, f, err := sourceField(source, "resolvedLabelPosition")
	if err != nil {
		return nil, err
	}
	subfield, _ := args["subfield"].(bool)
	p, err := variables.LabelPosition(fd, f, subfield)
	if err != nil {
		return nil, err
	}
	return string(p.Kind()), nil
}

func resolveInstructionsPosition(_ context.Context, source any, _ map[string]any) (any, error) {
	fd, f, err := sourceField(source, "resolvedInstructionsPosition")
	if err != nil {
		return nil, err
	}
	p, err := variables.InstructionsPosition(fd, f)
	if err != nil {
		return nil, err
	}
	return string(p.Kind()), nil
}

func (t *Types) resolveInputHTML(ctx context.Context, source any, args map[string]any) (any, error) {
	fd, f, err := sourceField(source, "inputHtml")
	if err != nil {
		return nil, err
	}
	return t.plugin.Rendering.RenderField(ctx, f, fd, form.DecodeIfJSON(args["options"]))
}
