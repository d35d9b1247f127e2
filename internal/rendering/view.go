package rendering

import (
	"context"
	"fmt"
	"strings"

	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/position"
	"github.com/taylordaughtry/formie/internal/variables"
)

type formView struct {
	ID           string
	Handle       string
	Title        string
	DisplayTitle bool
	Class        string
	Method       string
	Pages        []pageView
	ShowTabs     bool
	CSRFName     string
	CSRFValue    string
	Hidden       []fieldView
}

type pageView struct {
	ID        string
	Label     string
	ShowTitle bool
	Submit    string
	Rows      string
}

type rowView struct {
	Fields []fieldView
}

type fieldView struct {
	ID           string
	Handle       string
	Name         string
	Kind         string
	Label        string
	Input        string
	Required     bool
	Placeholder  string
	Class        string
	Instructions string
	Value        string

	LabelBefore        bool
	LabelAfter         bool
	InstructionsBefore bool
	InstructionsAfter  bool

	Options   []optionView
	Subfields []subfieldView
	Nested    string
	Content   string

	// Field is the source field, for templates calling the formie facade.
	Field *form.Field
}

type optionView struct {
	Label    string
	Value    string
	Selected bool
}

type subfieldView struct {
	Handle      string
	Name        string
	Label       string
	Value       string
	LabelBefore bool
	LabelAfter  bool
}

// inputName is the request parameter name for field, e.g. fields[address][city].
func inputName(field *form.Field) string {
	var b strings.Builder
	b.WriteString("fields")
	for _, h := range field.Path() {
		b.WriteString("[" + h + "]")
	}
	return b.String()
}

func inputID(f *form.Form, field *form.Field) string {
	return "fui-" + f.Handle + "-" + strings.Join(field.Path(), "-")
}

// placement maps a label position onto before/after the input.
func placement(p position.Position) (before, after bool) {
	switch p.Kind() {
	case position.AboveInput, position.LeftInput:
		return true, false
	case position.BelowInput, position.RightInput:
		return false, true
	}
	return false, false
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func selected(value any, opt form.Option) bool {
	switch v := value.(type) {
	case nil:
		return opt.IsDefault
	case []string:
		for _, s := range v {
			if s == opt.Value {
				return true
			}
		}
		return false
	case []any:
		for _, s := range v {
			if stringValue(s) == opt.Value {
				return true
			}
		}
		return false
	}
	return stringValue(value) == opt.Value
}

func (r *Renderer) buildField(ctx context.Context, f *form.Form, field *form.Field, options map[string]any) (fieldView, error) {
	label, err := variables.LabelPosition(field, f, false)
	if err != nil {
		return fieldView{}, err
	}
	instructions, err := variables.InstructionsPosition(field, f)
	if err != nil {
		return fieldView{}, err
	}

	value := f.FieldValue(field)
	fv := fieldView{
		ID:           inputID(f, field),
		Handle:       field.Handle,
		Name:         inputName(field),
		Kind:         string(field.Kind),
		Label:        field.Label,
		Input:        field.Kind.InputType(),
		Required:     field.Required,
		Placeholder:  field.Placeholder,
		Class:        field.CSSClasses,
		Instructions: field.Instructions,
		Value:        stringValue(value),
		Field:        field,
	}
	fv.LabelBefore, fv.LabelAfter = placement(label)
	switch instructions.Kind() {
	case position.AboveInput, position.LeftInput:
		fv.InstructionsBefore = field.Instructions != ""
	case position.BelowInput, position.RightInput:
		fv.InstructionsAfter = field.Instructions != ""
	}

	overrides := r.FieldOptions(field, options)
	if p, ok := overrides["placeholder"].(string); ok {
		fv.Placeholder = p
	}
	if c, ok := overrides["class"].(string); ok {
		fv.Class = strings.TrimSpace(fv.Class + " " + c)
	}

	for _, opt := range field.Options {
		fv.Options = append(fv.Options, optionView{Label: opt.Label, Value: opt.Value, Selected: selected(value, opt)})
	}

	if field.HasSubfields() {
		sub, err := variables.LabelPosition(field, f, true)
		if err != nil {
			return fieldView{}, err
		}
		values, _ := value.(map[string]any)
		for _, s := range field.Kind.Subfields() {
			sv := subfieldView{
				Handle: s.Handle,
				Name:   fv.Name + "[" + s.Handle + "]",
				Label:  s.Label,
				Value:  stringValue(values[s.Handle]),
			}
			sv.LabelBefore, sv.LabelAfter = placement(sub)
			fv.Subfields = append(fv.Subfields, sv)
		}
	}

	if field.HasNestedRows() {
		nested, err := r.renderRows(ctx, f, field.Rows, options)
		if err != nil {
			return fieldView{}, err
		}
		fv.Nested = nested
	}

	if field.Kind == form.KindHTML {
		fv.Content = r.policy.Sanitize(stringValue(field.DefaultValue))
	}
	return fv, nil
}

func (r *Renderer) buildRows(ctx context.Context, f *form.Form, rows []*form.Row, options map[string]any) ([]rowView, error) {
	var out []rowView
	for _, row := range rows {
		var rv rowView
		for _, field := range variables.VisibleFields(row) {
			fv, err := r.buildField(ctx, f, field, options)
			if err != nil {
				return nil, err
			}
			rv.Fields = append(rv.Fields, fv)
		}
		if len(rv.Fields) > 0 {
			out = append(out, rv)
		}
	}
	return out, nil
}

// hiddenFields collects hidden fields of rows, which render as bare hidden
// inputs outside the visible layout.
func hiddenFields(f *form.Form, rows []*form.Row) []fieldView {
	var out []fieldView
	for _, row := range rows {
		for _, field := range row.Fields {
			if field.IsHidden() {
				out = append(out, fieldView{
					ID:     inputID(f, field),
					Handle: field.Handle,
					Name:   inputName(field),
					Value:  stringValue(f.FieldValue(field)),
				})
			}
		}
	}
	return out
}
