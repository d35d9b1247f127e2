package schema

import (
	"fmt"

	language "github.com/taylordaughtry/formie/internal/language"
)

// BuildFromSDL parses SDL and returns a schema with the builtin scalars and
// directives. The query root defaults to "Query" when no schema definition
// names one.
func BuildFromSDL(name, sdl string) (*Schema, error) {
	s := NewSchema("").AddBuiltins()
	if err := s.LoadSDL(name, sdl); err != nil {
		return nil, err
	}
	if s.QueryType == "" && s.Types["Query"] != nil {
		s.QueryType = "Query"
	}
	return s, nil
}

// LoadSDL parses source and merges its definitions into s. Type extensions
// are applied after all definitions in the document, and may target types
// registered earlier.
func (s *Schema) LoadSDL(name, source string) error {
	doc, err := language.ParseSchema(name, source)
	if err != nil {
		return err
	}
	for _, def := range doc.Schema {
		applySchemaDefinition(s, def)
	}
	for _, def := range doc.SchemaExtension {
		applySchemaDefinition(s, def)
	}
	for _, def := range doc.Definitions {
		if _, exists := s.Types[def.Name]; exists {
			return fmt.Errorf("%s: type %s is already defined", name, def.Name)
		}
		s.AddType(buildType(def))
	}
	for _, ext := range doc.Extensions {
		base := s.Types[ext.Name]
		if base == nil {
			return fmt.Errorf("%s: cannot extend undefined type %s", name, ext.Name)
		}
		extendType(s, base, ext)
	}
	for _, dir := range doc.Directives {
		s.AddDirective(buildDirective(dir))
	}
	return nil
}

func applySchemaDefinition(s *Schema, def *language.SchemaDefinition) {
	if def.Description != "" {
		s.Description = def.Description
	}
	for _, op := range def.OperationTypes {
		switch op.Operation {
		case language.Query:
			s.QueryType = op.Type
		case language.Mutation:
			s.MutationType = op.Type
		case language.Subscription:
			s.SubscriptionType = op.Type
		}
	}
}

func buildType(def *language.Definition) *Type {
	t := NewType(def.Name, kindOf(def.Kind), def.Description)
	fillType(t, def)
	return t
}

func extendType(s *Schema, t *Type, ext *language.Definition) {
	fillType(t, ext)
	if t.Kind == TypeKindObject {
		// Re-register so new interfaces pick the object up.
		s.AddType(t)
	}
}

func fillType(t *Type, def *language.Definition) {
	for _, name := range def.Interfaces {
		t.AddInterface(name)
	}
	switch t.Kind {
	case TypeKindObject, TypeKindInterface:
		for _, fd := range def.Fields {
			t.AddField(buildField(fd))
		}
	case TypeKindInputObject:
		for _, fd := range def.Fields {
			t.AddInputField(buildInputField(fd))
		}
		if def.Directives.ForName("oneOf") != nil {
			t.SetOneOf(true)
		}
	case TypeKindEnum:
		for _, ev := range def.EnumValues {
			v := NewEnumValue(ev.Name, ev.Description)
			if reason, ok := deprecation(ev.Directives); ok {
				v.Deprecate(reason)
			}
			t.AddEnumValue(v)
		}
	case TypeKindUnion:
		for _, name := range def.Types {
			t.AddPossibleType(name)
		}
	case TypeKindScalar:
		if d := def.Directives.ForName("specifiedBy"); d != nil {
			if arg := d.Arguments.ForName("url"); arg != nil && arg.Value != nil {
				url := arg.Value.Raw
				t.SpecifiedByURL = &url
			}
		}
	}
}

func kindOf(k language.DefinitionKind) TypeKind {
	switch k {
	case language.Object:
		return TypeKindObject
	case language.Interface:
		return TypeKindInterface
	case language.Union:
		return TypeKindUnion
	case language.Enum:
		return TypeKindEnum
	case language.InputObject:
		return TypeKindInputObject
	default:
		return TypeKindScalar
	}
}

func buildField(fd *language.FieldDefinition) *Field {
	f := NewField(fd.Name, fd.Description, typeRefFromAST(fd.Type))
	for _, arg := range fd.Arguments {
		in := NewInputValue(arg.Name, arg.Description, typeRefFromAST(arg.Type)).
			SetDefault(defaultValue(arg.DefaultValue))
		if reason, ok := deprecation(arg.Directives); ok {
			in.Deprecate(reason)
		}
		f.AddArgument(in)
	}
	if reason, ok := deprecation(fd.Directives); ok {
		f.Deprecate(reason)
	}
	return f
}

func buildInputField(fd *language.FieldDefinition) *InputValue {
	in := NewInputValue(fd.Name, fd.Description, typeRefFromAST(fd.Type)).
		SetDefault(defaultValue(fd.DefaultValue))
	if reason, ok := deprecation(fd.Directives); ok {
		in.Deprecate(reason)
	}
	return in
}

func buildDirective(def *language.DirectiveDefinition) *Directive {
	d := NewDirective(def.Name, def.Description).SetRepeatable(def.IsRepeatable)
	for _, loc := range def.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, arg := range def.Arguments {
		d.AddArgument(NewInputValue(arg.Name, arg.Description, typeRefFromAST(arg.Type)).
			SetDefault(defaultValue(arg.DefaultValue)))
	}
	return d
}

func typeRefFromAST(t *language.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var ref *TypeRef
	if t.Elem != nil {
		ref = ListType(typeRefFromAST(t.Elem))
	} else {
		ref = NamedType(t.NamedType)
	}
	if t.NonNull {
		return NonNullType(ref)
	}
	return ref
}

func defaultValue(v *language.Value) any {
	if v == nil {
		return nil
	}
	out, err := v.Value(nil)
	if err != nil {
		return nil
	}
	return out
}

func deprecation(directives language.DirectiveList) (string, bool) {
	d := directives.ForName("deprecated")
	if d == nil {
		return "", false
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return arg.Value.Raw, true
	}
	return "No longer supported", true
}
