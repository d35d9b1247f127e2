package gql

import (
	"fmt"
	"regexp"

	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/schema"
)

var typeNamePattern = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

// FormGenerator registers one object type per form, named after the form's
// handle and implementing FormInterface.
type FormGenerator struct {
	Forms []*form.Form
}

func (g FormGenerator) Generate(t *Types) error {
	for _, f := range g.Forms {
		name := f.GqlTypeName()
		if !typeNamePattern.MatchString(name) {
			return fmt.Errorf("gql: form %q: %s is not a valid type name", f.Handle, name)
		}
		title := f.Title
		_, created := t.reg.CreateEntity(name, func() *Entity {
			return &Entity{
				Kind:        schema.TypeKindObject,
				Description: fmt.Sprintf("The “%s” form.", title),
				Interfaces:  []string{ElementInterfaceName, FormInterfaceName},
				FieldsFunc:  t.FormFieldDefinitions,
			}
		})
		if !created {
			return fmt.Errorf("gql: form %q: type %s is already registered", f.Handle, name)
		}
	}
	return nil
}

// FieldGenerator registers one object type per field kind.
type FieldGenerator struct{}

func (FieldGenerator) Generate(t *Types) error {
	for _, kind := range form.Kinds() {
		kind := kind
		name := kind.GqlTypeName()
		_, created := t.reg.CreateEntity(name, func() *Entity {
			return &Entity{
				Kind:        schema.TypeKindObject,
				Description: fmt.Sprintf("A %s field.", kind),
				Interfaces:  []string{FieldInterfaceName},
				FieldsFunc:  func() ([]*FieldDef, error) { return t.fieldDefinitions(kind) },
			}
		})
		if !created {
			return fmt.Errorf("gql: field kind %s: type %s is already registered", kind, name)
		}
	}
	return nil
}

// DefaultGenerators generates the types for forms and every field kind.
func DefaultGenerators(forms []*form.Form) Generators {
	return Generators{Forms: FormGenerator{Forms: forms}, Fields: FieldGenerator{}}
}
