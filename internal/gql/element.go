package gql

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/taylordaughtry/formie/internal/schema"
)

const (
	ElementInterfaceName = "ElementInterface"
	DateTimeName         = "DateTime"
)

//go:embed element.graphql
var elementSDL string

var (
	elementOnce   sync.Once
	elementSchema *schema.Schema
	elementErr    error
)

func loadElementSchema() (*schema.Schema, error) {
	elementOnce.Do(func() {
		elementSchema, elementErr = schema.BuildFromSDL("element.graphql", elementSDL)
	})
	return elementSchema, elementErr
}

// elementType returns a copy of a type declared in the element SDL.
func elementType(name string) (*schema.Type, error) {
	sch, err := loadElementSchema()
	if err != nil {
		return nil, fmt.Errorf("gql: element schema: %w", err)
	}
	t := sch.Types[name]
	if t == nil {
		return nil, fmt.Errorf("gql: element schema has no type %s", name)
	}
	return t, nil
}

// ElementFields returns fresh definitions of the fields every element
// inherits. Each call copies the fields so callers may mark them async or
// attach resolvers independently.
func ElementFields() ([]*FieldDef, error) {
	t, err := elementType(ElementInterfaceName)
	if err != nil {
		return nil, err
	}
	defs := make([]*FieldDef, len(t.Fields))
	for i, f := range t.Fields {
		cp := *f
		defs[i] = &FieldDef{Field: &cp}
	}
	return defs, nil
}

// ElementInterface registers the inherited element interface and the
// DateTime scalar its fields use.
func (t *Types) ElementInterface() *Entity {
	t.reg.CreateEntity(DateTimeName, func() *Entity {
		desc := ""
		if st, err := elementType(DateTimeName); err == nil {
			desc = st.Description
		}
		return &Entity{Kind: schema.TypeKindScalar, Description: desc}
	})
	e, _ := t.reg.CreateEntity(ElementInterfaceName, func() *Entity {
		desc := ""
		if it, err := elementType(ElementInterfaceName); err == nil {
			desc = it.Description
		}
		return &Entity{
			Kind:         schema.TypeKindInterface,
			Description:  desc,
			FieldsFunc:   ElementFields,
			TypeResolver: concreteTypeName,
		}
	})
	return e
}
