// Package gql materializes the GraphQL schema for forms. Named types live in
// a Registry and are created on first request; the concrete types for each
// stored form and each field kind are generated once their interface exists.
package gql

import (
	"context"
	"sync"

	"github.com/taylordaughtry/formie/internal/schema"
)

// ResolveFunc resolves a field that needs a service call.
type ResolveFunc func(ctx context.Context, source any, args map[string]any) (any, error)

// FieldDef is a schema field plus an optional resolver. Fields without a
// resolver are projected from their source value.
type FieldDef struct {
	*schema.Field
	Resolve ResolveFunc
}

// Entity is one named type in the registry. Its fields are produced by
// FieldsFunc the first time they are asked for, so an entity can reference
// types that are registered after it.
type Entity struct {
	Name        string
	Kind        schema.TypeKind
	Description string
	Interfaces  []string
	FieldsFunc  func() ([]*FieldDef, error)
	// TypeResolver names the concrete object type of an interface value.
	TypeResolver func(value any) (string, error)

	once   sync.Once
	fields []*FieldDef
	err    error
}

// Fields evaluates FieldsFunc once and returns its result on every call.
func (e *Entity) Fields() ([]*FieldDef, error) {
	e.once.Do(func() {
		if e.FieldsFunc != nil {
			e.fields, e.err = e.FieldsFunc()
		}
	})
	return e.fields, e.err
}

// Registry maps type names to entities. Lookups and inserts are safe for
// concurrent use; entities are listed in registration order.
type Registry struct {
	mu       sync.Mutex
	entities map[string]*Entity
	order    []*Entity
}

func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]*Entity)}
}

// Entity returns the entity registered under name, or nil.
func (r *Registry) Entity(name string) *Entity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entities[name]
}

// CreateEntity registers the entity returned by build unless name is already
// taken. It returns the registered entity and whether this call created it.
// build runs under the registry lock and must not call back into r.
func (r *Registry) CreateEntity(name string, build func() *Entity) (*Entity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entities[name]; ok {
		return e, false
	}
	e := build()
	e.Name = name
	r.entities[name] = e
	r.order = append(r.order, e)
	return e, true
}

// Entities returns a snapshot of the registered entities.
func (r *Registry) Entities() []*Entity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Entity, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
