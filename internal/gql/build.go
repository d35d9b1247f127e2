package gql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/taylordaughtry/formie/internal/executor"
	"github.com/taylordaughtry/formie/internal/schema"
)

// ErrUnknownType is returned when a field or interface names a type that
// was never registered.
var ErrUnknownType = errors.New("unknown type")

// Build materializes every entity reachable from the root query into an
// executable schema and the runtime that resolves it. Field thunks are
// evaluated here, so configuration faults such as duplicate fields surface
// as errors rather than at request time.
func Build(t *Types) (*schema.Schema, *Runtime, error) {
	t.Query()
	sch := schema.NewSchema("Formie forms").AddBuiltins()
	rt := &Runtime{
		resolvers:     make(map[string]map[string]ResolveFunc),
		typeResolvers: make(map[string]func(any) (string, error)),
	}

	// Evaluating fields can register more entities, so re-read the
	// registry until every entity has been visited.
	for i := 0; i < t.reg.Len(); i++ {
		e := t.reg.Entities()[i]
		typ, err := rt.add(e)
		if err != nil {
			return nil, nil, err
		}
		sch.AddType(typ)
	}
	if err := t.Err(); err != nil {
		return nil, nil, err
	}
	if err := checkReferences(sch); err != nil {
		return nil, nil, err
	}
	sch.SetQueryType(QueryTypeName)
	return sch, rt, nil
}

func (rt *Runtime) add(e *Entity) (*schema.Type, error) {
	typ := schema.NewType(e.Name, e.Kind, e.Description)
	for _, name := range e.Interfaces {
		typ.AddInterface(name)
	}
	fields, err := e.Fields()
	if err != nil {
		return nil, fmt.Errorf("gql: %s: %w", e.Name, err)
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			return nil, fmt.Errorf("gql: %s: %w: %s", e.Name, ErrDuplicateField, f.Name)
		}
		seen[f.Name] = true
		f.SetAsync(f.Resolve != nil)
		typ.AddField(f.Field)
		if f.Resolve != nil {
			if rt.resolvers[e.Name] == nil {
				rt.resolvers[e.Name] = make(map[string]ResolveFunc)
			}
			rt.resolvers[e.Name][f.Name] = f.Resolve
		}
	}
	if e.TypeResolver != nil {
		rt.typeResolvers[e.Name] = e.TypeResolver
	}
	return typ, nil
}

func checkReferences(sch *schema.Schema) error {
	for _, typ := range sch.Types {
		for _, name := range typ.Interfaces {
			if iface := sch.Types[name]; iface == nil || iface.Kind != schema.TypeKindInterface {
				return fmt.Errorf("gql: %s implements %s: %w", typ.Name, name, ErrUnknownType)
			}
		}
		for _, f := range typ.Fields {
			if sch.Types[f.Type.GetNamedType()] == nil {
				return fmt.Errorf("gql: %s.%s: %w %s", typ.Name, f.Name, ErrUnknownType, f.Type.GetNamedType())
			}
			for _, arg := range f.Arguments {
				if sch.Types[arg.Type.GetNamedType()] == nil {
					return fmt.Errorf("gql: %s.%s(%s): %w %s", typ.Name, f.Name, arg.Name, ErrUnknownType, arg.Type.GetNamedType())
				}
			}
		}
	}
	return nil
}

// Runtime resolves the materialized schema. Projection fields are read from
// the source value in ResolveSync; fields with a resolver are resolved in
// BatchResolveAsync.
type Runtime struct {
	resolvers     map[string]map[string]ResolveFunc
	typeResolvers map[string]func(any) (string, error)
}

var _ executor.Runtime = (*Runtime)(nil)

type propertySource interface {
	Property(name string) (any, bool)
}

// ResolveSync projects field from source. Values without the field resolve
// to null.
func (rt *Runtime) ResolveSync(_ context.Context, _ string, field string, source any, _ map[string]any) (any, error) {
	switch src := source.(type) {
	case propertySource:
		v, _ := src.Property(field)
		return v, nil
	case map[string]any:
		return src[field], nil
	case map[string]string:
		if v, ok := src[field]; ok {
			return v, nil
		}
	}
	return nil, nil
}

// BatchResolveAsync resolves tasks one after another, grouped by
// (objectType, field) in first-appearance order. Resolvers of one batch
// share the same *form.Form values, so they never run concurrently.
// Results keep the order of tasks.
func (rt *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	type groupKey struct {
		objectType string
		field      string
	}
	var groups [][]int
	idxByKey := map[groupKey]int{}
	for i, task := range tasks {
		k := groupKey{task.ObjectType, task.Field}
		if gi, ok := idxByKey[k]; ok {
			groups[gi] = append(groups[gi], i)
			continue
		}
		idxByKey[k] = len(groups)
		groups = append(groups, []int{i})
	}
	for _, idxs := range groups {
		for _, i := range idxs {
			value, err := rt.resolve(ctx, tasks[i])
			results[i] = executor.AsyncResolveResult{Value: value, Error: err}
		}
	}
	return results
}

func (rt *Runtime) resolve(ctx context.Context, task executor.AsyncResolveTask) (value any, err error) {
	fn := rt.resolvers[task.ObjectType][task.Field]
	if fn == nil {
		return nil, fmt.Errorf("gql: no resolver for %s.%s", task.ObjectType, task.Field)
	}
	// A panicking resolver fails its own field, not the whole batch.
	defer func() {
		if r := recover(); r != nil {
			value, err = nil, fmt.Errorf("gql: %s.%s panicked: %v", task.ObjectType, task.Field, r)
		}
	}()
	return fn(ctx, task.Source, task.Args)
}

func (rt *Runtime) ResolveType(_ context.Context, abstractType string, value any) (string, error) {
	fn := rt.typeResolvers[abstractType]
	if fn == nil {
		return "", fmt.Errorf("gql: %s is not an abstract type", abstractType)
	}
	return fn(value)
}

// SerializeLeafValue renders IDs as strings and DateTime values in RFC 3339.
// Zero times serialize as null.
func (rt *Runtime) SerializeLeafValue(_ context.Context, typeName string, value any) (any, error) {
	switch typeName {
	case "ID":
		switch v := value.(type) {
		case nil:
			return nil, nil
		case string:
			return v, nil
		case int:
			return strconv.Itoa(v), nil
		default:
			return fmt.Sprint(v), nil
		}
	case DateTimeName:
		switch v := value.(type) {
		case time.Time:
			if v.IsZero() {
				return nil, nil
			}
			return v.Format(time.RFC3339), nil
		case *time.Time:
			if v == nil || v.IsZero() {
				return nil, nil
			}
			return v.Format(time.RFC3339), nil
		}
	}
	return value, nil
}
