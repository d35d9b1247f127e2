package executor

import "context"

// Runtime resolves fields for the Executor. At each depth the Executor
// drains sync fields through ResolveSync, then calls BatchResolveAsync once
// with every async task of the depth. The form schema marks plain
// projections (handle, pages, rows) sync and everything that reaches a
// service (rendering, CSRF, captcha providers, repository lookups) async.
//
// Errors from any method become located GraphQL errors; a Non-Null
// violation nulls the nearest nullable ancestor. Implementations must not
// mutate source or args.
type Runtime interface {
	// ResolveSync returns the raw value of a sync field. (nil, nil) is null.
	ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error)

	// BatchResolveAsync returns one result per task, in task order. A
	// failed element does not fail the others.
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// ResolveType names the concrete object type of a value of an interface
	// or union type.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue turns a scalar or enum value into a JSON-safe value.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

// AsyncResolveTask is one queued async field. Source is nil for root
// fields; Args are already coerced.
type AsyncResolveTask struct {
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
}

type AsyncResolveResult struct {
	Value any
	Error error
}
