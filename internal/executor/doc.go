// Package executor runs GraphQL operations against the form schema using a
// breadth-first model with explicit runtime hooks.
//
// # Execution Model
//
// Each depth is executed in two phases:
//
//	A. Sync expansion
//	   Fields with schema.Field.Async == false are resolved immediately through
//	   Runtime.ResolveSync and completed in place. Object results keep expanding
//	   synchronously, so plain projections (form handle, pages, rows, field
//	   labels) never add depth.
//
//	B. Batch execution
//	   Async fields discovered during expansion are queued and resolved with a
//	   single Runtime.BatchResolveAsync call once the depth is drained. Their
//	   object results seed the next depth.
//
// For an operation whose async nesting is d, BatchResolveAsync is invoked
// exactly d times.
//
// # Value Completion
//
// Non-Null, List, leaf, object and abstract types are completed per the
// GraphQL specification. Leaf values go through Runtime.SerializeLeafValue.
// Interface and union values go through Runtime.ResolveType, and the returned
// name must be an object type in the schema. A Non-Null violation nullifies
// the nearest nullable ancestor and drops any queued tasks beneath it.
//
// # Fragments
//
// A fragment whose type condition names an interface or union applies to
// every object type the schema records as a possible type, so
// "... on FormInterface" selects on every generated form type.
//
// # Errors
//
// Errors are collected as located GraphQL errors and never abort sibling
// fields; a batch may partially succeed.
package executor
