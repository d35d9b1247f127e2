package executor

import "errors"

// GraphQLError represents an error that occurred during execution.
// Err holds the resolver error, if any, and is not serialized.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
	Err        error          `json:"-"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

func (e GraphQLError) Unwrap() error { return e.Err }

// Coder is implemented by resolver errors that carry a machine readable
// code, reported to clients as extensions.code.
type Coder interface {
	ErrorCode() string
}

// fieldError builds the located error for a failed resolver.
func fieldError(err error, path Path) GraphQLError {
	ge := GraphQLError{Message: err.Error(), Path: path, Err: err}
	var c Coder
	if errors.As(err, &c) {
		ge.Extensions = map[string]any{"code": c.ErrorCode()}
	}
	return ge
}

// ExecutionResult represents the result of executing a GraphQL query
type ExecutionResult struct {
	Data   any            `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}
