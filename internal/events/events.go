// Package events defines the payloads published on the event bus while a
// request moves through the HTTP handler, the GraphQL executor and the plugin
// services it calls out to.
package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when an HTTP request is received.
// Route names the handler ("graphql" or "form-page").
type HTTPStart struct {
	Request *http.Request
	Route   string
}

// HTTPFinish is emitted after the handler completes.
type HTTPFinish struct {
	Request  *http.Request
	Route    string
	Status   int
	Duration time.Duration
}

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing a GraphQL operation.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

// ServiceCallStart is emitted before a call into a plugin service such as
// rendering or a captcha provider.
type ServiceCallStart struct {
	Service string
	Method  string
	Form    string
}

// ServiceCallFinish is emitted after the service call returns.
type ServiceCallFinish struct {
	Service  string
	Method   string
	Form     string
	Err      error
	Duration time.Duration
}
