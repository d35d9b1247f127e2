package tmpl

import (
	"errors"
	"fmt"

	"github.com/flosch/pongo2/v6"
)

type detail struct {
	Template string
	Line     int
	Column   int
	Err      error
}

func (d detail) describe(kind string) string {
	if d.Line > 0 {
		return fmt.Sprintf("template %s: %s error at line %d, column %d: %v", d.Template, kind, d.Line, d.Column, d.Err)
	}
	return fmt.Sprintf("template %s: %s error: %v", d.Template, kind, d.Err)
}

// SyntaxError reports a template that could not be parsed.
type SyntaxError struct{ detail }

func (e *SyntaxError) Error() string { return e.describe("syntax") }
func (e *SyntaxError) Unwrap() error { return e.Err }

// ErrorCode is reported to GraphQL clients as extensions.code.
func (e *SyntaxError) ErrorCode() string { return "TEMPLATE_SYNTAX" }

// RuntimeError reports a failure while executing a parsed template.
type RuntimeError struct{ detail }

func (e *RuntimeError) Error() string { return e.describe("runtime") }
func (e *RuntimeError) Unwrap() error { return e.Err }
func (e *RuntimeError) ErrorCode() string { return "TEMPLATE_RUNTIME" }

// LoaderError reports a template that could not be found or read.
type LoaderError struct{ detail }

func (e *LoaderError) Error() string { return e.describe("loader") }
func (e *LoaderError) Unwrap() error { return e.Err }
func (e *LoaderError) ErrorCode() string { return "TEMPLATE_NOT_FOUND" }

// classify maps a pongo2 error onto SyntaxError, RuntimeError or
// LoaderError by the stage that raised it.
func classify(name string, err error) error {
	d := detail{Template: name, Err: err}
	var perr *pongo2.Error
	if !errors.As(err, &perr) {
		return &RuntimeError{d}
	}
	d.Line, d.Column = perr.Line, perr.Column
	if perr.OrigError != nil {
		d.Err = perr.OrigError
	}
	switch perr.Sender {
	case "lexer", "parser":
		return &SyntaxError{d}
	case "fromfile", "fromcache":
		return &LoaderError{d}
	default:
		return &RuntimeError{d}
	}
}
