// Package position implements the display strategies that decide where a
// field's label or instructions render relative to its input.
package position

import (
	"errors"
	"fmt"
	"sort"
)

// Kind names a position strategy. The empty Kind means "not set".
type Kind string

const (
	AboveInput Kind = "above-input"
	BelowInput Kind = "below-input"
	LeftInput  Kind = "left-input"
	RightInput Kind = "right-input"
	Hidden     Kind = "hidden"
)

var ErrUnknownPosition = errors.New("unknown position")

// Subject is the part of a field a position inspects.
type Subject interface {
	HasSubfields() bool
}

// Position is a stateless display strategy.
type Position interface {
	Kind() Kind
	// Supports reports whether the strategy can lay out field.
	Supports(field Subject) bool
	// Fallback names the strategy to use instead when Supports is false.
	// The empty Kind means there is none.
	Fallback(field Subject) Kind
}

type strategy struct {
	kind        Kind
	name        string
	noSubfields bool
}

func (s *strategy) Kind() Kind { return s.kind }

// Name is the human readable label shown in form settings.
func (s *strategy) Name() string { return s.name }

func (s *strategy) Supports(field Subject) bool {
	return !(s.noSubfields && field.HasSubfields())
}

func (s *strategy) Fallback(field Subject) Kind {
	if s.noSubfields {
		return AboveInput
	}
	return ""
}

var table = map[Kind]strategy{
	AboveInput: {kind: AboveInput, name: "Above Input"},
	BelowInput: {kind: BelowInput, name: "Below Input"},
	LeftInput:  {kind: LeftInput, name: "Left of Input", noSubfields: true},
	RightInput: {kind: RightInput, name: "Right of Input", noSubfields: true},
	Hidden:     {kind: Hidden, name: "Hidden"},
}

// New returns a fresh strategy value for kind.
func New(kind Kind) (Position, error) {
	s, ok := table[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPosition, kind)
	}
	return &s, nil
}

// Valid reports whether kind names a known strategy.
func Valid(kind Kind) bool {
	_, ok := table[kind]
	return ok
}

// Kinds lists the known strategies in a stable order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(table))
	for k := range table {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Name returns the display name of kind, or the kind itself if unknown.
func Name(kind Kind) string {
	if s, ok := table[kind]; ok {
		return s.name
	}
	return string(kind)
}
