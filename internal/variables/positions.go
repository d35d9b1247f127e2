package variables

import (
	"errors"
	"fmt"

	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/position"
)

// ErrNoDefaultPosition is returned when neither the field nor the form
// settings name a position.
var ErrNoDefaultPosition = errors.New("no default position configured")

// LabelPosition resolves where field's label renders. For subfield labels
// on fields that have subfields the subfield override is consulted instead
// of the general one. An unsupported position is replaced by its fallback
// when it declares one.
func LabelPosition(field *form.Field, f *form.Form, subfield bool) (position.Position, error) {
	kind := field.LabelPosition
	if subfield && field.HasSubfields() {
		kind = field.SubfieldLabelPosition
	}
	if kind == "" {
		kind = f.Settings.DefaultLabelPosition
	}
	if kind == "" {
		return nil, fmt.Errorf("form %s: field %s: label: %w", f.Handle, field.Handle, ErrNoDefaultPosition)
	}
	p, err := position.New(kind)
	if err != nil {
		return nil, fmt.Errorf("form %s: field %s: label: %w", f.Handle, field.Handle, err)
	}
	if !p.Supports(field) {
		if fallback := p.Fallback(field); fallback != "" {
			return position.New(fallback)
		}
	}
	return p, nil
}

// InstructionsPosition resolves where field's instructions render. Unlike
// labels there is no subfield override and no capability fallback.
func InstructionsPosition(field *form.Field, f *form.Form) (position.Position, error) {
	kind := field.InstructionsPosition
	if kind == "" {
		kind = f.Settings.DefaultInstructionsPosition
	}
	if kind == "" {
		return nil, fmt.Errorf("form %s: field %s: instructions: %w", f.Handle, field.Handle, ErrNoDefaultPosition)
	}
	p, err := position.New(kind)
	if err != nil {
		return nil, fmt.Errorf("form %s: field %s: instructions: %w", f.Handle, field.Handle, err)
	}
	return p, nil
}

// VisibleFields returns the fields of row that are not hidden, in order.
func VisibleFields(row *form.Row) []*form.Field {
	if row == nil {
		return nil
	}
	fields := make([]*form.Field, 0, len(row.Fields))
	for _, field := range row.Fields {
		if !field.IsHidden() {
			fields = append(fields, field)
		}
	}
	return fields
}

// CheckPositions resolves every position in f, surfacing configuration
// faults before the form is served.
func CheckPositions(f *form.Form) error {
	var walk func(rows []*form.Row) error
	walk = func(rows []*form.Row) error {
		for _, r := range rows {
			for _, field := range r.Fields {
				if _, err := LabelPosition(field, f, false); err != nil {
					return err
				}
				if _, err := LabelPosition(field, f, true); err != nil {
					return err
				}
				if _, err := InstructionsPosition(field, f); err != nil {
					return err
				}
				if err := walk(field.Rows); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(f.Rows())
}
