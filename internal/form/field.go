package form

import "github.com/taylordaughtry/formie/internal/position"

// Visibility values for Field.Visibility.
const (
	VisibilityVisible  = ""
	VisibilityHidden   = "hidden"
	VisibilityDisabled = "disabled"
)

type Field struct {
	ID           string
	Handle       string
	Label        string
	Kind         Kind
	Instructions string
	Required     bool
	Visibility   string
	Placeholder  string
	DefaultValue any
	CSSClasses   string

	// Position overrides; the empty Kind defers to the form settings.
	LabelPosition         position.Kind
	SubfieldLabelPosition position.Kind
	InstructionsPosition  position.Kind

	Options []Option
	// Rows holds nested rows for group and repeater fields.
	Rows []*Row

	form   *Form
	parent *Field
}

func (f *Field) HasSubfields() bool  { return f.Kind.HasSubfields() }
func (f *Field) HasNestedRows() bool { return f.Kind.HasNestedRows() }
func (f *Field) HasOptions() bool    { return f.Kind.HasOptions() }

// IsHidden reports whether the field is excluded from rendered output.
func (f *Field) IsHidden() bool {
	return kinds[f.Kind].hidden || f.Visibility == VisibilityHidden
}

// Form returns the form the field belongs to, set by Form.Link.
func (f *Field) Form() *Form { return f.form }

// Parent returns the group or repeater containing a nested field.
func (f *Field) Parent() *Field { return f.parent }

// GqlTypeName is the concrete GraphQL type for the field.
func (f *Field) GqlTypeName() string { return f.Kind.GqlTypeName() }

// Path returns the handles from the outermost parent down to f.
func (f *Field) Path() []string {
	if f.parent == nil {
		return []string{f.Handle}
	}
	return append(f.parent.Path(), f.Handle)
}

// NestedFields flattens the nested rows of a group or repeater.
func (f *Field) NestedFields() []*Field {
	var out []*Field
	for _, r := range f.Rows {
		out = append(out, r.Fields...)
	}
	return out
}

func (f *Field) Property(name string) (any, bool) {
	switch name {
	case "id":
		return f.ID, true
	case "handle":
		return f.Handle, true
	case "label":
		return f.Label, true
	case "type":
		return string(f.Kind), true
	case "instructions":
		return f.Instructions, true
	case "required":
		return f.Required, true
	case "visibility":
		return f.Visibility, true
	case "placeholder":
		return f.Placeholder, true
	case "labelPosition":
		return string(f.LabelPosition), true
	case "subfieldLabelPosition":
		return string(f.SubfieldLabelPosition), true
	case "instructionsPosition":
		return string(f.InstructionsPosition), true
	case "isHidden":
		return f.IsHidden(), true
	case "cssClasses":
		return f.CSSClasses, true
	case "options":
		return f.Options, true
	case "nestedRows":
		return f.Rows, true
	}
	return nil, false
}
