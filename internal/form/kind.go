package form

// Kind identifies a field type.
type Kind string

const (
	KindSingleLineText Kind = "singleLineText"
	KindMultiLineText  Kind = "multiLineText"
	KindEmail          Kind = "email"
	KindNumber         Kind = "number"
	KindPhone          Kind = "phone"
	KindDropdown       Kind = "dropdown"
	KindRadio          Kind = "radio"
	KindCheckboxes     Kind = "checkboxes"
	KindAgree          Kind = "agree"
	KindName           Kind = "name"
	KindAddress        Kind = "address"
	KindDate           Kind = "date"
	KindGroup          Kind = "group"
	KindRepeater       Kind = "repeater"
	KindHidden         Kind = "hidden"
	KindHTML           Kind = "html"
)

type capabilities struct {
	gqlName    string
	input      string
	subfields  bool
	nestedRows bool
	options    bool
	hidden     bool
}

var kinds = map[Kind]capabilities{
	KindSingleLineText: {gqlName: "SingleLineText", input: "text"},
	KindMultiLineText:  {gqlName: "MultiLineText", input: "textarea"},
	KindEmail:          {gqlName: "Email", input: "email"},
	KindNumber:         {gqlName: "Number", input: "number"},
	KindPhone:          {gqlName: "Phone", input: "tel"},
	KindDropdown:       {gqlName: "Dropdown", input: "select", options: true},
	KindRadio:          {gqlName: "Radio", input: "radio", options: true},
	KindCheckboxes:     {gqlName: "Checkboxes", input: "checkbox", options: true},
	KindAgree:          {gqlName: "Agree", input: "checkbox"},
	KindName:           {gqlName: "Name", input: "text", subfields: true},
	KindAddress:        {gqlName: "Address", input: "text", subfields: true},
	KindDate:           {gqlName: "Date", input: "date", subfields: true},
	KindGroup:          {gqlName: "Group", nestedRows: true},
	KindRepeater:       {gqlName: "Repeater", nestedRows: true},
	KindHidden:         {gqlName: "Hidden", input: "hidden", hidden: true},
	KindHTML:           {gqlName: "Html"},
}

// Kinds lists every known field kind.
func Kinds() []Kind {
	return []Kind{
		KindSingleLineText, KindMultiLineText, KindEmail, KindNumber, KindPhone,
		KindDropdown, KindRadio, KindCheckboxes, KindAgree, KindName, KindAddress,
		KindDate, KindGroup, KindRepeater, KindHidden, KindHTML,
	}
}

func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// GqlTypeName is the name of the concrete GraphQL type for fields of kind k.
func (k Kind) GqlTypeName() string {
	return "Field_" + kinds[k].gqlName
}

// InputType is the HTML input type used when rendering the field. It is
// empty for kinds that render no single input.
func (k Kind) InputType() string { return kinds[k].input }

func (k Kind) HasSubfields() bool  { return kinds[k].subfields }
func (k Kind) HasNestedRows() bool { return kinds[k].nestedRows }
func (k Kind) HasOptions() bool    { return kinds[k].options }

// Subfields lists the inputs rendered for kinds that have subfields.
func (k Kind) Subfields() []Subfield {
	switch k {
	case KindName:
		return []Subfield{{"firstName", "First Name"}, {"lastName", "Last Name"}}
	case KindAddress:
		return []Subfield{
			{"address1", "Address 1"}, {"city", "City"}, {"zip", "ZIP / Postal Code"}, {"country", "Country"},
		}
	case KindDate:
		return []Subfield{{"day", "Day"}, {"month", "Month"}, {"year", "Year"}}
	}
	return nil
}

// Subfield is one input of a field that has subfields.
type Subfield struct {
	Handle string
	Label  string
}
