package schema

var builtinScalars = []struct {
	name        string
	description string
}{
	{"String", "The `String` scalar type represents textual data, represented as UTF-8 character sequences."},
	{"Int", "The `Int` scalar type represents non-fractional signed whole numeric values."},
	{"Float", "The `Float` scalar type represents signed double-precision fractional values."},
	{"Boolean", "The `Boolean` scalar type represents `true` or `false`."},
	{"ID", "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching."},
}

var builtinDirectives = []struct {
	name        string
	description string
	ifArg       string
}{
	{"include", "Directs the executor to include this field or fragment only when the `if` argument is true.", "Included when true."},
	{"skip", "Directs the executor to skip this field or fragment when the `if` argument is true.", "Skipped when true."},
}

// IsBuiltinScalar reports whether name is one of the scalars every schema
// starts with. Render omits them.
func IsBuiltinScalar(name string) bool {
	for _, s := range builtinScalars {
		if s.name == name {
			return true
		}
	}
	return false
}

// IsBuiltinDirective reports whether name is include or skip.
func IsBuiltinDirective(name string) bool {
	for _, d := range builtinDirectives {
		if d.name == name {
			return true
		}
	}
	return false
}

// Builtins are allocated per schema; schemas never share a *Type.
func newBuiltinScalars() []*Type {
	out := make([]*Type, len(builtinScalars))
	for i, s := range builtinScalars {
		out[i] = &Type{Name: s.name, Kind: TypeKindScalar, Description: s.description}
	}
	return out
}

func newBuiltinDirectives() []*Directive {
	out := make([]*Directive, len(builtinDirectives))
	for i, d := range builtinDirectives {
		out[i] = &Directive{
			Name:        d.name,
			Description: d.description,
			Arguments: []*InputValue{{
				Name:        "if",
				Description: d.ifArg,
				Type:        NonNullType(NamedType("Boolean")),
			}},
			Locations: []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
		}
	}
	return out
}
