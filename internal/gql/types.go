package gql

import (
	"errors"
	"fmt"
	"sync"

	"github.com/taylordaughtry/formie/internal/schema"
	"github.com/taylordaughtry/formie/internal/service"
)

const (
	FormInterfaceName    = "FormInterface"
	PageInterfaceName    = "PageInterface"
	RowInterfaceName     = "RowInterface"
	FieldInterfaceName   = "FieldInterface"
	PageTypeName         = "PageType"
	RowTypeName          = "RowType"
	FormSettingsTypeName = "FormSettingsType"
	CsrfTokenTypeName    = "FormieCsrfTokenType"
	CaptchaValueTypeName = "FormieCaptchaType"
	FieldOptionTypeName  = "FormieFieldOptionType"
	QueryTypeName        = "Query"
)

// ErrDuplicateField is returned when a type would declare the same field
// name twice.
var ErrDuplicateField = errors.New("duplicate field")

// Generator registers the concrete types behind an interface.
type Generator interface {
	Generate(t *Types) error
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(t *Types) error

func (fn GeneratorFunc) Generate(t *Types) error { return fn(t) }

// Generators are run right after their interface is registered.
type Generators struct {
	Forms  Generator
	Fields Generator
}

// Types creates the form schema's named types on demand. Every accessor
// returns the registry's entity for its name, creating it on first use.
type Types struct {
	*typeState
	// inside holds the names whose generator is running on this view.
	inside map[string]bool
}

type typeState struct {
	reg    *Registry
	plugin *service.Plugin
	gens   Generators

	mu    sync.Mutex
	errs  []error
	ready map[string]chan struct{}
}

func NewTypes(reg *Registry, plugin *service.Plugin, gens Generators) *Types {
	return &Types{typeState: &typeState{
		reg:    reg,
		plugin: plugin,
		gens:   gens,
		ready:  make(map[string]chan struct{}),
	}}
}

func (t *Types) Registry() *Registry { return t.reg }

// materialize returns the entity for name, creating it with build on first
// use. The creating call runs populate before the entity is handed to any
// other caller: concurrent callers for the same name block until it is
// done. Calls made from inside populate return the stored entry at once.
func (t *Types) materialize(name string, build func() *Entity, populate func(*Types)) *Entity {
	if t.inside[name] {
		return t.reg.Entity(name)
	}
	t.mu.Lock()
	ready, seen := t.ready[name]
	if !seen {
		ready = make(chan struct{})
		t.ready[name] = ready
	}
	t.mu.Unlock()
	if seen {
		<-ready
		return t.reg.Entity(name)
	}

	defer close(ready)
	e, created := t.reg.CreateEntity(name, build)
	if created && populate != nil {
		populate(t.within(name))
	}
	return e
}

// within returns a view of t that treats name as being populated.
func (t *Types) within(name string) *Types {
	inside := make(map[string]bool, len(t.inside)+1)
	for n := range t.inside {
		inside[n] = true
	}
	inside[name] = true
	return &Types{typeState: t.typeState, inside: inside}
}

func (t *Types) generate(g Generator) {
	if g == nil {
		return
	}
	if err := g.Generate(t); err != nil {
		t.fail(err)
	}
}

func (t *Types) fail(err error) {
	t.mu.Lock()
	t.errs = append(t.errs, err)
	t.mu.Unlock()
}

// Err reports the errors raised by generators so far.
func (t *Types) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return errors.Join(t.errs...)
}

type gqlTyped interface {
	GqlTypeName() string
}

func concreteTypeName(value any) (string, error) {
	if v, ok := value.(gqlTyped); ok {
		return v.GqlTypeName(), nil
	}
	return "", fmt.Errorf("gql: cannot determine the concrete type of %T", value)
}

func fixedTypeName(name string) func(any) (string, error) {
	return func(any) (string, error) { return name, nil }
}

func named(name string) *schema.TypeRef { return schema.NamedType(name) }

func listOf(name string) *schema.TypeRef { return schema.ListType(schema.NamedType(name)) }

func field(name, description string, typ *schema.TypeRef) *FieldDef {
	return &FieldDef{Field: schema.NewField(name, description, typ)}
}

func resolved(name, description string, typ *schema.TypeRef, fn ResolveFunc, args ...*schema.InputValue) *FieldDef {
	f := schema.NewField(name, description, typ)
	for _, a := range args {
		f.AddArgument(a)
	}
	return &FieldDef{Field: f, Resolve: fn}
}

// MergeFieldDefinitions appends own to inherited. A name declared twice is a
// configuration fault.
func MergeFieldDefinitions(inherited, own []*FieldDef) ([]*FieldDef, error) {
	out := make([]*FieldDef, 0, len(inherited)+len(own))
	seen := make(map[string]bool, len(inherited)+len(own))
	for _, group := range [][]*FieldDef{inherited, own} {
		for _, f := range group {
			if seen[f.Name] {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateField, f.Name)
			}
			seen[f.Name] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// PageInterface registers the page interface and its single implementation.
func (t *Types) PageInterface() *Entity {
	return t.materialize(PageInterfaceName, func() *Entity {
		return &Entity{
			Kind:         schema.TypeKindInterface,
			Description:  "This is the interface implemented by all pages.",
			FieldsFunc:   t.pageFields,
			TypeResolver: fixedTypeName(PageTypeName),
		}
	}, func(t *Types) {
		t.reg.CreateEntity(PageTypeName, func() *Entity {
			return &Entity{
				Kind:        schema.TypeKindObject,
				Description: "A page of a form.",
				Interfaces:  []string{PageInterfaceName},
				FieldsFunc:  t.pageFields,
			}
		})
	})
}

func (t *Types) pageFields() ([]*FieldDef, error) {
	rows := t.RowInterface().Name
	fields := t.FieldInterface().Name
	return []*FieldDef{
		field("id", "The page’s ID.", named("ID")),
		field("label", "The page’s label.", named("String")),
		field("rows", "The page’s rows.", listOf(rows)),
		field("pageFields", "The page’s fields.", listOf(fields)),
	}, nil
}

// RowInterface registers the row interface and its single implementation.
func (t *Types) RowInterface() *Entity {
	return t.materialize(RowInterfaceName, func() *Entity {
		return &Entity{
			Kind:         schema.TypeKindInterface,
			Description:  "This is the interface implemented by all rows.",
			FieldsFunc:   t.rowFields,
			TypeResolver: fixedTypeName(RowTypeName),
		}
	}, func(t *Types) {
		t.reg.CreateEntity(RowTypeName, func() *Entity {
			return &Entity{
				Kind:        schema.TypeKindObject,
				Description: "A row of fields.",
				Interfaces:  []string{RowInterfaceName},
				FieldsFunc:  t.rowFields,
			}
		})
	})
}

func (t *Types) rowFields() ([]*FieldDef, error) {
	return []*FieldDef{
		field("id", "The row’s ID.", named("ID")),
		field("rowFields", "The row’s fields.", listOf(t.FieldInterface().Name)),
	}, nil
}

// FormSettingsType registers the object exposing a form's settings.
func (t *Types) FormSettingsType() *Entity {
	e, _ := t.reg.CreateEntity(FormSettingsTypeName, func() *Entity {
		return &Entity{
			Kind:        schema.TypeKindObject,
			Description: "The settings of a form.",
			FieldsFunc: func() ([]*FieldDef, error) {
				return []*FieldDef{
					field("defaultLabelPosition", "The default position of field labels.", named("String")),
					field("defaultInstructionsPosition", "The default position of field instructions.", named("String")),
					field("displayFormTitle", "Whether the form title is shown.", named("Boolean")),
					field("displayPageTabs", "Whether page tabs are shown.", named("Boolean")),
					field("displayCurrentPageTitle", "Whether the current page title is shown.", named("Boolean")),
					field("displayPageProgress", "Whether page progress is shown.", named("Boolean")),
					field("progressPosition", "Where page progress is shown.", named("String")),
					field("submitMethod", "How the form is submitted.", named("String")),
					field("submitAction", "What happens after a submission.", named("String")),
					field("submitActionMessage", "The message shown after a submission.", named("String")),
					field("errorMessage", "The message shown when a submission fails.", named("String")),
					field("loadingIndicator", "The loading indicator shown while submitting.", named("String")),
					field("validationOnSubmit", "Whether fields are validated on submit.", named("Boolean")),
					field("validationOnFocus", "Whether fields are validated when they lose focus.", named("Boolean")),
				}, nil
			},
		}
	})
	return e
}

// CsrfTokenType registers the CSRF name/value pair.
func (t *Types) CsrfTokenType() *Entity {
	e, _ := t.reg.CreateEntity(CsrfTokenTypeName, func() *Entity {
		return &Entity{
			Kind:        schema.TypeKindObject,
			Description: "A CSRF token.",
			FieldsFunc: func() ([]*FieldDef, error) {
				return []*FieldDef{
					field("name", "The name of the CSRF token.", named("String")),
					field("value", "The value of the CSRF token.", named("String")),
				}, nil
			},
		}
	})
	return e
}

// CaptchaValueType registers the refreshed variables of one captcha.
func (t *Types) CaptchaValueType() *Entity {
	e, _ := t.reg.CreateEntity(CaptchaValueTypeName, func() *Entity {
		return &Entity{
			Kind:        schema.TypeKindObject,
			Description: "A captcha value.",
			FieldsFunc: func() ([]*FieldDef, error) {
				return []*FieldDef{
					field("handle", "The captcha handle.", named("String")),
					field("name", "The captcha name.", named("String")),
					field("value", "The captcha value.", named("String")),
				}, nil
			},
		}
	})
	return e
}

func (t *Types) FieldOptionType() *Entity {
	e, _ := t.reg.CreateEntity(FieldOptionTypeName, func() *Entity {
		return &Entity{
			Kind:        schema.TypeKindObject,
			Description: "An option of a field with choices.",
			FieldsFunc: func() ([]*FieldDef, error) {
				return []*FieldDef{
					field("label", "The option’s label.", named("String")),
					field("value", "The option’s value.", named("String")),
					field("isDefault", "Whether the option is selected by default.", named("Boolean")),
				}, nil
			},
		}
	})
	return e
}
