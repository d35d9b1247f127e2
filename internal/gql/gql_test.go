package gql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/taylordaughtry/formie/internal/ctxlog"
	"github.com/taylordaughtry/formie/internal/executor"
	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/formstore"
	"github.com/taylordaughtry/formie/internal/language"
	"github.com/taylordaughtry/formie/internal/position"
	"github.com/taylordaughtry/formie/internal/schema"
	"github.com/taylordaughtry/formie/internal/service"
)

type fakeRendering struct {
	mu        sync.Mutex
	options   []any
	populated []any
}

func (r *fakeRendering) RenderForm(_ context.Context, f *form.Form, options any) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.options = append(r.options, options)
	return "<form data-handle=\"" + f.Handle + "\"></form>", nil
}

func (r *fakeRendering) RenderPage(context.Context, *form.Form, *form.Page, any) (string, error) {
	return "", nil
}

func (r *fakeRendering) RenderField(_ context.Context, _ *form.Form, field *form.Field, _ any) (string, error) {
	return "<input name=\"" + field.Handle + "\">", nil
}

func (r *fakeRendering) RenderFormCSS(context.Context, *form.Form, any) (string, error) { return "", nil }
func (r *fakeRendering) RenderFormJS(context.Context, *form.Form, any) (string, error)  { return "", nil }
func (r *fakeRendering) RegisterAssets(context.Context, *form.Form, any) error          { return nil }

func (r *fakeRendering) PopulateFormValues(_ *form.Form, values any, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.populated = append(r.populated, values)
}

type fakeCSRF struct{ enabled bool }

func (c fakeCSRF) Enabled() bool                      { return c.enabled }
func (c fakeCSRF) ParamName() string                  { return "CRAFT_CSRF_TOKEN" }
func (c fakeCSRF) CurrentToken(context.Context) string { return "tok-123" }

type fakeProvider struct {
	handle string
	vars   map[string]string
	err    error
}

func (p fakeProvider) Handle() string    { return p.handle }
func (p fakeProvider) GqlHandle() string { return p.handle + "Captcha" }
func (p fakeProvider) RefreshJSVariables(context.Context, *form.Form) (map[string]string, error) {
	return p.vars, p.err
}

type fakeIntegrations struct{ providers []service.CaptchaProvider }

func (i fakeIntegrations) EnabledCaptchasForForm(context.Context, *form.Form) []service.CaptchaProvider {
	return i.providers
}

func contactForm(t *testing.T) *form.Form {
	t.Helper()
	f := &form.Form{
		ID:      1,
		Handle:  "contact",
		Title:   "Contact",
		Enabled: true,
		Settings: form.Settings{
			DefaultLabelPosition:        position.AboveInput,
			DefaultInstructionsPosition: position.BelowInput,
		},
		Pages: []*form.Page{{
			ID:    "page1",
			Label: "Page 1",
			Rows: []*form.Row{
				{ID: "row1", Fields: []*form.Field{
					{ID: "f1", Handle: "yourName", Label: "Your name", Kind: form.KindName, LabelPosition: position.LeftInput},
				}},
				{ID: "row2", Fields: []*form.Field{
					{ID: "f2", Handle: "topic", Label: "Topic", Kind: form.KindDropdown, Options: []form.Option{
						{Label: "Sales", Value: "sales", IsDefault: true},
					}},
				}},
			},
		}},
	}
	require.NoError(t, f.Link())
	return f
}

type fixture struct {
	types     *Types
	rendering *fakeRendering
	plugin    *service.Plugin
}

func newFixture(t *testing.T, csrf fakeCSRF, providers ...service.CaptchaProvider) *fixture {
	t.Helper()
	f := contactForm(t)
	store, err := formstore.New([]*form.Form{f}, nil)
	require.NoError(t, err)
	rendering := &fakeRendering{}
	plugin := &service.Plugin{
		Rendering:    rendering,
		CSRF:         csrf,
		Integrations: fakeIntegrations{providers: providers},
		Forms:        store,
	}
	types := NewTypes(NewRegistry(), plugin, DefaultGenerators([]*form.Form{f}))
	return &fixture{types: types, rendering: rendering, plugin: plugin}
}

func TestFormInterfaceIsMaterializedOnce(t *testing.T) {
	var calls int
	var sawInterface bool
	types := NewTypes(NewRegistry(), &service.Plugin{}, Generators{
		Forms: GeneratorFunc(func(tt *Types) error {
			calls++
			sawInterface = tt.Registry().Entity(FormInterfaceName) != nil
			return nil
		}),
	})

	first := types.FormInterface()
	second := types.FormInterface()

	require.Same(t, first, second)
	require.Equal(t, 1, calls)
	require.True(t, sawInterface, "generator must see the registered interface")
	require.Same(t, first, types.Registry().Entity(FormInterfaceName))
}

func TestFormInterfaceConcurrentAccess(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	types := NewTypes(NewRegistry(), &service.Plugin{}, Generators{
		Forms: GeneratorFunc(func(*Types) error {
			mu.Lock()
			calls++
			mu.Unlock()
			return nil
		}),
	})

	const n = 16
	got := make([]*Entity, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			got[i] = types.FormInterface()
		}()
	}
	wg.Wait()

	for _, e := range got {
		require.Same(t, got[0], e)
	}
	require.Equal(t, 1, calls)
}

func TestFormInterfaceWaitsForGeneratedTypes(t *testing.T) {
	started := make(chan struct{})
	types := NewTypes(NewRegistry(), &service.Plugin{}, Generators{
		Forms: GeneratorFunc(func(tt *Types) error {
			close(started)
			time.Sleep(50 * time.Millisecond)
			tt.Registry().CreateEntity("contact_Form", func() *Entity {
				return &Entity{Kind: schema.TypeKindObject, Interfaces: []string{FormInterfaceName}}
			})
			return nil
		}),
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		types.FormInterface()
	}()
	<-started

	require.NotNil(t, types.FormInterface())
	require.NotNil(t, types.Registry().Entity("contact_Form"), "subtypes must be registered before the interface is returned")
	<-done
}

func TestGeneratorCanLookUpItsInterface(t *testing.T) {
	var inner *Entity
	types := NewTypes(NewRegistry(), &service.Plugin{}, Generators{
		Forms: GeneratorFunc(func(tt *Types) error {
			inner = tt.FormInterface()
			return nil
		}),
	})

	outer := types.FormInterface()
	require.Same(t, outer, inner)
}

func fieldNames(defs []*FieldDef) []string {
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

func TestFormFieldDefinitions(t *testing.T) {
	fx := newFixture(t, fakeCSRF{})
	defs, err := fx.types.FormFieldDefinitions()
	require.NoError(t, err)

	want := []string{
		"id", "uid", "title", "slug", "enabled", "dateCreated", "dateUpdated",
		"handle", "pages", "rows", "formFields", "settings", "configJson",
		"templateHtml", "csrfToken", "captchas",
	}
	if diff := cmp.Diff(want, fieldNames(defs)); diff != "" {
		t.Fatalf("field names mismatch (-want +got):\n%s", diff)
	}

	byName := map[string]*FieldDef{}
	for _, d := range defs {
		byName[d.Name] = d
	}
	require.Equal(t, "The form’s handle.", byName["handle"].Description)
	require.Equal(t, "[PageInterface]", renderRef(byName["pages"].Type))
	require.Equal(t, "FormieCsrfTokenType", renderRef(byName["csrfToken"].Type))
	require.Equal(t, "[FormieCaptchaType]", renderRef(byName["captchas"].Type))
	require.Len(t, byName["templateHtml"].Arguments, 2)
	require.Equal(t, "options", byName["templateHtml"].Arguments[0].Name)
	require.Equal(t, "populateFormValues", byName["templateHtml"].Arguments[1].Name)
	require.NotNil(t, byName["templateHtml"].Resolve)
	require.Nil(t, byName["handle"].Resolve)
}

func renderRef(ref *schema.TypeRef) string {
	switch {
	case ref.IsList():
		return "[" + renderRef(ref.OfType) + "]"
	case ref.IsNonNull():
		return renderRef(ref.OfType) + "!"
	}
	return ref.Named
}

func TestMergeFieldDefinitionsRejectsDuplicates(t *testing.T) {
	inherited, err := ElementFields()
	require.NoError(t, err)
	own := []*FieldDef{field("handle", "", named("String")), field("title", "", named("String"))}

	_, err = MergeFieldDefinitions(inherited, own)
	require.ErrorIs(t, err, ErrDuplicateField)
	require.Contains(t, err.Error(), "title")
}

func TestBuildReportsDuplicateFields(t *testing.T) {
	types := NewTypes(NewRegistry(), &service.Plugin{}, Generators{
		Forms: GeneratorFunc(func(tt *Types) error {
			tt.Registry().CreateEntity("broken_Form", func() *Entity {
				return &Entity{
					Kind:       schema.TypeKindObject,
					Interfaces: []string{FormInterfaceName},
					FieldsFunc: func() ([]*FieldDef, error) {
						return MergeFieldDefinitions(
							[]*FieldDef{field("handle", "", named("String"))},
							[]*FieldDef{field("handle", "", named("String"))},
						)
					},
				}
			})
			return nil
		}),
	})

	_, _, err := Build(types)
	require.ErrorIs(t, err, ErrDuplicateField)
}

func TestBuildReportsUnknownTypes(t *testing.T) {
	types := NewTypes(NewRegistry(), &service.Plugin{}, Generators{
		Fields: GeneratorFunc(func(tt *Types) error {
			tt.Registry().CreateEntity("Field_Dangling", func() *Entity {
				return &Entity{
					Kind:       schema.TypeKindObject,
					FieldsFunc: func() ([]*FieldDef, error) { return []*FieldDef{field("x", "", named("Missing"))}, nil },
				}
			})
			return nil
		}),
	})

	_, _, err := Build(types)
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestBuildReportsGeneratorErrors(t *testing.T) {
	bad := &form.Form{Handle: "not-valid", Title: "Bad"}
	types := NewTypes(NewRegistry(), &service.Plugin{}, DefaultGenerators([]*form.Form{bad}))

	_, _, err := Build(types)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a valid type name")
}

func TestBuildMaterializesFormTypes(t *testing.T) {
	fx := newFixture(t, fakeCSRF{})
	sch, _, err := Build(fx.types)
	require.NoError(t, err)

	require.Equal(t, QueryTypeName, sch.QueryType)
	require.True(t, sch.IsPossibleType(FormInterfaceName, "contact_Form"))
	require.True(t, sch.IsPossibleType(FieldInterfaceName, "Field_Dropdown"))
	require.True(t, sch.IsPossibleType(PageInterfaceName, PageTypeName))

	contact := sch.Types["contact_Form"]
	require.NotNil(t, contact)
	require.True(t, contact.Implements(FormInterfaceName))
	require.True(t, contact.FieldByName("templateHtml").Async)
	require.False(t, contact.FieldByName("handle").Async)

	require.NotNil(t, sch.Types["Field_Dropdown"].FieldByName("options"))
	require.Nil(t, sch.Types["Field_Email"].FieldByName("options"))
	require.NotNil(t, sch.Types["Field_Group"].FieldByName("nestedRows"))
	require.Equal(t, "This is the interface implemented by all forms.", sch.Types[FormInterfaceName].Description)
}

func TestTemplateHTMLDecodesJSONArguments(t *testing.T) {
	fx := newFixture(t, fakeCSRF{})
	f := contactForm(t)

	html, err := fx.types.resolveTemplateHTML(context.Background(), f, map[string]any{
		"options":            `{"a":1}`,
		"populateFormValues": `{"yourName":"Ann"}`,
	})
	require.NoError(t, err)
	require.Equal(t, `<form data-handle="contact"></form>`, html)
	require.Equal(t, []any{map[string]any{"a": float64(1)}}, fx.rendering.options)
	require.Equal(t, []any{map[string]any{"yourName": "Ann"}}, fx.rendering.populated)
}

func TestTemplateHTMLPassesPlainStringsThrough(t *testing.T) {
	fx := newFixture(t, fakeCSRF{})

	_, err := fx.types.resolveTemplateHTML(context.Background(), contactForm(t), map[string]any{
		"options":            "not json",
		"populateFormValues": "",
	})
	require.NoError(t, err)
	require.Equal(t, []any{"not json"}, fx.rendering.options)
	require.Empty(t, fx.rendering.populated)
}

func TestTemplateHTMLSkipsFalsyPopulateValues(t *testing.T) {
	for _, v := range []any{nil, "{}", "[]", "0", "false"} {
		fx := newFixture(t, fakeCSRF{})
		_, err := fx.types.resolveTemplateHTML(context.Background(), contactForm(t), map[string]any{"populateFormValues": v})
		require.NoError(t, err)
		require.Empty(t, fx.rendering.populated, "value %v", v)
		require.Equal(t, []any{nil}, fx.rendering.options)
	}
}

func TestCsrfToken(t *testing.T) {
	disabled := newFixture(t, fakeCSRF{enabled: false})
	v, err := disabled.types.resolveCsrfToken(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Nil(t, v)

	enabled := newFixture(t, fakeCSRF{enabled: true})
	v, err = enabled.types.resolveCsrfToken(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"name": "CRAFT_CSRF_TOKEN", "value": "tok-123"}, v)
}

func TestCaptchasSkipEmptyAndIsolateFailures(t *testing.T) {
	fx := newFixture(t, fakeCSRF{},
		fakeProvider{handle: "javascript", vars: map[string]string{"sessionKey": "__JSCHECK_1", "value": "abc"}},
		fakeProvider{handle: "honeypot"},
		fakeProvider{handle: "broken", err: errors.New("boom")},
		fakeProvider{handle: "duplicate", vars: map[string]string{"sessionKey": "__DUP_1"}},
	)
	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	v, err := fx.types.resolveCaptchas(ctx, contactForm(t), nil)
	require.NoError(t, err)
	require.Equal(t, []any{
		map[string]any{"handle": "javascriptCaptcha", "name": "__JSCHECK_1", "value": "abc"},
		map[string]any{"handle": "duplicateCaptcha", "name": "__DUP_1", "value": ""},
	}, v)
	require.Contains(t, buf.String(), "captcha refresh failed")
	require.Contains(t, buf.String(), "provider=broken")
	require.Contains(t, buf.String(), "form=contact")
}

func TestCaptchasWithoutProvidersIsEmptyList(t *testing.T) {
	fx := newFixture(t, fakeCSRF{})
	v, err := fx.types.resolveCaptchas(context.Background(), contactForm(t), nil)
	require.NoError(t, err)
	require.Equal(t, []any{}, v)
}

func execute(t *testing.T, fx *fixture, query string, vars map[string]any) *executor.ExecutionResult {
	t.Helper()
	sch, rt, err := Build(fx.types)
	require.NoError(t, err)
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	return executor.NewExecutor(rt, sch).ExecuteRequest(context.Background(), doc, "", vars, nil)
}

func TestQueryFormByHandle(t *testing.T) {
	fx := newFixture(t, fakeCSRF{enabled: true})
	res := execute(t, fx, `query($o: String) {
		formieForm(handle: "contact") {
			__typename
			id
			handle
			settings { defaultLabelPosition }
			csrfToken { name value }
			templateHtml(options: $o)
			formFields {
				__typename
				handle
				resolvedLabelPosition
				resolvedInstructionsPosition
			}
		}
	}`, map[string]any{"o": `{"formClass":"x"}`})

	require.Empty(t, res.Errors)
	want := map[string]any{
		"formieForm": map[string]any{
			"__typename":   "contact_Form",
			"id":           "1",
			"handle":       "contact",
			"settings":     map[string]any{"defaultLabelPosition": "above-input"},
			"csrfToken":    map[string]any{"name": "CRAFT_CSRF_TOKEN", "value": "tok-123"},
			"templateHtml": `<form data-handle="contact"></form>`,
			"formFields": []any{
				map[string]any{
					"__typename":                   "Field_Name",
					"handle":                       "yourName",
					"resolvedLabelPosition":        "above-input",
					"resolvedInstructionsPosition": "below-input",
				},
				map[string]any{
					"__typename":                   "Field_Dropdown",
					"handle":                       "topic",
					"resolvedLabelPosition":        "above-input",
					"resolvedInstructionsPosition": "below-input",
				},
			},
		},
	}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryUnknownFormIsNull(t *testing.T) {
	fx := newFixture(t, fakeCSRF{})
	res := execute(t, fx, `{ formieForm(handle: "missing") { handle } }`, nil)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"formieForm": nil}, res.Data)
}

func TestQueryFormsWithOptions(t *testing.T) {
	fx := newFixture(t, fakeCSRF{})
	res := execute(t, fx, `{
		formieForms(handle: ["contact"]) {
			handle
			formFields { __typename ... on Field_Dropdown { options { label value isDefault } } }
		}
	}`, nil)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{
		"formieForms": []any{
			map[string]any{
				"handle": "contact",
				"formFields": []any{
					map[string]any{"__typename": "Field_Name"},
					map[string]any{
						"__typename": "Field_Dropdown",
						"options": []any{
							map[string]any{"label": "Sales", "value": "sales", "isDefault": true},
						},
					},
				},
			},
		},
	}, res.Data)
}

func TestBatchResolveRunsGroupsInOrder(t *testing.T) {
	var calls []string
	record := func(name string) ResolveFunc {
		return func(_ context.Context, source any, _ map[string]any) (any, error) {
			calls = append(calls, name+":"+source.(string))
			return name, nil
		}
	}
	rt := &Runtime{resolvers: map[string]map[string]ResolveFunc{
		"contact_Form": {"templateHtml": record("html"), "captchas": record("captchas")},
	}}

	tasks := []executor.AsyncResolveTask{
		{ObjectType: "contact_Form", Field: "templateHtml", Source: "a"},
		{ObjectType: "contact_Form", Field: "captchas", Source: "a"},
		{ObjectType: "contact_Form", Field: "templateHtml", Source: "b"},
	}
	results := rt.BatchResolveAsync(context.Background(), tasks)

	require.Equal(t, []string{"html:a", "html:b", "captchas:a"}, calls)
	require.Equal(t, []executor.AsyncResolveResult{{Value: "html"}, {Value: "captchas"}, {Value: "html"}}, results)
}
