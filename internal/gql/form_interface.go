package gql

import (
	"context"
	"fmt"

	"github.com/taylordaughtry/formie/internal/ctxlog"
	"github.com/taylordaughtry/formie/internal/events"
	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/schema"
)

// FormInterface returns the interface implemented by every form type. The
// first call registers it and then runs the form generator, so generated
// types can look the interface up while they are being created. Later calls
// return the same entity without generating again.
func (t *Types) FormInterface() *Entity {
	element := t.ElementInterface()
	return t.materialize(FormInterfaceName, func() *Entity {
		return &Entity{
			Kind:         schema.TypeKindInterface,
			Description:  "This is the interface implemented by all forms.",
			Interfaces:   []string{element.Name},
			FieldsFunc:   t.FormFieldDefinitions,
			TypeResolver: concreteTypeName,
		}
	}, func(t *Types) { t.generate(t.gens.Forms) })
}

// FormFieldDefinitions returns the inherited element fields followed by the
// form's own fields.
func (t *Types) FormFieldDefinitions() ([]*FieldDef, error) {
	inherited, err := ElementFields()
	if err != nil {
		return nil, err
	}
	return MergeFieldDefinitions(inherited, t.formFields())
}

func (t *Types) formFields() []*FieldDef {
	return []*FieldDef{
		field("handle", "The form’s handle.", named("String")),
		field("pages", "The form’s pages.", listOf(t.PageInterface().Name)),
		field("rows", "The form’s rows.", listOf(t.RowInterface().Name)),
		field("formFields", "The form’s fields.", listOf(t.FieldInterface().Name)),
		field("settings", "The form’s settings.", named(t.FormSettingsType().Name)),
		field("configJson", "The form’s config as JSON.", named("String")),
		resolved("templateHtml", "The form’s rendered HTML.", named("String"), t.resolveTemplateHTML,
			schema.NewInputValue("options", "The form template HTML will be rendered with these JSON serialized options.", named("String")),
			schema.NewInputValue("populateFormValues", "The form field values will be populated with these JSON serialized options.", named("String")),
		),
		resolved("csrfToken", "A CSRF token (name and value)", named(t.CsrfTokenType().Name), t.resolveCsrfToken),
		resolved("captchas", "A list of captcha values (name and value) to assist with spam protection", listOf(t.CaptchaValueType().Name), t.resolveCaptchas),
	}
}

func sourceForm(source any, field string) (*form.Form, error) {
	f, ok := source.(*form.Form)
	if !ok || f == nil {
		return nil, fmt.Errorf("gql: %s: expected a form, got %T", field, source)
	}
	return f, nil
}

func (t *Types) resolveTemplateHTML(ctx context.Context, source any, args map[string]any) (any, error) {
	f, err := sourceForm(source, "templateHtml")
	if err != nil {
		return nil, err
	}
	options := form.DecodeIfJSON(args["options"])
	if values := form.DecodeIfJSON(args["populateFormValues"]); truthy(values) {
		t.plugin.Rendering.PopulateFormValues(f, values, false)
	}
	return t.plugin.Rendering.RenderForm(ctx, f, options)
}

func (t *Types) resolveCsrfToken(ctx context.Context, _ any, _ map[string]any) (any, error) {
	csrf := t.plugin.CSRF
	if !csrf.Enabled() {
		return nil, nil
	}
	return map[string]any{
		"name":  csrf.ParamName(),
		"value": csrf.CurrentToken(ctx),
	}, nil
}

// resolveCaptchas lists the refreshed variables of each captcha enabled for
// the form. Providers without variables are left out, and a provider that
// fails is logged and skipped so the rest still resolve.
func (t *Types) resolveCaptchas(ctx context.Context, source any, _ map[string]any) (any, error) {
	f, err := sourceForm(source, "captchas")
	if err != nil {
		return nil, err
	}
	values := []any{}
	for _, provider := range t.plugin.Integrations.EnabledCaptchasForForm(ctx, f) {
		var vars map[string]string
		err := events.Call(ctx, "captcha", "refresh", f.Handle, func() error {
			var err error
			vars, err = provider.RefreshJSVariables(ctx, f)
			return err
		})
		if err != nil {
			ctxlog.FromContext(ctx).WarnContext(ctx, "captcha refresh failed",
				"provider", provider.Handle(), "form", f.Handle, "error", err)
			continue
		}
		if len(vars) == 0 {
			continue
		}
		values = append(values, map[string]any{
			"handle": provider.GqlHandle(),
			"name":   vars["sessionKey"],
			"value":  vars["value"],
		})
	}
	return values, nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != "" && x != "0"
	case float64:
		return x != 0
	case int:
		return x != 0
	case map[string]any:
		return len(x) > 0
	case []any:
		return len(x) > 0
	}
	return true
}
