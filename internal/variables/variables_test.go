package variables

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/service"
)

type fakeRendering struct {
	calls []string
}

func (r *fakeRendering) RenderForm(_ context.Context, f *form.Form, options any) (string, error) {
	r.calls = append(r.calls, fmt.Sprintf("form %s %v", f.Handle, options))
	return "<form>", nil
}

func (r *fakeRendering) RenderPage(_ context.Context, f *form.Form, page *form.Page, _ any) (string, error) {
	r.calls = append(r.calls, fmt.Sprintf("page %s %v", f.Handle, page == nil))
	return "<page>", nil
}

func (r *fakeRendering) RenderField(_ context.Context, f *form.Form, field *form.Field, _ any) (string, error) {
	r.calls = append(r.calls, "field "+field.Handle)
	return "<field>", nil
}

func (r *fakeRendering) RenderFormCSS(context.Context, *form.Form, any) (string, error) {
	return "css", nil
}

func (r *fakeRendering) RenderFormJS(context.Context, *form.Form, any) (string, error) {
	return "js", nil
}

func (r *fakeRendering) RegisterAssets(_ context.Context, f *form.Form, _ any) error {
	r.calls = append(r.calls, "assets "+f.Handle)
	return nil
}

func (r *fakeRendering) PopulateFormValues(f *form.Form, values any, force bool) {
	r.calls = append(r.calls, fmt.Sprintf("populate %s %v %v", f.Handle, values, force))
}

type fakeForms map[string]*form.Form

func (ff fakeForms) Forms(context.Context, form.Criteria) ([]*form.Form, error) { return nil, nil }

func (ff fakeForms) Form(_ context.Context, handle string) (*form.Form, error) {
	if f, ok := ff[handle]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("form %q: %w", handle, service.ErrNotFound)
}

func (ff fakeForms) FormByID(context.Context, int) (*form.Form, error) { return nil, service.ErrNotFound }

func newVariables(settings service.Settings) (*Variables, *fakeRendering) {
	r := &fakeRendering{}
	contact := &form.Form{Handle: "contact"}
	return New(&service.Plugin{
		Settings:  settings,
		Rendering: r,
		Forms:     fakeForms{"contact": contact},
	}), r
}

func TestRenderingAcceptsFormOrHandle(t *testing.T) {
	v, r := newVariables(service.Settings{})
	ctx := context.Background()

	out, err := v.RenderForm(ctx, "contact", map[string]any{"a": 1})
	require.NoError(t, err)
	require.Equal(t, "<form>", out)

	out, err = v.RenderForm(ctx, nil, nil)
	require.NoError(t, err)
	require.Empty(t, out)

	_, err = v.RenderForm(ctx, "missing", nil)
	require.ErrorIs(t, err, service.ErrNotFound)

	_, err = v.RenderForm(ctx, 42, nil)
	require.ErrorContains(t, err, "cannot use int as a form")

	f := &form.Form{Handle: "direct"}
	_, err = v.RenderPage(ctx, f, nil, nil)
	require.NoError(t, err)

	out, err = v.RenderField(ctx, f, nil, nil)
	require.NoError(t, err)
	require.Empty(t, out)

	require.NoError(t, v.RegisterAssets(ctx, "contact", nil))
	v.PopulateFormValues(f, map[string]any{"email": "x"}, true)

	require.Equal(t, []string{
		"form contact map[a:1]",
		"page direct true",
		"assets contact",
		"populate direct map[email:x] true",
	}, r.calls)
}

func TestSettingsNavItems(t *testing.T) {
	keys := func(items []NavItem) []string {
		var out []string
		for _, it := range items {
			out = append(out, it.Key)
		}
		return out
	}

	admin, _ := newVariables(service.Settings{AllowAdminChanges: true})
	items := admin.SettingsNavItems()
	require.Equal(t, "general", items[0].Key)
	require.Equal(t, "General Settings", items[0].Title)
	require.NotContains(t, keys(items), "migrations-heading")
	require.Equal(t, []string{"support-heading", "support"}, keys(items)[len(items)-2:])
	require.True(t, items[len(items)-2].Heading)

	restricted, _ := newVariables(service.Settings{InstalledPlugins: []string{"sprout-forms", "freeform"}})
	require.Equal(t, []string{
		"import-export",
		"integrations-heading", "address-providers", "elements", "email-marketing", "crm", "webhooks", "miscellaneous",
		"migrations-heading", "migrate/freeform", "migrate/sprout-forms",
		"support-heading", "support",
	}, keys(restricted.SettingsNavItems()))
}

func TestSettingsNavItemsDoesNotAliasBaseList(t *testing.T) {
	v, _ := newVariables(service.Settings{AllowAdminChanges: true, InstalledPlugins: []string{"freeform"}})
	first := v.SettingsNavItems()
	first[0].Title = "mutated"
	require.Equal(t, "General Settings", v.SettingsNavItems()[0].Title)
}

func TestPluginName(t *testing.T) {
	v, _ := newVariables(service.Settings{PluginName: "Forms"})
	require.Equal(t, "Forms", v.PluginName())
}
