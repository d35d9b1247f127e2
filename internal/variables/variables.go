// Package variables is the facade templates use to reach the plugin: form
// and submission queries, rendering, position resolution and helpers.
package variables

import (
	"context"
	"fmt"

	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/position"
	"github.com/taylordaughtry/formie/internal/service"
)

type Variables struct {
	plugin *service.Plugin
}

func New(p *service.Plugin) *Variables {
	return &Variables{plugin: p}
}

func (v *Variables) Statuses() []*form.Status         { return v.plugin.Statuses.AllStatuses() }
func (v *Variables) Templates() []*form.Template      { return v.plugin.FormTemplates.AllTemplates() }
func (v *Variables) EmailTemplates() []*form.Template { return v.plugin.EmailTemplates.AllTemplates() }

func (v *Variables) Forms(ctx context.Context, criteria form.Criteria) ([]*form.Form, error) {
	return v.plugin.Forms.Forms(ctx, criteria)
}

func (v *Variables) Form(ctx context.Context, handle string) (*form.Form, error) {
	return v.plugin.Forms.Form(ctx, handle)
}

func (v *Variables) Submissions(ctx context.Context, criteria form.Criteria) ([]*form.Submission, error) {
	return v.plugin.Submissions.Submissions(ctx, criteria)
}

func (v *Variables) SetCurrentSubmission(f *form.Form, s *form.Submission) {
	f.SetCurrentSubmission(s)
}

// resolve accepts a *form.Form or a form handle. A nil reference yields a
// nil form and no error.
func (v *Variables) resolve(ctx context.Context, ref any) (*form.Form, error) {
	switch r := ref.(type) {
	case nil:
		return nil, nil
	case *form.Form:
		return r, nil
	case string:
		if r == "" {
			return nil, nil
		}
		return v.plugin.Forms.Form(ctx, r)
	default:
		return nil, fmt.Errorf("cannot use %T as a form", ref)
	}
}

// RenderForm renders a form given as *form.Form or handle. Rendering a nil
// reference yields empty output.
func (v *Variables) RenderForm(ctx context.Context, ref any, options any) (string, error) {
	f, err := v.resolve(ctx, ref)
	if err != nil || f == nil {
		return "", err
	}
	return v.plugin.Rendering.RenderForm(ctx, f, options)
}

// RenderPage renders page, or the form's first page when page is nil.
func (v *Variables) RenderPage(ctx context.Context, ref any, page *form.Page, options any) (string, error) {
	f, err := v.resolve(ctx, ref)
	if err != nil || f == nil {
		return "", err
	}
	return v.plugin.Rendering.RenderPage(ctx, f, page, options)
}

func (v *Variables) RenderField(ctx context.Context, ref any, field *form.Field, options any) (string, error) {
	f, err := v.resolve(ctx, ref)
	if err != nil || f == nil || field == nil {
		return "", err
	}
	return v.plugin.Rendering.RenderField(ctx, f, field, options)
}

// RegisterAssets records a form's assets without producing output.
func (v *Variables) RegisterAssets(ctx context.Context, ref any, options any) error {
	f, err := v.resolve(ctx, ref)
	if err != nil || f == nil {
		return err
	}
	return v.plugin.Rendering.RegisterAssets(ctx, f, options)
}

func (v *Variables) RenderFormCSS(ctx context.Context, ref any, options any) (string, error) {
	f, err := v.resolve(ctx, ref)
	if err != nil || f == nil {
		return "", err
	}
	return v.plugin.Rendering.RenderFormCSS(ctx, f, options)
}

func (v *Variables) RenderFormJS(ctx context.Context, ref any, options any) (string, error) {
	f, err := v.resolve(ctx, ref)
	if err != nil || f == nil {
		return "", err
	}
	return v.plugin.Rendering.RenderFormJS(ctx, f, options)
}

func (v *Variables) FieldOptions(field *form.Field, options any) map[string]any {
	return v.plugin.Fields.FieldOptions(field, options)
}

func (v *Variables) LabelPosition(field *form.Field, f *form.Form, subfield bool) (position.Position, error) {
	return LabelPosition(field, f, subfield)
}

func (v *Variables) InstructionsPosition(field *form.Field, f *form.Form) (position.Position, error) {
	return InstructionsPosition(field, f)
}

// ParsedValue renders an object template against a submission. Template
// errors are returned to the caller unchanged.
func (v *Variables) ParsedValue(ctx context.Context, value string, s *form.Submission, f *form.Form, n *form.Notification) (string, error) {
	return v.plugin.Evaluator.Evaluate(ctx, value, s, f, n)
}

func (v *Variables) PopulateFormValues(f *form.Form, values any, force bool) {
	v.plugin.Rendering.PopulateFormValues(f, values, force)
}

func (v *Variables) PluginName() string { return v.plugin.Settings.PluginName }

func (v *Variables) VisibleFields(row *form.Row) []*form.Field { return VisibleFields(row) }

func (v *Variables) SubmissionRelations(ctx context.Context, s *form.Submission) (map[string]any, error) {
	return v.plugin.Relations.SubmissionRelations(ctx, s)
}

func (v *Variables) FieldNamespaceForScript(field *form.Field) string {
	return v.plugin.FieldNamespaceForScript(field)
}
