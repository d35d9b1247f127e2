package variables

import (
	"context"
	"fmt"

	"github.com/taylordaughtry/formie/internal/form"
)

// Scope is the facade bound to one render, as templates see it under the
// name formie. Its methods carry no context argument so templates can call
// them directly, e.g. {{ formie.RenderForm("contact")|safe }}. Trailing
// options arguments may be left out.
type Scope struct {
	ctx  context.Context
	vars *Variables
}

// Bind returns the facade for renders running under ctx.
func (v *Variables) Bind(ctx context.Context) *Scope {
	return &Scope{ctx: ctx, vars: v}
}

func firstOption(options []any) any {
	if len(options) == 0 {
		return nil
	}
	return options[0]
}

func (s *Scope) Statuses() []*form.Status         { return s.vars.Statuses() }
func (s *Scope) Templates() []*form.Template      { return s.vars.Templates() }
func (s *Scope) EmailTemplates() []*form.Template { return s.vars.EmailTemplates() }
func (s *Scope) PluginName() string               { return s.vars.PluginName() }
func (s *Scope) SettingsNavItems() []NavItem      { return s.vars.SettingsNavItems() }

// Forms returns the forms with the given handles, or every form when none
// are given.
func (s *Scope) Forms(handles ...string) ([]*form.Form, error) {
	return s.vars.Forms(s.ctx, form.Criteria{Handles: handles})
}

func (s *Scope) Form(handle string) (*form.Form, error) {
	return s.vars.Form(s.ctx, handle)
}

// Submissions returns the submissions of the form with formHandle.
func (s *Scope) Submissions(formHandle string) ([]*form.Submission, error) {
	return s.vars.Submissions(s.ctx, form.Criteria{FormHandle: formHandle})
}

func (s *Scope) RenderForm(ref any, options ...any) (string, error) {
	return s.vars.RenderForm(s.ctx, ref, firstOption(options))
}

// RenderPage renders the form's first page.
func (s *Scope) RenderPage(ref any, options ...any) (string, error) {
	return s.vars.RenderPage(s.ctx, ref, nil, firstOption(options))
}

func (s *Scope) RenderField(ref any, field *form.Field, options ...any) (string, error) {
	return s.vars.RenderField(s.ctx, ref, field, firstOption(options))
}

// RegisterAssets records the form's assets and renders as nothing.
func (s *Scope) RegisterAssets(ref any, options ...any) (string, error) {
	return "", s.vars.RegisterAssets(s.ctx, ref, firstOption(options))
}

func (s *Scope) RenderFormCSS(ref any, options ...any) (string, error) {
	return s.vars.RenderFormCSS(s.ctx, ref, firstOption(options))
}

func (s *Scope) RenderFormJS(ref any, options ...any) (string, error) {
	return s.vars.RenderFormJS(s.ctx, ref, firstOption(options))
}

func (s *Scope) FieldOptions(field *form.Field, options ...any) map[string]any {
	return s.vars.FieldOptions(field, firstOption(options))
}

func (s *Scope) LabelPosition(field *form.Field, f *form.Form) (string, error) {
	p, err := s.vars.LabelPosition(field, f, false)
	if err != nil {
		return "", err
	}
	return string(p.Kind()), nil
}

func (s *Scope) SubfieldLabelPosition(field *form.Field, f *form.Form) (string, error) {
	p, err := s.vars.LabelPosition(field, f, true)
	if err != nil {
		return "", err
	}
	return string(p.Kind()), nil
}

func (s *Scope) InstructionsPosition(field *form.Field, f *form.Form) (string, error) {
	p, err := s.vars.InstructionsPosition(field, f)
	if err != nil {
		return "", err
	}
	return string(p.Kind()), nil
}

// ParsedValue renders value as an object template. refs may hold a
// submission, a form or form handle, and a notification, in any order.
func (s *Scope) ParsedValue(value string, refs ...any) (string, error) {
	var (
		sub *form.Submission
		f   *form.Form
		n   *form.Notification
	)
	for _, ref := range refs {
		switch r := ref.(type) {
		case nil:
		case *form.Submission:
			sub = r
		case *form.Notification:
			n = r
		default:
			resolved, err := s.vars.resolve(s.ctx, r)
			if err != nil {
				return "", fmt.Errorf("parsed value: %w", err)
			}
			f = resolved
		}
	}
	return s.vars.ParsedValue(s.ctx, value, sub, f, n)
}

func (s *Scope) SubmissionRelations(sub *form.Submission) (map[string]any, error) {
	return s.vars.SubmissionRelations(s.ctx, sub)
}

func (s *Scope) FieldNamespaceForScript(field *form.Field) string {
	return s.vars.FieldNamespaceForScript(field)
}

func (s *Scope) VisibleFields(row *form.Row) []*form.Field {
	return VisibleFields(row)
}
