// Package rendering renders forms, pages and fields to HTML with pongo2
// templates, and implements the field options service.
package rendering

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/taylordaughtry/formie/internal/ctxlog"
	"github.com/taylordaughtry/formie/internal/events"
	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/service"
	"github.com/taylordaughtry/formie/internal/tmpl"
	"github.com/taylordaughtry/formie/internal/variables"
)

type Option func(*config)

type config struct {
	templates fs.FS
}

// WithTemplatesFS replaces the built-in templates.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithTemplatesDir loads templates from a directory on disk. Templates
// missing from path fall back to the built-in ones.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path != "" {
			cfg.templates = overlay{top: os.DirFS(path), base: cfg.templates}
		}
	}
}

// overlay serves files from top, falling back to base.
type overlay struct {
	top, base fs.FS
}

func (o overlay) Open(name string) (fs.File, error) {
	f, err := o.top.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return o.base.Open(name)
	}
	return f, err
}

type Renderer struct {
	engine *tmpl.Engine
	csrf   service.CSRF
	policy *bluemonday.Policy
	vars   *variables.Variables
}

var (
	_ service.Rendering = (*Renderer)(nil)
	_ service.Fields    = (*Renderer)(nil)
)

// New builds a renderer. csrf may be nil, in which case forms carry no
// token input.
func New(csrf service.CSRF, options ...Option) (*Renderer, error) {
	cfg := config{templates: TemplatesFS()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	engine, err := tmpl.New(tmpl.WithFS(cfg.templates), tmpl.WithExtension(".html"))
	if err != nil {
		return nil, fmt.Errorf("rendering: configure templates: %w", err)
	}
	r := &Renderer{
		engine: engine,
		csrf:   csrf,
		policy: bluemonday.UGCPolicy(),
	}
	if err := engine.RegisterFilter("sanitize", r.sanitizeFilter); err != nil {
		return nil, fmt.Errorf("rendering: register sanitize filter: %w", err)
	}
	return r, nil
}

// SetVariables exposes v to every template as formie, bound to the
// context of the render.
func (r *Renderer) SetVariables(v *variables.Variables) {
	r.vars = v
}

// render executes the named template with data and the formie facade.
func (r *Renderer) render(ctx context.Context, name string, data map[string]any) (string, error) {
	if r.vars != nil {
		data["formie"] = r.vars.Bind(ctx)
	}
	return r.engine.Render(name, data)
}

func (r *Renderer) sanitizeFilter(in any, _ any) (any, error) {
	return r.policy.Sanitize(stringValue(in)), nil
}

// optionsMap returns options when the caller passed a decoded JSON object.
func optionsMap(options any) map[string]any {
	if m, ok := options.(map[string]any); ok {
		return m
	}
	return nil
}

func enabled(options map[string]any, key string) bool {
	v, ok := options[key].(bool)
	return !ok || v
}

func (r *Renderer) RenderForm(ctx context.Context, f *form.Form, options any) (string, error) {
	var out string
	err := events.Call(ctx, "rendering", "renderForm", f.Handle, func() error {
		var err error
		out, err = r.renderForm(ctx, f, optionsMap(options))
		return err
	})
	if err != nil {
		return "", err
	}
	ctxlog.FromContext(ctx).Debug("rendered form", "form", f.Handle, "bytes", len(out))
	return out, nil
}

func (r *Renderer) renderForm(ctx context.Context, f *form.Form, options map[string]any) (string, error) {
	view := formView{
		ID:           "fui-" + f.Handle,
		Handle:       f.Handle,
		Title:        f.Title,
		DisplayTitle: f.Settings.DisplayFormTitle,
		Method:       "post",
		ShowTabs:     f.Settings.DisplayPageTabs && len(f.Pages) > 1,
	}
	if r.csrf != nil && r.csrf.Enabled() {
		view.CSRFName = r.csrf.ParamName()
		view.CSRFValue = r.csrf.CurrentToken(ctx)
	}
	if id, ok := options["formId"].(string); ok && id != "" {
		view.ID = id
	}
	if class, ok := options["formClass"].(string); ok {
		view.Class = class
	}
	for _, p := range f.Pages {
		pv, err := r.buildPage(ctx, f, p, options)
		if err != nil {
			return "", err
		}
		view.Pages = append(view.Pages, pv)
		view.Hidden = append(view.Hidden, hiddenFields(f, p.Rows)...)
	}

	var b strings.Builder
	if !registered(ctx, f.Handle) && enabled(options, "renderCss") {
		css, err := r.renderFormCSS(ctx, f)
		if err != nil {
			return "", err
		}
		b.WriteString(css)
	}
	html, err := r.render(ctx, "form", map[string]any{"form": view})
	if err != nil {
		return "", fmt.Errorf("render form %s: %w", f.Handle, err)
	}
	b.WriteString(html)
	if !registered(ctx, f.Handle) && enabled(options, "renderJs") {
		js, err := r.renderFormJS(ctx, f)
		if err != nil {
			return "", err
		}
		b.WriteString(js)
	}
	return b.String(), nil
}

func (r *Renderer) buildPage(ctx context.Context, f *form.Form, p *form.Page, options map[string]any) (pageView, error) {
	rows, err := r.renderRows(ctx, f, p.Rows, options)
	if err != nil {
		return pageView{}, err
	}
	submit := p.Submit
	if submit == "" {
		submit = "Submit"
	}
	return pageView{
		ID:        p.ID,
		Label:     p.Label,
		ShowTitle: f.Settings.DisplayCurrentPageTitle,
		Submit:    submit,
		Rows:      rows,
	}, nil
}

func (r *Renderer) renderRows(ctx context.Context, f *form.Form, rows []*form.Row, options map[string]any) (string, error) {
	views, err := r.buildRows(ctx, f, rows, options)
	if err != nil {
		return "", err
	}
	out, err := r.render(ctx, "rows", map[string]any{"rows": views})
	if err != nil {
		return "", fmt.Errorf("render rows of %s: %w", f.Handle, err)
	}
	return out, nil
}

// RenderPage renders page, or the first page when page is nil.
func (r *Renderer) RenderPage(ctx context.Context, f *form.Form, page *form.Page, options any) (string, error) {
	if page == nil {
		if len(f.Pages) == 0 {
			return "", nil
		}
		page = f.Pages[0]
	}
	var out string
	err := events.Call(ctx, "rendering", "renderPage", f.Handle, func() error {
		pv, err := r.buildPage(ctx, f, page, optionsMap(options))
		if err != nil {
			return err
		}
		out, err = r.render(ctx, "page", map[string]any{"page": pv})
		return err
	})
	return out, err
}

func (r *Renderer) RenderField(ctx context.Context, f *form.Form, field *form.Field, options any) (string, error) {
	var out string
	err := events.Call(ctx, "rendering", "renderField", f.Handle, func() error {
		fv, err := r.buildField(ctx, f, field, optionsMap(options))
		if err != nil {
			return err
		}
		out, err = r.render(ctx, "field", map[string]any{"field": fv})
		return err
	})
	return out, err
}

func (r *Renderer) RenderFormCSS(ctx context.Context, f *form.Form, options any) (string, error) {
	var out string
	err := events.Call(ctx, "rendering", "renderFormCss", f.Handle, func() error {
		var err error
		out, err = r.renderFormCSS(ctx, f)
		return err
	})
	return out, err
}

func (r *Renderer) renderFormCSS(ctx context.Context, f *form.Form) (string, error) {
	return r.render(ctx, "css", map[string]any{
		"handle": f.Handle,
		"css":    asset(StylesheetName),
	})
}

func (r *Renderer) RenderFormJS(ctx context.Context, f *form.Form, options any) (string, error) {
	var out string
	err := events.Call(ctx, "rendering", "renderFormJs", f.Handle, func() error {
		var err error
		out, err = r.renderFormJS(ctx, f)
		return err
	})
	return out, err
}

func (r *Renderer) renderFormJS(ctx context.Context, f *form.Form) (string, error) {
	return r.render(ctx, "js", map[string]any{
		"handle": f.Handle,
		"js":     asset(ScriptName),
		"config": f.ConfigJSON(),
	})
}

// RegisterAssets marks the form's CSS and JS as output elsewhere on the
// page, so later RenderForm calls for the same page leave them out. The
// page is the one carried by ctx; see NewPageContext.
func (r *Renderer) RegisterAssets(ctx context.Context, f *form.Form, options any) error {
	return events.Call(ctx, "rendering", "registerAssets", f.Handle, func() error {
		p, ok := ctx.Value(pageKey{}).(*page)
		if !ok {
			return fmt.Errorf("rendering: register assets of %s: %w", f.Handle, ErrNoPage)
		}
		p.mu.Lock()
		p.assets[f.Handle] = true
		p.mu.Unlock()
		return nil
	})
}

// PopulateFormValues applies values given as a map of handles. Other value
// shapes, such as undecodable strings, carry nothing to populate.
func (r *Renderer) PopulateFormValues(f *form.Form, values any, force bool) {
	switch v := values.(type) {
	case map[string]any:
		f.PopulateValues(v, force)
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
		f.PopulateValues(m, force)
	}
}

// FieldOptions returns the per-field render options found under
// options.fields.<handle>.
func (r *Renderer) FieldOptions(field *form.Field, options any) map[string]any {
	out := map[string]any{}
	fields, ok := optionsMap(options)["fields"].(map[string]any)
	if !ok {
		return out
	}
	if m, ok := fields[field.Handle].(map[string]any); ok {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
