package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/taylordaughtry/formie/internal/ctxlog"
	"github.com/taylordaughtry/formie/internal/eventbus"
	"github.com/taylordaughtry/formie/internal/events"
	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/service"
	"github.com/taylordaughtry/formie/internal/tmpl"
)

//go:embed templates/*.html
var pageFiles embed.FS

// FormRenderer is the part of the template facade a form page needs.
type FormRenderer interface {
	Form(ctx context.Context, handle string) (*form.Form, error)
	RenderForm(ctx context.Context, ref any, options any) (string, error)
	RenderFormCSS(ctx context.Context, ref any, options any) (string, error)
	RenderFormJS(ctx context.Context, ref any, options any) (string, error)
}

// FormPage serves GET /forms/{handle}: a standalone HTML page with the
// form's stylesheet, markup and script. An options query parameter holding
// JSON is decoded and passed to the renderer.
type FormPage struct {
	forms  FormRenderer
	engine *tmpl.Engine
	opt    Options
}

func NewFormPage(forms FormRenderer, opts ...Option) (*FormPage, error) {
	files, err := fs.Sub(pageFiles, "templates")
	if err != nil {
		return nil, err
	}
	engine, err := tmpl.New(tmpl.WithFS(files))
	if err != nil {
		return nil, err
	}
	op := Options{Timeout: 10 * time.Second}
	for _, f := range opts {
		f(&op)
	}
	return &FormPage{forms: forms, engine: engine, opt: op}, nil
}

func (h *FormPage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r, h.opt)
	defer cancel()

	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r, Route: RouteFormPage})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Route: RouteFormPage, Status: status, Duration: time.Since(start)})
	}()

	if r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		http.Error(w, "method not allowed", status)
		return
	}
	handle := r.PathValue("handle")
	if handle == "" {
		handle = strings.Trim(strings.TrimPrefix(r.URL.Path, "/forms/"), "/")
	}

	var options any
	if raw := r.URL.Query().Get("options"); raw != "" {
		options = form.DecodeIfJSON(raw)
	}
	page, err := h.render(ctx, handle, options)
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
		http.Error(w, "form not found", status)
		return
	case err != nil:
		status = http.StatusInternalServerError
		ctxlog.FromContext(ctx).Error("render form page", "form", handle, "error", err)
		http.Error(w, "failed to render form", status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(page))
}

func (h *FormPage) render(ctx context.Context, handle string, options any) (string, error) {
	f, err := h.forms.Form(ctx, handle)
	if err != nil {
		return "", err
	}
	css, err := h.forms.RenderFormCSS(ctx, f, options)
	if err != nil {
		return "", err
	}
	markup, err := h.forms.RenderForm(ctx, f, withoutAssets(options))
	if err != nil {
		return "", err
	}
	js, err := h.forms.RenderFormJS(ctx, f, options)
	if err != nil {
		return "", err
	}
	out, err := h.engine.Render("page", map[string]any{
		"title": f.Title,
		"css":   css,
		"form":  markup,
		"js":    js,
	})
	if err != nil {
		return "", fmt.Errorf("form page %s: %w", handle, err)
	}
	return out, nil
}

// withoutAssets stops the form markup from inlining the stylesheet and
// script the page already includes.
func withoutAssets(options any) map[string]any {
	out := map[string]any{}
	if m, ok := options.(map[string]any); ok {
		for k, v := range m {
			out[k] = v
		}
	}
	out["renderCss"] = false
	out["renderJs"] = false
	return out
}
