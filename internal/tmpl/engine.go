// Package tmpl wraps pongo2 for form markup and object templates.
package tmpl

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

type Option func(*config)

type config struct {
	baseDir   string
	templates fs.FS
	extension string
	globals   map[string]any
}

// WithBaseDir loads templates from a directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from files.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension sets the extension appended to template names that lack it.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithGlobals seeds values visible to every template.
func WithGlobals(data map[string]any) Option {
	return func(cfg *config) {
		if cfg.globals == nil {
			cfg.globals = make(map[string]any, len(data))
		}
		for k, v := range data {
			cfg.globals[strings.TrimSpace(k)] = v
		}
	}
}

// Engine renders named templates and template strings.
type Engine struct {
	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
	ext       string
}

// noFiles backs engines that only render strings.
var noFiles embed.FS

func New(options ...Option) (*Engine, error) {
	cfg := &config{extension: ".html"}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("tmpl: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}
	if len(loaders) == 0 {
		loaders = append(loaders, pongo2.NewFSLoader(noFiles))
	}

	e := &Engine{
		set:       pongo2.NewSet("formie", loaders...),
		templates: make(map[string]*pongo2.Template),
		ext:       cfg.extension,
	}
	if len(cfg.globals) > 0 {
		if e.set.Globals == nil {
			e.set.Globals = make(pongo2.Context)
		}
		e.set.Globals.Update(pongo2.Context(cfg.globals))
	}
	return e, nil
}

// Render executes the named template with data.
func (e *Engine) Render(name string, data map[string]any) (string, error) {
	path := name
	if !strings.HasSuffix(path, e.ext) {
		path += e.ext
	}
	t, err := e.template(path)
	if err != nil {
		return "", err
	}
	return e.execute(path, t, data)
}

// RenderString parses and executes source with data.
func (e *Engine) RenderString(source string, data map[string]any) (string, error) {
	t, err := e.set.FromString(source)
	if err != nil {
		return "", classify("string", err)
	}
	return e.execute("string", t, data)
}

func (e *Engine) execute(name string, t *pongo2.Template, data map[string]any) (string, error) {
	var buf bytes.Buffer
	// Executing may render further templates through data, so no lock is
	// held here.
	if err := t.ExecuteWriter(pongo2.Context(data), &buf); err != nil {
		return "", classify(name, err)
	}
	return buf.String(), nil
}

func (e *Engine) template(path string) (*pongo2.Template, error) {
	e.mu.RLock()
	t, ok := e.templates[path]
	e.mu.RUnlock()
	if ok {
		return t, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.templates[path]; ok {
		return t, nil
	}
	t, err := e.set.FromFile(path)
	if err != nil {
		return nil, classify(path, err)
	}
	e.templates[path] = t
	return t, nil
}

// RegisterFilter installs fn as a pongo2 filter. Filters are process wide,
// so registering an existing name replaces it.
func (e *Engine) RegisterFilter(name string, fn func(in any, param any) (any, error)) error {
	if strings.TrimSpace(name) == "" || fn == nil {
		return errors.New("tmpl: filter name and function required")
	}
	filter := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var p any
		if param != nil {
			p = param.Interface()
		}
		out, err := fn(in.Interface(), p)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(out), nil
	}
	if pongo2.FilterExists(name) {
		return pongo2.ReplaceFilter(name, filter)
	}
	return pongo2.RegisterFilter(name, filter)
}
