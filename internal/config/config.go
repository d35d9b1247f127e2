// Package config loads the plugin configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/taylordaughtry/formie/internal/form"
)

const (
	defaultPluginName = "Formie"
	defaultCsrfParam  = "CRAFT_CSRF_TOKEN"
	defaultCsrfHeader = "X-CSRF-Token"
	defaultFormsPath  = "forms"
)

// Config holds plugin-wide settings.
type Config struct {
	PluginName           string                   `yaml:"pluginName"`
	AllowAdminChanges    *bool                    `yaml:"allowAdminChanges,omitempty"`
	EnableCsrfProtection *bool                    `yaml:"enableCsrfProtection,omitempty"`
	CsrfParam            string                   `yaml:"csrfParam"`
	CsrfHeader           string                   `yaml:"csrfHeader"`
	FormsPath            string                   `yaml:"formsPath"`
	TemplatesPath        string                   `yaml:"templatesPath,omitempty"`
	InstalledPlugins     []string                 `yaml:"installedPlugins,omitempty"`
	Captchas             map[string]CaptchaConfig `yaml:"captchas,omitempty"`
	Statuses             []StatusConfig           `yaml:"statuses,omitempty"`
	FormTemplates        []TemplateConfig         `yaml:"formTemplates,omitempty"`
	EmailTemplates       []TemplateConfig         `yaml:"emailTemplates,omitempty"`
}

type CaptchaConfig struct {
	Enabled bool `yaml:"enabled"`
	// MinTime is the minimum seconds a javascript captcha expects before submit.
	MinTime int `yaml:"minTime,omitempty"`
}

type StatusConfig struct {
	Handle      string `yaml:"handle"`
	Name        string `yaml:"name"`
	Color       string `yaml:"color"`
	Description string `yaml:"description,omitempty"`
	IsDefault   bool   `yaml:"default,omitempty"`
}

type TemplateConfig struct {
	Handle string `yaml:"handle"`
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
}

func boolPtr(b bool) *bool { return &b }

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		PluginName:           defaultPluginName,
		AllowAdminChanges:    boolPtr(true),
		EnableCsrfProtection: boolPtr(true),
		CsrfParam:            defaultCsrfParam,
		CsrfHeader:           defaultCsrfHeader,
		FormsPath:            defaultFormsPath,
		Captchas: map[string]CaptchaConfig{
			"honeypot":   {Enabled: true},
			"javascript": {Enabled: false, MinTime: 2},
			"duplicate":  {Enabled: false},
		},
		Statuses: []StatusConfig{
			{Handle: "new", Name: "New", Color: "green", IsDefault: true},
		},
		FormTemplates: []TemplateConfig{
			{Handle: "default", Name: "Default", Path: ""},
		},
	}
}

// Merge applies the set values of source onto c.
func (c *Config) Merge(source *Config) {
	if source.PluginName != "" {
		c.PluginName = source.PluginName
	}
	if source.AllowAdminChanges != nil {
		c.AllowAdminChanges = source.AllowAdminChanges
	}
	if source.EnableCsrfProtection != nil {
		c.EnableCsrfProtection = source.EnableCsrfProtection
	}
	if source.CsrfParam != "" {
		c.CsrfParam = source.CsrfParam
	}
	if source.CsrfHeader != "" {
		c.CsrfHeader = source.CsrfHeader
	}
	if source.FormsPath != "" {
		c.FormsPath = source.FormsPath
	}
	if source.TemplatesPath != "" {
		c.TemplatesPath = source.TemplatesPath
	}
	if len(source.InstalledPlugins) > 0 {
		c.InstalledPlugins = source.InstalledPlugins
	}
	for handle, cc := range source.Captchas {
		if c.Captchas == nil {
			c.Captchas = make(map[string]CaptchaConfig)
		}
		c.Captchas[handle] = cc
	}
	if len(source.Statuses) > 0 {
		c.Statuses = source.Statuses
	}
	if len(source.FormTemplates) > 0 {
		c.FormTemplates = source.FormTemplates
	}
	if len(source.EmailTemplates) > 0 {
		c.EmailTemplates = source.EmailTemplates
	}
}

// Load reads a YAML file and merges it over the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Merge(&loaded)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	defaults := 0
	for _, s := range c.Statuses {
		if s.Handle == "" {
			return errors.New("status without handle")
		}
		if s.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		return errors.New("more than one default status")
	}
	return nil
}

func (c *Config) AdminChangesAllowed() bool {
	return c.AllowAdminChanges == nil || *c.AllowAdminChanges
}

func (c *Config) CsrfEnabled() bool {
	return c.EnableCsrfProtection == nil || *c.EnableCsrfProtection
}

// CaptchaEnabled reports whether the captcha integration handle is
// globally enabled.
func (c *Config) CaptchaEnabled(handle string) bool {
	return c.Captchas[handle].Enabled
}

func (c *Config) StatusModels() []*form.Status {
	out := make([]*form.Status, 0, len(c.Statuses))
	for _, s := range c.Statuses {
		out = append(out, &form.Status{
			Handle: s.Handle, Name: s.Name, Color: s.Color, Description: s.Description, IsDefault: s.IsDefault,
		})
	}
	return out
}

func templateModels(in []TemplateConfig) []*form.Template {
	out := make([]*form.Template, 0, len(in))
	for _, t := range in {
		out = append(out, &form.Template{Handle: t.Handle, Name: t.Name, Path: t.Path})
	}
	return out
}

func (c *Config) FormTemplateModels() []*form.Template  { return templateModels(c.FormTemplates) }
func (c *Config) EmailTemplateModels() []*form.Template { return templateModels(c.EmailTemplates) }
