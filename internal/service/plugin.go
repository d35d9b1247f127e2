package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taylordaughtry/formie/internal/form"
)

var ErrNotFound = errors.New("not found")

type Settings struct {
	PluginName        string
	AllowAdminChanges bool
	InstalledPlugins  []string
}

// Plugin carries the services a request needs. It is built once at startup
// and passed explicitly to the schema and the template facade.
type Plugin struct {
	Settings       Settings
	Rendering      Rendering
	Fields         Fields
	Integrations   Integrations
	Relations      Relations
	CSRF           CSRF
	Forms          Forms
	Submissions    Submissions
	Statuses       Statuses
	FormTemplates  Templates
	EmailTemplates Templates
	Evaluator      ValueEvaluator
}

// Validate reports the first missing service.
func (p *Plugin) Validate() error {
	required := []struct {
		name string
		set  bool
	}{
		{"rendering", p.Rendering != nil},
		{"fields", p.Fields != nil},
		{"integrations", p.Integrations != nil},
		{"relations", p.Relations != nil},
		{"csrf", p.CSRF != nil},
		{"forms", p.Forms != nil},
		{"submissions", p.Submissions != nil},
		{"statuses", p.Statuses != nil},
		{"form templates", p.FormTemplates != nil},
		{"email templates", p.EmailTemplates != nil},
		{"evaluator", p.Evaluator != nil},
	}
	for _, r := range required {
		if !r.set {
			return fmt.Errorf("plugin: %s service is not configured", r.name)
		}
	}
	return nil
}

// IsPluginInstalledAndEnabled reports whether a sibling plugin is present.
func (p *Plugin) IsPluginInstalledAndEnabled(handle string) bool {
	for _, h := range p.Settings.InstalledPlugins {
		if h == handle {
			return true
		}
	}
	return false
}

// FieldNamespaceForScript is the input name prefix the front-end script
// uses to address field, e.g. fields[company][rows][__ROW__][fields][name]
// for a field inside a repeater.
func (p *Plugin) FieldNamespaceForScript(field *form.Field) string {
	var b strings.Builder
	b.WriteString("fields")
	var chain []*form.Field
	for f := field; f != nil; f = f.Parent() {
		chain = append([]*form.Field{f}, chain...)
	}
	for i, f := range chain {
		b.WriteString("[" + f.Handle + "]")
		if i < len(chain)-1 && f.Kind == form.KindRepeater {
			b.WriteString("[rows][__ROW__][fields]")
		}
	}
	return b.String()
}
