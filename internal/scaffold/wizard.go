// Package scaffold builds new form definitions interactively.
package scaffold

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/formstore"
	"github.com/taylordaughtry/formie/internal/position"
)

var handlePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Captchas offered by the wizard.
var Captchas = []string{"honeypot", "javascript", "duplicate"}

func validateHandle(s string) error {
	if !handlePattern.MatchString(s) {
		return errors.New("handles start with a letter and contain only letters, digits and underscores")
	}
	return nil
}

// Handle derives a camelCase handle from a label: "Email Address" becomes
// "emailAddress".
func Handle(label string) string {
	words := strings.FieldsFunc(label, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for i, w := range words {
		w = strings.ToLower(w)
		if i > 0 {
			w = strings.ToUpper(w[:1]) + w[1:]
		}
		b.WriteString(w)
	}
	h := b.String()
	if h != "" && !unicode.IsLetter(rune(h[0])) {
		h = "f" + h
	}
	return h
}

func positionOptions() ([]string, []position.Kind) {
	kinds := position.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = position.Name(k)
	}
	return names, kinds
}

func indexOfKind(kinds []position.Kind, k position.Kind) int {
	for i, c := range kinds {
		if c == k {
			return i
		}
	}
	return 0
}

// Run asks for a form's title, settings and fields and returns the
// resulting definition. Every field is placed on its own row of a single
// page.
func Run(ctx context.Context, p Prompter) (*formstore.Document, error) {
	title, err := p.Input(ctx, InputConfig{Message: "Form title", Validator: func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New("title is required")
		}
		return nil
	}})
	if err != nil {
		return nil, err
	}
	handle, err := p.Input(ctx, InputConfig{Message: "Form handle", Default: Handle(title), Validator: validateHandle})
	if err != nil {
		return nil, err
	}

	names, kinds := positionOptions()
	label, err := p.Select(ctx, SelectConfig{Message: "Default label position", Options: names, Default: indexOfKind(kinds, position.AboveInput)})
	if err != nil {
		return nil, err
	}
	instructions, err := p.Select(ctx, SelectConfig{Message: "Default instructions position", Options: names, Default: indexOfKind(kinds, position.AboveInput)})
	if err != nil {
		return nil, err
	}
	captchas, err := p.MultiSelect(ctx, SelectConfig{Message: "Captchas", Options: Captchas})
	if err != nil {
		return nil, err
	}

	doc := &formstore.Document{
		Title:  title,
		Handle: handle,
		Settings: formstore.SettingsDocument{
			DefaultLabelPosition:        string(kinds[label]),
			DefaultInstructionsPosition: string(kinds[instructions]),
			DisplayFormTitle:            true,
			SubmitMethod:                "page-reload",
			SubmitAction:                "message",
			SubmitActionMessage:         "Submission saved.",
			ErrorMessage:                "Couldn’t save submission due to errors.",
		},
	}
	for _, i := range captchas {
		doc.Settings.Captchas = append(doc.Settings.Captchas, Captchas[i])
	}

	page := formstore.PageDocument{Label: "Page 1", Submit: "Submit"}
	seen := make(map[string]bool)
	for {
		more, err := p.Confirm(ctx, "Add a field?", len(page.Rows) == 0)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		fd, err := askField(ctx, p, seen)
		if err != nil {
			return nil, err
		}
		seen[fd.Handle] = true
		page.Rows = append(page.Rows, formstore.RowDocument{Fields: []formstore.FieldDocument{fd}})
	}
	doc.Pages = []formstore.PageDocument{page}
	return doc, nil
}

func askField(ctx context.Context, p Prompter, seen map[string]bool) (formstore.FieldDocument, error) {
	var fd formstore.FieldDocument
	label, err := p.Input(ctx, InputConfig{Message: "Field label"})
	if err != nil {
		return fd, err
	}
	handle, err := p.Input(ctx, InputConfig{Message: "Field handle", Default: Handle(label), Validator: func(s string) error {
		if seen[s] {
			return fmt.Errorf("handle %q is already used", s)
		}
		return validateHandle(s)
	}})
	if err != nil {
		return fd, err
	}
	kinds := form.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	kind, err := p.Select(ctx, SelectConfig{Message: "Field type", Options: names})
	if err != nil {
		return fd, err
	}
	required, err := p.Confirm(ctx, "Required?", false)
	if err != nil {
		return fd, err
	}
	fd = formstore.FieldDocument{Label: label, Handle: handle, Type: names[kind], Required: required}

	if kinds[kind].HasOptions() {
		raw, err := p.Input(ctx, InputConfig{Message: "Options (comma separated, label=value)"})
		if err != nil {
			return fd, err
		}
		fd.Options = parseOptions(raw)
	}
	return fd, nil
}

// parseOptions reads "Label=value, Other" lists. Options without an explicit
// value use their derived handle.
func parseOptions(raw string) []formstore.OptionDocument {
	var out []formstore.OptionDocument
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label, value, ok := strings.Cut(part, "=")
		label = strings.TrimSpace(label)
		if !ok {
			value = Handle(label)
		}
		out = append(out, formstore.OptionDocument{Label: label, Value: strings.TrimSpace(value)})
	}
	return out
}

// Write encodes doc as YAML.
func Write(w io.Writer, doc *formstore.Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("scaffold: encode %s: %w", doc.Handle, err)
	}
	return enc.Close()
}
