// Package form holds the form domain model: forms, their pages, rows and
// fields, and the settings that control how they render.
package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/taylordaughtry/formie/internal/position"
)

var (
	ErrDuplicateHandle = errors.New("duplicate field handle")
	ErrUnknownKind     = errors.New("unknown field kind")
	ErrMissingHandle   = errors.New("missing handle")
)

type Form struct {
	ID            int
	UID           string
	Title         string
	Handle        string
	Enabled       bool
	DateCreated   time.Time
	DateUpdated   time.Time
	Settings      Settings
	Pages         []*Page
	Notifications []*Notification

	submission *Submission
	populated  map[string]any
}

type Settings struct {
	DefaultLabelPosition        position.Kind
	DefaultInstructionsPosition position.Kind
	DisplayFormTitle            bool
	DisplayPageTabs             bool
	DisplayCurrentPageTitle     bool
	DisplayPageProgress         bool
	ProgressPosition            string
	SubmitMethod                string
	SubmitAction                string
	SubmitActionMessage         string
	ErrorMessage                string
	LoadingIndicator            string
	ValidationOnSubmit          bool
	ValidationOnFocus           bool
	Template                    string
	Captchas                    []string
}

type Page struct {
	ID     string
	Label  string
	Rows   []*Row
	Submit string

	form *Form
}

type Row struct {
	ID     string
	Fields []*Field

	page   *Page
	parent *Field
}

type Option struct {
	Label     string
	Value     string
	IsDefault bool
}

// GqlTypeName is the name of the concrete GraphQL type generated for f.
func (f *Form) GqlTypeName() string { return f.Handle + "_Form" }

// Slug is the URL-safe identifier of the form. Handles are already slugs.
func (f *Form) Slug() string { return f.Handle }

// Rows returns every top-level row across pages, in page order.
func (f *Form) Rows() []*Row {
	var rows []*Row
	for _, p := range f.Pages {
		rows = append(rows, p.Rows...)
	}
	return rows
}

// Fields returns every top-level field, in page then row order.
func (f *Form) Fields() []*Field {
	var fields []*Field
	for _, r := range f.Rows() {
		fields = append(fields, r.Fields...)
	}
	return fields
}

// FieldByHandle finds a top-level field.
func (f *Form) FieldByHandle(handle string) *Field {
	for _, fd := range f.Fields() {
		if fd.Handle == handle {
			return fd
		}
	}
	return nil
}

// PageByID finds a page by id, or returns nil.
func (f *Form) PageByID(id string) *Page {
	for _, p := range f.Pages {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (f *Form) SetCurrentSubmission(s *Submission) { f.submission = s }

func (f *Form) CurrentSubmission() *Submission { return f.submission }

// Link sets parent references throughout the form and checks that field
// handles are unique among siblings.
func (f *Form) Link() error {
	if f.Handle == "" {
		return fmt.Errorf("form %q: %w", f.Title, ErrMissingHandle)
	}
	for _, p := range f.Pages {
		p.form = f
		for _, r := range p.Rows {
			r.page = p
		}
	}
	return linkRows(f, nil, f.Rows())
}

func linkRows(f *Form, parent *Field, rows []*Row) error {
	seen := make(map[string]bool)
	for _, r := range rows {
		r.parent = parent
		for _, fd := range r.Fields {
			if fd.Handle == "" {
				return fmt.Errorf("form %s: field %q: %w", f.Handle, fd.Label, ErrMissingHandle)
			}
			if !fd.Kind.Valid() {
				return fmt.Errorf("form %s: field %s: %w %q", f.Handle, fd.Handle, ErrUnknownKind, fd.Kind)
			}
			if seen[fd.Handle] {
				return fmt.Errorf("form %s: %w %q", f.Handle, ErrDuplicateHandle, fd.Handle)
			}
			seen[fd.Handle] = true
			fd.form = f
			fd.parent = parent
			if err := linkRows(f, fd, fd.Rows); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clone returns a deep copy of f, linked and without a current submission.
// Repositories hand out clones so request-scoped population never leaks
// between requests. It fails when the copy does not link, as Link would.
func (f *Form) Clone() (*Form, error) {
	c := *f
	c.submission = nil
	c.populated = nil
	c.Settings.Captchas = append([]string(nil), f.Settings.Captchas...)
	c.Pages = make([]*Page, len(f.Pages))
	for i, p := range f.Pages {
		cp := *p
		cp.Rows = cloneRows(p.Rows)
		c.Pages[i] = &cp
	}
	c.Notifications = make([]*Notification, len(f.Notifications))
	for i, n := range f.Notifications {
		cn := *n
		c.Notifications[i] = &cn
	}
	if err := c.Link(); err != nil {
		return nil, err
	}
	return &c, nil
}

func cloneRows(rows []*Row) []*Row {
	out := make([]*Row, len(rows))
	for i, r := range rows {
		cr := *r
		cr.Fields = make([]*Field, len(r.Fields))
		for j, fd := range r.Fields {
			cf := *fd
			cf.Options = append([]Option(nil), fd.Options...)
			cf.Rows = cloneRows(fd.Rows)
			cr.Fields[j] = &cf
		}
		out[i] = &cr
	}
	return out
}

// Property projects f onto the fields exposed by the GraphQL schema.
func (f *Form) Property(name string) (any, bool) {
	switch name {
	case "id":
		return f.ID, true
	case "uid":
		return f.UID, true
	case "title":
		return f.Title, true
	case "slug":
		return f.Slug(), true
	case "handle":
		return f.Handle, true
	case "enabled":
		return f.Enabled, true
	case "dateCreated":
		return f.DateCreated, true
	case "dateUpdated":
		return f.DateUpdated, true
	case "pages":
		return f.Pages, true
	case "rows":
		return f.Rows(), true
	case "formFields":
		return f.Fields(), true
	case "settings":
		return &f.Settings, true
	case "configJson":
		return f.ConfigJSON(), true
	}
	return nil, false
}

type formConfig struct {
	FormID        int            `json:"formId"`
	FormHandle    string         `json:"formHandle"`
	FormTitle     string         `json:"formTitle"`
	Settings      settingsConfig `json:"settings"`
	Pages         []pageConfig   `json:"pages"`
	Captchas      []string       `json:"captchas"`
	Submission    *int           `json:"submissionId,omitempty"`
	FieldHandles  []string       `json:"fieldHandles"`
	HiddenHandles []string       `json:"hiddenHandles,omitempty"`
}

type settingsConfig struct {
	SubmitMethod        string `json:"submitMethod"`
	SubmitAction        string `json:"submitAction"`
	SubmitActionMessage string `json:"submitActionMessage"`
	ErrorMessage        string `json:"errorMessage"`
	LoadingIndicator    string `json:"loadingIndicator"`
	ValidationOnSubmit  bool   `json:"validationOnSubmit"`
	ValidationOnFocus   bool   `json:"validationOnFocus"`
	DisplayPageProgress bool   `json:"displayPageProgress"`
	ProgressPosition    string `json:"progressPosition"`
}

type pageConfig struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ConfigJSON is the configuration consumed by the front-end form script.
func (f *Form) ConfigJSON() string {
	cfg := formConfig{
		FormID:     f.ID,
		FormHandle: f.Handle,
		FormTitle:  f.Title,
		Settings: settingsConfig{
			SubmitMethod:        f.Settings.SubmitMethod,
			SubmitAction:        f.Settings.SubmitAction,
			SubmitActionMessage: f.Settings.SubmitActionMessage,
			ErrorMessage:        f.Settings.ErrorMessage,
			LoadingIndicator:    f.Settings.LoadingIndicator,
			ValidationOnSubmit:  f.Settings.ValidationOnSubmit,
			ValidationOnFocus:   f.Settings.ValidationOnFocus,
			DisplayPageProgress: f.Settings.DisplayPageProgress,
			ProgressPosition:    f.Settings.ProgressPosition,
		},
		Pages:        []pageConfig{},
		Captchas:     append([]string{}, f.Settings.Captchas...),
		FieldHandles: []string{},
	}
	for _, p := range f.Pages {
		cfg.Pages = append(cfg.Pages, pageConfig{ID: p.ID, Label: p.Label})
	}
	for _, fd := range f.Fields() {
		cfg.FieldHandles = append(cfg.FieldHandles, fd.Handle)
		if fd.IsHidden() {
			cfg.HiddenHandles = append(cfg.HiddenHandles, fd.Handle)
		}
	}
	if f.submission != nil && f.submission.ID != 0 {
		id := f.submission.ID
		cfg.Submission = &id
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func (p *Page) Form() *Form { return p.form }

func (p *Page) Property(name string) (any, bool) {
	switch name {
	case "id":
		return p.ID, true
	case "label":
		return p.Label, true
	case "rows":
		return p.Rows, true
	case "pageFields":
		var fields []*Field
		for _, r := range p.Rows {
			fields = append(fields, r.Fields...)
		}
		return fields, true
	}
	return nil, false
}

func (r *Row) Page() *Page { return r.page }

// Parent returns the group or repeater field owning a nested row.
func (r *Row) Parent() *Field { return r.parent }

func (r *Row) Property(name string) (any, bool) {
	switch name {
	case "id":
		return r.ID, true
	case "rowFields":
		return r.Fields, true
	}
	return nil, false
}

func (s *Settings) Property(name string) (any, bool) {
	switch name {
	case "defaultLabelPosition":
		return string(s.DefaultLabelPosition), true
	case "defaultInstructionsPosition":
		return string(s.DefaultInstructionsPosition), true
	case "displayFormTitle":
		return s.DisplayFormTitle, true
	case "displayPageTabs":
		return s.DisplayPageTabs, true
	case "displayCurrentPageTitle":
		return s.DisplayCurrentPageTitle, true
	case "displayPageProgress":
		return s.DisplayPageProgress, true
	case "progressPosition":
		return s.ProgressPosition, true
	case "submitMethod":
		return s.SubmitMethod, true
	case "submitAction":
		return s.SubmitAction, true
	case "submitActionMessage":
		return s.SubmitActionMessage, true
	case "errorMessage":
		return s.ErrorMessage, true
	case "loadingIndicator":
		return s.LoadingIndicator, true
	case "validationOnSubmit":
		return s.ValidationOnSubmit, true
	case "validationOnFocus":
		return s.ValidationOnFocus, true
	}
	return nil, false
}

func (o Option) Property(name string) (any, bool) {
	switch name {
	case "label":
		return o.Label, true
	case "value":
		return o.Value, true
	case "isDefault":
		return o.IsDefault, true
	}
	return nil, false
}
