package formstore

import (
	"fmt"
	"strconv"

	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/position"
)

// Document is the YAML representation of a form definition.
type Document struct {
	ID            int                    `yaml:"id,omitempty"`
	UID           string                 `yaml:"uid,omitempty"`
	Title         string                 `yaml:"title"`
	Handle        string                 `yaml:"handle"`
	Enabled       *bool                  `yaml:"enabled,omitempty"`
	Settings      SettingsDocument       `yaml:"settings"`
	Pages         []PageDocument         `yaml:"pages"`
	Notifications []NotificationDocument `yaml:"notifications,omitempty"`
}

type SettingsDocument struct {
	DefaultLabelPosition        string   `yaml:"defaultLabelPosition,omitempty"`
	DefaultInstructionsPosition string   `yaml:"defaultInstructionsPosition,omitempty"`
	DisplayFormTitle            bool     `yaml:"displayFormTitle,omitempty"`
	DisplayPageTabs             bool     `yaml:"displayPageTabs,omitempty"`
	DisplayCurrentPageTitle     bool     `yaml:"displayCurrentPageTitle,omitempty"`
	DisplayPageProgress         bool     `yaml:"displayPageProgress,omitempty"`
	ProgressPosition            string   `yaml:"progressPosition,omitempty"`
	SubmitMethod                string   `yaml:"submitMethod,omitempty"`
	SubmitAction                string   `yaml:"submitAction,omitempty"`
	SubmitActionMessage         string   `yaml:"submitActionMessage,omitempty"`
	ErrorMessage                string   `yaml:"errorMessage,omitempty"`
	LoadingIndicator            string   `yaml:"loadingIndicator,omitempty"`
	ValidationOnSubmit          bool     `yaml:"validationOnSubmit,omitempty"`
	ValidationOnFocus           bool     `yaml:"validationOnFocus,omitempty"`
	Template                    string   `yaml:"template,omitempty"`
	Captchas                    []string `yaml:"captchas,omitempty"`
}

type PageDocument struct {
	ID     string        `yaml:"id,omitempty"`
	Label  string        `yaml:"label"`
	Submit string        `yaml:"submit,omitempty"`
	Rows   []RowDocument `yaml:"rows"`
}

type RowDocument struct {
	ID     string          `yaml:"id,omitempty"`
	Fields []FieldDocument `yaml:"fields"`
}

type FieldDocument struct {
	ID                    string           `yaml:"id,omitempty"`
	Handle                string           `yaml:"handle"`
	Label                 string           `yaml:"label"`
	Type                  string           `yaml:"type"`
	Instructions          string           `yaml:"instructions,omitempty"`
	Required              bool             `yaml:"required,omitempty"`
	Visibility            string           `yaml:"visibility,omitempty"`
	Placeholder           string           `yaml:"placeholder,omitempty"`
	Default               any              `yaml:"default,omitempty"`
	CSSClasses            string           `yaml:"cssClasses,omitempty"`
	LabelPosition         string           `yaml:"labelPosition,omitempty"`
	SubfieldLabelPosition string           `yaml:"subfieldLabelPosition,omitempty"`
	InstructionsPosition  string           `yaml:"instructionsPosition,omitempty"`
	Options               []OptionDocument `yaml:"options,omitempty"`
	Rows                  []RowDocument    `yaml:"rows,omitempty"`
}

type OptionDocument struct {
	Label   string `yaml:"label"`
	Value   string `yaml:"value"`
	Default bool   `yaml:"default,omitempty"`
}

type NotificationDocument struct {
	ID      string `yaml:"id,omitempty"`
	Name    string `yaml:"name"`
	Enabled *bool  `yaml:"enabled,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	To      string `yaml:"to,omitempty"`
	From    string `yaml:"from,omitempty"`
	Content string `yaml:"content,omitempty"`
}

func positionKind(what, value string) (position.Kind, error) {
	k := position.Kind(value)
	if k != "" && !position.Valid(k) {
		return "", fmt.Errorf("%s: %w: %q", what, position.ErrUnknownPosition, value)
	}
	return k, nil
}

// Form converts d into a linked form.
func (d *Document) Form() (*form.Form, error) {
	f := &form.Form{
		ID:      d.ID,
		UID:     d.UID,
		Title:   d.Title,
		Handle:  d.Handle,
		Enabled: d.Enabled == nil || *d.Enabled,
		Settings: form.Settings{
			DisplayFormTitle:        d.Settings.DisplayFormTitle,
			DisplayPageTabs:         d.Settings.DisplayPageTabs,
			DisplayCurrentPageTitle: d.Settings.DisplayCurrentPageTitle,
			DisplayPageProgress:     d.Settings.DisplayPageProgress,
			ProgressPosition:        d.Settings.ProgressPosition,
			SubmitMethod:            d.Settings.SubmitMethod,
			SubmitAction:            d.Settings.SubmitAction,
			SubmitActionMessage:     d.Settings.SubmitActionMessage,
			ErrorMessage:            d.Settings.ErrorMessage,
			LoadingIndicator:        d.Settings.LoadingIndicator,
			ValidationOnSubmit:      d.Settings.ValidationOnSubmit,
			ValidationOnFocus:       d.Settings.ValidationOnFocus,
			Template:                d.Settings.Template,
			Captchas:                append([]string(nil), d.Settings.Captchas...),
		},
	}
	var err error
	if f.Settings.DefaultLabelPosition, err = positionKind("defaultLabelPosition", d.Settings.DefaultLabelPosition); err != nil {
		return nil, fmt.Errorf("form %s: %w", d.Handle, err)
	}
	if f.Settings.DefaultInstructionsPosition, err = positionKind("defaultInstructionsPosition", d.Settings.DefaultInstructionsPosition); err != nil {
		return nil, fmt.Errorf("form %s: %w", d.Handle, err)
	}

	for i, pd := range d.Pages {
		p := &form.Page{ID: pd.ID, Label: pd.Label, Submit: pd.Submit}
		if p.ID == "" {
			p.ID = "page" + strconv.Itoa(i+1)
		}
		if p.Rows, err = convertRows(pd.Rows, p.ID); err != nil {
			return nil, fmt.Errorf("form %s: %w", d.Handle, err)
		}
		f.Pages = append(f.Pages, p)
	}
	for i, nd := range d.Notifications {
		n := &form.Notification{
			ID:      nd.ID,
			Name:    nd.Name,
			Enabled: nd.Enabled == nil || *nd.Enabled,
			Subject: nd.Subject,
			To:      nd.To,
			From:    nd.From,
			Content: nd.Content,
		}
		if n.ID == "" {
			n.ID = "notification" + strconv.Itoa(i+1)
		}
		f.Notifications = append(f.Notifications, n)
	}
	if err := f.Link(); err != nil {
		return nil, err
	}
	return f, nil
}

func convertRows(docs []RowDocument, prefix string) ([]*form.Row, error) {
	rows := make([]*form.Row, 0, len(docs))
	for i, rd := range docs {
		r := &form.Row{ID: rd.ID}
		if r.ID == "" {
			r.ID = prefix + "-row" + strconv.Itoa(i+1)
		}
		for _, fd := range rd.Fields {
			field, err := convertField(fd, r.ID)
			if err != nil {
				return nil, err
			}
			r.Fields = append(r.Fields, field)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func convertField(fd FieldDocument, rowID string) (*form.Field, error) {
	field := &form.Field{
		ID:           fd.ID,
		Handle:       fd.Handle,
		Label:        fd.Label,
		Kind:         form.Kind(fd.Type),
		Instructions: fd.Instructions,
		Required:     fd.Required,
		Visibility:   fd.Visibility,
		Placeholder:  fd.Placeholder,
		DefaultValue: fd.Default,
		CSSClasses:   fd.CSSClasses,
	}
	if field.ID == "" {
		field.ID = fd.Handle
	}
	var err error
	if field.LabelPosition, err = positionKind("field "+fd.Handle+": labelPosition", fd.LabelPosition); err != nil {
		return nil, err
	}
	if field.SubfieldLabelPosition, err = positionKind("field "+fd.Handle+": subfieldLabelPosition", fd.SubfieldLabelPosition); err != nil {
		return nil, err
	}
	if field.InstructionsPosition, err = positionKind("field "+fd.Handle+": instructionsPosition", fd.InstructionsPosition); err != nil {
		return nil, err
	}
	for _, o := range fd.Options {
		field.Options = append(field.Options, form.Option{Label: o.Label, Value: o.Value, IsDefault: o.Default})
	}
	if field.Rows, err = convertRows(fd.Rows, rowID+"-"+fd.Handle); err != nil {
		return nil, err
	}
	return field, nil
}
