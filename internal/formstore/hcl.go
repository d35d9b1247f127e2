package formstore

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// hclFile is the top-level structure of a .hcl form file. A file may hold
// several forms.
type hclFile struct {
	Forms []*hclForm `hcl:"form,block"`
}

type hclForm struct {
	Handle        string             `hcl:"handle,label"`
	ID            int                `hcl:"id,optional"`
	UID           string             `hcl:"uid,optional"`
	Title         string             `hcl:"title"`
	Enabled       *bool              `hcl:"enabled,optional"`
	Settings      *hclSettings       `hcl:"settings,block"`
	Pages         []*hclPage         `hcl:"page,block"`
	Notifications []*hclNotification `hcl:"notification,block"`
}

type hclSettings struct {
	DefaultLabelPosition        string   `hcl:"default_label_position,optional"`
	DefaultInstructionsPosition string   `hcl:"default_instructions_position,optional"`
	DisplayFormTitle            bool     `hcl:"display_form_title,optional"`
	DisplayPageTabs             bool     `hcl:"display_page_tabs,optional"`
	DisplayCurrentPageTitle     bool     `hcl:"display_current_page_title,optional"`
	DisplayPageProgress         bool     `hcl:"display_page_progress,optional"`
	ProgressPosition            string   `hcl:"progress_position,optional"`
	SubmitMethod                string   `hcl:"submit_method,optional"`
	SubmitAction                string   `hcl:"submit_action,optional"`
	SubmitActionMessage         string   `hcl:"submit_action_message,optional"`
	ErrorMessage                string   `hcl:"error_message,optional"`
	LoadingIndicator            string   `hcl:"loading_indicator,optional"`
	ValidationOnSubmit          bool     `hcl:"validation_on_submit,optional"`
	ValidationOnFocus           bool     `hcl:"validation_on_focus,optional"`
	Template                    string   `hcl:"template,optional"`
	Captchas                    []string `hcl:"captchas,optional"`
}

type hclPage struct {
	ID     string    `hcl:"id,label"`
	Label  string    `hcl:"label,optional"`
	Submit string    `hcl:"submit,optional"`
	Rows   []*hclRow `hcl:"row,block"`
}

type hclRow struct {
	Fields []*hclField `hcl:"field,block"`
}

type hclField struct {
	Handle                string       `hcl:"handle,label"`
	Type                  string       `hcl:"type"`
	Label                 string       `hcl:"label,optional"`
	Instructions          string       `hcl:"instructions,optional"`
	Required              bool         `hcl:"required,optional"`
	Visibility            string       `hcl:"visibility,optional"`
	Placeholder           string       `hcl:"placeholder,optional"`
	Default               *string      `hcl:"default,optional"`
	CSSClasses            string       `hcl:"css_classes,optional"`
	LabelPosition         string       `hcl:"label_position,optional"`
	SubfieldLabelPosition string       `hcl:"subfield_label_position,optional"`
	InstructionsPosition  string       `hcl:"instructions_position,optional"`
	Options               []*hclOption `hcl:"option,block"`
	Rows                  []*hclRow    `hcl:"row,block"`
}

type hclOption struct {
	Value   string `hcl:"value,label"`
	Label   string `hcl:"label"`
	Default bool   `hcl:"default,optional"`
}

type hclNotification struct {
	Name    string `hcl:"name,label"`
	Enabled *bool  `hcl:"enabled,optional"`
	Subject string `hcl:"subject,optional"`
	To      string `hcl:"to,optional"`
	From    string `hcl:"from,optional"`
	Content string `hcl:"content,optional"`
}

// parseHCL decodes every form block in src.
func parseHCL(parser *hclparse.Parser, src []byte, filename string) ([]*Document, error) {
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("formstore: parse %s: %w", filename, diags)
	}
	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("formstore: decode %s: %w", filename, diags)
	}
	docs := make([]*Document, 0, len(parsed.Forms))
	for _, hf := range parsed.Forms {
		docs = append(docs, hf.document())
	}
	return docs, nil
}

func (hf *hclForm) document() *Document {
	d := &Document{
		ID:      hf.ID,
		UID:     hf.UID,
		Title:   hf.Title,
		Handle:  hf.Handle,
		Enabled: hf.Enabled,
	}
	if s := hf.Settings; s != nil {
		d.Settings = SettingsDocument{
			DefaultLabelPosition:        s.DefaultLabelPosition,
			DefaultInstructionsPosition: s.DefaultInstructionsPosition,
			DisplayFormTitle:            s.DisplayFormTitle,
			DisplayPageTabs:             s.DisplayPageTabs,
			DisplayCurrentPageTitle:     s.DisplayCurrentPageTitle,
			DisplayPageProgress:         s.DisplayPageProgress,
			ProgressPosition:            s.ProgressPosition,
			SubmitMethod:                s.SubmitMethod,
			SubmitAction:                s.SubmitAction,
			SubmitActionMessage:         s.SubmitActionMessage,
			ErrorMessage:                s.ErrorMessage,
			LoadingIndicator:            s.LoadingIndicator,
			ValidationOnSubmit:          s.ValidationOnSubmit,
			ValidationOnFocus:           s.ValidationOnFocus,
			Template:                    s.Template,
			Captchas:                    s.Captchas,
		}
	}
	for _, p := range hf.Pages {
		d.Pages = append(d.Pages, PageDocument{ID: p.ID, Label: p.Label, Submit: p.Submit, Rows: hclRows(p.Rows)})
	}
	for _, n := range hf.Notifications {
		d.Notifications = append(d.Notifications, NotificationDocument{
			Name: n.Name, Enabled: n.Enabled, Subject: n.Subject, To: n.To, From: n.From, Content: n.Content,
		})
	}
	return d
}

func hclRows(rows []*hclRow) []RowDocument {
	out := make([]RowDocument, 0, len(rows))
	for _, r := range rows {
		var rd RowDocument
		for _, f := range r.Fields {
			fd := FieldDocument{
				Handle:                f.Handle,
				Label:                 f.Label,
				Type:                  f.Type,
				Instructions:          f.Instructions,
				Required:              f.Required,
				Visibility:            f.Visibility,
				Placeholder:           f.Placeholder,
				CSSClasses:            f.CSSClasses,
				LabelPosition:         f.LabelPosition,
				SubfieldLabelPosition: f.SubfieldLabelPosition,
				InstructionsPosition:  f.InstructionsPosition,
				Rows:                  hclRows(f.Rows),
			}
			if f.Default != nil {
				fd.Default = *f.Default
			}
			for _, o := range f.Options {
				fd.Options = append(fd.Options, OptionDocument{Label: o.Label, Value: o.Value, Default: o.Default})
			}
			rd.Fields = append(rd.Fields, fd)
		}
		out = append(out, rd)
	}
	return out
}
