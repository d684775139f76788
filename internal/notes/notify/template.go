package notify

import (
	"bytes"
	"errors"
	"text/template"
)

const DefaultTemplate = `[Debit Note Raised]
Contractor: {{.Contractor}}
Date: {{.Date}}
Site: {{.Site}}
Category: {{.Category}}
Amount: {{.Amount}}
Reason: {{.Reason}}
Raised by: {{.Submitter}}
{{ if .PDFLink }}
PDF: {{.PDFLink}}
{{ end }}`

// TemplateData provides fields for rendering notification content.
type TemplateData struct {
	NoteID     string
	Contractor string
	Date       string
	Site       string
	Category   string
	Amount     string
	Reason     string
	Submitter  string
	PDFLink    string
	ImageCount int
}

// Template renders notification content.
type Template struct {
	tpl *template.Template
}

// NewTemplate parses a notification template, falling back to DefaultTemplate.
func NewTemplate(tpl string) (*Template, error) {
	if tpl == "" {
		tpl = DefaultTemplate
	}
	parsed, err := template.New("note-notification").Option("missingkey=error").Parse(tpl)
	if err != nil {
		return nil, err
	}
	return &Template{tpl: parsed}, nil
}

// Render applies the template to data.
func (t *Template) Render(data TemplateData) (string, error) {
	if t == nil || t.tpl == nil {
		return "", errors.New("note template: nil")
	}
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
