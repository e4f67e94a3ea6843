package domain

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// DefaultPopupTemplate is the attribute block shown when a marker is clicked.
// Position values arrive pre-rounded to 4 decimal places and missing
// attributes arrive as "unknown".
const DefaultPopupTemplate = `<b>{{.Label}}</b><br>` +
	`Date: {{.Date}}<br>` +
	`Sex: {{.Sex}}<br>` +
	`Age: {{.Age}}<br>` +
	`Place: {{.Place}}<br>` +
	`Position: {{.Lat}}, {{.Lon}}`

// missingAttribute is the placeholder substituted for absent popup values.
const missingAttribute = "unknown"

// PopupTemplate renders popup content for one descriptor. html/template does
// the escaping, so free-form field data cannot inject markup into the page.
type PopupTemplate struct {
	tmpl *template.Template
}

// NewPopupTemplate parses a popup template. An unparsable template is a
// *ConfigurationError.
func NewPopupTemplate(src string) (*PopupTemplate, error) {
	t, err := template.New("popup").Parse(src)
	if err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("popup template: %v", err)}
	}
	return &PopupTemplate{tmpl: t}, nil
}

// popupData is the substitution context handed to the template.
type popupData struct {
	Label string
	Date  string
	Sex   string
	Age   string
	Place string
	Lat   string
	Lon   string
}

// BuildDescriptors maps located records to marker descriptors, one per pair,
// in input order. Style lookup is total and missing attributes degrade to
// placeholders, so the only failure mode is a template whose execution fails.
// Labels count 1..N over the output sequence, dense regardless of upstream
// filtering.
func BuildDescriptors(pairs []Located, rules StyleRules, popup *PopupTemplate) ([]MarkerDescriptor, error) {
	descriptors := make([]MarkerDescriptor, 0, len(pairs))
	builtAt := clock.Now()

	for i, pair := range pairs {
		label := fmt.Sprintf("Observation %d", i+1)
		content, err := popup.render(popupData{
			Label: label,
			Date:  orUnknown(pair.Record.Date),
			Sex:   orUnknown(pair.Record.Sex),
			Age:   orUnknown(pair.Record.Age),
			Place: orUnknown(pair.Place),
			Lat:   fmt.Sprintf("%.4f", pair.Point.Lat),
			Lon:   fmt.Sprintf("%.4f", pair.Point.Lon),
		})
		if err != nil {
			return nil, fmt.Errorf("render popup for %s: %w", label, err)
		}
		descriptors = append(descriptors, MarkerDescriptor{
			Position:  pair.Point,
			Style:     rules.Lookup(pair.Record.Sex),
			PopupHTML: content,
			Label:     label,
			BuiltAt:   builtAt,
		})
	}
	return descriptors, nil
}

func (p *PopupTemplate) render(data popupData) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return missingAttribute
	}
	return s
}
