package util

import (
	"bytes"
	"strings"
	"text/template"
)

// RenderTemplate expands {{ }} placeholders in text against state. Text
// without template markers is returned unchanged. Missing keys render as
// the default of the "default" helper or as an empty string.
func RenderTemplate(text string, state map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New("instructions").Option("missingkey=zero").Funcs(template.FuncMap{
		"default": func(def any, val any) any {
			if val == nil || val == "" {
				return def
			}
			return val
		},
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
	}).Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, state); err != nil {
		return "", err
	}

	// missingkey=zero renders absent map entries of a map[string]any as "<no value>".
	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}
