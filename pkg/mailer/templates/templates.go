package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"strings"
	texttpl "text/template"
)

//go:embed *.tmpl
var FS embed.FS

// Template names; they match the user lifecycle events.
const (
	UserCreated = "user_created"
	UserUpdated = "user_updated"
	UserDeleted = "user_deleted"
)

// EmailData defines standard fields for email templates.
type EmailData struct {
	UserID string `json:"UserID"`
	Name   string `json:"Name"`
	Email  string `json:"Email"`
	Age    int    `json:"Age"`
	Time   string `json:"Time"`

	CompanyName string `json:"CompanyName"`
	AppName     string `json:"AppName"`
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// FromMap is the inverse of ToMap; unknown keys are ignored.
func FromMap(m map[string]any) (EmailData, error) {
	var d EmailData
	b, err := json.Marshal(m)
	if err != nil {
		return d, err
	}
	err = json.Unmarshal(b, &d)
	return d, err
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback, value any) any {
	switch x := value.(type) {
	case nil:
		return fallback
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
	}
	return value
}

var funcs = map[string]any{"default": defaultFn}

// Known reports whether name is a template shipped with the binary
func Known(name string) bool {
	switch name {
	case UserCreated, UserUpdated, UserDeleted:
		return true
	}
	return false
}

// Render executes the subject, text and html blocks of the named template.
func Render(name string, data EmailData) (subject, text, html string, err error) {
	if !Known(name) {
		return "", "", "", fmt.Errorf("unknown template %q", name)
	}
	file := name + ".tmpl"

	tt, err := texttpl.New(file).Funcs(texttpl.FuncMap(funcs)).ParseFS(FS, file)
	if err != nil {
		return "", "", "", err
	}
	ht, err := htmpl.New(file).Funcs(htmpl.FuncMap(funcs)).ParseFS(FS, file)
	if err != nil {
		return "", "", "", err
	}

	var sb, tb, hb bytes.Buffer
	if err := tt.ExecuteTemplate(&sb, "subject", data); err != nil {
		return "", "", "", err
	}
	if err := tt.ExecuteTemplate(&tb, "text", data); err != nil {
		return "", "", "", err
	}
	if err := ht.ExecuteTemplate(&hb, "html", data); err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(sb.String()), strings.TrimSpace(tb.String()), hb.String(), nil
}
