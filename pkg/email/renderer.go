package email

import (
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"strings"
	"text/template"
)

// NewRenderer returns a Renderer loading templates from templates, usually rooted at the
// template directory on disk.
func NewRenderer(templates fs.FS) Renderer {
	return Renderer{templates: templates}
}

// Renderer renders the subject and body templates of an email message. Templates are looked up
// by the message's template prefix, so a prefix of "account/welcome" names the templates
// "account/welcome_subject.txt", "account/welcome_message.txt" and "account/welcome_message.html".
type Renderer struct {
	templates fs.FS
}

// Subject renders the subject template of the given prefix.
func (r Renderer) Subject(prefix string, context map[string]any) (string, error) {
	return r.renderText(prefix+"_subject.txt", context)
}

// Text renders the plain text body template of the given prefix.
func (r Renderer) Text(prefix string, context map[string]any) (string, error) {
	return r.renderText(prefix+"_message.txt", context)
}

// HTML renders the HTML body template of the given prefix. The returned error wraps
// [fs.ErrNotExist] if the prefix has no HTML template, which is the callers cue to send the
// message as plain text only.
func (r Renderer) HTML(prefix string, context map[string]any) (string, error) {
	name := prefix + "_message.html"
	data, err := fs.ReadFile(r.templates, name)
	if err != nil {
		return "", fmt.Errorf("failed to load template %s: %w", name, err)
	}

	t, err := htmltemplate.New(name).Parse(string(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %s", name, err)
	}

	var body strings.Builder
	err = t.Execute(&body, context)
	if err != nil {
		return "", fmt.Errorf("failed to render template %s: %s", name, err)
	}
	return body.String(), nil
}

func (r Renderer) renderText(name string, context map[string]any) (string, error) {
	data, err := fs.ReadFile(r.templates, name)
	if err != nil {
		return "", fmt.Errorf("failed to load template %s: %w", name, err)
	}

	t, err := template.New(name).Parse(string(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %s", name, err)
	}

	var body strings.Builder
	err = t.Execute(&body, context)
	if err != nil {
		return "", fmt.Errorf("failed to render template %s: %s", name, err)
	}
	return body.String(), nil
}
