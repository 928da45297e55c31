package email

import (
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TemplateManager implements TemplateRenderer.
type TemplateManager struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

// NewTemplateManager creates a manager preloaded with the built-in
// booking templates. Templates loaded from disk override them.
func NewTemplateManager() *TemplateManager {
	tm := &TemplateManager{
		templates: make(map[string]*template.Template),
	}
	for name, body := range builtinTemplates {
		// Built-ins are compile-checked by the tests, ignore errors here
		_ = tm.AddTemplate(name, body)
	}
	return tm
}

// Render renders a template with data.
func (tm *TemplateManager) Render(templateName string, data TemplateData) (string, error) {
	tm.mutex.RLock()
	tpl, exists := tm.templates[templateName]
	tm.mutex.RUnlock()

	if !exists {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// AddTemplate registers an inline template.
func (tm *TemplateManager) AddTemplate(name string, templateStr string) error {
	tpl, err := template.New(name).Parse(templateStr)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	tm.mutex.Lock()
	tm.templates[name] = tpl
	tm.mutex.Unlock()

	return nil
}

// LoadTemplates loads *.html templates from a directory tree.
func (tm *TemplateManager) LoadTemplates(dirPath string) error {
	return filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", path, err)
		}

		templateName := strings.TrimSuffix(filepath.Base(path), ".html")
		if err := tm.AddTemplate(templateName, string(content)); err != nil {
			return fmt.Errorf("failed to add template %s: %w", templateName, err)
		}

		return nil
	})
}

// TemplateNames returns the names of the loaded templates.
func (tm *TemplateManager) TemplateNames() []string {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	names := make([]string, 0, len(tm.templates))
	for name := range tm.templates {
		names = append(names, name)
	}

	return names
}

// Built-in transactional templates. Keys are the names the services use.
var builtinTemplates = map[string]string{
	"verification": `
<p>Hello {{.Name}},</p>
<p>Please confirm your email address by following this link:</p>
<p><a href="{{.Link}}">Verify email</a></p>`,

	"booking_confirmed": `
<p>Hello {{.Name}},</p>
<p>Your appointment with {{.Specialist}} has been confirmed.</p>
<p><strong>{{.When}}</strong><br>{{.Where}}</p>
<p>Matter reference: {{.Matter}}</p>`,

	"booking_rescheduled": `
<p>Hello {{.Name}},</p>
<p>Your appointment with {{.Specialist}} has been rescheduled.</p>
<p>New time: <strong>{{.When}}</strong><br>{{.Where}}</p>`,

	"booking_cancelled": `
<p>Hello {{.Name}},</p>
<p>Your appointment with {{.Specialist}} on {{.When}} has been cancelled.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}`,

	"booking_reminder": `
<p>Hello {{.Name}},</p>
<p>This is a reminder for your upcoming appointment with {{.Specialist}}.</p>
<p><strong>{{.When}}</strong><br>{{.Where}}</p>
<p>Please arrive 15 minutes early and bring photo identification.</p>`,
}
