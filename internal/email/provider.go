package email

// Provider sends transactional email.
type Provider interface {
	// Send sends a plain message
	Send(email *Email) error

	// SendTemplate renders a named template and sends it
	SendTemplate(to []string, subject string, templateName string, data TemplateData) error

	// Validate checks the provider configuration
	Validate() error

	// Close releases provider resources
	Close() error
}

// TemplateRenderer renders named email templates.
type TemplateRenderer interface {
	// Render renders a template with data
	Render(templateName string, data TemplateData) (string, error)

	// AddTemplate registers an inline template
	AddTemplate(name string, template string) error

	// LoadTemplates loads templates from a directory
	LoadTemplates(dirPath string) error
}
