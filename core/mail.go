package core

import (
	htmltmpl "html/template"
	"net/mail"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

var (
	templates tmplCache
	tmplInit  sync.Once
)

type (
	tmplCacheEntry struct {
		text *texttmpl.Template
		html *htmltmpl.Template
	}
	tmplCache map[string]tmplCacheEntry

	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) getContextData() ContextData {
	return ContextData{
		AppName:         Conf.AppName,
		FrontendBaseURL: Conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
}

// Render populates TextContent and HTMLContent from the named template,
// or from BodyStr when no template is set.
func (m *EmailMessage) Render() error {
	tmplInit.Do(parseTemplates)

	if m.TemplateName == "" {
		m.TextContent = m.BodyStr
		return nil
	}

	entry, ok := templates[m.TemplateName]
	if !ok {
		return errors.Errorf("email template %q not found", m.TemplateName)
	}

	data := m.getContextData()
	var txt strings.Builder
	if err := entry.text.Execute(&txt, data); err != nil {
		return errors.Wrapf(err, "executing %s text template", m.TemplateName)
	}
	m.TextContent = txt.String()

	if entry.html != nil {
		var html strings.Builder
		if err := entry.html.Execute(&html, data); err != nil {
			return errors.Wrapf(err, "executing %s html template", m.TemplateName)
		}
		m.HTMLContent = html.String()
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

func parseTemplates() {
	templates = make(tmplCache, len(mailTemplateSources))
	for name, src := range mailTemplateSources {
		entry := tmplCacheEntry{
			text: texttmpl.Must(texttmpl.New(name + ".txt").Parse(src.text)),
		}
		if src.html != "" {
			entry.html = htmltmpl.Must(htmltmpl.New(name + ".html").Parse(src.html))
		}
		templates[name] = entry
	}
}
