package core

import (
	"bytes"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/trezcool/coursework/fs"
)

const emailTemplatesDir = "templates/email"

var (
	emailTmpls     emailTemplates
	emailTmplsErr  error
	emailTmplsOnce sync.Once
)

type (
	// executor is satisfied by both *text/template.Template and *html/template.Template.
	executor interface {
		Execute(w io.Writer, data interface{}) error
	}

	// emailTemplates holds the parsed templates keyed by name, without extension.
	emailTemplates struct {
		text map[string]executor
		html map[string]executor
	}

	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // plain text, bypasses templates

		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName string
		Data    interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func execute(tmpl executor, data ContextData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render fills TextContent and HTMLContent from BodyStr or the named template.
// A template missing one of its two variants leaves the matching content empty.
func (m *EmailMessage) Render(appName string) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}

	emailTmplsOnce.Do(func() { emailTmpls, emailTmplsErr = loadEmailTemplates() })
	if emailTmplsErr != nil {
		return emailTmplsErr
	}

	data := ContextData{AppName: appName, Data: m.TemplateData}
	var err error
	if tmpl, ok := emailTmpls.text[m.TemplateName]; ok && m.BodyStr == "" {
		if m.TextContent, err = execute(tmpl, data); err != nil {
			return errors.Wrapf(err, "rendering %s.txt", m.TemplateName)
		}
	}
	if tmpl, ok := emailTmpls.html[m.TemplateName]; ok {
		if m.HTMLContent, err = execute(tmpl, data); err != nil {
			return errors.Wrapf(err, "rendering %s.gohtml", m.TemplateName)
		}
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.TextContent != "" || m.HTMLContent != "" }

// loadEmailTemplates parses every non-underscored .txt and .gohtml file against its _base layout.
func loadEmailTemplates() (emailTemplates, error) {
	tmpls := emailTemplates{text: make(map[string]executor), html: make(map[string]executor)}

	fps, err := fs.Glob(appfs.FS, path.Join(emailTemplatesDir, "*"))
	if err != nil {
		return tmpls, errors.Wrap(err, "listing email templates")
	}
	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		ext := path.Ext(fname)
		name := strings.TrimSuffix(fname, ext)
		base := path.Join(emailTemplatesDir, "_base"+ext)

		switch ext {
		case ".txt":
			tmpl, err := texttmpl.ParseFS(appfs.FS, base, fp)
			if err != nil {
				return tmpls, errors.Wrapf(err, "parsing %s", fname)
			}
			tmpls.text[name] = tmpl.Option("missingkey=error")
		case ".gohtml":
			tmpl, err := htmltmpl.ParseFS(appfs.FS, base, fp)
			if err != nil {
				return tmpls, errors.Wrapf(err, "parsing %s", fname)
			}
			tmpls.html[name] = tmpl.Option("missingkey=error")
		}
	}
	return tmpls, nil
}
