package core

import (
	"bytes"
	"fmt"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path/filepath"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

var (
	templates = make(tmplCache)
	tmplInit  sync.Once
)

type (
	tmplCacheEntry map[string]interface{}    // {ext: *Template}
	tmplCache      map[string]tmplCacheEntry // {name: tmplCacheEntry}

	EmailMessage struct {
		To      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// ParseEmailTemplates loads all email templates from the embedded `templates` dir.
// `.txt` files are parsed as text templates and `.gohtml` files as HTML templates;
// both are cached under the file name without extension.
func ParseEmailTemplates(fsys fs.FS, logger Logger) {
	tmplInit.Do(func() {
		err := fs.WalkDir(fsys, "templates", func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			ext := filepath.Ext(path)
			name := strings.TrimSuffix(filepath.Base(path), ext)

			var tmpl interface{}
			switch ext {
			case ".txt":
				tmpl, err = texttmpl.ParseFS(fsys, path)
			case ".gohtml":
				tmpl, err = htmltmpl.ParseFS(fsys, path)
			default:
				return nil
			}
			if err != nil {
				return errors.Wrapf(err, "parsing %s", path)
			}

			if _, ok := templates[name]; !ok {
				templates[name] = make(tmplCacheEntry, 2)
			}
			templates[name][ext] = tmpl
			return nil
		})
		if err != nil {
			logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
		}
	})
}

func (m *EmailMessage) HasRecipients() bool {
	return len(m.To) > 0
}

func (m *EmailMessage) HasContent() bool {
	return m.TextContent != "" || m.HTMLContent != ""
}

// Render evaluates the message's templates into TextContent and HTMLContent.
func (m *EmailMessage) Render(conf *Config) error {
	if err := m.renderText(conf); err != nil {
		return errors.Wrap(err, "rendering text content")
	}
	if err := m.renderHTML(conf); err != nil {
		return errors.Wrap(err, "rendering HTML content")
	}
	return nil
}

func (m *EmailMessage) getContextData(conf *Config) ContextData {
	return ContextData{
		AppName:         conf.AppName,
		FrontendBaseURL: conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
}

func (m *EmailMessage) getTemplate(ext string) (interface{}, bool) {
	cache, ok := templates[m.TemplateName]
	if !ok {
		return nil, ok
	}
	tmplEntry, ok := cache[ext]
	return tmplEntry, ok
}

func (m *EmailMessage) renderText(conf *Config) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := m.getTemplate(".txt")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*texttmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.getContextData(conf)); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) renderHTML(conf *Config) error {
	if m.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := m.getTemplate(".gohtml")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*htmltmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.getContextData(conf)); err != nil {
		return err
	}
	m.HTMLContent = buff.String()
	return nil
}
