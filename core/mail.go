package core

import (
	"bytes"
	"embed"
	"encoding/base64"
	htmltmpl "html/template"
	"io"
	"io/ioutil"
	"net/http"
	"net/mail"
	"path"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

//go:embed all:templates/email
var templateFS embed.FS

const templateDir = "templates/email"

var (
	templates = make(tmplCache)
	tmplMu    sync.Mutex
)

type (
	tmplCacheEntry struct {
		text *texttmpl.Template
		html *htmltmpl.Template
	}
	tmplCache map[string]*tmplCacheEntry // {name: entry}

	Attachment struct {
		Content     *bytes.Buffer // base64 encoded
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment

		// templated contents
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

func getTemplate(name string) (*tmplCacheEntry, error) {
	tmplMu.Lock()
	defer tmplMu.Unlock()

	if entry, ok := templates[name]; ok {
		return entry, nil
	}

	txt, err := texttmpl.New("_base.txt").Option("missingkey=error").
		ParseFS(templateFS, path.Join(templateDir, "_base.txt"), path.Join(templateDir, name+".txt"))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s.txt", name)
	}
	html, err := htmltmpl.New("_base.gohtml").Option("missingkey=error").
		ParseFS(templateFS, path.Join(templateDir, "_base.gohtml"), path.Join(templateDir, name+".gohtml"))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s.gohtml", name)
	}

	entry := &tmplCacheEntry{text: txt, html: html}
	templates[name] = entry
	return entry, nil
}

// Render fills TextContent and HTMLContent. appName is shown in the footer.
func (m *EmailMessage) Render(appName string) error {
	if m.TemplateName == "" {
		m.TextContent = m.BodyStr
		return nil
	}

	entry, err := getTemplate(m.TemplateName)
	if err != nil {
		return err
	}
	data := ContextData{AppName: appName, Data: m.TemplateData}

	var buff bytes.Buffer
	if err := entry.text.Execute(&buff, data); err != nil {
		return errors.Wrap(err, "rendering text")
	}
	m.TextContent = buff.String()

	buff.Reset()
	if err := entry.html.Execute(&buff, data); err != nil {
		return errors.Wrap(err, "rendering html")
	}
	m.HTMLContent = buff.String()
	return nil
}

func (m *EmailMessage) Attach(r io.Reader, filename string, ct ...string) error {
	content, err := ioutil.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "reading attachment")
	}

	at := Attachment{Filename: filename, Content: new(bytes.Buffer)}
	encoder := base64.NewEncoder(base64.StdEncoding, at.Content)
	if _, err := encoder.Write(content); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}

	if len(ct) > 0 {
		at.ContentType = ct[0]
	} else {
		at.ContentType = http.DetectContentType(content)
	}
	m.Attachments = append(m.Attachments, at)
	return nil
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }
