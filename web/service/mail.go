package service

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"io/fs"
	"os"
	texttemplate "text/template"

	"github.com/usergate/usergate/database/model"
	"github.com/usergate/usergate/util/common"
	"github.com/usergate/usergate/logger"
	"github.com/usergate/usergate/web/locale"

	"gopkg.in/gomail.v2"
)

//go:embed templates
var defaultTemplates embed.FS

// Mail kinds; each maps to a template directory and an i18n subject key.
const (
	MailForgot  = "forgot"
	MailConfirm = "confirm"
)

// EmailConfig is the SMTP and template configuration for outgoing mail.
// An empty Host leaves the transport unconfigured; sends then fail with an
// explicit error, mirrored to the client as a 500.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// TemplateDir overrides the embedded default templates. Layout:
	// {kind}/{locale}/{subject.txt,text.txt,html.html} with a locale-less
	// fallback at {kind}/.
	TemplateDir string
}

// AppInfo is rendered into emails as the owning application's identity.
type AppInfo struct {
	Name string
	URL  string
}

// MailData is the payload available to mail templates.
type MailData struct {
	User *model.User
	App  AppInfo
	Code string
	Link string
}

// MailService renders localized account emails and delivers them over SMTP.
type MailService struct {
	cfg       EmailConfig
	templates fs.FS

	// send delivers a composed message; replaced in tests.
	send func(m *gomail.Message) error
}

func NewMailService(cfg EmailConfig) *MailService {
	s := &MailService{cfg: cfg}

	if cfg.TemplateDir != "" {
		s.templates = os.DirFS(cfg.TemplateDir)
	} else {
		sub, err := fs.Sub(defaultTemplates, "templates")
		if err != nil {
			panic("mail templates missing from binary: " + err.Error())
		}
		s.templates = sub
	}

	if cfg.Host != "" {
		dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
		s.send = func(m *gomail.Message) error {
			return dialer.DialAndSend(m)
		}
	} else {
		logger.Warning("*** Email Service is not configured ***")
	}
	return s
}

// Configured reports whether a transport is available.
func (s *MailService) Configured() bool {
	return s.send != nil
}

// SetTransport replaces the delivery function. Embedding applications can
// route mail through their own transport instead of the SMTP dialer.
func (s *MailService) SetTransport(send func(m *gomail.Message) error) {
	s.send = send
}

// Send renders the kind's templates for the given locale and delivers the
// result to the user's address. Every failure comes back as an explicit
// error; nothing is retried.
func (s *MailService) Send(kind, userLocale string, user *model.User, app AppInfo, code, link string) error {
	if s.send == nil {
		return common.NewError("mail transport is not configured")
	}

	data := MailData{User: user, App: app, Code: code, Link: link}

	subject, err := s.renderSubject(kind, userLocale, app, data)
	if err != nil {
		return err
	}
	text, err := s.renderText(kind, userLocale, data)
	if err != nil {
		return err
	}
	html, err := s.renderHTML(kind, userLocale, data)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)
	if html != "" {
		m.AddAlternative("text/html", html)
	}

	return s.send(m)
}

// resolve finds the template file for kind, preferring the locale subdirectory.
func (s *MailService) resolve(kind, userLocale, name string) ([]byte, error) {
	if userLocale != "" {
		if data, err := fs.ReadFile(s.templates, kind+"/"+userLocale+"/"+name); err == nil {
			return data, nil
		}
	}
	return fs.ReadFile(s.templates, kind+"/"+name)
}

// renderSubject uses the kind's subject.txt when the template set ships one,
// otherwise the localized default subject.
func (s *MailService) renderSubject(kind, userLocale string, app AppInfo, data MailData) (string, error) {
	raw, err := s.resolve(kind, userLocale, "subject.txt")
	if err != nil {
		return locale.I18n(userLocale, "email."+kind+".subject", "AppName=="+app.Name), nil
	}
	return renderTextTemplate(kind+"/subject", string(raw), data)
}

func (s *MailService) renderText(kind, userLocale string, data MailData) (string, error) {
	raw, err := s.resolve(kind, userLocale, "text.txt")
	if err != nil {
		return "", common.NewErrorf("cannot load template %s/text.txt: %v", kind, err)
	}
	return renderTextTemplate(kind+"/text", string(raw), data)
}

// renderHTML returns "" when the kind ships no HTML part.
func (s *MailService) renderHTML(kind, userLocale string, data MailData) (string, error) {
	raw, err := s.resolve(kind, userLocale, "html.html")
	if err != nil {
		return "", nil
	}
	tpl, err := htmltemplate.New(kind + "/html").Parse(string(raw))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderTextTemplate(name, raw string, data MailData) (string, error) {
	tpl, err := texttemplate.New(name).Parse(raw)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
