// Package email delivers batch run reports over SMTP.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/deanable/RedditVideoMaker-sub000/shared/config"
)

const reportTemplate = `<html>
<body style="font-family: sans-serif;">
<h2>{{.Subject}}</h2>
<p>{{.Summary}}</p>
{{if .Lines}}
<ul>
{{range .Lines}}<li>{{.}}</li>
{{end}}</ul>
{{end}}
</body>
</html>`

type Sender struct {
	cfg config.EmailConfig
}

func NewSender(cfg config.EmailConfig) *Sender {
	return &Sender{cfg: cfg}
}

// SendRunReport mails the batch summary and per-post outcome lines.
func (s *Sender) SendRunReport(subject, summary string, lines []string) error {
	body, err := renderReportBody(subject, summary, lines)
	if err != nil {
		return fmt.Errorf("failed to render report body: %w", err)
	}
	return s.sendViaSMTP(subject, body)
}

func (s *Sender) sendViaSMTP(subject, body string) error {
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPServer)

	to := []string{s.cfg.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.cfg.ToEmail, s.cfg.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPServer, s.cfg.SMTPPort)
	return smtp.SendMail(addr, auth, s.cfg.FromEmail, to, msg)
}

func renderReportBody(subject, summary string, lines []string) (string, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, struct {
		Subject string
		Summary string
		Lines   []string
	}{Subject: subject, Summary: summary, Lines: lines})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
