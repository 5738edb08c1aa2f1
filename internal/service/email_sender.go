package service

import (
	"crypto/tls"
	"fmt"
	"html"
	"time"

	"github.com/go-mail/mail/v2"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/config"
	"github.com/Wodenvase/BharatLedger/internal/model"
)

type EmailSender struct {
	dialer  *mail.Dialer
	from    string
	enabled bool
	logger  *logrus.Logger
}

func NewEmailSender(cfg *config.Config, logger *logrus.Logger) *EmailSender {
	d := mail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.SMTPHost,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}
	return &EmailSender{
		dialer:  d,
		from:    cfg.SMTPUser,
		enabled: cfg.EmailEnabled,
		logger:  logger,
	}
}

// SendStatementProcessed reports the outcome of a statement import.
func (es *EmailSender) SendStatementProcessed(email string, upload *model.Upload) error {
	if !es.enabled {
		es.logger.Debug("email notifications disabled")
		return nil
	}
	subject, body := statementEmail(upload, time.Now())
	return es.sendEmail(email, subject, body)
}

func statementEmail(upload *model.Upload, at time.Time) (string, string) {
	name := html.EscapeString(upload.FileName)
	stamp := at.Format("02.01.2006 15:04")

	if upload.Status == model.UploadStatusFailed {
		reason := "unknown error"
		if upload.Error != nil {
			reason = html.EscapeString(*upload.Error)
		}
		return "BharatLedger: statement could not be imported", fmt.Sprintf(`
		<h1>Statement import failed</h1>
		<p>File: <strong>%s</strong></p>
		<p>Reason: <strong>%s</strong></p>
		<p>Date: <strong>%s</strong></p>
		<small>This is an automated message, please do not reply</small>
	`, name, reason, stamp)
	}

	return "BharatLedger: statement imported", fmt.Sprintf(`
		<h1>Statement imported</h1>
		<p>File: <strong>%s</strong></p>
		<p>Transactions imported: <strong>%d</strong></p>
		<p>Rows skipped: <strong>%d</strong></p>
		<p>Date: <strong>%s</strong></p>
		<small>This is an automated message, please do not reply</small>
	`, name, upload.Imported, upload.Skipped, stamp)
}

func (es *EmailSender) sendEmail(to, subject, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", es.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := es.dialer.DialAndSend(m); err != nil {
		es.logger.WithError(err).Error("failed to send email")
		return fmt.Errorf("send email: %w", err)
	}

	es.logger.Infof("email sent to %s", to)
	return nil
}
