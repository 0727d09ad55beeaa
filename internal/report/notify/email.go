package notify

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/config"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/errors"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AttachmentName derives the spreadsheet filename from the run timestamp
func AttachmentName(t time.Time) string {
	return fmt.Sprintf("expired-batches-%s.xlsx", t.Format("20060102_150405"))
}

// Subject builds the report subject line with the run date and alert count
func Subject(generatedAt time.Time, alertCount int) string {
	return fmt.Sprintf("Inventory expiry alert report - %s (%d expired batches)",
		generatedAt.Format("2006-01-02"), alertCount)
}

// EmailSink delivers the digest body plus the spreadsheet attachment over
// SMTP. Implicit TLS on port 465, STARTTLS otherwise. The send has no
// explicit timeout; blocking here blocks the run, which is acceptable for a
// scheduled batch job.
type EmailSink struct {
	cfg    config.MailConfig
	logger *logger.Logger
	// send is swapped in tests to avoid a live SMTP server
	send func(m *gomail.Message) error
}

// NewEmailSink creates a new email sink
func NewEmailSink(cfg config.MailConfig, log *logger.Logger) *EmailSink {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Sender, cfg.Password)
	dialer.SSL = cfg.SMTPPort == 465

	return &EmailSink{
		cfg:    cfg,
		logger: log,
		send: func(m *gomail.Message) error {
			return dialer.DialAndSend(m)
		},
	}
}

// Send builds and submits the report email. The configuration is validated
// first so a malformed recipient list fails before dialing.
func (s *EmailSink) Send(body string, attachment []byte, filename, subject string) error {
	if err := s.cfg.Validate(); err != nil {
		return errors.ConfigInvalid("email", err.Error())
	}

	m := s.buildMessage(body, attachment, filename, subject)

	s.logger.Info().
		Str("smtp_host", s.cfg.SMTPHost).
		Int("smtp_port", s.cfg.SMTPPort).
		Int("recipients", len(s.cfg.Recipients)).
		Str("attachment", filename).
		Int("attachment_bytes", len(attachment)).
		Msg("sending email report")

	if err := s.send(m); err != nil {
		return errors.SinkFailure(err, "email", "smtp delivery failed")
	}

	s.logger.Info().Msg("email report sent")
	return nil
}

func (s *EmailSink) buildMessage(body string, attachment []byte, filename, subject string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.Sender)
	m.SetHeader("To", s.cfg.Recipients...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if len(attachment) > 0 {
		m.Attach(filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(attachment)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {xlsxContentType}}),
		)
	}

	return m
}
