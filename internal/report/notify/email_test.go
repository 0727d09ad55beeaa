package notify

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/config"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/errors"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/logger"
)

var runTime = time.Date(2024, 6, 1, 8, 30, 15, 0, time.UTC)

func validMailConfig() config.MailConfig {
	return config.MailConfig{
		SMTPHost:   "smtp.example.com",
		SMTPPort:   465,
		Sender:     "alerts@example.com",
		Password:   "secret",
		Recipients: []string{"ops@example.com", "warehouse@example.com"},
	}
}

func TestAttachmentName(t *testing.T) {
	assert.Equal(t, "expired-batches-20240601_083015.xlsx", AttachmentName(runTime))
}

func TestSubject(t *testing.T) {
	assert.Equal(t,
		"Inventory expiry alert report - 2024-06-01 (7 expired batches)",
		Subject(runTime, 7),
	)
}

func TestEmailSink_BuildsMultipartMessage(t *testing.T) {
	var captured *gomail.Message
	sink := NewEmailSink(validMailConfig(), logger.New("test", "test"))
	sink.send = func(m *gomail.Message) error {
		captured = m
		return nil
	}

	attachment := []byte("PK\x03\x04 fake workbook")
	err := sink.Send("report body", attachment, "expired-batches-20240601_083015.xlsx", "subject line")
	require.NoError(t, err)
	require.NotNil(t, captured)

	assert.Equal(t, []string{"alerts@example.com"}, captured.GetHeader("From"))
	assert.Equal(t, []string{"ops@example.com", "warehouse@example.com"}, captured.GetHeader("To"))
	assert.Equal(t, []string{"subject line"}, captured.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = captured.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "report body")
	assert.Contains(t, raw, "expired-batches-20240601_083015.xlsx")
	assert.Contains(t, raw, xlsxContentType)
}

func TestEmailSink_SkipsAttachmentWhenEmpty(t *testing.T) {
	var captured *gomail.Message
	sink := NewEmailSink(validMailConfig(), logger.New("test", "test"))
	sink.send = func(m *gomail.Message) error {
		captured = m
		return nil
	}

	err := sink.Send("report body", nil, "unused.xlsx", "subject line")
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = captured.WriteTo(&buf)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "unused.xlsx")
}

func TestEmailSink_InvalidConfigRejectedBeforeDialing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.MailConfig)
	}{
		{"empty recipients", func(c *config.MailConfig) { c.Recipients = nil }},
		{"malformed recipient", func(c *config.MailConfig) { c.Recipients = []string{"not-an-address"} }},
		{"malformed sender", func(c *config.MailConfig) { c.Sender = "nobody" }},
		{"missing host", func(c *config.MailConfig) { c.SMTPHost = "" }},
		{"missing password", func(c *config.MailConfig) { c.Password = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validMailConfig()
			tt.mutate(&cfg)

			dialed := false
			sink := NewEmailSink(cfg, logger.New("test", "test"))
			sink.send = func(m *gomail.Message) error {
				dialed = true
				return nil
			}

			err := sink.Send("body", []byte("blob"), "f.xlsx", "subject")
			require.Error(t, err)
			assert.Equal(t, errors.KindConfig, errors.KindOf(err))
			assert.False(t, dialed, "must not dial with invalid config")
		})
	}
}

func TestEmailSink_DeliveryFailureIsSinkError(t *testing.T) {
	sink := NewEmailSink(validMailConfig(), logger.New("test", "test"))
	sink.send = func(m *gomail.Message) error {
		return assert.AnError
	}

	err := sink.Send("body", []byte("blob"), "f.xlsx", "subject")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSinkFailed))
}
