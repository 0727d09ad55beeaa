package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/config"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/errors"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/logger"
)

// chatMessage is the webhook payload. The endpoint is WeCom-compatible:
// {"msgtype": "text", "text": {"content": ...}}
type chatMessage struct {
	MsgType string   `json:"msgtype"`
	Text    chatText `json:"text"`
}

type chatText struct {
	Content string `json:"content"`
}

// ChatSink delivers the digest to a chat webhook endpoint
type ChatSink struct {
	webhookURL string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewChatSink creates a new chat webhook sink
func NewChatSink(cfg *config.ChatConfig, log *logger.Logger) *ChatSink {
	return &ChatSink{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log,
	}
}

// Send posts the digest text to the webhook. Success is HTTP 200; anything
// else is a sink error the caller logs without blocking email delivery.
func (s *ChatSink) Send(ctx context.Context, content string) error {
	if s.webhookURL == "" {
		return errors.ConfigInvalid("chat", "webhook URL is not configured")
	}

	payload, err := json.Marshal(chatMessage{
		MsgType: "text",
		Text:    chatText{Content: content},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.SinkFailure(err, "chat", "webhook call failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.SinkFailure(
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body),
			"chat", "webhook rejected message",
		)
	}

	s.logger.Info().Int("content_len", len(content)).Msg("chat alert sent")
	return nil
}
