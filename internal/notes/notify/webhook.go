package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Channel delivers rendered notification text.
type Channel interface {
	Send(ctx context.Context, content string) error
}

// WebhookChannel posts text messages to a chat webhook.
type WebhookChannel struct {
	url    string
	client *http.Client
}

type webhookPayload struct {
	MsgType string      `json:"msgtype"`
	Text    webhookText `json:"text"`
}

type webhookText struct {
	Content string `json:"content"`
}

// NewWebhookChannel constructs a webhook channel.
func NewWebhookChannel(url string, timeout time.Duration) (*WebhookChannel, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("webhook channel: empty url")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookChannel{url: url, client: &http.Client{Timeout: timeout}}, nil
}

// Send posts content to the webhook.
func (c *WebhookChannel) Send(ctx context.Context, content string) error {
	if c == nil || c.url == "" {
		return errors.New("webhook channel: empty url")
	}
	body, err := json.Marshal(webhookPayload{
		MsgType: "text",
		Text:    webhookText{Content: content},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook channel: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
