package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

var _ WebhookService = (*HTTPWebhookService)(nil)

type HTTPWebhookService struct {
	client *http.Client
}

func NewHTTPWebhookService(client *http.Client) *HTTPWebhookService {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPWebhookService{client: client}
}

func (s *HTTPWebhookService) Send(ctx context.Context, url string, data map[string]any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, body)
	}
	return nil
}

var _ Channel = (*WebhookChannel)(nil)

// WebhookChannel 以 JSON 推送纯文本通知
type WebhookChannel struct {
	svc WebhookService
	url string
}

func NewWebhookChannel(svc WebhookService, url string) *WebhookChannel {
	return &WebhookChannel{svc: svc, url: url}
}

func (c *WebhookChannel) Name() string {
	return "webhook"
}

func (c *WebhookChannel) Send(ctx context.Context, msg Message) error {
	return c.svc.Send(ctx, c.url, map[string]any{
		"title":     msg.Title,
		"content":   msg.Content,
		"level":     string(msg.Level),
		"timestamp": msg.Timestamp.Format(time.RFC3339),
	})
}
