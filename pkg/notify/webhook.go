package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/bm-aniversariantes-api/pkg/errors"
)

// placeholderMarker is left in the URL by deployment templates that were never filled in.
const placeholderMarker = "COLE_A_URL"

var dataURIPrefix = regexp.MustCompile(`^data:image/(png|jpeg|jpg);base64,`)

// Message is the payload understood by the e-mail webhook.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Image   string `json:"image"`
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// WebhookClient posts messages to a scripting webhook that sends the e-mail.
//
// Delivery is fire-and-forget: a request that reaches the server counts as
// sent whatever the response status, and the body is discarded. Only transport
// failures and a missing URL are reported as errors.
type WebhookClient struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhookClient builds a client. A zero timeout leaves requests unbounded.
func NewWebhookClient(url string, timeout time.Duration, logger *zap.Logger) *WebhookClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookClient{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Configured reports whether the webhook URL is usable.
func (c *WebhookClient) Configured() bool {
	return c != nil && c.url != "" && !strings.Contains(c.url, placeholderMarker)
}

// Send posts msg as JSON with a text/plain content type, as the webhook expects.
// A data URI prefix on the image is removed first.
func (c *WebhookClient) Send(ctx context.Context, msg Message) error {
	if !c.Configured() {
		return appErrors.ErrWebhookNotConfigured
	}

	msg.Image = StripDataURI(msg.Image)
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Debug("webhook answered with error status", zap.String("to", msg.To), zap.Int("status", resp.StatusCode))
	}
	return nil
}

// StripDataURI removes a leading "data:image/...;base64," prefix.
func StripDataURI(image string) string {
	return dataURIPrefix.ReplaceAllString(image, "")
}
