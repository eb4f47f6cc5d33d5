// Package botapi delivers florist and manager notifications through a chat
// bot HTTP API.
package botapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Config configures the bot client. Retries is the number of extra attempts
// after a failed request. A zero Timeout means 5s.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Retries int
}

// sendMessageRequest is the body of the bot sendMessage method.
type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// apiResponse is the envelope the bot API wraps every reply in. OK is false
// when the message was not delivered.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// Client implements ports.Notifier with a synchronous request per message.
type Client struct {
	http  *resty.Client
	token string
}

// NewClient creates a client posting to BaseURL with Token in the path.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	http := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetHeader("Content-Type", "application/json")
	return &Client{http: http, token: cfg.Token}
}

// Notify sends message to channelID and waits for the answer. A response with
// ok=false is an error.
func (c *Client) Notify(ctx context.Context, channelID string, message string) error {
	if channelID == "" {
		return errors.New("bot api: empty channel")
	}

	var result apiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(sendMessageRequest{ChatID: channelID, Text: message}).
		SetResult(&result).
		SetError(&result).
		Post(fmt.Sprintf("/bot%s/sendMessage", c.token))
	if err != nil {
		return errors.Wrapf(err, "bot api: send to %s", channelID)
	}
	if resp.IsError() || !result.OK {
		return errors.Errorf("bot api: send to %s: status %d: %s", channelID, resp.StatusCode(), result.Description)
	}
	return nil
}
