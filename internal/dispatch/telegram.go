// Package dispatch sends the daily summary to the tips channel.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrDisabled is returned by notifiers that are switched off.
var ErrDisabled = errors.New("dispatch disabled")

// Notifier delivers a text message.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// NoopNotifier drops every message.
type NoopNotifier struct{}

// Send implements Notifier.
func (NoopNotifier) Send(context.Context, string) error { return ErrDisabled }

// TelegramConfig configures a TelegramNotifier.
type TelegramConfig struct {
	APIURL   string
	BotToken string
	ChatID   string
	HTTP     HTTPClientConfig
}

// TelegramNotifier posts messages through the Telegram Bot API.
type TelegramNotifier struct {
	client  *RateLimitedHTTPClient
	baseURL string
	token   string
	chatID  string
	logger  *logrus.Entry
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// NewTelegramNotifier creates a notifier for one chat.
func NewTelegramNotifier(cfg TelegramConfig, logger *logrus.Logger) *TelegramNotifier {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	base := strings.TrimRight(cfg.APIURL, "/")
	if base == "" {
		base = "https://api.telegram.org"
	}
	return &TelegramNotifier{
		client:  NewRateLimitedHTTPClient(cfg.HTTP, logger),
		baseURL: base,
		token:   cfg.BotToken,
		chatID:  cfg.ChatID,
		logger:  logger.WithField("component", "telegram"),
	}
}

// Send posts text to the configured chat. It makes a single attempt; callers
// treat failure as non-fatal.
func (n *TelegramNotifier) Send(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	form.Set("parse_mode", "HTML")

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	resp, err := n.client.Post(ctx, endpoint, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		// the endpoint carries the token, so it is not echoed back
		return fmt.Errorf("telegram send failed: %w", redact(err, n.token))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("failed to read telegram response: %w", err)
	}

	var parsed telegramResponse
	_ = json.Unmarshal(body, &parsed)
	if resp.StatusCode != http.StatusOK || !parsed.OK {
		return fmt.Errorf("telegram returned status %d: %s", resp.StatusCode, parsed.Description)
	}

	n.logger.WithField("chat_id", n.chatID).Debug("Message dispatched")
	return nil
}

// Close releases idle connections.
func (n *TelegramNotifier) Close() error {
	return n.client.Close()
}

type redactedError struct {
	msg   string
	cause error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.cause }

func redact(err error, secret string) error {
	if secret == "" {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), secret, "***"), cause: err}
}
