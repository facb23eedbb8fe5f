package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/codermrx/relaybot/internal/metrics"
)

// Client wraps the Telegram Bot API. Send methods report delivery as a bool
// and log failures; nothing retries internally.
type Client struct {
	api         *tgbotapi.BotAPI
	logger      *logrus.Logger
	pollTimeout int
}

// NewClient creates a new Telegram client. An empty endpoint uses the public
// Bot API.
func NewClient(token, endpoint string, pollTimeout int, logger *logrus.Logger) (*Client, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	httpClient := &http.Client{Timeout: time.Duration(pollTimeout)*time.Second + 10*time.Second}

	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Infof("Authorized on account %s", api.Self.UserName)

	return &Client{
		api:         api,
		logger:      logger,
		pollTimeout: pollTimeout,
	}, nil
}

// Connect creates a client, retrying getMe every backoff until it succeeds
// or ctx is cancelled. A token rejected by Telegram is returned at once.
func Connect(ctx context.Context, token, endpoint string, pollTimeout int, backoff time.Duration, logger *logrus.Logger) (*Client, error) {
	for attempt := 1; ; attempt++ {
		client, err := NewClient(token, endpoint, pollTimeout, logger)
		if err == nil {
			return client, nil
		}
		if isUnauthorized(err) {
			return nil, err
		}

		metrics.PollErrors.Inc()
		logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err,
		}).Warn("Telegram unreachable, retrying")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func isUnauthorized(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized
}

// Username returns the bot's own username
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// FetchUpdates long-polls for updates starting at offset. On failure it
// returns an empty batch together with the error.
func (c *Client) FetchUpdates(offset int) ([]tgbotapi.Update, error) {
	u := tgbotapi.NewUpdate(offset)
	u.Timeout = c.pollTimeout
	u.AllowedUpdates = []string{"message"}

	updates, err := c.api.GetUpdates(u)
	if err != nil {
		return nil, fmt.Errorf("failed to get updates from offset %d: %w", offset, err)
	}

	return updates, nil
}

// SendText sends an HTML message with an optional reply markup
func (c *Client) SendText(chatID int64, text string, markup interface{}) bool {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = markup
	}

	return c.send(msg, chatID, "send message")
}

// Forward forwards a message between chats
func (c *Client) Forward(toChatID, fromChatID int64, messageID int) bool {
	return c.send(tgbotapi.NewForward(toChatID, fromChatID, messageID), toChatID, "forward message")
}

// Copy re-sends a message without the forward header
func (c *Client) Copy(toChatID, fromChatID int64, messageID int) bool {
	if _, err := c.api.CopyMessage(tgbotapi.NewCopyMessage(toChatID, fromChatID, messageID)); err != nil {
		c.logFailure(toChatID, "copy message", err)
		return false
	}
	return true
}

// SendPhoto sends an already uploaded photo by file id
func (c *Client) SendPhoto(chatID int64, fileID, caption string) bool {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML

	return c.send(photo, chatID, "send photo")
}

// SendDocument uploads an in-memory file
func (c *Client) SendDocument(chatID int64, name string, data []byte, caption string) bool {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption

	return c.send(doc, chatID, "send document")
}

func (c *Client) send(msg tgbotapi.Chattable, chatID int64, op string) bool {
	if _, err := c.api.Send(msg); err != nil {
		c.logFailure(chatID, op, err)
		return false
	}
	return true
}

func (c *Client) logFailure(chatID int64, op string, err error) {
	c.logger.WithFields(logrus.Fields{
		"chat_id": chatID,
		"op":      op,
		"error":   err,
	}).Warn("Telegram request failed")
}

// DeleteWebhook removes any webhook so long polling can receive updates
func (c *Client) DeleteWebhook() error {
	if _, err := c.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return nil
}
