package handlers

import (
	"context"
	"fmt"
	"html"

	"github.com/sirupsen/logrus"

	"github.com/codermrx/relaybot/internal/metrics"
	"github.com/codermrx/relaybot/internal/telegram"
)

const previewLimit = 100

type forwardKey struct {
	chatID    int64
	messageID int
}

// ForwardHandler relays a regular user's message to every admin followed by
// an attribution note. A message is relayed at most once per process.
type ForwardHandler struct {
	sender telegram.Sender
	logger *logrus.Logger
	seen   map[forwardKey]struct{}
}

// NewForwardHandler creates a new forward handler
func NewForwardHandler(sender telegram.Sender, logger *logrus.Logger) *ForwardHandler {
	return &ForwardHandler{
		sender: sender,
		logger: logger,
		seen:   make(map[forwardKey]struct{}),
	}
}

// Handle forwards a user message to every admin once
func (h *ForwardHandler) Handle(ctx context.Context, req *telegram.Request) error {
	key := forwardKey{chatID: req.ChatID(), messageID: req.Message.MessageID}
	if _, dup := h.seen[key]; dup {
		h.logger.WithFields(logrus.Fields{
			"chat_id":    key.chatID,
			"message_id": key.messageID,
		}).Debug("Message already forwarded")
		return nil
	}
	h.seen[key] = struct{}{}

	note := attribution(req)
	delivered := 0
	for _, adminID := range req.Directory.Admins {
		ok := h.sender.Forward(adminID, key.chatID, key.messageID)
		metrics.Forwards.WithLabelValues(metrics.ResultLabel(ok)).Inc()
		if ok {
			delivered++
		}
		h.sender.SendText(adminID, note, nil)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id":   key.chatID,
		"user_id":   req.User.ID,
		"admins":    len(req.Directory.Admins),
		"delivered": delivered,
	}).Info("Forwarded message to admins")

	h.sender.SendText(key.chatID, "✅ Your message has been received! We will reply soon.", nil)
	return nil
}

// attribution describes the sender for the admin notice
func attribution(req *telegram.Request) string {
	u := req.User
	handle := "unknown"
	if u.Username != "" {
		handle = "@" + u.Username
	}

	return fmt.Sprintf("📨 New message!\n👤: %s\n📱: %s\n🆔: <code>%d</code>\n📝: %s",
		html.EscapeString(u.FullName()),
		html.EscapeString(handle),
		u.ID,
		html.EscapeString(truncate(req.Text, previewLimit)))
}

// truncate cuts s to limit runes, marking the cut with "..."
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
