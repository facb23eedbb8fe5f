package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/codermrx/relaybot/internal/models"
)

// Sender is the outbound half of the Bot API
type Sender interface {
	SendText(chatID int64, text string, markup interface{}) bool
	Forward(toChatID, fromChatID int64, messageID int) bool
	Copy(toChatID, fromChatID int64, messageID int) bool
	SendPhoto(chatID int64, fileID, caption string) bool
	SendDocument(chatID int64, name string, data []byte, caption string) bool
}

// DirectoryStore persists the directory after every update
type DirectoryStore interface {
	Save(ctx context.Context, dir *models.Directory) error
	RecordMessage(ctx context.Context, dir *models.Directory, rec models.MessageRecord)
}

// Request is one inbound message together with its sender's record
type Request struct {
	Message   *tgbotapi.Message
	User      *models.User
	Directory *models.Directory
	Text      string
}

// ChatID returns the chat the message came from
func (r *Request) ChatID() int64 {
	return r.Message.Chat.ID
}

// Handler handles a routed message
type Handler interface {
	Handle(ctx context.Context, req *Request) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, req *Request) error

// Handle calls f
func (f HandlerFunc) Handle(ctx context.Context, req *Request) error {
	return f(ctx, req)
}

// Router dispatches messages: global labels first, then admin labels, then
// the sender's pending prompt, then the fallback.
type Router struct {
	logger   *logrus.Logger
	store    DirectoryStore
	sender   Sender
	global   map[string]Handler
	admin    map[string]Handler
	pending  map[models.PendingAction]Handler
	fallback Handler
	now      func() time.Time
}

// NewRouter creates a new message router
func NewRouter(store DirectoryStore, sender Sender, logger *logrus.Logger) *Router {
	return &Router{
		logger:  logger,
		store:   store,
		sender:  sender,
		global:  make(map[string]Handler),
		admin:   make(map[string]Handler),
		pending: make(map[models.PendingAction]Handler),
		now:     time.Now,
	}
}

// RegisterCommand registers a handler available to every user
func (r *Router) RegisterCommand(label string, handler Handler) {
	r.global[label] = handler
	r.logger.Debugf("Registered command: %s", label)
}

// RegisterAdmin registers a handler available to admins only
func (r *Router) RegisterAdmin(label string, handler Handler) {
	r.admin[label] = handler
	r.logger.Debugf("Registered admin command: %s", label)
}

// RegisterPending registers the handler that consumes the answer to a prompt
func (r *Router) RegisterPending(action models.PendingAction, handler Handler) {
	r.pending[action] = handler
}

// SetFallback sets the handler for unrecognized messages from regular users
func (r *Router) SetFallback(handler Handler) {
	r.fallback = handler
}

// Validate checks that every pending action and the fallback have handlers
func (r *Router) Validate() error {
	for _, action := range models.PendingActions() {
		if _, ok := r.pending[action]; !ok {
			return fmt.Errorf("no handler registered for pending action %q", action)
		}
	}
	if r.fallback == nil {
		return fmt.Errorf("no fallback handler registered")
	}
	return nil
}

// Dispatch routes one update and then saves the directory. Updates without
// a message or sender are ignored.
func (r *Router) Dispatch(ctx context.Context, dir *models.Directory, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return nil
	}

	sender := models.Sender{
		ID:        msg.From.ID,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
		Username:  msg.From.UserName,
	}
	if msg.Contact != nil && msg.Contact.UserID == msg.From.ID {
		sender.Phone = msg.Contact.PhoneNumber
	}

	now := r.now()
	user := dir.Touch(sender, now)
	r.store.RecordMessage(ctx, dir, models.MessageRecord{
		UserID:    user.ID,
		MessageID: msg.MessageID,
		Text:      messageText(msg),
		Date:      now,
	})

	req := &Request{
		Message:   msg,
		User:      user,
		Directory: dir,
		Text:      strings.TrimSpace(messageText(msg)),
	}

	err := r.route(ctx, req)

	if saveErr := r.store.Save(ctx, dir); saveErr != nil {
		r.logger.WithFields(logrus.Fields{
			"update_id": update.UpdateID,
			"error":     saveErr,
		}).Warn("Directory save degraded")
	}

	return err
}

func (r *Router) route(ctx context.Context, req *Request) error {
	key := req.Text
	if req.Message.IsCommand() {
		key = "/" + req.Message.Command()
	}

	// Any message ends the previous prompt; an entry point may set a new one.
	action := req.User.TakePending()
	isAdmin := req.Directory.IsAdmin(req.User.ID)

	log := r.logger.WithFields(logrus.Fields{
		"chat_id":    req.ChatID(),
		"user_id":    req.User.ID,
		"message_id": req.Message.MessageID,
	})

	if handler, ok := r.global[key]; ok {
		log.WithField("label", key).Debug("Global command")
		return handler.Handle(ctx, req)
	}

	if isAdmin {
		if handler, ok := r.admin[key]; ok {
			log.WithField("label", key).Debug("Admin command")
			return handler.Handle(ctx, req)
		}
	}

	switch {
	case action != models.PendingNone && isAdmin:
		if key == LabelCancel {
			r.sender.SendText(req.ChatID(), "❌ Cancelled.", AdminMenu())
			return nil
		}
		handler, ok := r.pending[action]
		if !ok {
			return fmt.Errorf("no handler for pending action %q", action)
		}
		log.WithField("action", action).Info("Consuming pending action")
		return handler.Handle(ctx, req)
	case action != models.PendingNone:
		log.WithField("action", action).Warn("Dropping pending action of non-admin")
	}

	if isAdmin {
		r.sender.SendText(req.ChatID(), "Use the admin panel buttons below.", AdminMenu())
		return nil
	}

	if r.fallback == nil {
		return nil
	}
	return r.fallback.Handle(ctx, req)
}

// messageText returns the text or the media caption
func messageText(msg *tgbotapi.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}
