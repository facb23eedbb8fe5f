package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/codermrx/relaybot/internal/models"
	"github.com/codermrx/relaybot/internal/service"
	"github.com/codermrx/relaybot/internal/telegram"
)

// Prompts shown when a pending action starts
const (
	PromptAddAdmin      = "Send the user ID of the new admin:"
	PromptRemoveAdmin   = "Send the user ID of the admin to remove:"
	PromptRemoveChannel = "Send the @handle or ID of the channel to remove:"
	PromptBroadcast     = "Send the message to broadcast. Text, a photo or a forwarded message are accepted:"
	PromptAddChannel    = "Send the channel as:\n<code>Display name | @handle</code>\nor\n<code>Display name | -1001234567890</code>"
)

// AddAdminHandler consumes the answer to the add-admin prompt
type AddAdminHandler struct {
	svc    *service.Service
	sender telegram.Sender
}

// NewAddAdminHandler creates a new add admin handler
func NewAddAdminHandler(svc *service.Service, sender telegram.Sender) *AddAdminHandler {
	return &AddAdminHandler{svc: svc, sender: sender}
}

// Handle processes the id sent after the add admin prompt
func (h *AddAdminHandler) Handle(ctx context.Context, req *telegram.Request) error {
	id, err := h.svc.AddAdmin(req.Directory, req.Text, req.User.ID)
	switch {
	case err == nil:
		h.sender.SendText(req.ChatID(), fmt.Sprintf("✅ %d is now an admin!", id), telegram.AdminsMenu())
	case errors.Is(err, models.ErrAlreadyAdmin):
		h.sender.SendText(req.ChatID(), "⚠️ This user is already an admin!", telegram.AdminsMenu())
	case errors.Is(err, models.ErrInvalidUserID):
		h.sender.SendText(req.ChatID(), "❌ Invalid ID format!", telegram.AdminsMenu())
	default:
		return err
	}
	return nil
}

// RemoveAdminHandler consumes the answer to the remove-admin prompt
type RemoveAdminHandler struct {
	svc    *service.Service
	sender telegram.Sender
}

// NewRemoveAdminHandler creates a new remove admin handler
func NewRemoveAdminHandler(svc *service.Service, sender telegram.Sender) *RemoveAdminHandler {
	return &RemoveAdminHandler{svc: svc, sender: sender}
}

// Handle processes the id sent after the remove admin prompt
func (h *RemoveAdminHandler) Handle(ctx context.Context, req *telegram.Request) error {
	id, err := h.svc.RemoveAdmin(req.Directory, req.Text, req.User.ID)
	switch {
	case err == nil:
		h.sender.SendText(req.ChatID(), fmt.Sprintf("✅ %d is no longer an admin!", id), telegram.AdminsMenu())
	case errors.Is(err, models.ErrPrimaryAdmin):
		h.sender.SendText(req.ChatID(), "❌ The primary admin cannot be removed!", telegram.AdminsMenu())
	case errors.Is(err, models.ErrNotAdmin):
		h.sender.SendText(req.ChatID(), "⚠️ This user is not an admin!", telegram.AdminsMenu())
	case errors.Is(err, models.ErrInvalidUserID):
		h.sender.SendText(req.ChatID(), "❌ Invalid ID format!", telegram.AdminsMenu())
	default:
		return err
	}
	return nil
}

// AddChannelHandler consumes the answer to the add-channel prompt
type AddChannelHandler struct {
	svc    *service.Service
	sender telegram.Sender
	now    func() time.Time
}

// NewAddChannelHandler creates a new add channel handler
func NewAddChannelHandler(svc *service.Service, sender telegram.Sender) *AddChannelHandler {
	return &AddChannelHandler{svc: svc, sender: sender, now: time.Now}
}

// Handle processes the "username name" line sent after the add channel prompt
func (h *AddChannelHandler) Handle(ctx context.Context, req *telegram.Request) error {
	ch, existed, err := h.svc.AddChannel(req.Directory, req.Text, req.User.ID, h.now())
	if errors.Is(err, models.ErrInvalidChannelSpec) {
		h.sender.SendText(req.ChatID(), "❌ Invalid format!\n\n"+PromptAddChannel, telegram.ChannelsMenu())
		return nil
	}
	if err != nil {
		return err
	}

	text := fmt.Sprintf("✅ Channel %s added!", html.EscapeString(ch.Link()))
	if existed {
		text = fmt.Sprintf("✅ Channel %s updated!", html.EscapeString(ch.Link()))
	}
	h.sender.SendText(req.ChatID(), text, telegram.ChannelsMenu())
	return nil
}

// RemoveChannelHandler consumes the answer to the remove-channel prompt
type RemoveChannelHandler struct {
	svc    *service.Service
	sender telegram.Sender
}

// NewRemoveChannelHandler creates a new remove channel handler
func NewRemoveChannelHandler(svc *service.Service, sender telegram.Sender) *RemoveChannelHandler {
	return &RemoveChannelHandler{svc: svc, sender: sender}
}

// Handle processes the username sent after the remove channel prompt
func (h *RemoveChannelHandler) Handle(ctx context.Context, req *telegram.Request) error {
	ch, err := h.svc.RemoveChannel(req.Directory, req.Text, req.User.ID)
	if errors.Is(err, models.ErrChannelNotFound) {
		h.sender.SendText(req.ChatID(), "❌ No such channel!", telegram.ChannelsMenu())
		return nil
	}
	if err != nil {
		return err
	}

	h.sender.SendText(req.ChatID(), fmt.Sprintf("✅ Channel %s removed!", html.EscapeString(ch.Link())), telegram.ChannelsMenu())
	return nil
}

// BroadcastHandler consumes the message to broadcast
type BroadcastHandler struct {
	broadcaster *service.Broadcaster
	sender      telegram.Sender
}

// NewBroadcastHandler creates a new broadcast handler
func NewBroadcastHandler(broadcaster *service.Broadcaster, sender telegram.Sender) *BroadcastHandler {
	return &BroadcastHandler{broadcaster: broadcaster, sender: sender}
}

// Handle broadcasts the message to every user and reports the counts
func (h *BroadcastHandler) Handle(ctx context.Context, req *telegram.Request) error {
	h.broadcaster.Broadcast(ctx, req.ChatID(), req.Directory, broadcastPayload(req.Message))
	h.sender.SendText(req.ChatID(), "Admin panel:", telegram.AdminMenu())
	return nil
}

// broadcastPayload picks the payload kind for a message
func broadcastPayload(msg *tgbotapi.Message) service.Payload {
	switch {
	case msg.ForwardDate != 0:
		return service.CopyPayload(msg.Chat.ID, msg.MessageID)
	case len(msg.Photo) > 0:
		largest := msg.Photo[len(msg.Photo)-1]
		return service.PhotoPayload(largest.FileID, msg.Caption)
	case msg.Text != "":
		return service.TextPayload(msg.Text)
	default:
		return service.CopyPayload(msg.Chat.ID, msg.MessageID)
	}
}
