package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/codermrx/relaybot/internal/models"
	"github.com/codermrx/relaybot/internal/service"
	"github.com/codermrx/relaybot/internal/telegram"
)

const statsTimeLayout = "2006-01-02 15:04:05"

// StatsHandler reports directory statistics
type StatsHandler struct {
	svc    *service.Service
	sender telegram.Sender
	now    func() time.Time
}

// NewStatsHandler creates a new statistics handler
func NewStatsHandler(svc *service.Service, sender telegram.Sender) *StatsHandler {
	return &StatsHandler{svc: svc, sender: sender, now: time.Now}
}

// Handle reports user, admin, channel and message totals
func (h *StatsHandler) Handle(ctx context.Context, req *telegram.Request) error {
	s := h.svc.Stats(ctx, req.Directory, h.now())

	text := fmt.Sprintf("📊 <b>Bot statistics</b>\n\n"+
		"👥 <b>Total users:</b> %d\n"+
		"🟢 <b>Active users (7 days):</b> %d\n"+
		"📨 <b>Total messages:</b> %d\n"+
		"👨‍💻 <b>Admins:</b> %d\n"+
		"📢 <b>Channels:</b> %d\n\n"+
		"🔄 <i>Updated: %s</i>",
		s.TotalUsers, s.ActiveUsers, s.TotalMessages, s.Admins, s.Channels,
		s.GeneratedAt.Format(statsTimeLayout))

	h.sender.SendText(req.ChatID(), text, nil)
	return nil
}

// ExportHandler sends the user directory as a spreadsheet
type ExportHandler struct {
	sender telegram.Sender
	logger *logrus.Logger
	now    func() time.Time
}

// NewExportHandler creates a new user export handler
func NewExportHandler(sender telegram.Sender, logger *logrus.Logger) *ExportHandler {
	return &ExportHandler{sender: sender, logger: logger, now: time.Now}
}

// Handle sends the user directory as a spreadsheet
func (h *ExportHandler) Handle(ctx context.Context, req *telegram.Request) error {
	if len(req.Directory.Users) == 0 {
		h.sender.SendText(req.ChatID(), "❌ No users yet!", nil)
		return nil
	}

	data, err := service.ExportUsers(req.Directory)
	if err != nil {
		h.sender.SendText(req.ChatID(), "❌ Failed to build the user list!", nil)
		return fmt.Errorf("export users: %w", err)
	}

	name := service.ExportFileName(h.now())
	if !h.sender.SendDocument(req.ChatID(), name, data, "📊 User list") {
		h.sender.SendText(req.ChatID(), "❌ Failed to send the user list!", nil)
		return nil
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": req.ChatID(),
		"users":   len(req.Directory.Users),
	}).Info("Users exported")
	return nil
}

// MenuHandler replies with a fixed text and keyboard
type MenuHandler struct {
	sender   telegram.Sender
	text     string
	keyboard tgbotapi.ReplyKeyboardMarkup
}

// NewMenuHandler creates a handler that shows a fixed keyboard
func NewMenuHandler(sender telegram.Sender, text string, keyboard tgbotapi.ReplyKeyboardMarkup) *MenuHandler {
	return &MenuHandler{sender: sender, text: text, keyboard: keyboard}
}

// Handle shows the menu
func (h *MenuHandler) Handle(ctx context.Context, req *telegram.Request) error {
	h.sender.SendText(req.ChatID(), h.text, h.keyboard)
	return nil
}

// PromptHandler starts a prompt: it records the pending action and asks for
// the answer.
type PromptHandler struct {
	sender telegram.Sender
	action models.PendingAction
	prompt string
}

// NewPromptHandler creates a handler that starts a pending action
func NewPromptHandler(sender telegram.Sender, action models.PendingAction, prompt string) *PromptHandler {
	return &PromptHandler{sender: sender, action: action, prompt: prompt}
}

// Handle sends the prompt and records the pending action
func (h *PromptHandler) Handle(ctx context.Context, req *telegram.Request) error {
	req.User.PendingAction = h.action
	h.sender.SendText(req.ChatID(), h.prompt, telegram.CancelKeyboard())
	return nil
}

// AdminListHandler lists the admin set
type AdminListHandler struct {
	sender telegram.Sender
}

// NewAdminListHandler creates a new admin list handler
func NewAdminListHandler(sender telegram.Sender) *AdminListHandler {
	return &AdminListHandler{sender: sender}
}

// Handle lists admins, primary admin first
func (h *AdminListHandler) Handle(ctx context.Context, req *telegram.Request) error {
	dir := req.Directory

	var sb strings.Builder
	sb.WriteString("👨‍💻 Admins:\n\n")
	for _, id := range dir.Admins {
		name := "unknown"
		if u, ok := dir.Users[id]; ok {
			name = u.DisplayName()
		}
		fmt.Fprintf(&sb, "• <code>%d</code> %s", id, html.EscapeString(name))
		if id == dir.PrimaryAdminID {
			sb.WriteString(" ⭐")
		}
		sb.WriteString("\n")
	}

	h.sender.SendText(req.ChatID(), strings.TrimSuffix(sb.String(), "\n"), nil)
	return nil
}

// ChannelListHandler lists channels with their keys for management
type ChannelListHandler struct {
	sender telegram.Sender
}

// NewChannelListHandler creates a new channel list handler
func NewChannelListHandler(sender telegram.Sender) *ChannelListHandler {
	return &ChannelListHandler{sender: sender}
}

// Handle lists the registered channels for admins
func (h *ChannelListHandler) Handle(ctx context.Context, req *telegram.Request) error {
	list := formatChannels(req.Directory.SortedChannels())
	if list == "" {
		list = "No channels."
	}
	h.sender.SendText(req.ChatID(), "📋 Channels:\n\n"+list, nil)
	return nil
}
