package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/codermrx/relaybot/internal/models"
	"github.com/codermrx/relaybot/internal/telegram"
)

// HelpHandler answers the help button
type HelpHandler struct {
	sender  telegram.Sender
	contact string
}

// NewHelpHandler creates a new help handler
func NewHelpHandler(sender telegram.Sender, contact string) *HelpHandler {
	return &HelpHandler{sender: sender, contact: contact}
}

// Handle sends the help text with the support contact
func (h *HelpHandler) Handle(ctx context.Context, req *telegram.Request) error {
	text := "ℹ️ <b>Help</b>\n\nJust write your question here and an admin will reply."
	if h.contact != "" {
		text += fmt.Sprintf("\n\nYou can also contact %s.", html.EscapeString(h.contact))
	}
	h.sender.SendText(req.ChatID(), text, nil)
	return nil
}

// DonateHandler answers the donate button
type DonateHandler struct {
	sender telegram.Sender
	url    string
}

// NewDonateHandler creates a new donate handler
func NewDonateHandler(sender telegram.Sender, url string) *DonateHandler {
	return &DonateHandler{sender: sender, url: url}
}

// Handle sends the donation link
func (h *DonateHandler) Handle(ctx context.Context, req *telegram.Request) error {
	if h.url == "" {
		h.sender.SendText(req.ChatID(), "💸 Thank you for your support! Donations are not open yet.", nil)
		return nil
	}
	h.sender.SendText(req.ChatID(),
		fmt.Sprintf("💸 Support us:\n\n🔹 Donate: %s", html.EscapeString(h.url)), nil)
	return nil
}

// ChannelsHandler lists the announcement channels to any user
type ChannelsHandler struct {
	sender telegram.Sender
}

// NewChannelsHandler creates a new public channel list handler
func NewChannelsHandler(sender telegram.Sender) *ChannelsHandler {
	return &ChannelsHandler{sender: sender}
}

// Handle lists our channels to any user
func (h *ChannelsHandler) Handle(ctx context.Context, req *telegram.Request) error {
	list := formatChannels(req.Directory.SortedChannels())
	if list == "" {
		list = "No channels yet."
	}
	h.sender.SendText(req.ChatID(), "📢 Our channels:\n\n"+list, nil)
	return nil
}

// formatChannels renders one line per channel
func formatChannels(channels []*models.Channel) string {
	var sb strings.Builder
	for _, ch := range channels {
		fmt.Fprintf(&sb, "• %s: %s\n", html.EscapeString(ch.DisplayName), html.EscapeString(ch.Link()))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
