package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/codermrx/relaybot/internal/telegram"
)

// StartHandler handles the /start command
type StartHandler struct {
	sender telegram.Sender
	logger *logrus.Logger
}

// NewStartHandler creates a new start command handler
func NewStartHandler(sender telegram.Sender, logger *logrus.Logger) *StartHandler {
	return &StartHandler{
		sender: sender,
		logger: logger,
	}
}

// Handle greets the user with the menu matching their role
func (h *StartHandler) Handle(ctx context.Context, req *telegram.Request) error {
	if req.Directory.IsAdmin(req.User.ID) {
		h.sender.SendText(req.ChatID(), "👋 Welcome to the admin panel!", telegram.AdminMenu())
	} else {
		h.sender.SendText(req.ChatID(),
			"👋 Welcome to our bot! Leave your questions here and we will get back to you soon.",
			telegram.UserMenu())
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": req.ChatID(),
		"user_id": req.User.ID,
	}).Info("Sent start message")

	return nil
}

// UserMenuHandler switches back to the regular user keyboard
type UserMenuHandler struct {
	sender telegram.Sender
}

// NewUserMenuHandler creates a new user menu handler
func NewUserMenuHandler(sender telegram.Sender) *UserMenuHandler {
	return &UserMenuHandler{sender: sender}
}

// Handle shows the user menu
func (h *UserMenuHandler) Handle(ctx context.Context, req *telegram.Request) error {
	h.sender.SendText(req.ChatID(), "Main menu:", telegram.UserMenu())
	return nil
}
