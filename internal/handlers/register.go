package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/codermrx/relaybot/internal/models"
	"github.com/codermrx/relaybot/internal/service"
	"github.com/codermrx/relaybot/internal/telegram"
)

// Deps are the collaborators shared by the handlers
type Deps struct {
	Sender         telegram.Sender
	Service        *service.Service
	Broadcaster    *service.Broadcaster
	DonateURL      string
	SupportContact string
	Logger         *logrus.Logger
}

// Register wires every handler into the router and validates the result
func Register(r *telegram.Router, d Deps) error {
	s := d.Sender

	r.RegisterCommand(telegram.CommandStart, NewStartHandler(s, d.Logger))
	r.RegisterCommand(telegram.LabelUserMenu, NewUserMenuHandler(s))
	r.RegisterCommand(telegram.LabelChannels, NewChannelsHandler(s))
	r.RegisterCommand(telegram.LabelDonate, NewDonateHandler(s, d.DonateURL))
	r.RegisterCommand(telegram.LabelHelp, NewHelpHandler(s, d.SupportContact))

	r.RegisterAdmin(telegram.LabelStats, NewStatsHandler(d.Service, s))
	r.RegisterAdmin(telegram.LabelExportUsers, NewExportHandler(s, d.Logger))
	r.RegisterAdmin(telegram.LabelAdmins, NewMenuHandler(s, "Admin management:", telegram.AdminsMenu()))
	r.RegisterAdmin(telegram.LabelManageChannels, NewMenuHandler(s, "Channel management:", telegram.ChannelsMenu()))
	r.RegisterAdmin(telegram.LabelAdminPanel, NewMenuHandler(s, "Admin panel:", telegram.AdminMenu()))
	r.RegisterAdmin(telegram.LabelListAdmins, NewAdminListHandler(s))
	r.RegisterAdmin(telegram.LabelListChannels, NewChannelListHandler(s))

	r.RegisterAdmin(telegram.LabelBroadcast, NewPromptHandler(s, models.PendingBroadcast, PromptBroadcast))
	r.RegisterAdmin(telegram.LabelAddAdmin, NewPromptHandler(s, models.PendingAddAdmin, PromptAddAdmin))
	r.RegisterAdmin(telegram.LabelRemoveAdmin, NewPromptHandler(s, models.PendingRemoveAdmin, PromptRemoveAdmin))
	r.RegisterAdmin(telegram.LabelAddChannel, NewPromptHandler(s, models.PendingAddChannel, PromptAddChannel))
	r.RegisterAdmin(telegram.LabelRemoveChannel, NewPromptHandler(s, models.PendingRemoveChannel, PromptRemoveChannel))

	r.RegisterPending(models.PendingBroadcast, NewBroadcastHandler(d.Broadcaster, s))
	r.RegisterPending(models.PendingAddAdmin, NewAddAdminHandler(d.Service, s))
	r.RegisterPending(models.PendingRemoveAdmin, NewRemoveAdminHandler(d.Service, s))
	r.RegisterPending(models.PendingAddChannel, NewAddChannelHandler(d.Service, s))
	r.RegisterPending(models.PendingRemoveChannel, NewRemoveChannelHandler(d.Service, s))

	r.SetFallback(NewForwardHandler(s, d.Logger))

	return r.Validate()
}
