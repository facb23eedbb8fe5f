package sqlite

import (
	"time"

	"github.com/codermrx/relaybot/internal/models"
)

type userRow struct {
	ID            int64 `gorm:"primaryKey;autoIncrement:false"`
	FirstName     string
	LastName      string
	Username      string
	Phone         string
	JoinedAt      time.Time
	LastActiveAt  time.Time
	MessageCount  int64
	IsAdmin       bool
	PendingAction string
}

func (userRow) TableName() string { return "users" }

func newUserRow(u *models.User) userRow {
	return userRow{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Username:      u.Username,
		Phone:         u.Phone,
		JoinedAt:      u.JoinedAt,
		LastActiveAt:  u.LastActiveAt,
		MessageCount:  u.MessageCount,
		IsAdmin:       u.IsAdmin,
		PendingAction: string(u.PendingAction),
	}
}

func (r userRow) model() *models.User {
	return &models.User{
		ID:            r.ID,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Username:      r.Username,
		Phone:         r.Phone,
		JoinedAt:      r.JoinedAt,
		LastActiveAt:  r.LastActiveAt,
		MessageCount:  r.MessageCount,
		IsAdmin:       r.IsAdmin,
		PendingAction: models.PendingAction(r.PendingAction),
	}
}

type adminRow struct {
	AdminID  int64 `gorm:"primaryKey;autoIncrement:false"`
	Position int
}

func (adminRow) TableName() string { return "admins" }

type channelRow struct {
	ChannelKey  string `gorm:"primaryKey"`
	Username    string
	ChatID      int64
	DisplayName string
	AddedBy     int64
	AddedAt     time.Time
}

func (channelRow) TableName() string { return "channels" }

func newChannelRow(ch *models.Channel) channelRow {
	return channelRow{
		ChannelKey:  ch.Key(),
		Username:    ch.Username,
		ChatID:      ch.ChatID,
		DisplayName: ch.DisplayName,
		AddedBy:     ch.AddedBy,
		AddedAt:     ch.AddedAt,
	}
}

func (r channelRow) model() *models.Channel {
	return &models.Channel{
		Username:    r.Username,
		ChatID:      r.ChatID,
		DisplayName: r.DisplayName,
		AddedBy:     r.AddedBy,
		AddedAt:     r.AddedAt,
	}
}

type messageRow struct {
	ID        uint `gorm:"primaryKey"`
	UserID    int64
	MessageID int
	Text      string
	Date      time.Time `gorm:"index"`
}

func (messageRow) TableName() string { return "messages" }
