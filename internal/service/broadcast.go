package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codermrx/relaybot/internal/metrics"
	"github.com/codermrx/relaybot/internal/models"
)

// DefaultBroadcastDelay spaces consecutive broadcast sends
const DefaultBroadcastDelay = 100 * time.Millisecond

// PayloadKind tags the content of a broadcast
type PayloadKind int

const (
	PayloadText PayloadKind = iota
	PayloadPhoto
	PayloadCopy
)

// Payload is the content an admin broadcasts
type Payload struct {
	Kind       PayloadKind
	Text       string
	FileID     string
	Caption    string
	FromChatID int64
	MessageID  int
}

// TextPayload broadcasts plain text
func TextPayload(text string) Payload {
	return Payload{Kind: PayloadText, Text: text}
}

// PhotoPayload broadcasts an uploaded photo with a caption
func PhotoPayload(fileID, caption string) Payload {
	return Payload{Kind: PayloadPhoto, FileID: fileID, Caption: caption}
}

// CopyPayload re-sends an existing message, e.g. one forwarded to the bot
func CopyPayload(fromChatID int64, messageID int) Payload {
	return Payload{Kind: PayloadCopy, FromChatID: fromChatID, MessageID: messageID}
}

// BroadcastSender is the part of the Bot API a broadcast needs
type BroadcastSender interface {
	SendText(chatID int64, text string, markup interface{}) bool
	Copy(toChatID, fromChatID int64, messageID int) bool
	SendPhoto(chatID int64, fileID, caption string) bool
}

// Result tallies a broadcast
type Result struct {
	Succeeded int
	Failed    int
}

// Broadcaster fans a payload out to every non-admin user, one at a time
type Broadcaster struct {
	sender BroadcastSender
	delay  time.Duration
	logger *logrus.Logger
}

// NewBroadcaster creates a broadcaster pausing delay between sends
func NewBroadcaster(sender BroadcastSender, delay time.Duration, logger *logrus.Logger) *Broadcaster {
	return &Broadcaster{sender: sender, delay: delay, logger: logger}
}

// Recipients returns the non-admin user ids in ascending order
func Recipients(dir *models.Directory) []int64 {
	var ids []int64
	for _, id := range dir.SortedUserIDs() {
		if !dir.IsAdmin(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Broadcast sends payload to every recipient and reports the tally to the
// originator. If ctx is cancelled the remaining recipients count as failed.
func (b *Broadcaster) Broadcast(ctx context.Context, originator int64, dir *models.Directory, payload Payload) Result {
	recipients := Recipients(dir)
	b.sender.SendText(originator, fmt.Sprintf("📣 Sending the message to %d users...", len(recipients)), nil)

	log := b.logger.WithFields(logrus.Fields{
		"originator": originator,
		"recipients": len(recipients),
	})
	log.Info("Broadcast started")

	var res Result
	for i, id := range recipients {
		if i > 0 && !b.wait(ctx) {
			res.Failed += len(recipients) - i
			log.Warn("Broadcast interrupted")
			break
		}

		ok := b.deliver(id, payload)
		metrics.BroadcastDeliveries.WithLabelValues(metrics.ResultLabel(ok)).Inc()
		if ok {
			res.Succeeded++
		} else {
			res.Failed++
		}
	}

	log.WithFields(logrus.Fields{
		"succeeded": res.Succeeded,
		"failed":    res.Failed,
	}).Info("Broadcast finished")

	b.sender.SendText(originator, fmt.Sprintf(
		"📣 Broadcast finished!\n\n✅ Delivered: %d\n❌ Failed: %d", res.Succeeded, res.Failed), nil)

	return res
}

func (b *Broadcaster) deliver(chatID int64, p Payload) bool {
	switch p.Kind {
	case PayloadPhoto:
		return b.sender.SendPhoto(chatID, p.FileID, p.Caption)
	case PayloadCopy:
		return b.sender.Copy(chatID, p.FromChatID, p.MessageID)
	default:
		return b.sender.SendText(chatID, p.Text, nil)
	}
}

func (b *Broadcaster) wait(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if b.delay <= 0 {
		return true
	}

	timer := time.NewTimer(b.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
