package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/codermrx/relaybot/internal/metrics"
	"github.com/codermrx/relaybot/internal/models"
)

// DefaultPollBackoff is the pause after a failed getUpdates call
const DefaultPollBackoff = 5 * time.Second

const technicalIssueText = "⚠️ Temporary technical issue. Please try again later."

// UpdateSource fetches updates starting at an offset
type UpdateSource interface {
	FetchUpdates(offset int) ([]tgbotapi.Update, error)
}

// Dispatcher handles one update against the directory
type Dispatcher interface {
	Dispatch(ctx context.Context, dir *models.Directory, update tgbotapi.Update) error
}

// OffsetStore persists the next update offset
type OffsetStore interface {
	Load() (int, error)
	Save(offset int) error
}

// TextSender sends plain replies
type TextSender interface {
	SendText(chatID int64, text string, markup interface{}) bool
}

// Poller drives the long-poll loop. Updates are handled one at a time in
// update-id order, and the checkpoint is advanced after each one.
type Poller struct {
	source     UpdateSource
	dispatcher Dispatcher
	checkpoint OffsetStore
	sender     TextSender
	dir        *models.Directory
	logger     *logrus.Logger
	backoff    time.Duration
}

// NewPoller creates a poller over the loaded directory
func NewPoller(source UpdateSource, dispatcher Dispatcher, checkpoint OffsetStore, sender TextSender, dir *models.Directory, logger *logrus.Logger) *Poller {
	return &Poller{
		source:     source,
		dispatcher: dispatcher,
		checkpoint: checkpoint,
		sender:     sender,
		dir:        dir,
		logger:     logger,
		backoff:    DefaultPollBackoff,
	}
}

// SetBackoff overrides the pause after a failed fetch
func (p *Poller) SetBackoff(d time.Duration) {
	p.backoff = d
}

// Run polls until ctx is cancelled
func (p *Poller) Run(ctx context.Context) error {
	offset, err := p.checkpoint.Load()
	if err != nil {
		p.logger.WithError(err).Warn("Checkpoint unreadable, starting from offset 0")
	}
	metrics.Checkpoint.Set(float64(offset))

	p.logger.WithField("offset", offset).Info("Bot started with long polling")

	for {
		if ctx.Err() != nil {
			p.logger.Info("Stopping bot...")
			return nil
		}

		updates, err := p.source.FetchUpdates(offset)
		if err != nil {
			metrics.PollErrors.Inc()
			p.logger.WithError(err).Warn("Polling failed")
			if !p.sleep(ctx) {
				p.logger.Info("Stopping bot...")
				return nil
			}
			continue
		}

		offset = p.processBatch(ctx, offset, updates)
	}
}

// processBatch handles a fetched batch and returns the next offset
func (p *Poller) processBatch(ctx context.Context, offset int, updates []tgbotapi.Update) int {
	for _, update := range updates {
		if update.UpdateID < offset {
			continue
		}

		outcome := metrics.ResultOK
		if err := p.handle(ctx, update); err != nil {
			outcome = metrics.ResultFailed
			p.logger.WithFields(logrus.Fields{
				"update_id": update.UpdateID,
				"error":     err,
			}).Error("Failed to handle update")
			if msg := update.Message; msg != nil && msg.Chat != nil {
				p.sender.SendText(msg.Chat.ID, technicalIssueText, nil)
			}
		}
		metrics.UpdatesProcessed.WithLabelValues(outcome).Inc()

		offset = update.UpdateID + 1
		if err := p.checkpoint.Save(offset); err != nil {
			p.logger.WithError(err).Warn("Failed to persist checkpoint")
		}
		metrics.Checkpoint.Set(float64(offset))
	}
	return offset
}

// handle dispatches one update, converting a panic into an error
func (p *Poller) handle(ctx context.Context, update tgbotapi.Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in update handler: %v", r)
		}
	}()

	return p.dispatcher.Dispatch(ctx, p.dir, update)
}

func (p *Poller) sleep(ctx context.Context) bool {
	timer := time.NewTimer(p.backoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
