package telegram

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/codermrx/relaybot/internal/models"
)

type sentText struct {
	ChatID int64
	Text   string
	Markup interface{}
}

type fakeSender struct {
	mu    sync.Mutex
	texts []sentText
}

func (f *fakeSender) SendText(chatID int64, text string, markup interface{}) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, sentText{ChatID: chatID, Text: text, Markup: markup})
	return true
}

func (f *fakeSender) Forward(toChatID, fromChatID int64, messageID int) bool { return true }
func (f *fakeSender) Copy(toChatID, fromChatID int64, messageID int) bool    { return true }
func (f *fakeSender) SendPhoto(chatID int64, fileID, caption string) bool    { return true }
func (f *fakeSender) SendDocument(chatID int64, name string, data []byte, caption string) bool {
	return true
}

func (f *fakeSender) sent() []sentText {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentText(nil), f.texts...)
}

type fakeStore struct {
	saves    int
	messages []models.MessageRecord
}

func (f *fakeStore) Save(ctx context.Context, dir *models.Directory) error {
	f.saves++
	return nil
}

func (f *fakeStore) RecordMessage(ctx context.Context, dir *models.Directory, rec models.MessageRecord) {
	f.messages = append(f.messages, rec)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
