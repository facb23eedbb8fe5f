package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codermrx/relaybot/internal/models"
)

type fetchStep struct {
	updates []tgbotapi.Update
	err     error
}

// scriptedSource replays steps, then cancels the run
type scriptedSource struct {
	steps   []fetchStep
	offsets []int
	cancel  context.CancelFunc
}

func (s *scriptedSource) FetchUpdates(offset int) ([]tgbotapi.Update, error) {
	s.offsets = append(s.offsets, offset)
	if len(s.steps) == 0 {
		s.cancel()
		return nil, nil
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	return step.updates, step.err
}

type recordingDispatcher struct {
	seen    []int
	panicOn int
	failOn  int
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, dir *models.Directory, update tgbotapi.Update) error {
	d.seen = append(d.seen, update.UpdateID)
	if update.UpdateID == d.panicOn {
		panic("boom")
	}
	if update.UpdateID == d.failOn {
		return errors.New("handler failed")
	}
	return nil
}

type memOffset struct {
	offset int
	saves  []int
}

func (m *memOffset) Load() (int, error) { return m.offset, nil }

func (m *memOffset) Save(offset int) error {
	m.saves = append(m.saves, offset)
	if offset > m.offset {
		m.offset = offset
	}
	return nil
}

func runPoller(t *testing.T, steps []fetchStep, dispatcher *recordingDispatcher, checkpoint *memOffset, sender *fakeSender) *scriptedSource {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &scriptedSource{steps: steps, cancel: cancel}
	p := NewPoller(source, dispatcher, checkpoint, sender, models.NewDirectory(primaryAdmin), quietLogger())
	p.SetBackoff(time.Millisecond)

	require.NoError(t, p.Run(ctx))
	return source
}

func TestPoller_SkipsBelowCheckpointAndToleratesGaps(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	checkpoint := &memOffset{offset: 5}

	source := runPoller(t, []fetchStep{
		{updates: []tgbotapi.Update{textUpdate(3, 42, "a"), textUpdate(5, 42, "b"), textUpdate(6, 42, "c"), textUpdate(9, 42, "d")}},
	}, dispatcher, checkpoint, &fakeSender{})

	assert.Equal(t, []int{5, 6, 9}, dispatcher.seen)
	assert.Equal(t, []int{6, 7, 10}, checkpoint.saves)
	assert.Equal(t, []int{5, 10}, source.offsets)
}

func TestPoller_ResumesFromSavedCheckpoint(t *testing.T) {
	checkpoint := &memOffset{}

	runPoller(t, []fetchStep{
		{updates: []tgbotapi.Update{textUpdate(1, 42, "a"), textUpdate(2, 42, "b")}},
	}, &recordingDispatcher{}, checkpoint, &fakeSender{})
	require.Equal(t, 3, checkpoint.offset)

	dispatcher := &recordingDispatcher{}
	source := runPoller(t, []fetchStep{
		{updates: []tgbotapi.Update{textUpdate(2, 42, "b"), textUpdate(3, 42, "c")}},
	}, dispatcher, checkpoint, &fakeSender{})

	assert.Equal(t, 3, source.offsets[0])
	assert.Equal(t, []int{3}, dispatcher.seen)
}

func TestPoller_BacksOffOnFetchError(t *testing.T) {
	dispatcher := &recordingDispatcher{}

	source := runPoller(t, []fetchStep{
		{err: errors.New("network down")},
		{updates: []tgbotapi.Update{textUpdate(1, 42, "a")}},
	}, dispatcher, &memOffset{}, &fakeSender{})

	assert.Equal(t, []int{1}, dispatcher.seen)
	assert.Equal(t, []int{0, 0, 2}, source.offsets)
}

func TestPoller_HandlerFailureRepliesAndAdvances(t *testing.T) {
	dispatcher := &recordingDispatcher{panicOn: 1, failOn: 2}
	checkpoint := &memOffset{}
	sender := &fakeSender{}

	runPoller(t, []fetchStep{
		{updates: []tgbotapi.Update{textUpdate(1, 42, "a"), textUpdate(2, 43, "b"), textUpdate(3, 44, "c")}},
	}, dispatcher, checkpoint, sender)

	assert.Equal(t, []int{1, 2, 3}, dispatcher.seen)
	assert.Equal(t, 4, checkpoint.offset)

	sent := sender.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, int64(42), sent[0].ChatID)
	assert.Equal(t, int64(43), sent[1].ChatID)
	assert.Contains(t, sent[0].Text, "technical issue")
}

func TestPoller_StopsDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	source := &scriptedSource{cancel: cancel, steps: []fetchStep{{err: errors.New("down")}}}
	p := NewPoller(source, &recordingDispatcher{}, &memOffset{}, &fakeSender{}, models.NewDirectory(primaryAdmin), quietLogger())
	p.SetBackoff(time.Hour)

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
}
