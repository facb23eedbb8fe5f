package directory

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codermrx/relaybot/internal/models"
	"github.com/codermrx/relaybot/internal/repository"
	"github.com/codermrx/relaybot/internal/repository/jsonfile"
)

var errDown = errors.New("connection refused")

// fakePrimary is an in-memory primary store whose entities can be taken
// offline one at a time.
type fakePrimary struct {
	users    map[int64]models.User
	admins   []int64
	channels map[string]models.Channel
	messages []models.MessageRecord

	down map[string]bool
}

func newFakePrimary() *fakePrimary {
	return &fakePrimary{
		users:    make(map[int64]models.User),
		channels: make(map[string]models.Channel),
		down:     make(map[string]bool),
	}
}

func (f *fakePrimary) repos() *repository.Repositories {
	return &repository.Repositories{
		Users:    fakeUsers{f},
		Admins:   fakeAdmins{f},
		Channels: fakeChannels{f},
		Messages: fakeMessages{f},
	}
}

func (f *fakePrimary) setDown(down bool) {
	for _, e := range []string{entityUsers, entityAdmins, entityChannels, entityMessages} {
		f.down[e] = down
	}
}

type fakeUsers struct{ f *fakePrimary }

func (r fakeUsers) List(ctx context.Context) ([]*models.User, error) {
	if r.f.down[entityUsers] {
		return nil, errDown
	}
	var out []*models.User
	for _, u := range r.f.users {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeUsers) Upsert(ctx context.Context, users []*models.User) error {
	if r.f.down[entityUsers] {
		return errDown
	}
	for _, u := range users {
		r.f.users[u.ID] = *u
	}
	return nil
}

type fakeAdmins struct{ f *fakePrimary }

func (r fakeAdmins) List(ctx context.Context) ([]int64, error) {
	if r.f.down[entityAdmins] {
		return nil, errDown
	}
	return append([]int64(nil), r.f.admins...), nil
}

func (r fakeAdmins) Replace(ctx context.Context, ids []int64) error {
	if r.f.down[entityAdmins] {
		return errDown
	}
	r.f.admins = append([]int64(nil), ids...)
	return nil
}

type fakeChannels struct{ f *fakePrimary }

func (r fakeChannels) List(ctx context.Context) ([]*models.Channel, error) {
	if r.f.down[entityChannels] {
		return nil, errDown
	}
	var out []*models.Channel
	for _, ch := range r.f.channels {
		ch := ch
		out = append(out, &ch)
	}
	return out, nil
}

func (r fakeChannels) Sync(ctx context.Context, channels []*models.Channel) error {
	if r.f.down[entityChannels] {
		return errDown
	}
	r.f.channels = make(map[string]models.Channel)
	for _, ch := range channels {
		r.f.channels[ch.Key()] = *ch
	}
	return nil
}

type fakeMessages struct{ f *fakePrimary }

func (r fakeMessages) Insert(ctx context.Context, rec *models.MessageRecord) error {
	if r.f.down[entityMessages] {
		return errDown
	}
	r.f.messages = append(r.f.messages, *rec)
	return nil
}

func (r fakeMessages) Count(ctx context.Context) (int64, error) {
	if r.f.down[entityMessages] {
		return 0, errDown
	}
	return int64(len(r.f.messages)), nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestStore(t *testing.T, primary *fakePrimary) (*Store, *jsonfile.Mirror) {
	t.Helper()
	mirror, err := jsonfile.NewMirror(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)

	var repos *repository.Repositories
	if primary != nil {
		repos = primary.repos()
	}
	return NewStore(repos, mirror, 1, quietLogger()), mirror
}

var at = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func seed(f *fakePrimary) {
	f.users[1] = models.User{ID: 1, FirstName: "Boss", JoinedAt: at, LastActiveAt: at, MessageCount: 4, IsAdmin: true}
	f.users[42] = models.User{ID: 42, FirstName: "Ann", Username: "ann", JoinedAt: at, LastActiveAt: at, MessageCount: 1}
	f.admins = []int64{1, 7}
	f.channels["newsfeed"] = models.Channel{Username: "newsfeed", DisplayName: "News", AddedBy: 1, AddedAt: at}
}

func TestStore_LoadInsertsPrimaryAdmin(t *testing.T) {
	primary := newFakePrimary()
	store, mirror := newTestStore(t, primary)

	dir := store.Load(context.Background())

	assert.Equal(t, []int64{1}, dir.Admins)
	assert.Equal(t, []int64{1}, primary.admins, "primary admin persisted to the primary store")

	mirrored, err := mirror.LoadAdmins()
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, mirrored)
}

func TestStore_LoadSaveLoadIsIdempotentWithPrimaryDown(t *testing.T) {
	primary := newFakePrimary()
	seed(primary)
	store, _ := newTestStore(t, primary)
	ctx := context.Background()

	first := store.Load(ctx)
	require.NoError(t, store.Save(ctx, first))

	primary.setDown(true)
	second := store.Load(ctx)

	assert.Equal(t, first, second)
}

func TestStore_PartialDegradation(t *testing.T) {
	primary := newFakePrimary()
	seed(primary)
	store, mirror := newTestStore(t, primary)
	ctx := context.Background()

	require.NoError(t, mirror.SaveChannels(map[string]*models.Channel{
		"mirrored": {Username: "mirrored", DisplayName: "From file", AddedAt: at},
	}))
	primary.down[entityChannels] = true

	dir := store.Load(ctx)

	assert.Len(t, dir.Users, 2, "users still come from the primary store")
	assert.Equal(t, []int64{1, 7}, dir.Admins)
	require.Contains(t, dir.Channels, "mirrored")
	assert.NotContains(t, dir.Channels, "newsfeed")
}

func TestStore_SaveReportsPrimaryFailuresAndStillMirrors(t *testing.T) {
	primary := newFakePrimary()
	store, mirror := newTestStore(t, primary)
	ctx := context.Background()

	dir := store.Load(ctx)
	dir.Touch(models.Sender{ID: 42, FirstName: "Ann"}, at)

	primary.down[entityUsers] = true
	err := store.Save(ctx, dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, errDown)

	users, err := mirror.LoadUsers()
	require.NoError(t, err)
	assert.Contains(t, users, int64(42))

	primary.down[entityUsers] = false
	require.NoError(t, store.Save(ctx, dir))
	require.NoError(t, store.Save(ctx, dir), "save is safe to repeat")
	assert.Contains(t, primary.users, int64(42))
}

func TestStore_RemovedChannelStaysRemoved(t *testing.T) {
	primary := newFakePrimary()
	seed(primary)
	store, _ := newTestStore(t, primary)
	ctx := context.Background()

	dir := store.Load(ctx)
	_, err := dir.RemoveChannel("newsfeed")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, dir))

	reloaded := store.Load(ctx)
	assert.Empty(t, reloaded.Channels)
}

func TestStore_MirrorOnly(t *testing.T) {
	store, _ := newTestStore(t, nil)
	ctx := context.Background()
	assert.False(t, store.HasPrimary())

	dir := store.Load(ctx)
	dir.Touch(models.Sender{ID: 5, FirstName: "Eve"}, at)
	store.RecordMessage(ctx, dir, models.MessageRecord{UserID: 5, MessageID: 1, Text: "hi", Date: at})
	require.NoError(t, store.Save(ctx, dir))

	reloaded := store.Load(ctx)
	assert.Equal(t, dir, reloaded)
	assert.Equal(t, int64(1), store.MessageCount(ctx, reloaded))
}

func TestStore_RecordMessageFallsBackToCache(t *testing.T) {
	primary := newFakePrimary()
	store, _ := newTestStore(t, primary)
	ctx := context.Background()
	dir := store.Load(ctx)

	store.RecordMessage(ctx, dir, models.MessageRecord{UserID: 5, MessageID: 1})
	assert.Empty(t, dir.Messages)
	assert.Len(t, primary.messages, 1)

	primary.down[entityMessages] = true
	store.RecordMessage(ctx, dir, models.MessageRecord{UserID: 5, MessageID: 2})
	assert.Len(t, dir.Messages, 1)
	assert.Equal(t, int64(1), store.MessageCount(ctx, dir))

	primary.down[entityMessages] = false
	assert.Equal(t, int64(2), store.MessageCount(ctx, dir))
}

// flakyPreparer fails until its failure budget is spent
type flakyPreparer struct {
	failures int
	calls    int
}

func (p *flakyPreparer) Prepare(ctx context.Context) error {
	p.calls++
	if p.failures > 0 {
		p.failures--
		return errDown
	}
	return nil
}

func TestStore_PrimaryUsedOnceSchemaIsReady(t *testing.T) {
	primary := newFakePrimary()
	seed(primary)
	store, mirror := newTestStore(t, primary)
	preparer := &flakyPreparer{failures: 2}
	store.SetPreparer(preparer)
	ctx := context.Background()

	require.NoError(t, mirror.SaveUsers(map[int64]*models.User{
		9: {ID: 9, FirstName: "Mirrored", JoinedAt: at, LastActiveAt: at},
	}))

	// Load and the primary-admin save both see the server down.
	dir := store.Load(ctx)
	assert.Contains(t, dir.Users, int64(9))
	assert.NotContains(t, dir.Users, int64(42))
	assert.NotContains(t, primary.users, int64(9))

	require.NoError(t, store.Save(ctx, dir))
	assert.Contains(t, primary.users, int64(9), "saved to the primary after it recovered")
	assert.Equal(t, []int64{1}, primary.admins)

	store.RecordMessage(ctx, dir, models.MessageRecord{UserID: 9, MessageID: 1})
	assert.Len(t, primary.messages, 1)
	assert.Empty(t, dir.Messages)
}

func TestStore_SaveReportsUnpreparedPrimary(t *testing.T) {
	primary := newFakePrimary()
	store, mirror := newTestStore(t, primary)
	store.SetPreparer(&flakyPreparer{failures: 100})
	ctx := context.Background()

	dir := models.NewDirectory(1)
	dir.Touch(models.Sender{ID: 42, FirstName: "Ann"}, at)

	err := store.Save(ctx, dir)
	assert.ErrorIs(t, err, ErrPrimaryNotReady)
	assert.Empty(t, primary.users)

	users, err := mirror.LoadUsers()
	require.NoError(t, err)
	assert.Contains(t, users, int64(42))

	store.RecordMessage(ctx, dir, models.MessageRecord{UserID: 42, MessageID: 1})
	assert.Len(t, dir.Messages, 1)
}

func TestStore_LoadResetsUnknownPendingActions(t *testing.T) {
	ctx := context.Background()

	t.Run("mirror", func(t *testing.T) {
		store, mirror := newTestStore(t, nil)
		require.NoError(t, mirror.SaveUsers(map[int64]*models.User{
			1:  {ID: 1, FirstName: "Boss", PendingAction: models.PendingAddChannel},
			42: {ID: 42, FirstName: "Ann", PendingAction: "bogus"},
		}))

		dir := store.Load(ctx)
		assert.Equal(t, models.PendingAddChannel, dir.Users[1].PendingAction)
		assert.Equal(t, models.PendingNone, dir.Users[42].PendingAction)
	})

	t.Run("primary", func(t *testing.T) {
		primary := newFakePrimary()
		primary.users[42] = models.User{ID: 42, FirstName: "Ann", PendingAction: "rename_channel"}
		store, _ := newTestStore(t, primary)

		dir := store.Load(ctx)
		assert.Equal(t, models.PendingNone, dir.Users[42].PendingAction)
	})
}
