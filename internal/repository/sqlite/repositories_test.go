package sqlite

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codermrx/relaybot/internal/models"
	"github.com/codermrx/relaybot/internal/repository"
)

func newTestRepos(t *testing.T) *repository.Repositories {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := NewDB(filepath.Join(t.TempDir(), "nested", "relay.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewRepositories(db)
}

func TestUserRepository_UpsertAndList(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	joined := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	users := []*models.User{
		{ID: 2, FirstName: "Bo", JoinedAt: joined, LastActiveAt: joined, MessageCount: 1},
		{ID: 1, FirstName: "Al", JoinedAt: joined, LastActiveAt: joined, MessageCount: 3, IsAdmin: true, PendingAction: models.PendingAddChannel},
	}
	require.NoError(t, repos.Users.Upsert(ctx, users))

	users[0].FirstName = "Bob"
	users[0].MessageCount = 2
	require.NoError(t, repos.Users.Upsert(ctx, users[:1]))

	got, err := repos.Users.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, models.PendingAddChannel, got[0].PendingAction)
	assert.True(t, got[0].IsAdmin)
	assert.True(t, got[0].JoinedAt.Equal(joined))

	assert.Equal(t, "Bob", got[1].FirstName)
	assert.Equal(t, int64(2), got[1].MessageCount)
}

func TestAdminRepository_Replace(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Admins.Replace(ctx, []int64{5, 3, 9}))
	ids, err := repos.Admins.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 3, 9}, ids)

	require.NoError(t, repos.Admins.Replace(ctx, []int64{5}))
	ids, err = repos.Admins.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, ids)
}

func TestChannelRepository_SyncPrunesRemoved(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	added := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	news := &models.Channel{Username: "newsfeed", DisplayName: "News", AddedBy: 1, AddedAt: added}
	private := &models.Channel{ChatID: -1001, DisplayName: "Private", AddedBy: 1, AddedAt: added}
	require.NoError(t, repos.Channels.Sync(ctx, []*models.Channel{news, private}))

	got, err := repos.Channels.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	news.DisplayName = "Daily News"
	require.NoError(t, repos.Channels.Sync(ctx, []*models.Channel{news}))

	got, err = repos.Channels.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "newsfeed", got[0].Key())
	assert.Equal(t, "Daily News", got[0].DisplayName)

	require.NoError(t, repos.Channels.Sync(ctx, nil))
	got, err = repos.Channels.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMessageRepository_InsertAndCount(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, repos.Messages.Insert(ctx, &models.MessageRecord{UserID: 7, MessageID: i, Text: "hi", Date: time.Now()}))
	}

	count, err := repos.Messages.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
