package telegram

import (
	"context"
	"net/http"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codermrx/relaybot/internal/metrics"
)

func TestClient_FetchUpdates(t *testing.T) {
	api := newFakeBotAPI(t)
	client := newTestClient(t, api)
	assert.Equal(t, "relay_bot", client.Username())
	require.NoError(t, client.DeleteWebhook())

	api.queueUpdates(
		`{"update_id":10,"message":{"message_id":1,"date":0,"from":{"id":42,"is_bot":false,"first_name":"Ann"},"chat":{"id":42,"type":"private"},"text":"/start"}}`,
	)

	updates, err := client.FetchUpdates(10)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, 10, updates[0].UpdateID)
	assert.Equal(t, "/start", updates[0].Message.Text)

	calls := api.callsTo("getUpdates")
	require.Len(t, calls, 1)
	assert.Equal(t, "10", calls[0].Params["offset"])
}

func TestClient_FetchUpdatesFailsSoft(t *testing.T) {
	api := newFakeBotAPI(t)
	client := newTestClient(t, api)
	api.server.Close()

	updates, err := client.FetchUpdates(3)
	assert.Error(t, err)
	assert.Empty(t, updates)
}

func TestClient_SendReportsDelivery(t *testing.T) {
	api := newFakeBotAPI(t)
	client := newTestClient(t, api)
	api.failChat["13"] = true

	assert.True(t, client.SendText(42, "<b>hi</b>", tgbotapi.NewRemoveKeyboard(true)))
	assert.False(t, client.SendText(13, "hi", nil))
	assert.True(t, client.Forward(1, 42, 7))
	assert.True(t, client.Copy(1, 42, 7))
	assert.True(t, client.SendPhoto(42, "photo-file-id", "caption"))
	assert.True(t, client.SendDocument(42, "users.xlsx", []byte("xlsx"), "export"))

	sent := api.callsTo("sendMessage")
	require.Len(t, sent, 2)
	assert.Equal(t, "HTML", sent[0].Params["parse_mode"])
	assert.Contains(t, sent[0].Params["reply_markup"], "remove_keyboard")

	forward := api.callsTo("forwardMessage")
	require.Len(t, forward, 1)
	assert.Equal(t, "42", forward[0].Params["from_chat_id"])
	assert.Equal(t, "7", forward[0].Params["message_id"])

	require.Len(t, api.callsTo("copyMessage"), 1)
	require.Len(t, api.callsTo("sendPhoto"), 1)

	docs := api.callsTo("sendDocument")
	require.Len(t, docs, 1)
	assert.Equal(t, "<file>", docs[0].Params["document"])
}

func TestConnect_RetriesUntilGetMeSucceeds(t *testing.T) {
	api := newFakeBotAPI(t)
	api.failGetMe = 1
	before := testutil.ToFloat64(metrics.PollErrors)

	client, err := Connect(context.Background(), "123:test-token", api.endpoint(), 0, time.Millisecond, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "relay_bot", client.Username())
	assert.Len(t, api.callsTo("getMe"), 2)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.PollErrors))
}

func TestConnect_StopsOnCancel(t *testing.T) {
	api := newFakeBotAPI(t)
	api.failGetMe = 1000

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client, err := Connect(ctx, "123:test-token", api.endpoint(), 0, 5*time.Millisecond, quietLogger())
	assert.Nil(t, client)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotEmpty(t, api.callsTo("getMe"))
}

func TestConnect_RejectedTokenIsNotRetried(t *testing.T) {
	api := newFakeBotAPI(t)
	api.failGetMe = 1
	api.getMeFailStatus = http.StatusUnauthorized

	client, err := Connect(context.Background(), "123:bad-token", api.endpoint(), 0, time.Millisecond, quietLogger())
	assert.Nil(t, client)
	require.Error(t, err)
	assert.Len(t, api.callsTo("getMe"), 1)
}
