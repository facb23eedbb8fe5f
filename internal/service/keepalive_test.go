package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeepAlive_Ping(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	k, err := NewKeepAlive(srv.URL+"/healthz", time.Minute, quietLogger())
	require.NoError(t, err)
	assert.NoError(t, k.Ping(context.Background()))

	down, err := NewKeepAlive(srv.URL+"/down", time.Minute, quietLogger())
	require.NoError(t, err)
	assert.Error(t, down.Ping(context.Background()))

	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestKeepAlive_Schedules(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	k, err := NewKeepAlive(srv.URL, time.Second, quietLogger())
	require.NoError(t, err)
	k.Start()
	defer k.Stop()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&hits) > 0 }, 5*time.Second, 50*time.Millisecond)
}

func TestNewKeepAlive_Validates(t *testing.T) {
	_, err := NewKeepAlive("", time.Minute, quietLogger())
	assert.Error(t, err)

	_, err = NewKeepAlive("http://localhost", 0, quietLogger())
	assert.Error(t, err)
}
