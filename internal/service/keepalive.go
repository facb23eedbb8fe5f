package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// KeepAlive periodically requests a URL so hosting platforms that idle
// inactive services keep the bot running.
type KeepAlive struct {
	cron   *cron.Cron
	client *http.Client
	url    string
	logger *logrus.Logger
}

// NewKeepAlive schedules a GET of url every interval
func NewKeepAlive(url string, interval time.Duration, logger *logrus.Logger) (*KeepAlive, error) {
	if url == "" {
		return nil, fmt.Errorf("keep-alive url is empty")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("keep-alive interval must be positive")
	}

	k := &KeepAlive{
		cron:   cron.New(),
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		logger: logger,
	}

	spec := fmt.Sprintf("@every %s", interval)
	if _, err := k.cron.AddFunc(spec, k.tick); err != nil {
		return nil, fmt.Errorf("schedule keep-alive %q: %w", spec, err)
	}
	return k, nil
}

// Start runs the schedule in the background
func (k *KeepAlive) Start() {
	k.cron.Start()
	k.logger.WithField("url", k.url).Info("Keep-alive scheduler started")
}

// Stop stops the schedule and waits for a running ping to finish
func (k *KeepAlive) Stop() {
	<-k.cron.Stop().Done()
	k.logger.Info("Keep-alive scheduler stopped")
}

// Ping requests the URL once
func (k *KeepAlive) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return fmt.Errorf("build keep-alive request: %w", err)
	}

	resp, err := k.client.Do(req)
	if err != nil {
		return fmt.Errorf("keep-alive request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("keep-alive request: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (k *KeepAlive) tick() {
	if err := k.Ping(context.Background()); err != nil {
		k.logger.WithError(err).Warn("Keep-alive ping failed")
		return
	}
	k.logger.Debug("Keep-alive ping ok")
}
