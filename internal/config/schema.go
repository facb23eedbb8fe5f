package config

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Schema runs migrations the first time the server answers. Until then every
// Prepare call pings again; after the first success Prepare is a no-op.
type Schema struct {
	mu      sync.Mutex
	ready   bool
	ping    func(ctx context.Context) error
	migrate func() error
	logger  *logrus.Logger
}

func newSchema(ping func(ctx context.Context) error, migrate func() error, logger *logrus.Logger) *Schema {
	return &Schema{ping: ping, migrate: migrate, logger: logger}
}

// Schema returns the migration guard for this database
func (d *Database) Schema(pingTimeout time.Duration) *Schema {
	return newSchema(func(ctx context.Context) error {
		return d.Ping(ctx, pingTimeout)
	}, d.Migrate, d.logger)
}

// Prepare pings the server and applies pending migrations if that has not
// succeeded yet
func (s *Schema) Prepare(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}
	if err := s.ping(ctx); err != nil {
		return err
	}
	if err := s.migrate(); err != nil {
		return err
	}

	s.ready = true
	s.logger.Info("Database schema ready")
	return nil
}
