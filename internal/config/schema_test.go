package config

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyDatabase refuses the first pings and counts migrations
type flakyDatabase struct {
	pingFailures int
	migrateErr   error
	pings        int
	migrations   int
}

func (f *flakyDatabase) ping(ctx context.Context) error {
	f.pings++
	if f.pingFailures > 0 {
		f.pingFailures--
		return errors.New("dial tcp: connection refused")
	}
	return nil
}

func (f *flakyDatabase) migrate() error {
	f.migrations++
	return f.migrateErr
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestSchema_MigratesOnceServerRecovers(t *testing.T) {
	db := &flakyDatabase{pingFailures: 1}
	schema := newSchema(db.ping, db.migrate, quietLogger())
	ctx := context.Background()

	require.Error(t, schema.Prepare(ctx))
	assert.Equal(t, 0, db.migrations, "no migration while the server is down")

	require.NoError(t, schema.Prepare(ctx))
	require.NoError(t, schema.Prepare(ctx))

	assert.Equal(t, 1, db.migrations)
	assert.Equal(t, 2, db.pings, "no pings after the schema is ready")
}

func TestSchema_RetriesFailedMigration(t *testing.T) {
	db := &flakyDatabase{migrateErr: errors.New("lock timeout")}
	schema := newSchema(db.ping, db.migrate, quietLogger())
	ctx := context.Background()

	require.Error(t, schema.Prepare(ctx))

	db.migrateErr = nil
	require.NoError(t, schema.Prepare(ctx))
	assert.Equal(t, 2, db.migrations)
}
