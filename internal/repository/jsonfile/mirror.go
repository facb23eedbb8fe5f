// Package jsonfile keeps a human-readable JSON copy of the directory on local
// disk. Every file is optional: a missing or corrupt file reads as empty.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codermrx/relaybot/internal/models"
)

const (
	usersFile      = "users.json"
	adminsFile     = "admins.json"
	channelsFile   = "channels.json"
	messagesFile   = "messages.json"
	checkpointFile = "checkpoint.json"
)

// Mirror reads and writes the per-entity JSON files under one directory
type Mirror struct {
	dir string
}

// NewMirror creates dir if needed and returns a mirror rooted there
func NewMirror(dir string) (*Mirror, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %q: %w", dir, err)
	}
	return &Mirror{dir: dir}, nil
}

// Dir returns the mirror's root directory
func (m *Mirror) Dir() string {
	return m.dir
}

// LoadUsers returns the mirrored users. On error the returned map is empty
// and usable.
func (m *Mirror) LoadUsers() (map[int64]*models.User, error) {
	users := make(map[int64]*models.User)
	if err := m.read(usersFile, &users); err != nil {
		return make(map[int64]*models.User), err
	}
	for id, u := range users {
		if u == nil {
			delete(users, id)
			continue
		}
		u.ID = id
	}
	return users, nil
}

func (m *Mirror) SaveUsers(users map[int64]*models.User) error {
	return m.write(usersFile, users)
}

// LoadAdmins returns the mirrored admin roster
func (m *Mirror) LoadAdmins() ([]int64, error) {
	var ids []int64
	if err := m.read(adminsFile, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (m *Mirror) SaveAdmins(ids []int64) error {
	if ids == nil {
		ids = []int64{}
	}
	return m.write(adminsFile, ids)
}

// LoadChannels returns the mirrored channels keyed by channel key
func (m *Mirror) LoadChannels() (map[string]*models.Channel, error) {
	var list map[string]*models.Channel
	if err := m.read(channelsFile, &list); err != nil {
		return make(map[string]*models.Channel), err
	}
	channels := make(map[string]*models.Channel, len(list))
	for _, ch := range list {
		if ch == nil {
			continue
		}
		channels[ch.Key()] = ch
	}
	return channels, nil
}

func (m *Mirror) SaveChannels(channels map[string]*models.Channel) error {
	return m.write(channelsFile, channels)
}

// LoadMessages returns the cached message log
func (m *Mirror) LoadMessages() ([]models.MessageRecord, error) {
	var msgs []models.MessageRecord
	if err := m.read(messagesFile, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (m *Mirror) SaveMessages(msgs []models.MessageRecord) error {
	if msgs == nil {
		msgs = []models.MessageRecord{}
	}
	return m.write(messagesFile, msgs)
}

// read decodes name into dst. A missing file is not an error.
func (m *Mirror) read(name string, dst any) error {
	data, err := os.ReadFile(filepath.Join(m.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// write replaces name atomically via a temp file and rename
func (m *Mirror) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(m.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(m.dir, name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
