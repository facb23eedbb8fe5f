package jsonfile

import "fmt"

type checkpointDoc struct {
	Offset int `json:"offset"`
}

// Checkpoint persists the next getUpdates offset. Saved values never go
// backwards.
type Checkpoint struct {
	mirror *Mirror
	offset int
}

// NewCheckpoint returns a checkpoint stored next to the mirror files
func NewCheckpoint(m *Mirror) *Checkpoint {
	return &Checkpoint{mirror: m}
}

// Load reads the last saved offset. A missing or corrupt file yields 0
// together with the decode error.
func (c *Checkpoint) Load() (int, error) {
	var doc checkpointDoc
	if err := c.mirror.read(checkpointFile, &doc); err != nil {
		return c.offset, err
	}
	if doc.Offset > c.offset {
		c.offset = doc.Offset
	}
	return c.offset, nil
}

// Save persists offset unless it is lower than the last saved value
func (c *Checkpoint) Save(offset int) error {
	if offset < c.offset {
		return nil
	}
	if err := c.mirror.write(checkpointFile, checkpointDoc{Offset: offset}); err != nil {
		return fmt.Errorf("save checkpoint %d: %w", offset, err)
	}
	c.offset = offset
	return nil
}
