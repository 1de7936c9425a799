package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"

	"github.com/iagolobla/episode-binger/internal/align"
)

// document is the on-disk JSON shape, matching the schema described in the
// persistence contract: episode order plus a per-path opening/ending range.
type document struct {
	EpisodeOrder []string                 `json:"episode_order"`
	Episodes     map[string]documentEntry `json:"episodes"`
}

type documentEntry struct {
	Opening *[2]int `json:"opening,omitempty"`
	Ending  *[2]int `json:"ending,omitempty"`
}

// Save writes the catalog's episode order and located chunks to path as
// JSON, guarded by an exclusive file lock so two CLI invocations can't
// interleave writes.
func (c *Catalog) Save(path string) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("catalog: locking %s: %w", path, err)
	}
	defer lock.Unlock()

	c.mu.RLock()
	doc := document{EpisodeOrder: append([]string{}, c.order...), Episodes: make(map[string]documentEntry, len(c.order))}
	for _, p := range c.order {
		e := c.entries[p]
		var entry documentEntry
		if e.Opening != nil {
			r := [2]int{e.Opening.Start, e.Opening.End}
			entry.Opening = &r
		}
		if e.Ending != nil {
			r := [2]int{e.Ending.Start, e.Ending.End}
			entry.Ending = &r
		}
		doc.Episodes[p] = entry
	}
	c.mu.RUnlock()

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("catalog: marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("catalog: writing %s: %w", path, err)
	}
	return nil
}

// Opener resolves an episode path into a FrameSource, used by Load to
// reconstruct episodes named in a saved document.
type Opener func(path string) (align.FrameSource, error)

// Load reads a catalog document from path, reopening every named episode
// via open and reinstating its located chunks. Episode order in the
// returned catalog matches the document's episode_order.
func Load(path string, open Opener) (*Catalog, error) {
	lock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, 200*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("catalog: locking %s: %w", path, err)
	}
	if locked {
		defer lock.Unlock()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", path, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parsing %s: %w", path, err)
	}

	c := New()
	for _, p := range doc.EpisodeOrder {
		src, err := open(p)
		if err != nil {
			return nil, fmt.Errorf("catalog: reopening %s: %w", p, err)
		}
		c.Add(src)

		entry := doc.Episodes[p]
		if entry.Opening != nil {
			c.SetOpening(&align.Chunk{Source: src, Start: entry.Opening[0], End: entry.Opening[1]})
		}
		if entry.Ending != nil {
			c.SetEnding(&align.Chunk{Source: src, Start: entry.Ending[0], End: entry.Ending[1]})
		}
	}
	return c, nil
}
