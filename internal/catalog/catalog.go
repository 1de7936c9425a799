// Package catalog tracks the set of episodes under analysis and whatever
// opening/ending chunks have been located for each, preserving the order
// episodes were added in.
package catalog

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/iagolobla/episode-binger/internal/align"
)

// ErrNotEnoughEpisodes is returned by the Random* selectors when fewer
// episodes qualify than were requested.
var ErrNotEnoughEpisodes = errors.New("catalog: not enough episodes")

// Entry pairs an episode with whatever chunks have been located for it.
type Entry struct {
	Source  align.FrameSource
	Opening *align.Chunk
	Ending  *align.Chunk
}

// FullyLocated reports whether both edges of the episode have been found.
func (e *Entry) FullyLocated() bool { return e.Opening != nil && e.Ending != nil }

// Located reports whether at least one edge of the episode has been found.
func (e *Entry) Located() bool { return e.Opening != nil || e.Ending != nil }

// Catalog is an insertion-ordered collection of episodes and their located
// chunks. Every method takes the catalog's lock, so it is safe for
// concurrent use by multiple goroutines.
type Catalog struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*Entry
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[string]*Entry)}
}

// Add registers an episode under its Path, preserving insertion order. Re-
// adding an already-registered path is a no-op.
func (c *Catalog) Add(src align.FrameSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	path := src.Path()
	if _, ok := c.entries[path]; ok {
		return
	}
	c.entries[path] = &Entry{Source: src}
	c.order = append(c.order, path)
}

// Get returns the entry for path, if registered.
func (c *Catalog) Get(path string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path]
	return e, ok
}

// Episodes returns every registered episode source, in insertion order.
func (c *Catalog) Episodes() []align.FrameSource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]align.FrameSource, 0, len(c.order))
	for _, p := range c.order {
		out = append(out, c.entries[p].Source)
	}
	return out
}

// SetOpening records the located opening chunk for its episode. The chunk's
// Source must already be registered in the catalog.
func (c *Catalog) SetOpening(chunk *align.Chunk) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[chunk.Source.Path()]; ok {
		e.Opening = chunk
	}
}

// SetEnding records the located ending chunk for its episode.
func (c *Catalog) SetEnding(chunk *align.Chunk) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[chunk.Source.Path()]; ok {
		e.Ending = chunk
	}
}

// FullyLocated returns every entry whose opening and ending have both been
// found, in insertion order.
func (c *Catalog) FullyLocated() []*Entry {
	return c.filter(func(e *Entry) bool { return e.FullyLocated() })
}

// Located returns every entry with at least one edge found.
func (c *Catalog) Located() []*Entry {
	return c.filter(func(e *Entry) bool { return e.Located() })
}

// Unlocated returns every entry with neither edge found.
func (c *Catalog) Unlocated() []*Entry {
	return c.filter(func(e *Entry) bool { return !e.Located() })
}

func (c *Catalog) filter(pred func(*Entry) bool) []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*Entry
	for _, p := range c.order {
		if e := c.entries[p]; pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// RandomEpisodes selects n distinct episodes at random, in no particular
// order. Returns ErrNotEnoughEpisodes if fewer than n are registered.
func (c *Catalog) RandomEpisodes(n int) ([]align.FrameSource, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.order) < n {
		return nil, ErrNotEnoughEpisodes
	}
	picks := rand.Perm(len(c.order))[:n]
	out := make([]align.FrameSource, n)
	for i, p := range picks {
		out[i] = c.entries[c.order[p]].Source
	}
	return out, nil
}

// RandomFullyLocated selects n distinct fully-located entries at random.
func (c *Catalog) RandomFullyLocated(n int) ([]*Entry, error) {
	pool := c.FullyLocated()
	if len(pool) < n {
		return nil, ErrNotEnoughEpisodes
	}
	picks := rand.Perm(len(pool))[:n]
	out := make([]*Entry, n)
	for i, p := range picks {
		out[i] = pool[p]
	}
	return out, nil
}

// RandomOpening returns the opening chunk of a random fully-located
// episode, for use as the macro-episode's single retained opening.
func (c *Catalog) RandomOpening() (*align.Chunk, error) {
	picks, err := c.RandomFullyLocated(1)
	if err != nil {
		return nil, err
	}
	return picks[0].Opening, nil
}

// RandomEnding returns the ending chunk of a random fully-located episode.
func (c *Catalog) RandomEnding() (*align.Chunk, error) {
	picks, err := c.RandomFullyLocated(1)
	if err != nil {
		return nil, err
	}
	return picks[0].Ending, nil
}
