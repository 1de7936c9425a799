package align

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Manager composes the Finder, Boundary, and Locator into the two
// operations callers actually need: discovering a shared chunk between two
// episodes, and re-locating a known chunk inside a third episode.
type Manager struct {
	Finder         *Finder
	Boundary       *Boundary
	Locator        *Locator
	MaxRetries     int
	MinReliability float64
}

// NewManager returns a Manager built from a single Kernel, with this
// package's default thresholds and a retry budget of 3.
func NewManager(kernel Kernel) *Manager {
	return &Manager{
		Finder:         NewFinder(kernel),
		Boundary:       NewBoundary(kernel),
		Locator:        NewLocator(kernel),
		MaxRetries:     3,
		MinReliability: 0.90,
	}
}

// FindCommonChunk searches the ranges [from1,to1) in e1 and [from2,to2) in
// e2 for a shared segment at least minSeconds long, retrying up to
// MaxRetries times with a growing exclusion list before giving up. It
// returns (nil, nil, nil) if no qualifying chunk is found; the only error
// it returns is a precondition or decode failure.
func (m *Manager) FindCommonChunk(ctx context.Context, e1, e2 FrameSource, from, to Pair, minSeconds float64) (*Chunk, *Chunk, error) {
	if e1.NativeShape() != e2.NativeShape() {
		return nil, nil, fmt.Errorf("align: %s and %s have different frame shapes", e1.Path(), e2.Path())
	}

	var exclude []Pair
	for attempt := 0; attempt < m.MaxRetries; attempt++ {
		seed, grown, err := m.Finder.Find(ctx, e1, e2, from, to, exclude)
		if err != nil {
			return nil, nil, err
		}
		exclude = grown
		if seed == nil {
			continue
		}

		c1, c2, err := m.Boundary.Find(ctx, e1, e2, *seed)
		if err != nil {
			return nil, nil, err
		}
		if c1 == nil || c2 == nil {
			continue
		}

		if c1.Seconds() >= minSeconds && c2.Seconds() >= minSeconds {
			return c1, c2, nil
		}
		slog.Debug("find common chunk: below minimum length, retrying", "attempt", attempt, "seconds1", c1.Seconds(), "seconds2", c2.Seconds())
	}
	return nil, nil, nil
}

// FindChunkInEpisode relocates a known chunk from another episode inside
// episode, searching [start,end) (defaulting to the whole episode). It
// returns nil, nil if either edge can't be relocated with at least
// MinReliability confidence.
func (m *Manager) FindChunkInEpisode(ctx context.Context, episode FrameSource, chunk *Chunk, start, end int, reverse bool) (*Chunk, error) {
	const probeLen = 5

	startFrames := consecutiveFrom(chunk.Start, probeLen, chunk.Source.FrameCount())
	startResult, err := m.Locator.Locate(ctx, startFrames, chunk.Source, episode, start, end, reverse)
	if err != nil {
		return nil, err
	}
	if startResult == nil || startResult.Reliability < m.MinReliability {
		return nil, nil
	}

	endFrames := consecutiveFrom(chunk.End-probeLen+1, probeLen, chunk.Source.FrameCount())
	locatedStart := startResult.Mapping[startFrames[0]]
	_, endSearchEnd := clampRange(0, locatedStart+2*chunk.Len(), episode.FrameCount())
	endResult, err := m.Locator.Locate(ctx, endFrames, chunk.Source, episode, locatedStart, endSearchEnd, reverse)
	if err != nil {
		return nil, err
	}
	if endResult == nil || endResult.Reliability < m.MinReliability {
		return nil, nil
	}

	located := Chunk{
		Source: episode,
		Start:  startResult.Mapping[startFrames[0]],
		End:    endResult.Mapping[endFrames[len(endFrames)-1]],
	}
	if !located.Valid() {
		return nil, nil
	}
	return &located, nil
}

// EpisodeLocation is the pair of relocated chunks found for one target
// episode by LocateEpisodes.
type EpisodeLocation struct {
	Episode FrameSource
	Opening *Chunk
	Ending  *Chunk
}

// LocateEpisodes relocates the reference episode's opening and ending
// chunks inside every target episode, one goroutine per episode via
// errgroup. An episode that fails to locate either edge is still returned,
// with the corresponding field left nil — partial location is not an
// error.
func (m *Manager) LocateEpisodes(ctx context.Context, episodes []FrameSource, refOpening, refEnding *Chunk) ([]EpisodeLocation, error) {
	results := make([]EpisodeLocation, len(episodes))
	g, gctx := errgroup.WithContext(ctx)
	for i, ep := range episodes {
		i, ep := i, ep
		g.Go(func() error {
			results[i].Episode = ep

			var openingEnd int
			if refOpening != nil {
				opening, err := m.FindChunkInEpisode(gctx, ep, refOpening, 0, 0, false)
				if err != nil {
					return err
				}
				results[i].Opening = opening
				if opening != nil {
					openingEnd = opening.End + 1
				}
			}

			if refEnding != nil {
				ending, err := m.FindChunkInEpisode(gctx, ep, refEnding, openingEnd, ep.FrameCount(), true)
				if err != nil {
					return err
				}
				results[i].Ending = ending
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// consecutiveFrom returns count consecutive indexes starting at start,
// clamped to [0, frameCount).
func consecutiveFrom(start, count, frameCount int) []int {
	if start < 0 {
		start = 0
	}
	end := start + count
	if end > frameCount {
		end = frameCount
	}
	return indexRange(start, end)
}
