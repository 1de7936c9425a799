// Package orchestrator drives the whole-catalog workflow on top of
// internal/align and internal/catalog: finding a shared opening/ending
// pair from two random episodes, locating those chunks in every other
// episode, and assembling the resulting macro-episode's chunk list.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/iagolobla/episode-binger/internal/align"
	"github.com/iagolobla/episode-binger/internal/cache"
	"github.com/iagolobla/episode-binger/internal/catalog"
)

// maxChangeEpisodeAttempts mirrors the original's hardcoded retry budget
// before Episode_Binger.find_opening_ending gives up on the current
// episode pair and draws a fresh one.
const maxChangeEpisodeAttempts = 20

// FindOpeningEnding repeatedly samples a random episode pair from cat and
// runs the Algorithm Manager's common-chunk search against it, first with
// no range restriction, then narrowing the search to whichever half of
// the episode hasn't yielded a chunk yet once the other half is found —
// so the second search can't rediscover the first chunk. Swaps in a fresh
// random pair after maxChangeEpisodeAttempts consecutive no-matches.
//
// Returns once both an opening and an ending have been found and recorded
// on their episodes in cat, or ctx is canceled.
//
// ac, if non-nil, is consulted before the first search on a given episode
// pair and updated after each chunk is found. Its schema keys on the pair
// of paths alone, so it remembers only the most recently found edge for a
// pair — a rerun that already located the opening skips straight to the
// ending search instead of replaying the blind scan, but a fresh process
// restarted mid-search still has to rediscover whichever edge the cache's
// single row no longer holds.
func FindOpeningEnding(ctx context.Context, cat *catalog.Catalog, mgr *align.Manager, minSeconds float64, ac *cache.AlignmentCache) error {
	runID := uuid.NewString()
	episodes, err := cat.RandomEpisodes(2)
	if err != nil {
		return fmt.Errorf("orchestrator: find opening/ending: %w", err)
	}
	e1, e2 := episodes[0], episodes[1]
	slog.Info("orchestrator: find opening/ending started", "run_id", runID, "episode1", e1.Path(), "episode2", e2.Path())

	var openingE1, openingE2, endingE1, endingE2 *align.Chunk
	attempts := 0

	if hit1, hit2, ok := cacheLookup(ac, e1, e2); ok {
		if hit1.IsOpening() || hit2.IsOpening() {
			openingE1, openingE2 = hit1, hit2
		} else {
			endingE1, endingE2 = hit1, hit2
		}
	}

	for openingE1 == nil || endingE1 == nil {
		if err := ctx.Err(); err != nil {
			return err
		}

		var from, to align.Pair
		switch {
		case openingE1 != nil:
			from = align.Pair{openingE1.End + 1, openingE2.End + 1}
			to = align.Pair{e1.FrameCount(), e2.FrameCount()}
		case endingE1 != nil:
			from = align.Pair{0, 0}
			to = align.Pair{endingE1.Start, endingE2.Start}
		default:
			from = align.Pair{0, 0}
			to = align.Pair{e1.FrameCount(), e2.FrameCount()}
		}

		c1, c2, err := mgr.FindCommonChunk(ctx, e1, e2, from, to, minSeconds)
		if err != nil {
			return fmt.Errorf("orchestrator: find opening/ending: %w", err)
		}
		if c1 == nil {
			attempts++
			slog.Debug("orchestrator: no common chunk, retrying", "run_id", runID, "attempt", attempts)
			if attempts >= maxChangeEpisodeAttempts {
				episodes, err = cat.RandomEpisodes(2)
				if err != nil {
					return fmt.Errorf("orchestrator: find opening/ending: %w", err)
				}
				e1, e2 = episodes[0], episodes[1]
				openingE1, openingE2, endingE1, endingE2 = nil, nil, nil, nil
				attempts = 0
			}
			continue
		}
		attempts = 0
		cacheStore(ac, e1, e2, c1, c2)

		if c1.IsOpening() || c2.IsOpening() {
			openingE1, openingE2 = c1, c2
		} else {
			endingE1, endingE2 = c1, c2
		}
	}

	cat.SetOpening(openingE1)
	cat.SetOpening(openingE2)
	cat.SetEnding(endingE1)
	cat.SetEnding(endingE2)
	slog.Info("orchestrator: find opening/ending finished", "run_id", runID)
	return nil
}

// cacheLookup consults ac for a previously found chunk pair between e1 and
// e2, keyed on both files' current modification times so an edited source
// invalidates the entry automatically. Returns ok=false if ac is nil, the
// files can't be stat'd, or there's no entry for the current mtimes.
func cacheLookup(ac *cache.AlignmentCache, e1, e2 align.FrameSource) (*align.Chunk, *align.Chunk, bool) {
	if ac == nil {
		return nil, nil, false
	}
	m1, m2, ok := statPair(e1, e2)
	if !ok {
		return nil, nil, false
	}
	r1, r2, ok := ac.Get(e1.Path(), m1, e2.Path(), m2)
	if !ok {
		return nil, nil, false
	}
	return &align.Chunk{Source: e1, Start: r1.Start, End: r1.End},
		&align.Chunk{Source: e2, Start: r2.Start, End: r2.End}, true
}

func cacheStore(ac *cache.AlignmentCache, e1, e2 align.FrameSource, c1, c2 *align.Chunk) {
	if ac == nil {
		return
	}
	m1, m2, ok := statPair(e1, e2)
	if !ok {
		return
	}
	r1 := cache.Range{Start: c1.Start, End: c1.End}
	r2 := cache.Range{Start: c2.Start, End: c2.End}
	if err := ac.Set(e1.Path(), m1, e2.Path(), m2, r1, r2); err != nil {
		slog.Warn("orchestrator: cache store failed", "error", err)
	}
}

func statPair(e1, e2 align.FrameSource) (int64, int64, bool) {
	s1, err := os.Stat(e1.Path())
	if err != nil {
		return 0, 0, false
	}
	s2, err := os.Stat(e2.Path())
	if err != nil {
		return 0, 0, false
	}
	return s1.ModTime().Unix(), s2.ModTime().Unix(), true
}

// LocateOpeningEndingEveryEpisode picks a random fully-located episode
// from cat as the reference and hands every unlocated episode to
// align.Manager.LocateEpisodes, then records every successful result.
func LocateOpeningEndingEveryEpisode(ctx context.Context, cat *catalog.Catalog, mgr *align.Manager) error {
	unlocated := cat.Unlocated()
	if len(unlocated) == 0 {
		return nil
	}
	runID := uuid.NewString()

	reference, err := cat.RandomFullyLocated(1)
	if err != nil {
		return fmt.Errorf("orchestrator: locate every episode: %w", err)
	}
	refEntry := reference[0]

	sources := make([]align.FrameSource, len(unlocated))
	for i, e := range unlocated {
		sources[i] = e.Source
	}

	slog.Info("orchestrator: locate every episode started", "run_id", runID, "episodes", len(sources), "reference", refEntry.Source.Path())
	results, err := mgr.LocateEpisodes(ctx, sources, refEntry.Opening, refEntry.Ending)
	if err != nil {
		return fmt.Errorf("orchestrator: locate every episode: %w", err)
	}

	located := 0
	for _, r := range results {
		if r.Opening != nil {
			cat.SetOpening(r.Opening)
			located++
		}
		if r.Ending != nil {
			cat.SetEnding(r.Ending)
		}
	}
	slog.Info("orchestrator: locate every episode finished", "run_id", runID, "located", located)
	return nil
}

// BuildMacroChunkList assembles the ordered chunk list for a macro-episode:
// one randomly-chosen opening, every cataloged episode's body with its
// located opening/ending sections removed, and one randomly-chosen ending.
// An episode with only one edge located keeps its untouched opposite side;
// an episode with neither keeps its whole runtime.
func BuildMacroChunkList(cat *catalog.Catalog) ([]*align.Chunk, error) {
	opening, err := cat.RandomOpening()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build macro chunk list: %w", err)
	}
	ending, err := cat.RandomEnding()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build macro chunk list: %w", err)
	}

	chunks := []*align.Chunk{opening}
	for _, e := range cat.Episodes() {
		entry, _ := cat.Get(e.Path())
		chunks = append(chunks, bodyChunks(entry)...)
	}
	chunks = append(chunks, ending)
	return chunks, nil
}

// bodyChunks returns every retained body segment for one episode, per the
// arithmetic in Episode_Binger.create_macro_episode. Segments left empty
// by an opening/ending that starts at frame 0 or ends at the last frame
// (Start > End) are dropped rather than emitted as degenerate chunks.
func bodyChunks(e *catalog.Entry) []*align.Chunk {
	src := e.Source
	last := src.FrameCount() - 1

	var candidates [][2]int
	switch {
	case e.Opening != nil && e.Ending != nil:
		candidates = [][2]int{
			{0, e.Opening.Start - 1},
			{e.Opening.End + 1, e.Ending.Start - 1},
			{e.Ending.End + 1, last},
		}
	case e.Opening != nil:
		candidates = [][2]int{
			{0, e.Opening.Start - 1},
			{e.Opening.End + 1, last},
		}
	case e.Ending != nil:
		candidates = [][2]int{
			{0, e.Ending.Start - 1},
			{e.Ending.End + 1, last},
		}
	default:
		candidates = [][2]int{{0, last}}
	}

	out := make([]*align.Chunk, 0, len(candidates))
	for _, c := range candidates {
		if c[0] > c[1] {
			continue
		}
		out = append(out, &align.Chunk{Source: src, Start: c[0], End: c[1]})
	}
	return out
}
