package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iagolobla/episode-binger/internal/align"
	"github.com/iagolobla/episode-binger/internal/catalog"
)

// stubSource is a minimal align.FrameSource for chunk-arithmetic tests
// that never actually decode pixel data.
type stubSource struct {
	path       string
	frameCount int
}

func (s *stubSource) Path() string                { return s.path }
func (s *stubSource) FrameCount() int              { return s.frameCount }
func (s *stubSource) FPS() float64                 { return 24 }
func (s *stubSource) NativeShape() align.Shape     { return align.Shape{Height: 1, Width: 1, Channels: 3} }
func (s *stubSource) ReadThumbnails(ctx context.Context, idx []int, t align.Shape) ([][]byte, error) {
	return nil, nil
}
func (s *stubSource) ReadConsecutive(ctx context.Context, start, count int, t align.Shape) ([][]byte, error) {
	return nil, nil
}

func TestBuildMacroChunkList_FullyLocatedWithGap(t *testing.T) {
	cat := catalog.New()
	a := &stubSource{path: "a.mp4", frameCount: 1000}
	cat.Add(a)
	cat.SetOpening(&align.Chunk{Source: a, Start: 0, End: 9})
	cat.SetEnding(&align.Chunk{Source: a, Start: 980, End: 999})

	chunks, err := BuildMacroChunkList(cat)
	require.NoError(t, err)

	// opening, body [10,979], ending — no dangling prefix since opening
	// starts at frame 0.
	require.Len(t, chunks, 3)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 9, chunks[0].End)
	assert.Equal(t, 10, chunks[1].Start)
	assert.Equal(t, 979, chunks[1].End)
	assert.Equal(t, 980, chunks[2].Start)
	assert.Equal(t, 999, chunks[2].End)
}

func TestBuildMacroChunkList_OpeningOnlyAndUnlocated(t *testing.T) {
	cat := catalog.New()
	ref := &stubSource{path: "ref.mp4", frameCount: 500}
	a := &stubSource{path: "a.mp4", frameCount: 500}
	b := &stubSource{path: "b.mp4", frameCount: 500}
	cat.Add(ref)
	cat.Add(a)
	cat.Add(b)

	// ref is fully located, so RandomOpening/RandomEnding can draw from it.
	cat.SetOpening(&align.Chunk{Source: ref, Start: 0, End: 9})
	cat.SetEnding(&align.Chunk{Source: ref, Start: 490, End: 499})
	// a has only an opening located; b has neither.
	cat.SetOpening(&align.Chunk{Source: a, Start: 20, End: 39})

	chunks, err := BuildMacroChunkList(cat)
	require.NoError(t, err)

	// opening + ref's body[10,489] + a's [0,19] prefix + a's [40,499] suffix + b whole + ending
	require.Len(t, chunks, 6)
	assert.Equal(t, ref, chunks[0].Source)
	assert.Equal(t, 10, chunks[1].Start)
	assert.Equal(t, 489, chunks[1].End)
	assert.Equal(t, 0, chunks[2].Start)
	assert.Equal(t, 19, chunks[2].End)
	assert.Equal(t, 40, chunks[3].Start)
	assert.Equal(t, 499, chunks[3].End)
	assert.Equal(t, 0, chunks[4].Start)
	assert.Equal(t, 499, chunks[4].End)
	assert.Equal(t, ref, chunks[5].Source)
}

func TestBuildMacroChunkList_NotEnoughLocatedEpisodes(t *testing.T) {
	cat := catalog.New()
	a := &stubSource{path: "a.mp4", frameCount: 500}
	cat.Add(a)

	_, err := BuildMacroChunkList(cat)
	assert.ErrorIs(t, err, catalog.ErrNotEnoughEpisodes)
}
