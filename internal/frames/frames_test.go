package frames

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iagolobla/episode-binger/internal/align"
)

func TestFrameTime(t *testing.T) {
	assert.Equal(t, 0.0, frameTime(0, 24))
	assert.InDelta(t, 2.5, frameTime(60, 24), 1e-9)
	assert.Equal(t, 60.0, frameTime(60, 0), "falls back to raw index when fps is unknown")
}

func TestScaleFilter(t *testing.T) {
	got := scaleFilter(align.Shape{Height: 36, Width: 64, Channels: 3})
	assert.Equal(t, "scale=64:36:flags=area", got)
}
