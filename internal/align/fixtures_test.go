package align

import "context"

// fakeSource is a synthetic FrameSource for deterministic tests. Each frame
// carries a 16-bit encoded value (two bytes of a 1x1x3 buffer) chosen by
// colorFn, so two frames compare as pixel-identical iff their encoded
// values are exactly equal.
type fakeSource struct {
	path       string
	frameCount int
	fps        float64
	colorFn    func(i int) int
}

func (f *fakeSource) Path() string       { return f.path }
func (f *fakeSource) FrameCount() int    { return f.frameCount }
func (f *fakeSource) FPS() float64       { return f.fps }
func (f *fakeSource) NativeShape() Shape { return Shape{Height: 1, Width: 1, Channels: 3} }

func (f *fakeSource) ReadThumbnails(ctx context.Context, indexes []int, target Shape) ([][]byte, error) {
	out := make([][]byte, len(indexes))
	for i, idx := range indexes {
		out[i] = encode(f.colorFn(idx))
	}
	return out, nil
}

func (f *fakeSource) ReadConsecutive(ctx context.Context, start, count int, target Shape) ([][]byte, error) {
	indexes := make([]int, count)
	for i := range indexes {
		indexes[i] = start + i
	}
	return f.ReadThumbnails(ctx, indexes, target)
}

func encode(v int) []byte {
	return []byte{byte(v >> 8), byte(v & 0xFF), 0}
}
