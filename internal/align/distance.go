package align

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// Aggregation selects which pixel-wise distance the kernel aggregates.
type Aggregation int

const (
	// L1 sums absolute per-component differences.
	L1 Aggregation = iota
	// L2 takes the Euclidean norm of per-component differences.
	L2
)

// Kernel computes normalized pixel-distance matrices between thumbnails
// drawn from two episodes. It holds no per-call state and is safe for
// concurrent use.
type Kernel struct {
	Aggregation Aggregation
	Resolution  Shape
}

// NewKernel returns a Kernel with the given aggregation and thumbnail
// resolution (channels is always 3).
func NewKernel(agg Aggregation, height, width int) Kernel {
	return Kernel{Aggregation: agg, Resolution: Shape{Height: height, Width: width, Channels: 3}}
}

// Compute loads thumbnails for idx1 from e1 and idx2 from e2 in parallel,
// then returns the len(idx1) x len(idx2) matrix of normalized distances in
// [0,1]. If consecutive is set, each side is decoded as one ordered run
// starting at its first index (faster than per-frame seeking); reversed, if
// set, reverses the loaded buffer afterward so it lines up with a
// right-to-left scan.
func (k Kernel) Compute(ctx context.Context, e1, e2 FrameSource, idx1, idx2 []int, consecutive, reversed bool) ([][]float64, error) {
	if e1.NativeShape() != e2.NativeShape() {
		return nil, fmt.Errorf("align: shape mismatch between %s and %s", e1.Path(), e2.Path())
	}
	if len(idx1) == 0 || len(idx2) == 0 {
		return [][]float64{}, nil
	}

	var thumbs1, thumbs2 [][]byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		thumbs1, err = k.load(gctx, e1, idx1, consecutive)
		return err
	})
	g.Go(func() error {
		var err error
		thumbs2, err = k.load(gctx, e2, idx2, consecutive)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("align: loading thumbnails: %w", err)
	}

	if reversed {
		reverseBufs(thumbs1)
		reverseBufs(thumbs2)
	}

	matrix := make([][]float64, len(thumbs1))
	for i, a := range thumbs1 {
		row := make([]float64, len(thumbs2))
		for j, b := range thumbs2 {
			row[j] = k.distance(a, b)
		}
		matrix[i] = row
	}
	return matrix, nil
}

func (k Kernel) load(ctx context.Context, src FrameSource, indexes []int, consecutive bool) ([][]byte, error) {
	if consecutive {
		return src.ReadConsecutive(ctx, indexes[0], len(indexes), k.Resolution)
	}
	return src.ReadThumbnails(ctx, indexes, k.Resolution)
}

// distance computes the normalized pixel distance between two equally-sized
// thumbnail buffers.
func (k Kernel) distance(a, b []byte) float64 {
	n := k.Resolution.Height * k.Resolution.Width * k.Resolution.Channels
	switch k.Aggregation {
	case L2:
		var sumSquares float64
		for i := 0; i < n; i++ {
			d := float64(a[i]) - float64(b[i])
			sumSquares += d * d
		}
		max := math.Sqrt(float64(n) * 255 * 255)
		return math.Min(math.Sqrt(sumSquares)/max, 1.0)
	default: // L1
		var sum float64
		for i := 0; i < n; i++ {
			d := float64(a[i]) - float64(b[i])
			if d < 0 {
				d = -d
			}
			sum += d
		}
		max := float64(n) * 255
		return math.Min(sum/max, 1.0)
	}
}

func reverseBufs(bufs [][]byte) {
	for i, j := 0, len(bufs)-1; i < j; i, j = i+1, j-1 {
		bufs[i], bufs[j] = bufs[j], bufs[i]
	}
}

// diagonalMeans computes, for every cell (i,j) of matrix, the mean of the
// values along the diagonal starting at that cell and running to whichever
// edge of the matrix comes first. This rewards consecutive-frame windows
// that stay close together across several frames, not just one.
func diagonalMeans(matrix [][]float64) [][]float64 {
	rows := len(matrix)
	if rows == 0 {
		return nil
	}
	cols := len(matrix[0])
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			var sum float64
			count := 0
			limit := rows - i
			if cols-j < limit {
				limit = cols - j
			}
			for kk := 0; kk < limit; kk++ {
				sum += matrix[i+kk][j+kk]
				count++
			}
			out[i][j] = sum / float64(count)
		}
	}
	return out
}

// argMin returns the row and column of the smallest value in matrix.
func argMin(matrix [][]float64) (int, int, float64) {
	bi, bj := 0, 0
	best := math.Inf(1)
	for i, row := range matrix {
		for j, v := range row {
			if v < best {
				best = v
				bi, bj = i, j
			}
		}
	}
	return bi, bj, best
}
