package align

import (
	"context"
	"log/slog"
)

// Boundary locates the full extent of the shared segment surrounding a seed
// identical-frame pair, by scanning outward from the seed and then zooming
// in on each edge.
type Boundary struct {
	Kernel             Kernel
	ScanRange          int // total frames scanned per side, centered on the seed (R)
	ScanProbes         int // number of probes taken across ScanRange (P)
	IdenticalThreshold float64
	SimilarThreshold   float64
}

// NewBoundary returns a Boundary configured with this package's defaults:
// a 180s window at 24fps and 100 probes.
func NewBoundary(kernel Kernel) *Boundary {
	return &Boundary{
		Kernel:             kernel,
		ScanRange:          180 * 24,
		ScanProbes:         100,
		IdenticalThreshold: 0.01,
		SimilarThreshold:   0.10,
	}
}

// Find returns the two chunks (one per episode) spanning the shared segment
// around the seed pair, or (nil, nil, nil) if no boundary can be
// established — a near-episode-boundary seed, or a seed that turns out not
// to sit inside a similar run, are not treated as errors.
func (b *Boundary) Find(ctx context.Context, e1, e2 FrameSource, seed Pair) (*Chunk, *Chunk, error) {
	stride := b.ScanRange / b.ScanProbes
	if stride < 1 {
		stride = 1
	}
	half := b.ScanRange / 2

	lo1, hi1 := clampRange(seed[0]-half, seed[0]+half, e1.FrameCount())
	lo2, hi2 := clampRange(seed[1]-half, seed[1]+half, e2.FrameCount())

	list1 := stridedRange(lo1, hi1, stride)
	list2 := stridedRange(lo2, hi2, stride)
	n := len(list1)
	if len(list2) < n {
		n = len(list2)
	}
	if n == 0 {
		slog.Debug("boundary: empty wide-scan range", "seed1", seed[0], "seed2", seed[1])
		return nil, nil, nil
	}
	list1, list2 = list1[:n], list2[:n]

	matrix, err := b.Kernel.Compute(ctx, e1, e2, list1, list2, false, false)
	if err != nil {
		return nil, nil, err
	}

	firstSimilar, lastSimilar, ok := diagonalSimilarRun(matrix, b.SimilarThreshold)
	if !ok {
		slog.Debug("boundary: no similar run found in wide scan", "seed1", seed[0], "seed2", seed[1])
		return nil, nil, nil
	}

	lowerLo1, lowerLo2 := list1[firstSimilar], list2[firstSimilar]
	lower1, lower2, err := b.zoomEdge(ctx, e1, e2, lowerLo1, lowerLo2, stride, false)
	if err != nil {
		return nil, nil, err
	}
	if lower1 == nil {
		slog.Debug("boundary: no identical cell found zooming lower edge")
		return nil, nil, nil
	}

	upperLo1, upperLo2 := list1[lastSimilar], list2[lastSimilar]
	upper1, upper2, err := b.zoomEdge(ctx, e1, e2, upperLo1, upperLo2, stride, true)
	if err != nil {
		return nil, nil, err
	}
	if upper1 == nil {
		slog.Debug("boundary: no identical cell found zooming upper edge")
		return nil, nil, nil
	}

	c1 := Chunk{Source: e1, Start: *lower1, End: *upper1}
	c2 := Chunk{Source: e2, Start: *lower2, End: *upper2}
	if !c1.Valid() || !c2.Valid() {
		slog.Debug("boundary: degenerate chunk", "c1", c1, "c2", c2)
		return nil, nil, nil
	}
	return &c1, &c2, nil
}

// zoomEdge computes the diagonal-mean matrix over a consecutive window
// anchored at (anchor1, anchor2) of length stride, and returns the episode
// indexes of the first cell along the best diagonal whose mean distance
// clears the identical threshold. When upper is true, the window is loaded
// reversed so "first identical walking in from the window's far corner"
// becomes "last identical walking toward the seed".
func (b *Boundary) zoomEdge(ctx context.Context, e1, e2 FrameSource, anchor1, anchor2, stride int, upper bool) (*int, *int, error) {
	var lo1, hi1, lo2, hi2 int
	if !upper {
		// Window is [anchor-stride, anchor], inclusive of the anchor itself:
		// the wide scan guarantees anchor is similar but the probe just
		// before it (anchor-stride) was not, so the true edge lies between.
		lo1, hi1 = clampRange(anchor1-stride, anchor1+1, e1.FrameCount())
		lo2, hi2 = clampRange(anchor2-stride, anchor2+1, e2.FrameCount())
	} else {
		// Window is [anchor, anchor+stride], inclusive of the anchor itself.
		lo1, hi1 = clampRange(anchor1, anchor1+stride+1, e1.FrameCount())
		lo2, hi2 = clampRange(anchor2, anchor2+stride+1, e2.FrameCount())
	}
	list1 := indexRange(lo1, hi1)
	list2 := indexRange(lo2, hi2)
	if len(list1) == 0 || len(list2) == 0 {
		return nil, nil, nil
	}

	matrix, err := b.Kernel.Compute(ctx, e1, e2, list1, list2, true, upper)
	if err != nil {
		return nil, nil, err
	}
	diag := diagonalMeans(matrix)
	bi, bj, _ := argMin(diag)
	back := bi
	if bj < back {
		back = bj
	}
	i, j := bi-back, bj-back
	for diag[i][j] > b.IdenticalThreshold {
		if i == bi {
			return nil, nil, nil
		}
		i, j = i+1, j+1
	}

	if upper {
		// list1/list2 were loaded then reversed inside Compute, so index i
		// into the reversed buffer corresponds to list1[len-1-i].
		idx1 := list1[len(list1)-1-i]
		idx2 := list2[len(list2)-1-j]
		return &idx1, &idx2, nil
	}
	idx1, idx2 := list1[i], list2[j]
	return &idx1, &idx2, nil
}

func stridedRange(lo, hi, stride int) []int {
	var out []int
	for i := lo; i < hi; i += stride {
		out = append(out, i)
	}
	return out
}

// diagonalSimilarRun walks the diagonal of matrix and returns the first and
// last indexes whose value is at or below threshold, scanning as one
// contiguous run from the first hit.
func diagonalSimilarRun(matrix [][]float64, threshold float64) (first, last int, ok bool) {
	n := len(matrix)
	first, last = -1, -1
	for k := 0; k < n && k < len(matrix[k]); k++ {
		if matrix[k][k] <= threshold {
			if first == -1 {
				first = k
			}
			last = k
		} else if first != -1 {
			break
		}
	}
	return first, last, first != -1
}
