package align

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Finder performs a blind stochastic search for a single pair of identical
// frames between two episodes. It never decodes a full episode: it samples
// a fixed number of subsamples per pass, zooming in when a sample pair
// looks promising and reshuffling the sample offsets when it doesn't.
type Finder struct {
	Kernel             Kernel
	NumSubsamples      int
	MaxReshuffles      int
	IdenticalThreshold float64
	SimilarThreshold   float64
	Rand               *rand.Rand
}

// NewFinder returns a Finder configured with the defaults used throughout
// this package (50 subsamples, 20 reshuffles, 1%/10% thresholds).
func NewFinder(kernel Kernel) *Finder {
	return &Finder{
		Kernel:             kernel,
		NumSubsamples:      50,
		MaxReshuffles:      20,
		IdenticalThreshold: 0.01,
		SimilarThreshold:   0.10,
		Rand:               rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// candidate is the best match observed so far across an entire Find call,
// including nested zoom-ins. It is shared by pointer across one call's
// recursion tree only; callers never see partial state.
type candidate struct {
	pair Pair
	dist float64
	set  bool
}

// Find searches the rectangle [initial, final) for a frame pair believed to
// show the same content in both episodes. exclude lists pairs that must be
// rejected even if they are the best distance found (used to force a
// different match on retry); Find returns the grown exclusion list so the
// caller can thread it into the next retry.
func (f *Finder) Find(ctx context.Context, e1, e2 FrameSource, initial, final Pair, exclude []Pair) (*Pair, []Pair, error) {
	best := &candidate{}
	result, newExclude, err := f.search(ctx, e1, e2, initial, final, f.MaxReshuffles, exclude, best)
	if err != nil {
		return nil, exclude, err
	}
	if result != nil {
		return result, newExclude, nil
	}
	if best.set {
		return &best.pair, newExclude, nil
	}
	return nil, newExclude, nil
}

// search is the recursive core. It returns the confirmed identical pair (if
// any), the exclusion list grown with that pair, and any decode error.
func (f *Finder) search(ctx context.Context, e1, e2 FrameSource, initial, final Pair, maxReshuffles int, exclude []Pair, best *candidate) (*Pair, []Pair, error) {
	e1Len := final[0] - initial[0]
	e2Len := final[1] - initial[1]

	e1Step := e1Len / f.NumSubsamples
	if e1Step < 1 {
		e1Step = 1
	}
	e2Step := e2Len / f.NumSubsamples
	if e2Step < 1 {
		e2Step = 1
	}

	maxOffsetCombos := e1Step * e2Step
	type offset struct{ a, b int }
	tried := make(map[offset]bool)

	for reshuffle := 0; reshuffle < maxReshuffles && len(tried) < maxOffsetCombos; reshuffle++ {
		var off offset
		for {
			off = offset{f.Rand.Intn(e1Step), f.Rand.Intn(e2Step)}
			if !tried[off] {
				break
			}
		}
		tried[off] = true

		list1 := sampleIndexes(initial[0], e1Step, off.a, f.NumSubsamples, e1.FrameCount())
		list2 := sampleIndexes(initial[1], e2Step, off.b, f.NumSubsamples, e2.FrameCount())
		if len(list1) == 0 || len(list2) == 0 {
			continue
		}

		matrix, err := f.Kernel.Compute(ctx, e1, e2, list1, list2, false, false)
		if err != nil {
			return nil, exclude, err
		}
		excluded := make([][]bool, len(matrix))
		for i := range excluded {
			excluded[i] = make([]bool, len(matrix[i]))
		}

		zoomIns := 0
		for {
			i, j, dist, ok := minUnexcluded(matrix, excluded)
			if !ok || dist > f.SimilarThreshold {
				break
			}
			global := Pair{list1[i], list2[j]}

			if !containsPair(exclude, global) && (!best.set || dist < best.dist) {
				best.pair = global
				best.dist = dist
				best.set = true
			}

			if dist <= f.IdenticalThreshold {
				refined, rdist, err := f.refine(ctx, e1, e2, global)
				if err != nil {
					return nil, exclude, err
				}
				if containsPair(exclude, *refined) {
					break
				}
				exclude = append(exclude, *refined)
				if !best.set || rdist < best.dist {
					best.pair = *refined
					best.dist = rdist
					best.set = true
				}
				return refined, exclude, nil
			}

			if zoomIns >= 1 {
				break
			}

			if e1Len >= f.NumSubsamples && e2Len >= f.NumSubsamples {
				lo1, hi1 := clampRange(global[0]-e1Step/2, global[0]+e1Step/2, e1.FrameCount())
				lo2, hi2 := clampRange(global[1]-e2Step/2, global[1]+e2Step/2, e2.FrameCount())
				zoomIns++
				result, grown, err := f.search(ctx, e1, e2, Pair{lo1, lo2}, Pair{hi1, hi2}, 1, exclude, best)
				if err != nil {
					return nil, exclude, err
				}
				exclude = grown
				if result != nil {
					return result, exclude, nil
				}
			} else {
				break
			}

			excluded[i][j] = true
		}
	}

	return nil, exclude, nil
}

// refine snaps a candidate identical pair to the best-scoring diagonal in a
// +/-50 frame neighborhood, so an isolated coincidental match (e.g. two
// unrelated dark frames) doesn't get reported as the shared-segment seed.
func (f *Finder) refine(ctx context.Context, e1, e2 FrameSource, seed Pair) (*Pair, float64, error) {
	const window = 50
	lo1, hi1 := clampRange(seed[0]-window, seed[0]+window, e1.FrameCount())
	lo2, hi2 := clampRange(seed[1]-window, seed[1]+window, e2.FrameCount())

	list1 := indexRange(lo1, hi1)
	list2 := indexRange(lo2, hi2)
	if len(list1) == 0 || len(list2) == 0 {
		return &seed, 0, nil
	}

	matrix, err := f.Kernel.Compute(ctx, e1, e2, list1, list2, true, false)
	if err != nil {
		return nil, 0, fmt.Errorf("align: refining seed %v: %w", seed, err)
	}
	diag := diagonalMeans(matrix)
	i, j, dist := argMin(diag)
	return &Pair{list1[i], list2[j]}, dist, nil
}

// sampleIndexes returns num evenly-strided indexes starting at base+offset
// with the given step, filtered to [0, count).
func sampleIndexes(base, step, offset, num, count int) []int {
	out := make([]int, 0, num)
	for k := 0; k < num; k++ {
		idx := base + k*step + offset
		if idx >= 0 && idx < count {
			out = append(out, idx)
		}
	}
	return out
}

func indexRange(lo, hi int) []int {
	if hi <= lo {
		return nil
	}
	out := make([]int, hi-lo)
	for i := range out {
		out[i] = lo + i
	}
	return out
}

// minUnexcluded finds the smallest value in matrix not already marked
// excluded. This replaces the Python search's practice of overwriting the
// matrix cell with a sentinel value of 2 to mark it as visited.
func minUnexcluded(matrix [][]float64, excluded [][]bool) (int, int, float64, bool) {
	bi, bj := -1, -1
	best := 0.0
	found := false
	for i, row := range matrix {
		for j, v := range row {
			if excluded[i][j] {
				continue
			}
			if !found || v < best {
				best = v
				bi, bj = i, j
				found = true
			}
		}
	}
	return bi, bj, best, found
}
