package align

import (
	"context"
	"fmt"
)

// Locator finds where a short run of consecutive reference frames reappears
// inside another episode, scanning the search range section by section so
// memory use stays bounded regardless of episode length.
type Locator struct {
	Kernel             Kernel
	MaxLoadingFrames   int
	IdenticalThreshold float64
}

// NewLocator returns a Locator configured with this package's default
// 500-frame section size and 3% identical-frame threshold.
func NewLocator(kernel Kernel) *Locator {
	return &Locator{Kernel: kernel, MaxLoadingFrames: 500, IdenticalThreshold: 0.03}
}

// Result is the outcome of locating a run of reference frames inside a
// search episode.
type Result struct {
	// Mapping maps each located reference frame index to its corresponding
	// index in the search episode.
	Mapping map[int]int
	// Reliability is 1 minus the minimum per-frame distance observed along
	// the winning diagonal; higher is better, max 1.
	Reliability float64
}

type sectionMatch struct {
	frameToLocate int
	searchFrame   int
	diagScore     float64
	minFrameScore float64
	set           bool
}

// Locate searches [start,end) of search (defaulting to the full episode)
// for the frames named in refFrames (consecutive indexes from ref), scanning
// backward from the end of the range if reverse is set. It returns the best
// match found whatever its reliability, leaving callers to compare
// Reliability against their own floor; it returns nil only when no section
// produced a match at all.
func (l *Locator) Locate(ctx context.Context, refFrames []int, ref, search FrameSource, start, end int, reverse bool) (*Result, error) {
	if end <= 0 || end > search.FrameCount() {
		end = search.FrameCount()
	}
	if start < 0 || start >= end {
		return nil, fmt.Errorf("align: invalid search range [%d,%d)", start, end)
	}

	sectionLen := l.MaxLoadingFrames
	numSections := (end - start) / sectionLen
	if numSections == 0 {
		numSections = 1
	}

	var best sectionMatch
	extraIteration := false
	var searchFrames []int

	for s := 0; s < numSections; {
		if !extraIteration {
			searchFrames = sectionFrames(s, numSections, sectionLen, start, end, reverse)
		}
		extraIteration = false

		matrix, err := l.Kernel.Compute(ctx, ref, search, refFrames, searchFrames, true, false)
		if err != nil {
			return nil, err
		}
		diag := diagonalMeans(matrix)
		mi, mj, _ := argMin(diag)

		shift := mi
		if mj < shift {
			shift = mj
		}
		checkI, checkJ := mi-shift, mj-shift

		diagScore := diag[checkI][checkJ]
		minFrameScore := matrix[checkI][checkJ]
		for k := 1; k <= shift; k++ {
			if v := matrix[checkI+k][checkJ+k]; v < minFrameScore {
				minFrameScore = v
			}
		}

		switch {
		case !best.set:
			best = sectionMatch{refFrames[checkI], searchFrames[checkJ], diagScore, minFrameScore, true}
		case diagScore < best.diagScore && minFrameScore < best.minFrameScore:
			if checkI != 0 {
				center := searchFrames[checkJ]
				lo, hi := clampRange(center-sectionLen/2, center+sectionLen/2, search.FrameCount())
				searchFrames = indexRange(lo, hi)
				extraIteration = true
				continue
			}
			best = sectionMatch{refFrames[checkI], searchFrames[checkJ], diagScore, minFrameScore, true}
		}

		if diagScore <= l.IdenticalThreshold || minFrameScore < 0.01 {
			break
		}
		s++
	}

	if !best.set {
		return nil, nil
	}

	mapping := make(map[int]int, len(refFrames))
	for i := range refFrames {
		mapping[best.frameToLocate+i] = best.searchFrame + i
	}
	return &Result{Mapping: mapping, Reliability: 1 - best.minFrameScore}, nil
}

// sectionFrames returns the search-episode frame indexes for section s of
// numSections, honoring the forward/reverse scan direction.
func sectionFrames(s, numSections, sectionLen, start, end int, reverse bool) []int {
	if !reverse {
		lo := s*sectionLen + start
		hi := lo + sectionLen
		if s == numSections-1 || hi > end {
			hi = end
		}
		return indexRange(lo, hi)
	}
	lo := (numSections-1-s)*sectionLen + start
	hi := lo + sectionLen
	if s == 0 || hi > end {
		hi = end
	}
	return indexRange(lo, hi)
}
