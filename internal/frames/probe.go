// Package frames implements align.FrameSource over real video files: MP4
// container probing for metadata (resolution, frame count, frame rate) and
// ffmpeg-based frame extraction for pixel data.
package frames

import (
	"fmt"
	"io"
	"os"

	gomp4 "github.com/abema/go-mp4"

	"github.com/iagolobla/episode-binger/internal/align"
)

// probeResult holds everything ReadConsecutive/ReadThumbnails and the
// align.FrameSource interface need from the container, gathered once at
// Open time.
type probeResult struct {
	shape      align.Shape
	frameCount int
	fps        float64
}

// probe walks the MP4 box tree for the first video track's hdlr (to pick
// out the "vide" track among possibly several traks), tkhd (display
// dimensions), mdhd (timescale/duration) and stsz (sample count, one video
// sample per frame) — the same ExtractBoxesWithPayload pattern bpm.go uses
// to pull esds out of the audio track.
func probe(path string) (probeResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return probeResult{}, fmt.Errorf("frames: open %s: %w", path, err)
	}
	defer f.Close()

	hdlrPath := gomp4.BoxPath{gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeMdia(), gomp4.BoxTypeHdlr()}
	tkhdPath := gomp4.BoxPath{gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeTkhd()}
	mdhdPath := gomp4.BoxPath{gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeMdia(), gomp4.BoxTypeMdhd()}
	stszPath := gomp4.BoxPath{gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeMdia(), gomp4.BoxTypeMinf(), gomp4.BoxTypeStbl(), gomp4.BoxTypeStsz()}

	hdlrs, err := extractAll(f, hdlrPath)
	if err != nil || len(hdlrs) == 0 {
		return probeResult{}, fmt.Errorf("frames: no hdlr boxes in %s: %w", path, err)
	}
	videoTrak := -1
	for i, b := range hdlrs {
		if hdlr, ok := b.Payload.(*gomp4.Hdlr); ok && hdlr.HandlerType == "vide" {
			videoTrak = i
			break
		}
	}
	if videoTrak < 0 {
		return probeResult{}, fmt.Errorf("frames: no video track in %s", path)
	}

	tkhds, err := extractAll(f, tkhdPath)
	if err != nil || videoTrak >= len(tkhds) {
		return probeResult{}, fmt.Errorf("frames: tkhd in %s: %w", path, err)
	}
	tkhd, ok := tkhds[videoTrak].Payload.(*gomp4.Tkhd)
	if !ok {
		return probeResult{}, fmt.Errorf("frames: unexpected tkhd payload in %s", path)
	}

	mdhds, err := extractAll(f, mdhdPath)
	if err != nil || videoTrak >= len(mdhds) {
		return probeResult{}, fmt.Errorf("frames: mdhd in %s: %w", path, err)
	}
	mdhd, ok := mdhds[videoTrak].Payload.(*gomp4.Mdhd)
	if !ok {
		return probeResult{}, fmt.Errorf("frames: unexpected mdhd payload in %s", path)
	}

	stszs, err := extractAll(f, stszPath)
	if err != nil || videoTrak >= len(stszs) {
		return probeResult{}, fmt.Errorf("frames: stsz in %s: %w", path, err)
	}
	stsz, ok := stszs[videoTrak].Payload.(*gomp4.Stsz)
	if !ok {
		return probeResult{}, fmt.Errorf("frames: unexpected stsz payload in %s", path)
	}

	width := int(tkhd.Width >> 16)
	height := int(tkhd.Height >> 16)
	frameCount := int(stsz.SampleCount)

	duration := float64(mdhd.DurationV0)
	if mdhd.GetVersion() == 1 {
		duration = float64(mdhd.DurationV1)
	}

	var fps float64
	if mdhd.Timescale > 0 && duration > 0 {
		fps = float64(frameCount) / (duration / float64(mdhd.Timescale))
	}

	return probeResult{
		shape:      align.Shape{Height: height, Width: width, Channels: 3},
		frameCount: frameCount,
		fps:        fps,
	}, nil
}

// extractAll rewinds rs and extracts every box matching path, in document
// order — used so results across different per-trak paths line up by
// index for the same track.
func extractAll(rs io.ReadSeeker, path gomp4.BoxPath) ([]gomp4.BoxInfoWithPayload, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return gomp4.ExtractBoxesWithPayload(rs, nil, []gomp4.BoxPath{path})
}
