package frames

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/iagolobla/episode-binger/internal/align"
)

// Source is an align.FrameSource backed by a real video file: metadata
// comes from probe (MP4 box parsing), pixel data comes from piping raw
// frames out of ffmpeg, the same sidecar-binary approach
// five82-spindle/internal/deps uses for Drapto's encoder.
type Source struct {
	path       string
	ffmpegPath string
	probeResult
}

// Open probes path for its video metadata and resolves the ffmpeg binary
// to use for frame extraction. The file itself is opened lazily, once per
// extraction call, since ffmpeg does its own I/O.
func Open(path string) (*Source, error) {
	pr, err := probe(path)
	if err != nil {
		return nil, err
	}
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("frames: ffmpeg not found on PATH: %w", err)
	}
	return &Source{path: path, ffmpegPath: ffmpegPath, probeResult: pr}, nil
}

func (s *Source) Path() string             { return s.path }
func (s *Source) FrameCount() int          { return s.frameCount }
func (s *Source) FPS() float64             { return s.fps }
func (s *Source) NativeShape() align.Shape { return s.shape }

// ReadThumbnails extracts the frames at the given indexes, resized to
// target, one ffmpeg invocation per frame (a precise single-frame seek).
// Frames are returned in the same order as indexes.
func (s *Source) ReadThumbnails(ctx context.Context, indexes []int, target align.Shape) ([][]byte, error) {
	out := make([][]byte, len(indexes))
	for i, idx := range indexes {
		buf, err := s.extractFrame(ctx, idx, target)
		if err != nil {
			return nil, fmt.Errorf("frames: read thumbnail %d of %s: %w", idx, s.path, err)
		}
		out[i] = buf
	}
	return out, nil
}

// ReadConsecutive extracts count frames starting at start, resized to
// target, in a single ffmpeg invocation.
func (s *Source) ReadConsecutive(ctx context.Context, start, count int, target align.Shape) ([][]byte, error) {
	if count <= 0 {
		return nil, nil
	}

	seekSeconds := frameTime(start, s.fps)
	args := []string{
		"-nostdin", "-loglevel", "error",
		"-ss", strconv.FormatFloat(seekSeconds, 'f', -1, 64),
		"-i", s.path,
		"-frames:v", strconv.Itoa(count),
		"-vf", scaleFilter(target),
		"-pix_fmt", "rgb24",
		"-f", "rawvideo",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("frames: ffmpeg extract %s frames from %s: %w: %s", strconv.Itoa(count), s.path, err, stderr.String())
	}

	frameSize := target.Height * target.Width * target.Channels
	data := stdout.Bytes()
	got := len(data) / frameSize
	if got > count {
		got = count
	}

	out := make([][]byte, got)
	for i := 0; i < got; i++ {
		frame := make([]byte, frameSize)
		copy(frame, data[i*frameSize:(i+1)*frameSize])
		out[i] = frame
	}
	return out, nil
}

func (s *Source) extractFrame(ctx context.Context, index int, target align.Shape) ([]byte, error) {
	bufs, err := s.ReadConsecutive(ctx, index, 1, target)
	if err != nil {
		return nil, err
	}
	if len(bufs) == 0 {
		return nil, fmt.Errorf("no frame decoded at index %d", index)
	}
	return bufs[0], nil
}

// frameTime converts a frame index to a seek offset in seconds. Falls
// back to treating the index itself as a rough offset when fps is
// unknown, since the exact value only affects ffmpeg's seek precision,
// not correctness of which frame is returned (ffmpeg decodes forward from
// the nearest keyframe regardless).
func frameTime(index int, fps float64) float64 {
	if fps <= 0 {
		return float64(index)
	}
	return float64(index) / fps
}

// scaleFilter builds the ffmpeg -vf value that resizes the decoded frame
// to target's dimensions, matching the original's cv.resize with
// INTER_AREA-equivalent downscaling (ffmpeg's "area" algorithm).
func scaleFilter(target align.Shape) string {
	return fmt.Sprintf("scale=%d:%d:flags=area", target.Width, target.Height)
}
