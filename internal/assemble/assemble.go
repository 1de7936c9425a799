// Package assemble builds a single output video from an ordered list of
// episode chunks by shelling out to ffmpeg, the same sidecar-binary
// approach internal/frames uses for extraction.
package assemble

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/iagolobla/episode-binger/internal/align"
)

// Assembler concatenates a chunk list into one output file via ffmpeg's
// concat demuxer, trimming each chunk with -ss/-to before the concat step.
type Assembler struct {
	ffmpegPath string
}

// New resolves the ffmpeg binary to use for assembly.
func New() (*Assembler, error) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("assemble: ffmpeg not found on PATH: %w", err)
	}
	return &Assembler{ffmpegPath: path}, nil
}

// CreateVideo trims each chunk in chunkList to its own temp file, then
// concatenates them in order into outputPath, mirroring the original's
// trim-then-concat pipeline (Video_Assembler.create_video).
func (a *Assembler) CreateVideo(ctx context.Context, chunkList []*align.Chunk, outputPath string) error {
	if len(chunkList) == 0 {
		return fmt.Errorf("assemble: empty chunk list")
	}

	workDir, err := os.MkdirTemp("", "episode-binger-assemble-*")
	if err != nil {
		return fmt.Errorf("assemble: workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	segments := make([]string, 0, len(chunkList))
	for i, chunk := range chunkList {
		if !chunk.Valid() {
			return fmt.Errorf("assemble: chunk %d is invalid: start=%d end=%d", i, chunk.Start, chunk.End)
		}
		segPath := filepath.Join(workDir, fmt.Sprintf("segment-%04d.mp4", i))
		if err := a.trimSegment(ctx, chunk, segPath); err != nil {
			return fmt.Errorf("assemble: trim segment %d: %w", i, err)
		}
		segments = append(segments, segPath)
	}

	listPath := filepath.Join(workDir, "concat.txt")
	if err := writeConcatList(listPath, segments); err != nil {
		return fmt.Errorf("assemble: concat list: %w", err)
	}

	return a.concat(ctx, listPath, outputPath)
}

func (a *Assembler) trimSegment(ctx context.Context, chunk *align.Chunk, outPath string) error {
	fps := chunk.Source.FPS()
	startSeconds := float64(chunk.Start) / fps
	endSeconds := float64(chunk.End+1) / fps

	args := []string{
		"-nostdin", "-loglevel", "error", "-y",
		"-ss", formatSeconds(startSeconds),
		"-to", formatSeconds(endSeconds),
		"-i", chunk.Source.Path(),
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		outPath,
	}

	return a.run(ctx, args)
}

func (a *Assembler) concat(ctx context.Context, listPath, outPath string) error {
	args := []string{
		"-nostdin", "-loglevel", "error", "-y",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	}
	return a.run(ctx, args)
}

func (a *Assembler) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, a.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg %v: %w: %s", args, err, stderr.String())
	}
	return nil
}

func writeConcatList(path string, segments []string) error {
	var buf bytes.Buffer
	for _, s := range segments {
		fmt.Fprintf(&buf, "file '%s'\n", s)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%.6f", s)
}
