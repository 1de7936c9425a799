package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/iagolobla/episode-binger/internal/align"
)

func newShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every cataloged episode's located opening/ending state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadCatalog(); err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"title", "episode", "frames", "duration", "opening", "ending"})
			tw.SetColumnConfigs([]table.ColumnConfig{
				{Number: 3, Align: text.AlignRight},
				{Number: 4, Align: text.AlignRight},
			})

			for _, src := range a.cat.Episodes() {
				entry, _ := a.cat.Get(src.Path())
				tw.AppendRow(table.Row{
					deriveTitle(src.Path()),
					src.Path(),
					humanize.Comma(int64(src.FrameCount())),
					formatDuration(src),
					formatChunk(entry.Opening),
					formatChunk(entry.Ending),
				})
			}
			tw.Render()
			return nil
		},
	}
}

func formatDuration(src align.FrameSource) string {
	if src.FPS() <= 0 {
		return "-"
	}
	secs := float64(src.FrameCount()) / src.FPS()
	return (time.Duration(secs * float64(time.Second))).Round(time.Second).String()
}

// deriveTitle turns a filename into a human-readable episode title, the
// same separator-cleanup-then-title-case approach five82-spindle uses to
// name a disc when no richer metadata is available.
func deriveTitle(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var cleaned strings.Builder
	prevSpace := false
	for _, r := range base {
		switch {
		case r == '-' || r == '_' || r == '.' || r == ' ':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		default:
			cleaned.WriteRune(r)
			prevSpace = false
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return path
	}
	return cases.Title(language.Und).String(title)
}

func formatChunk(c *align.Chunk) string {
	if c == nil {
		return "-"
	}
	return fmt.Sprintf("[%d,%d] (%.1fs)", c.Start, c.End, c.Seconds())
}
