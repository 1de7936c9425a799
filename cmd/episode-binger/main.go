// Command episode-binger finds the shared opening and ending segments
// across a series' episodes and stitches everything else into one
// continuous "macro-episode" video.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/iagolobla/episode-binger/internal/align"
	"github.com/iagolobla/episode-binger/internal/cache"
	"github.com/iagolobla/episode-binger/internal/catalog"
	"github.com/iagolobla/episode-binger/internal/config"
	"github.com/iagolobla/episode-binger/internal/db"
	"github.com/iagolobla/episode-binger/internal/frames"
	"github.com/iagolobla/episode-binger/internal/logging"
)

// app bundles the state every subcommand needs after the config has been
// loaded: the loaded Config itself, plus lazily-opened catalog and cache
// handles shared across a single invocation.
type app struct {
	cfg *config.Config
	cat *catalog.Catalog
	db  *sql.DB
}

func main() {
	a := &app{}
	cmd := newRootCommand(a)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	var configFlag string

	root := &cobra.Command{
		Use:           "episode-binger",
		Short:         "Locate shared openings/endings across a series and assemble a macro-episode",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["skipConfig"] == "true" {
				return nil
			}
			cfg, err := config.Load(configFlag)
			if err != nil {
				return err
			}
			a.cfg = cfg
			slog.SetDefault(logging.New(cfg.LogFormat, cfg.LogLevel, nil))
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "episode-binger.toml", "Configuration file path")

	root.AddCommand(
		newConfigCommand(),
		newAddCommand(a),
		newFindCommand(a),
		newLocateCommand(a),
		newAssembleCommand(a),
		newShowCommand(a),
	)
	return root
}

// loadCatalog opens a.cfg.CatalogPath if it exists, otherwise starts an
// empty catalog, reopening every saved episode through internal/frames.
func (a *app) loadCatalog() error {
	if a.cat != nil {
		return nil
	}
	if _, err := os.Stat(a.cfg.CatalogPath); err != nil {
		a.cat = catalog.New()
		return nil
	}
	cat, err := catalog.Load(a.cfg.CatalogPath, func(path string) (align.FrameSource, error) {
		return frames.Open(path)
	})
	if err != nil {
		return fmt.Errorf("episode-binger: loading catalog: %w", err)
	}
	a.cat = cat
	return nil
}

func (a *app) saveCatalog() error {
	return a.cat.Save(a.cfg.CatalogPath)
}

// openCache opens the alignment-cache database declared in config, creating
// it on first use.
func (a *app) openCache() (*cache.AlignmentCache, error) {
	if a.db == nil {
		conn, err := db.Open(a.cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("episode-binger: opening cache db: %w", err)
		}
		a.db = conn
	}
	return cache.New(a.db), nil
}

// newManager builds the Algorithm Manager from the loaded config's tuning
// fields.
func (a *app) newManager() *align.Manager {
	agg := align.L1
	if a.cfg.Aggregation == "l2" {
		agg = align.L2
	}
	kernel := align.NewKernel(agg, a.cfg.ThumbnailHeight, a.cfg.ThumbnailWidth)
	mgr := align.NewManager(kernel)
	mgr.MaxRetries = a.cfg.MaxRetries
	mgr.MinReliability = a.cfg.MinReliability
	mgr.Finder.NumSubsamples = a.cfg.NumSubsamples
	mgr.Finder.MaxReshuffles = a.cfg.MaxReshuffles
	mgr.Finder.IdenticalThreshold = a.cfg.IdenticalThreshold
	mgr.Finder.SimilarThreshold = a.cfg.SimilarThreshold
	// ScanRange is frames, not seconds; NewBoundary's own default assumes
	// 24fps for the same reason, so config's scan_range_seconds follows suit.
	mgr.Boundary.ScanRange = int(a.cfg.ScanRangeSeconds * 24)
	mgr.Boundary.ScanProbes = a.cfg.ScanProbes
	mgr.Boundary.SimilarThreshold = a.cfg.SimilarThreshold
	mgr.Locator.MaxLoadingFrames = a.cfg.MaxLoadingFrames
	return mgr
}
