package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/iagolobla/episode-binger/internal/orchestrator"
)

func newLocateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Locate the found opening/ending in every unlocated episode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadCatalog(); err != nil {
				return err
			}
			unlocated := len(a.cat.Unlocated())
			if unlocated == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to locate")
				return nil
			}
			mgr := a.newManager()

			done := make(chan error, 1)
			go func() {
				done <- orchestrator.LocateOpeningEndingEveryEpisode(cmd.Context(), a.cat, mgr)
			}()

			if isatty.IsTerminal(os.Stderr.Fd()) {
				bar := progressbar.NewOptions(-1,
					progressbar.OptionSetDescription(fmt.Sprintf("locating %d episodes", unlocated)),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSpinnerType(14),
				)
				ticker := time.NewTicker(150 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case err := <-done:
						bar.Finish()
						fmt.Fprintln(cmd.OutOrStdout())
						if err != nil {
							return fmt.Errorf("episode-binger: locate: %w", err)
						}
						return a.saveCatalog()
					case <-ticker.C:
						_ = bar.Add(1)
					}
				}
			}

			if err := <-done; err != nil {
				return fmt.Errorf("episode-binger: locate: %w", err)
			}
			return a.saveCatalog()
		},
	}
}
