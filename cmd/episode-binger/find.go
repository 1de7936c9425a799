package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iagolobla/episode-binger/internal/orchestrator"
)

func newFindCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "find",
		Short: "Find a shared opening and ending from two random episodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadCatalog(); err != nil {
				return err
			}
			ac, err := a.openCache()
			if err != nil {
				return err
			}
			mgr := a.newManager()
			if err := orchestrator.FindOpeningEnding(cmd.Context(), a.cat, mgr, a.cfg.MinChunkSeconds, ac); err != nil {
				return fmt.Errorf("episode-binger: find: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "opening and ending located")
			return a.saveCatalog()
		},
	}
}
