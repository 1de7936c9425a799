package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iagolobla/episode-binger/internal/assemble"
	"github.com/iagolobla/episode-binger/internal/orchestrator"
	"github.com/iagolobla/episode-binger/internal/player"
)

func newAssembleCommand(a *app) *cobra.Command {
	var play bool

	cmd := &cobra.Command{
		Use:   "assemble <output.mp4>",
		Short: "Build the macro-episode video from the located catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadCatalog(); err != nil {
				return err
			}
			chunks, err := orchestrator.BuildMacroChunkList(a.cat)
			if err != nil {
				return fmt.Errorf("episode-binger: assemble: %w", err)
			}
			asm, err := assemble.New()
			if err != nil {
				return err
			}
			if err := asm.CreateVideo(cmd.Context(), chunks, args[0]); err != nil {
				return fmt.Errorf("episode-binger: assemble: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s from %d chunks\n", args[0], len(chunks))
			if play {
				player.Open(args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&play, "play", false, "Open the assembled video in the default player when done")
	return cmd
}
