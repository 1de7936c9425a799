package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iagolobla/episode-binger/internal/frames"
)

func newAddCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <video>...",
		Short: "Register one or more episode files in the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadCatalog(); err != nil {
				return err
			}
			for _, path := range args {
				src, err := frames.Open(path)
				if err != nil {
					return fmt.Errorf("episode-binger: add %s: %w", path, err)
				}
				a.cat.Add(src)
				fmt.Fprintf(cmd.OutOrStdout(), "added %s (%d frames, %.2f fps)\n", path, src.FrameCount(), src.FPS())
			}
			return a.saveCatalog()
		},
	}
}
