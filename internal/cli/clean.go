package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/xmlbridge/pkg/staging"
)

// cleanCommand creates the clean command.
func (c *CLI) cleanCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove staged export files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				cfg, err := c.config()
				if err != nil {
					return err
				}
				dir = cfg.Export.StagingDir
			}

			d, err := staging.Open(dir)
			if err != nil {
				return err
			}
			stats, err := d.Clean()
			if err != nil {
				return err
			}
			if stats.Files == 0 && stats.Folders == 0 {
				printInfo("Staging directory is empty")
				return nil
			}
			printSuccess("Removed %d files and %d folders", stats.Files, stats.Folders)
			printDetail("Directory: %s", d.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "staging-dir", "", "staging directory (default from config)")
	return cmd
}
