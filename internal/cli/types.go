package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// typesCommand creates the types command.
func (c *CLI) typesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the entity types of the source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTypes(cmd.Context())
		},
	}
}

func (c *CLI) runTypes(ctx context.Context) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	src, err := cfg.openSource(ctx)
	if err != nil {
		return err
	}
	defer closeSource(src)

	names, err := src.Types(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		printInfo("No types declared")
		return nil
	}
	for _, n := range names {
		d, err := src.Descriptor(ctx, n)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s  %s\n", StyleHighlight.Render(fmt.Sprintf("%-16s", d.Target)), keyColumns(d), StyleDim.Render(referenceTargets(d)))
	}
	return nil
}
