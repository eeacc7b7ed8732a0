package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/xmlbridge/pkg/decompose"
	"github.com/matzehuels/xmlbridge/pkg/pipeline"
	"github.com/matzehuels/xmlbridge/pkg/render/nodelink"
)

// inspectFlags holds the flags of the inspect command.
type inspectFlags struct {
	depth    int
	dot      bool
	svg      string
	detailed bool
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var flags inspectFlags

	cmd := &cobra.Command{
		Use:   "inspect TYPE ID",
		Short: "Show how an entity graph decomposes",
		Long: `Inspect decomposes TYPE/ID without staging anything and prints one row per
block in export order. With --dot or --svg it draws the reference graph
instead; dashed edges are forward references.`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.completeTypes,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], args[1], flags)
		},
	}

	cmd.Flags().IntVarP(&flags.depth, "depth", "d", 0, "relation depth (default from config)")
	cmd.Flags().BoolVar(&flags.dot, "dot", false, "print the reference graph as Graphviz DOT")
	cmd.Flags().StringVar(&flags.svg, "svg", "", "write the reference graph as SVG to `file`")
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "include walk paths in graph labels")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, typeName, id string, flags inspectFlags) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := pipeline.Options{Type: typeName, ID: id, Depth: cfg.Export.Depth}
	if flags.depth != 0 {
		opts.Depth = flags.depth
	}
	res, err := runner.Inspect(ctx, opts)
	if err != nil {
		return err
	}

	if flags.dot || flags.svg != "" {
		dot := nodelink.ToDOT(res, nodelink.Options{Detailed: flags.detailed})
		if flags.dot {
			fmt.Print(dot)
		}
		if flags.svg != "" {
			svg, err := nodelink.RenderSVG(ctx, dot)
			if err != nil {
				return err
			}
			if err := os.WriteFile(flags.svg, svg, 0644); err != nil {
				return err
			}
			printSuccess("Wrote reference graph")
			printFile(flags.svg)
		}
		return nil
	}

	fmt.Println(blockTable(res))
	printKeyValue("blocks", strconv.Itoa(len(res.Nodes)))
	printKeyValue("walked", strconv.Itoa(res.Walked))
	for _, f := range res.Forward {
		printWarning("forward reference %s → %s", f.From.Ref(), f.To.Ref())
	}
	return nil
}

// blockTable renders one row per block in export order.
func blockTable(res *decompose.Result) string {
	root := res.Root()
	rows := make([][]string, len(res.Nodes))
	for i, n := range res.Nodes {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			n.Type,
			n.Ref().String(),
			strings.Join(n.Data.Keys(), ", "),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Type", "Token", "Properties").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if res.Nodes[row] == root {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			if col == 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
