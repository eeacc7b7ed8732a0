package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/xmlbridge/pkg/errors"
	"github.com/matzehuels/xmlbridge/pkg/pipeline"
	"github.com/matzehuels/xmlbridge/pkg/schema"
)

// exportFlags holds the flags of the export command.
type exportFlags struct {
	depth      int
	stagingDir string
	formats    string
	refresh    bool
	stdout     bool
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export [TYPE] ID",
		Short: "Export an entity graph as an XML import document",
		Long: `Export loads TYPE/ID with its relations, flattens the graph into one block
per entity and stages the XML document in the staging directory.

When TYPE is omitted, an interactive picker lists the types of the source.`,
		Example: `  xmlbridge export Article 42
  xmlbridge export Article 42 --depth 2 --format xml,svg
  xmlbridge export 42             # pick the type interactively`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: c.completeTypes,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args, flags)
		},
	}

	cmd.Flags().IntVarP(&flags.depth, "depth", "d", 0, fmt.Sprintf("relation depth (default from config, else %d)", pipeline.DefaultDepth))
	cmd.Flags().StringVar(&flags.stagingDir, "staging-dir", "", "staging directory (default from config)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "comma-separated formats: xml, dot, svg")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "reload the entity graph even if a cached document exists")
	cmd.Flags().BoolVar(&flags.stdout, "stdout", false, "also print the document")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, args []string, flags exportFlags) error {
	logger := loggerFromContext(ctx)
	cfg, err := c.config()
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	typeName, id := "", args[len(args)-1]
	if len(args) == 2 {
		typeName = args[0]
	} else {
		typeName, err = pickType(ctx, runner.Source)
		if err != nil || typeName == "" {
			return err
		}
	}

	opts := pipeline.Options{
		Type:       typeName,
		ID:         id,
		Depth:      cfg.Export.Depth,
		StagingDir: cfg.Export.StagingDir,
		Formats:    cfg.Export.Formats,
		Refresh:    flags.refresh,
	}
	if flags.depth != 0 {
		opts.Depth = flags.depth
	}
	if flags.stagingDir != "" {
		opts.StagingDir = flags.stagingDir
	}
	if f := parseFormats(flags.formats); len(f) > 0 {
		opts.Formats = f
	}

	prog := newProgress(logger, "type", typeName, "id", id)
	spinner := newSpinner(ctx, fmt.Sprintf("Exporting %s %s...", typeName, id))
	c.hooks.attach(spinner)
	spinner.Start()
	res, err := runner.Export(ctx, opts)
	spinner.Stop()
	c.hooks.attach(nil)
	if err != nil {
		if errors.IsGraphError(err) {
			printError("%s %s cannot be exported: %s", typeName, id, errors.UserMessage(err))
		}
		return err
	}
	prog.done("Exported", "run", res.RunID[:8], "blocks", res.Stats.Blocks)

	printSuccess("Staged %s %s", StyleHighlight.Render(typeName), StyleHighlight.Render(id))
	for _, f := range opts.Formats {
		printFile(res.Artifacts[f])
	}
	printStats(res.Stats, res.CacheInfo.GraphHit || res.CacheInfo.DocumentHit)
	if res.Stats.Forward > 0 {
		printNextStep("Review forward references", fmt.Sprintf("%s inspect %s %s", appName, typeName, id))
	}

	if flags.stdout {
		printNewline()
		_, _ = os.Stdout.Write(res.Document)
	}
	return nil
}

// pickType runs the interactive type picker. It returns "" when the user
// quits without choosing.
func pickType(ctx context.Context, src pipeline.Source) (string, error) {
	names, err := src.Types(ctx)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("source has no types")
	}

	descs := make([]*schema.Descriptor, 0, len(names))
	for _, n := range names {
		d, err := src.Descriptor(ctx, n)
		if err != nil {
			return "", err
		}
		descs = append(descs, d)
	}

	p := tea.NewProgram(NewTypeListModel(descs), tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}
	fm, ok := finalModel.(TypeListModel)
	if !ok || fm.Selected == nil {
		printDetail("No type selected")
		return "", nil
	}
	return fm.Selected.Target, nil
}
