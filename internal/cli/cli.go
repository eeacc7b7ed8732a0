// Package cli implements the xmlbridge command-line interface.
//
// This package provides commands for exporting entity graphs as XML import
// documents, inspecting how a graph decomposes, and managing the cache and
// staging directories. The CLI is built using cobra and supports verbose
// logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - export: Decompose an entity graph and stage the XML document
//   - inspect: Show the blocks of a decomposition, or draw its reference graph
//   - types: List the types of the configured source
//   - cache: Manage the descriptor and document cache
//   - clean: Empty the staging directory
//
// # Configuration
//
// Defaults come from ~/.config/xmlbridge/config.toml (or --config), then
// XMLBRIDGE_* environment variables, then flags.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/xmlbridge/pkg/buildinfo"
	"github.com/matzehuels/xmlbridge/pkg/observability"
	"github.com/matzehuels/xmlbridge/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "xmlbridge"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	sourceDir  string
	noCache    bool
	hooks      *stageHooks
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	logger := newLogger(w, level)
	return &CLI{Logger: logger, hooks: &stageHooks{logger: logger}}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "xmlbridge exports entity graphs as XML import documents",
		Long:         `xmlbridge flattens an entity and everything it references into one XML document, replacing nested relations with reference tokens so the document can be imported into another instance.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			observability.SetPipelineHooks(c.hooks)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default ~/.config/xmlbridge/config.toml)")
	flags.StringVarP(&c.sourceDir, "source", "s", "", "file source directory (overrides config)")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the cache")

	// Register all subcommands
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.typesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.cleanCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// config loads the configuration with flag overrides applied.
func (c *CLI) config() (*Config, error) {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.sourceDir != "" {
		cfg.Source.Kind = sourceFile
		cfg.Source.Dir = c.sourceDir
	}
	return cfg, nil
}

// newRunner creates a pipeline runner for CLI use. The caller must close it.
func (c *CLI) newRunner(ctx context.Context, cfg *Config) (*pipeline.Runner, error) {
	src, err := cfg.openSource(ctx)
	if err != nil {
		return nil, err
	}
	cc, err := cfg.openCache(ctx, c.noCache)
	if err != nil {
		closeSource(src)
		return nil, err
	}
	return pipeline.NewRunner(src, cc, nil, loggerFromContext(ctx)), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}
