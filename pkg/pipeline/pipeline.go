// Package pipeline provides the export pipeline of xmlbridge.
//
// This package implements the complete descriptor → graph → decompose →
// render → stage pipeline that the CLI and any other entry point share, so
// exports behave the same regardless of who starts them.
//
// # Architecture
//
// An export runs five stages:
//
//  1. Descriptor: look up the root type (fails early on unknown types)
//  2. Graph: load the root entity with relations to the requested depth
//  3. Decompose: flatten the graph into ordered, reference-linked blocks
//  4. Render: produce the XML document and any diagram formats
//  5. Stage: write the artifacts into the staging directory atomically
//
// Descriptors and documents are cached. Rendering is deterministic, so a
// document keyed by the hash of its decomposed blocks never goes stale;
// documents keyed by root entity expire after [cache.GraphTTL].
//
// # Usage
//
//	runner := pipeline.NewRunner(src, c, nil, logger)
//	res, err := runner.Export(ctx, pipeline.Options{
//	    Type:       "Article",
//	    ID:         "42",
//	    StagingDir: "/tmp/xmlbridge",
//	})
//	fmt.Println(res.Artifacts[pipeline.FormatXML])
package pipeline

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/xmlbridge/pkg/cache"
	"github.com/matzehuels/xmlbridge/pkg/errors"
	"github.com/matzehuels/xmlbridge/pkg/source"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and library callers
// =============================================================================

// DefaultDepth is the relation depth loaded for the root entity.
const DefaultDepth = source.DefaultDepth

// MaxDepth bounds the relation depth. Deeper graphs grow with every level
// of fan-out while adding only more copies of already loaded entities.
const MaxDepth = 10

// Format constants for output formats.
const (
	FormatXML = "xml"
	FormatDOT = "dot"
	FormatSVG = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatXML: true,
	FormatDOT: true,
	FormatSVG: true,
}

// =============================================================================
// Options - Export Configuration
// =============================================================================

// Options contains all configuration for one export.
type Options struct {
	Type       string   `json:"type"`
	ID         string   `json:"id"`
	Depth      int      `json:"depth,omitempty"` // Relation depth; 0 means DefaultDepth
	StagingDir string   `json:"staging_dir"`
	Formats    []string `json:"formats,omitempty"` // Defaults to xml only
	Refresh    bool     `json:"refresh,omitempty"` // Bypass cached documents

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of an export.
type Result struct {
	// RunID identifies the export in logs and hooks.
	RunID string

	// Document is the rendered XML document.
	Document []byte

	// Artifacts maps each requested format to its staged file path.
	Artifacts map[string]string

	// Stats contains counts and timings.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains export statistics. Counts are zero when the document came
// from the cache.
type Stats struct {
	Blocks        int // Blocks in the document
	Walked        int // Nodes produced by the walk, before dedup
	Forward       int // References to later blocks
	GraphTime     time.Duration
	DecomposeTime time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each export stage.
type CacheInfo struct {
	GraphHit    bool // Document served by root entity key; graph not loaded
	DocumentHit bool // Document served by block hash; rendering skipped
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)", format, strings.Join(formatNames(), ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

func formatNames() []string {
	names := make([]string, 0, len(ValidFormats))
	for f := range ValidFormats {
		names = append(names, f)
	}
	slices.Sort(names)
	return names
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForGraph(); err != nil {
		return err
	}
	if err := errors.ValidatePath(o.StagingDir); err != nil {
		return fmt.Errorf("staging_dir: %w", err)
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatXML}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForGraph checks the fields needed to load and decompose the root
// entity. Inspecting a graph needs no staging directory.
func (o *Options) ValidateForGraph() error {
	if err := errors.ValidateTypeName(o.Type); err != nil {
		return err
	}
	if err := errors.ValidateEntityID(o.ID); err != nil {
		return err
	}
	if o.Depth == 0 {
		o.Depth = DefaultDepth
	}
	if o.Depth < 0 || o.Depth > MaxDepth {
		return errors.New(errors.ErrCodeInvalidInput, "depth must be between 1 and %d, got %d", MaxDepth, o.Depth)
	}
	return nil
}

// XMLOnly reports whether the document is the only requested format.
// Other formats need the decomposed graph, which is never cached.
func (o *Options) XMLOnly() bool {
	return len(o.Formats) == 1 && o.Formats[0] == FormatXML
}

// GraphKeyOpts returns cache key options for the per-entity document.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{Depth: o.Depth}
}
