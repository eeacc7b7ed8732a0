package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/xmlbridge/pkg/cache"
	"github.com/matzehuels/xmlbridge/pkg/decompose"
	"github.com/matzehuels/xmlbridge/pkg/observability"
	"github.com/matzehuels/xmlbridge/pkg/staging"
)

// Runner encapsulates export execution with caching.
//
// The Runner is stateless except for its source, cache and logger - it
// doesn't store export results. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Source Source
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner over src with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(src Source, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Source: src,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Export runs the complete descriptor → graph → decompose → render → stage
// pipeline with caching. Nothing is staged unless every stage succeeds.
func (r *Runner) Export(ctx context.Context, opts Options) (res *Result, err error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	runID := uuid.NewString()
	logger := r.Logger.With("run", runID[:8])
	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnExportStart(ctx, runID, opts.Type, opts.ID)
	defer func() {
		blocks := 0
		if res != nil {
			blocks = res.Stats.Blocks
		}
		hooks.OnExportComplete(ctx, runID, blocks, time.Since(start), err)
	}()

	dir, err := staging.Open(opts.StagingDir)
	if err != nil {
		return nil, err
	}

	res = &Result{RunID: runID, Artifacts: make(map[string]string, len(opts.Formats))}
	artifacts, err := r.artifacts(ctx, logger, opts, res)
	if err != nil {
		return nil, err
	}
	res.Document = artifacts[FormatXML]

	// Stage 5: Stage
	stageStart := time.Now()
	hooks.OnStageStart(ctx, observability.StageStage)
	base := staging.Name(opts.Type, opts.ID, "")
	for _, format := range opts.Formats {
		path, err := dir.Write(ctx, base+Extensions[format], artifacts[format])
		if err != nil {
			hooks.OnStageComplete(ctx, observability.StageStage, time.Since(stageStart), err)
			return nil, fmt.Errorf("stage: %w", err)
		}
		res.Artifacts[format] = path
	}
	hooks.OnStageComplete(ctx, observability.StageStage, time.Since(stageStart), nil)

	logger.Info("staged export",
		"type", opts.Type,
		"id", opts.ID,
		"file", res.Artifacts[FormatXML],
		"duration", time.Since(start))
	return res, nil
}

// artifacts produces the rendered outputs, from the cache when possible.
func (r *Runner) artifacts(ctx context.Context, logger *log.Logger, opts Options, res *Result) (map[string][]byte, error) {
	graphKey := r.Keyer.GraphKey(r.Source.Name(), opts.Type, opts.ID, opts.GraphKeyOpts())

	if !opts.Refresh && opts.XMLOnly() {
		if data, hit, err := r.Cache.Get(ctx, graphKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "graph")
			res.CacheInfo.GraphHit = true
			logger.Debug("document cache hit", "type", opts.Type, "id", opts.ID)
			return map[string][]byte{FormatXML: data}, nil
		}
		observability.Cache().OnCacheMiss(ctx, "graph")
	}

	dec, err := r.decompose(ctx, logger, opts, &res.Stats)
	if err != nil {
		return nil, err
	}

	// Stage 4: Render
	renderStart := time.Now()
	observability.Pipeline().OnStageStart(ctx, observability.StageRender)
	artifacts, hit, err := r.render(ctx, dec, opts)
	observability.Pipeline().OnStageComplete(ctx, observability.StageRender, time.Since(renderStart), err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	res.Stats.RenderTime = time.Since(renderStart)
	res.CacheInfo.DocumentHit = hit

	if err := r.Cache.Set(ctx, graphKey, artifacts[FormatXML], cache.GraphTTL); err != nil {
		logger.Debug("cache document", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "graph", len(artifacts[FormatXML]))
	}
	return artifacts, nil
}

// Inspect runs the descriptor, graph and decompose stages without
// rendering or staging anything.
func (r *Runner) Inspect(ctx context.Context, opts Options) (*decompose.Result, error) {
	if err := opts.ValidateForGraph(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	var stats Stats
	return r.decompose(ctx, r.Logger, opts, &stats)
}

func (r *Runner) decompose(ctx context.Context, logger *log.Logger, opts Options, stats *Stats) (*decompose.Result, error) {
	src := &cachedSource{Source: r.Source, cache: r.Cache, keyer: r.Keyer, logger: logger}
	hooks := observability.Pipeline()

	// Stage 1: Descriptor
	hooks.OnStageStart(ctx, observability.StageDescriptor)
	descStart := time.Now()
	_, err := src.Descriptor(ctx, opts.Type)
	hooks.OnStageComplete(ctx, observability.StageDescriptor, time.Since(descStart), err)
	if err != nil {
		return nil, fmt.Errorf("descriptor: %w", err)
	}

	// Stage 2: Graph
	hooks.OnStageStart(ctx, observability.StageGraph)
	graphStart := time.Now()
	root, err := src.EntityGraph(ctx, opts.Type, opts.ID, opts.Depth)
	stats.GraphTime = time.Since(graphStart)
	hooks.OnStageComplete(ctx, observability.StageGraph, stats.GraphTime, err)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	logger.Debug("loaded entity graph", "type", opts.Type, "id", opts.ID, "depth", opts.Depth, "duration", stats.GraphTime)

	// Stage 3: Decompose
	hooks.OnStageStart(ctx, observability.StageDecompose)
	decStart := time.Now()
	dec, err := decompose.Decompose(ctx, src, root, decompose.Options{Logger: logger.Debugf})
	stats.DecomposeTime = time.Since(decStart)
	hooks.OnStageComplete(ctx, observability.StageDecompose, stats.DecomposeTime, err)
	if err != nil {
		return nil, fmt.Errorf("decompose: %w", err)
	}
	stats.Blocks = len(dec.Nodes)
	stats.Walked = dec.Walked
	stats.Forward = len(dec.Forward)

	logger.Info("decomposed graph",
		"blocks", stats.Blocks,
		"walked", stats.Walked,
		"forward", stats.Forward,
		"duration", stats.DecomposeTime)
	return dec, nil
}

// render produces the requested artifacts. The XML document is cached by
// the hash of the decomposed blocks; diagram formats are always rendered.
func (r *Runner) render(ctx context.Context, dec *decompose.Result, opts Options) (map[string][]byte, bool, error) {
	hash, err := StackHash(dec.Nodes)
	if err != nil {
		return nil, false, err
	}
	docKey := r.Keyer.DocumentKey(hash, cache.DocumentKeyOpts{Format: FormatXML})

	var formats []string
	artifacts := make(map[string][]byte, len(opts.Formats))
	hit := false
	if data, ok, err := r.Cache.Get(ctx, docKey); err == nil && ok {
		observability.Cache().OnCacheHit(ctx, "document")
		artifacts[FormatXML] = data
		hit = true
	} else {
		observability.Cache().OnCacheMiss(ctx, "document")
		formats = append(formats, FormatXML)
	}
	for _, f := range opts.Formats {
		if f != FormatXML {
			formats = append(formats, f)
		}
	}

	rendered, err := Render(ctx, dec, formats)
	if err != nil {
		return nil, false, err
	}
	for f, data := range rendered {
		artifacts[f] = data
	}
	if !hit {
		if err := r.Cache.Set(ctx, docKey, artifacts[FormatXML], cache.DocumentTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "document", len(artifacts[FormatXML]))
		}
	}
	return artifacts, hit, nil
}

// Close releases resources held by the runner: the cache and the source,
// if it can be closed.
func (r *Runner) Close() error {
	var cacheErr, srcErr error
	if r.Cache != nil {
		cacheErr = r.Cache.Close()
	}
	if c, ok := r.Source.(io.Closer); ok {
		srcErr = c.Close()
	}
	return errors.Join(cacheErr, srcErr)
}
