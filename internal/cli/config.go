package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/xmlbridge/pkg/cache"
	"github.com/matzehuels/xmlbridge/pkg/pipeline"
	"github.com/matzehuels/xmlbridge/pkg/schema"
	"github.com/matzehuels/xmlbridge/pkg/source/file"
	"github.com/matzehuels/xmlbridge/pkg/source/mongo"
)

// Source kinds accepted in the [source] table.
const (
	sourceFile  = "file"
	sourceMongo = "mongo"
)

// Config is the optional config file, ~/.config/xmlbridge/config.toml by
// default. Environment variables override it and flags override both.
type Config struct {
	Source SourceConfig `toml:"source"`
	Export ExportConfig `toml:"export"`
	Cache  CacheConfig  `toml:"cache"`
}

// SourceConfig selects where entities are loaded from.
type SourceConfig struct {
	Kind        string            `toml:"kind"`        // "file" (default) or "mongo"
	Dir         string            `toml:"dir"`         // File source directory
	Schema      string            `toml:"schema"`      // Schema document for mongo sources
	URI         string            `toml:"uri"`         // Mongo connection string
	Database    string            `toml:"database"`    // Mongo database
	Collections map[string]string `toml:"collections"` // Type -> collection overrides
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	Depth      int      `toml:"depth"`
	StagingDir string   `toml:"staging_dir"`
	Formats    []string `toml:"formats"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend  string `toml:"backend"` // "file" (default), "redis" or "none"
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
}

// loadConfig reads the config file at path, applies environment overrides
// and fills defaults. An empty path means the default location, which may
// be missing; an explicit path must exist.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err == nil {
			path = filepath.Join(dir, "config.toml")
		}
	}

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		switch {
		case err == nil:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.setDefaults()
}

// applyEnv overrides config values with XMLBRIDGE_* variables.
func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"XMLBRIDGE_SOURCE":         &c.Source.Kind,
		"XMLBRIDGE_SOURCE_DIR":     &c.Source.Dir,
		"XMLBRIDGE_SCHEMA":         &c.Source.Schema,
		"XMLBRIDGE_MONGO_URI":      &c.Source.URI,
		"XMLBRIDGE_MONGO_DATABASE": &c.Source.Database,
		"XMLBRIDGE_STAGING_DIR":    &c.Export.StagingDir,
		"XMLBRIDGE_CACHE_BACKEND":  &c.Cache.Backend,
		"XMLBRIDGE_CACHE_DIR":      &c.Cache.Dir,
		"XMLBRIDGE_REDIS_URL":      &c.Cache.RedisURL,
	}
	for env, dst := range strs {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("XMLBRIDGE_DEPTH"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("XMLBRIDGE_DEPTH: %w", err)
		}
		c.Export.Depth = d
	}
	return nil
}

func (c *Config) setDefaults() error {
	if c.Source.Kind == "" {
		c.Source.Kind = sourceFile
		if c.Source.URI != "" {
			c.Source.Kind = sourceMongo
		}
	}
	if c.Source.Kind != sourceFile && c.Source.Kind != sourceMongo {
		return fmt.Errorf("unknown source kind %q (must be %s or %s)", c.Source.Kind, sourceFile, sourceMongo)
	}
	if c.Source.Dir == "" {
		c.Source.Dir = "."
	}
	if c.Export.Depth == 0 {
		c.Export.Depth = pipeline.DefaultDepth
	}
	if c.Export.StagingDir == "" {
		c.Export.StagingDir = stagingDir()
	}
	if len(c.Export.Formats) == 0 {
		c.Export.Formats = []string{pipeline.FormatXML}
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = cache.BackendFile
	}
	if c.Cache.Dir == "" {
		dir, err := cacheDir()
		if err != nil {
			c.Cache.Backend = cache.BackendNone
		}
		c.Cache.Dir = dir
	}
	return nil
}

// openSource opens the configured entity source.
func (c *Config) openSource(ctx context.Context) (pipeline.Source, error) {
	if c.Source.Kind == sourceFile {
		src, err := file.Open(c.Source.Dir)
		if err != nil {
			return nil, err
		}
		return src, nil
	}

	schemaPath := c.Source.Schema
	if schemaPath == "" {
		schemaPath = filepath.Join(c.Source.Dir, file.SchemaFile)
	}
	reg, err := schema.LoadTOML(schemaPath)
	if err != nil {
		return nil, err
	}
	src, err := mongo.Open(ctx, reg, mongo.Config{
		URI:         c.Source.URI,
		Database:    c.Source.Database,
		Collections: c.Source.Collections,
	})
	if err != nil {
		return nil, err
	}
	return src, nil
}

// closeSource releases src if it holds a connection.
func closeSource(src pipeline.Source) {
	if cl, ok := src.(io.Closer); ok {
		_ = cl.Close()
	}
}

// openCache opens the configured cache, or a null cache when disabled.
func (c *Config) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	target := c.Cache.Dir
	if c.Cache.Backend == cache.BackendRedis {
		target = c.Cache.RedisURL
	}
	return cache.Open(ctx, c.Cache.Backend, target)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/xmlbridge/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory using XDG standard (~/.config/xmlbridge/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// stagingDir returns the default staging directory under the system temp dir.
func stagingDir() string {
	return filepath.Join(os.TempDir(), appName)
}
