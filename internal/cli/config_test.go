package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/xmlbridge/pkg/cache"
	"github.com/matzehuels/xmlbridge/pkg/pipeline"
)

// isolateEnv points XDG dirs at temp dirs and clears XMLBRIDGE_* overrides.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	for _, env := range []string{
		"XMLBRIDGE_SOURCE", "XMLBRIDGE_SOURCE_DIR", "XMLBRIDGE_SCHEMA",
		"XMLBRIDGE_MONGO_URI", "XMLBRIDGE_MONGO_DATABASE", "XMLBRIDGE_STAGING_DIR",
		"XMLBRIDGE_CACHE_BACKEND", "XMLBRIDGE_CACHE_DIR", "XMLBRIDGE_REDIS_URL",
		"XMLBRIDGE_DEPTH",
	} {
		t.Setenv(env, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Source.Kind != sourceFile || cfg.Source.Dir != "." {
		t.Errorf("Source = %+v, want file source in .", cfg.Source)
	}
	if cfg.Export.Depth != pipeline.DefaultDepth {
		t.Errorf("Depth = %d, want %d", cfg.Export.Depth, pipeline.DefaultDepth)
	}
	if cfg.Export.StagingDir != stagingDir() {
		t.Errorf("StagingDir = %q, want %q", cfg.Export.StagingDir, stagingDir())
	}
	if cfg.Cache.Backend != cache.BackendFile || filepath.Base(cfg.Cache.Dir) != appName {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
}

func TestLoadConfigFile(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, `
[source]
dir = "data"

[export]
depth = 2
staging_dir = "/srv/staging"
formats = ["xml", "dot"]

[cache]
backend = "none"
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Source.Dir != "data" {
		t.Errorf("Source.Dir = %q, want data", cfg.Source.Dir)
	}
	if cfg.Export.Depth != 2 || cfg.Export.StagingDir != "/srv/staging" || len(cfg.Export.Formats) != 2 {
		t.Errorf("Export = %+v", cfg.Export)
	}
	if cfg.Cache.Backend != cache.BackendNone {
		t.Errorf("Cache.Backend = %q, want none", cfg.Cache.Backend)
	}
}

func TestLoadConfigDefaultLocation(t *testing.T) {
	isolateEnv(t)
	dir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), appName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[export]\ndepth = 4\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Export.Depth != 4 {
		t.Errorf("Depth = %d, want 4", cfg.Export.Depth)
	}
}

func TestLoadConfigEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("XMLBRIDGE_STAGING_DIR", "/env/staging")
	t.Setenv("XMLBRIDGE_DEPTH", "5")
	t.Setenv("XMLBRIDGE_MONGO_URI", "mongodb://localhost:27017")
	path := writeConfig(t, "[export]\nstaging_dir = \"/file/staging\"\n")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Export.StagingDir != "/env/staging" {
		t.Errorf("StagingDir = %q, env should override file", cfg.Export.StagingDir)
	}
	if cfg.Export.Depth != 5 {
		t.Errorf("Depth = %d, want 5", cfg.Export.Depth)
	}
	if cfg.Source.Kind != sourceMongo {
		t.Errorf("Source.Kind = %q, a mongo URI should select the mongo source", cfg.Source.Kind)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "unknown key", body: "[export]\ndeepth = 2\n"},
		{name: "malformed", body: "[export\n"},
		{name: "bad source kind", body: "[source]\nkind = \"ftp\"\n"},
		{name: "bad depth env", body: "", env: map[string]string{"XMLBRIDGE_DEPTH": "deep"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := loadConfig(writeConfig(t, tt.body)); err == nil {
				t.Error("loadConfig() should fail")
			}
		})
	}

	isolateEnv(t)
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("loadConfig() with a missing explicit path should fail")
	}
}

func TestOpenCache(t *testing.T) {
	isolateEnv(t)
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	c, err := cfg.openCache(ctx, true)
	if err != nil {
		t.Fatalf("openCache(noCache) error: %v", err)
	}
	if _, ok := c.(cache.NullCache); !ok {
		t.Errorf("openCache(noCache) = %T, want cache.NullCache", c)
	}

	c, err = cfg.openCache(ctx, false)
	if err != nil {
		t.Fatalf("openCache() error: %v", err)
	}
	if _, ok := c.(*cache.FileCache); !ok {
		t.Errorf("openCache() = %T, want *cache.FileCache", c)
	}
}

func TestOpenSourceFile(t *testing.T) {
	isolateEnv(t)
	t.Setenv("XMLBRIDGE_SOURCE_DIR", filepath.Join("..", "..", "examples", "blog"))
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}

	src, err := cfg.openSource(context.Background())
	if err != nil {
		t.Fatalf("openSource() error: %v", err)
	}
	names, err := src.Types(context.Background())
	if err != nil || len(names) != 2 {
		t.Errorf("Types() = %v, %v; want Article and User", names, err)
	}
}
