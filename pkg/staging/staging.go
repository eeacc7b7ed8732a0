// Package staging manages the directory exported documents are written to.
//
// Documents are named after their root entity plus a random suffix, so
// repeated exports of the same entity never overwrite each other:
//
//	name := staging.Name("Article", "42", xmldoc.Extension) // article-42-518204.xml
//	path, err := dir.Write(ctx, name, data)
//
// [Dir.Write] writes to a temporary file and renames it into place. A
// reader of the staging directory never observes a partially written
// document, and a cancelled export leaves nothing behind.
package staging

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/xmlbridge/pkg/errors"
)

// suffixRange bounds the random suffix of staged names.
const suffixRange = 1_000_000

// tempPrefix marks in-flight writes. Clean removes leftovers too.
const tempPrefix = ".staging-"

// Name returns the artifact name for a root entity:
// <type lowercased>-<id>-<random int><ext>.
func Name(typeName, id, ext string) string {
	return fmt.Sprintf("%s-%s-%d%s", strings.ToLower(typeName), id, rand.IntN(suffixRange), ext)
}

// Dir is a staging directory.
type Dir struct {
	path string
}

// Open returns the staging directory at path, creating it if needed.
func Open(path string) (*Dir, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create staging dir")
	}
	return &Dir{path: path}, nil
}

// Path returns the directory path.
func (d *Dir) Path() string { return d.path }

// Write stores data under name and returns the full path. The file appears
// under its final name only once it is complete. If ctx is cancelled before
// that point, the partial file is removed and ctx's error is returned.
func (d *Dir) Write(ctx context.Context, name string, data []byte) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", errors.New(errors.ErrCodeInvalidPath, "invalid artifact name %q", name)
	}

	tmp, err := os.CreateTemp(d.path, tempPrefix+"*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	published := false
	defer func() {
		if !published {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	final := filepath.Join(d.path, name)
	if err := os.Rename(tmpPath, final); err != nil {
		return "", fmt.Errorf("publish %s: %w", name, err)
	}
	published = true
	return final, nil
}

// Artifacts lists staged files with the given extension, sorted by name.
func (d *Dir) Artifacts(ext string) ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), tempPrefix) || filepath.Ext(e.Name()) != ext {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// CleanStats reports what [Dir.Clean] removed.
type CleanStats struct {
	Files   int
	Folders int
}

// Clean empties the staging directory, keeping the directory itself.
// Files inside removed folders are counted.
func (d *Dir) Clean() (CleanStats, error) {
	var stats CleanStats
	entries, err := os.ReadDir(d.path)
	if os.IsNotExist(err) {
		return stats, nil
	}
	if err != nil {
		return stats, err
	}
	for _, e := range entries {
		p := filepath.Join(d.path, e.Name())
		if !e.IsDir() {
			if err := os.Remove(p); err != nil {
				return stats, err
			}
			stats.Files++
			continue
		}
		if err := filepath.WalkDir(p, func(_ string, de os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if de.IsDir() {
				stats.Folders++
			} else {
				stats.Files++
			}
			return nil
		}); err != nil {
			return stats, err
		}
		if err := os.RemoveAll(p); err != nil {
			return stats, err
		}
	}
	return stats, nil
}
