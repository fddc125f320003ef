package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/pregen/internal/pool"
)

// ErrOutputNotEmpty is returned when the output directory already has
// content.
var ErrOutputNotEmpty = errors.New("output directory is not empty")

// ReadTree loads every regular file under dir into a pool. An entry's path
// is its slash-separated path relative to dir, so the first directory level
// names the module.
func ReadTree(dir string) (*pool.Pool, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	var entries []pool.Entry
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		e, err := pool.NewEntry("/"+filepath.ToSlash(rel), content)
		if err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool.New(entries...)
}

// CheckOutputDir returns ErrOutputNotEmpty if dir exists and has entries.
func CheckOutputDir(dir string) error {
	names, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(names) > 0 {
		return fmt.Errorf("%w: %s", ErrOutputNotEmpty, dir)
	}
	return nil
}

// WriteTree writes every entry of p under dir, creating directories as
// needed. dir must be empty or absent.
func WriteTree(dir string, p *pool.Pool) error {
	if err := CheckOutputDir(dir); err != nil {
		return err
	}
	for e := range p.Entries() {
		rel := filepath.FromSlash(strings.TrimPrefix(e.Path(), "/"))
		if !filepath.IsLocal(rel) {
			return fmt.Errorf("entry %s escapes the output directory", e.Path())
		}
		target := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, e.Content(), 0o644); err != nil {
			return err
		}
	}
	return nil
}
