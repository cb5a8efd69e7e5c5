/*
Package fetchers provides file access for workspace manifests and changelogs, either
on the local disk or in memory.

Paths are always slash separated and relative to the fetcher root.
*/
package fetchers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

// FileFetcher interface defines fetchers methods.
type FileFetcher interface {
	FileContent(ctx context.Context, path string) ([]byte, error)
}

// FileStore is a FileFetcher that can also replace file contents.
type FileStore interface {
	FileFetcher
	WriteContent(ctx context.Context, path string, content []byte) error
}

// Globber lists files matching a path.Match pattern.
type Globber interface {
	Glob(ctx context.Context, pattern string) ([]string, error)
}

// Store is a globbable FileStore.
type Store interface {
	FileStore
	Globber
}

// ByteMapFetcher is used for storing file contents in memory (usefull for debugging/testing or for building custom repositories logic)
type ByteMapFetcher struct {
	Files map[string][]byte
}

// FileContent retrieves (if found) []byte contents from it's map using path argument as a key.
func (sf ByteMapFetcher) FileContent(ctx context.Context, path string) ([]byte, error) {
	v, ok := sf.Files[clean(path)]
	if !ok {
		return nil, ErrFileNotFound
	}
	return v, nil
}

// WriteContent stores content under path.
func (sf ByteMapFetcher) WriteContent(ctx context.Context, path string, content []byte) error {
	if sf.Files == nil {
		return fmt.Errorf("unable to write %q: nil file map", path)
	}
	sf.Files[clean(path)] = append([]byte(nil), content...)
	return nil
}

// Glob returns the sorted stored paths matching pattern.
func (sf ByteMapFetcher) Glob(ctx context.Context, pattern string) ([]string, error) {
	pattern = clean(pattern)
	var res []string
	for name := range sf.Files {
		ok, err := path.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		if ok {
			res = append(res, name)
		}
	}
	sort.Strings(res)
	return res, nil
}

// DirFetcher reads and writes files below Root on the local filesystem.
type DirFetcher struct {
	Root string
}

// NewDirFetcher constructs DirFetcher rooted at dir.
func NewDirFetcher(dir string) Store {
	return &DirFetcher{Root: dir}
}

func (p DirFetcher) abs(name string) string {
	return filepath.Join(p.Root, filepath.FromSlash(clean(name)))
}

// FileContent reads the file at root-related path.
func (p DirFetcher) FileContent(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p.abs(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("unable to read %q: %w", path, err)
	}
	return b, nil
}

// WriteContent replaces the file at root-related path, keeping its permissions.
func (p DirFetcher) WriteContent(ctx context.Context, path string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := p.abs(path)
	mode := fs.FileMode(0o644)
	if st, err := os.Stat(name); err == nil {
		mode = st.Mode().Perm()
	}
	if err := os.WriteFile(name, content, mode); err != nil {
		return fmt.Errorf("unable to write %q: %w", path, err)
	}
	return nil
}

// Glob returns the sorted root-related paths matching pattern.
func (p DirFetcher) Glob(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(p.abs(pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	res := make([]string, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(p.Root, m)
		if err != nil {
			return nil, err
		}
		res = append(res, filepath.ToSlash(rel))
	}
	sort.Strings(res)
	return res, nil
}

// clean normalizes a slash separated relative path ("./a/../b" -> "b").
func clean(name string) string {
	return path.Clean("/" + name)[1:]
}
