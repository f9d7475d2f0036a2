// Package vault mirrors notes to a directory of Markdown files and imports
// Markdown files dropped into an inbox directory.
package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	dirPerm    = 0o755
	tempPrefix = ".notekeeper-"
)

// File is a Markdown file found by List.
type File struct {
	Path     string // relative to the vault root
	Checksum string
}

// FS reads and writes Markdown files under one directory. Every name
// handed to it must stay inside that directory.
type FS struct {
	root string
}

// NewFS opens root as a vault, creating it first if needed.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("vault: %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, dirPerm); err != nil {
		return nil, fmt.Errorf("vault: open %s: %w", abs, err)
	}
	if info, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("vault: open %s: %w", abs, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("vault: open %s: not a directory", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute vault directory.
func (f *FS) Root() string {
	return f.root
}

// abs maps a vault-relative name onto the disk. "" names the root.
func (f *FS) abs(name string) (string, error) {
	if name == "" {
		return f.root, nil
	}
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("vault: %q is outside the vault", name)
	}
	return filepath.Join(f.root, name), nil
}

// List returns the visible .md files directly inside dir.
func (f *FS) List(dir string) ([]File, error) {
	base, err := f.abs(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("vault: list %q: %w", dir, err)
	}
	files := make([]File, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !isMarkdown(e.Name()) {
			continue
		}
		name := filepath.Join(dir, e.Name())
		data, err := f.Read(name)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Path: name, Checksum: Sum(data)})
	}
	return files, nil
}

// Read returns the content of name.
func (f *FS) Read(name string) ([]byte, error) {
	p, err := f.abs(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("vault: read %q: %w", name, err)
	}
	return data, nil
}

// Write stores content under name. Readers see either the old file or the
// complete new one.
func (f *FS) Write(name string, content []byte) error {
	p, err := f.abs(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), dirPerm); err != nil {
		return fmt.Errorf("vault: write %q: %w", name, err)
	}
	if err := replaceFile(p, content); err != nil {
		return fmt.Errorf("vault: write %q: %w", name, err)
	}
	return nil
}

func replaceFile(p string, content []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(p), tempPrefix+"*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, os.Remove(tmp.Name()))
		}
	}()
	if _, err = tmp.Write(content); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// Delete removes name.
func (f *FS) Delete(name string) error {
	p, err := f.abs(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("vault: delete %q: %w", name, err)
	}
	return nil
}

// Move renames from to to, creating the target directory.
func (f *FS) Move(from, to string) error {
	src, err := f.abs(from)
	if err != nil {
		return err
	}
	dst, err := f.abs(to)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
		return fmt.Errorf("vault: move %q: %w", from, err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("vault: move %q: %w", from, err)
	}
	return nil
}

// Sum is the hex SHA-256 of data, used to skip unchanged exports.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func isMarkdown(name string) bool {
	return !strings.HasPrefix(name, ".") && filepath.Ext(name) == ".md"
}
