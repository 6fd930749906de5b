// Package fsutil provides crash-safe file helpers shared by the project
// registry and the planning-state reader.
package fsutil

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// AtomicWrite replaces the file at path with data in a single step. The data
// lands in a hidden sibling file first, is fsynced, and only then renamed
// over the destination, followed by a directory fsync so the rename survives
// a crash. Readers observe either the old content or the new content, never
// a mix.
//
// The destination is created with mode 0600 and missing parent directories
// with 0700.
func AtomicWrite(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	tmp, err := createSibling(path)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return fsyncDir(dir)
}

// AtomicWriteJSON marshals v with two-space indentation and a trailing
// newline, then writes it through AtomicWrite.
func AtomicWriteJSON(path string, v any) error {
	if v == nil {
		return fmt.Errorf("cannot write nil value")
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return AtomicWrite(path, append(data, '\n'))
}

// createSibling opens an exclusive temporary file next to path so the later
// rename stays on one filesystem. The name embeds the pid and four random
// bytes to keep concurrent writers out of each other's way.
func createSibling(path string) (*os.File, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return nil, fmt.Errorf("random temp suffix: %w", err)
	}
	name := fmt.Sprintf(".%s.tmp.%d.%s", filepath.Base(path), os.Getpid(), hex.EncodeToString(suffix))
	f, err := os.OpenFile(filepath.Join(filepath.Dir(path), name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return f, nil
}

// fsyncDir makes a completed rename durable.
func fsyncDir(path string) error {
	d, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open directory for sync: %w", err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("sync directory: %w", err)
	}
	return nil
}

// ResolveUnder resolves relative against root and guarantees the result stays
// inside root. Absolute inputs, ".." traversal, and symlinks that point out
// of the tree are all rejected. When the target exists, the returned path has
// its symlinks resolved.
func ResolveUnder(root, relative string) (string, error) {
	if filepath.IsAbs(relative) {
		return "", fmt.Errorf("absolute paths not allowed: %s", relative)
	}

	base, err := filepath.EvalSymlinks(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}

	candidate := filepath.Clean(filepath.Join(base, relative))
	if !within(base, candidate) {
		return "", fmt.Errorf("path escapes root: %s", relative)
	}

	if _, err := os.Stat(candidate); err != nil {
		// Nothing there yet; the lexical check above is all we can do.
		return candidate, nil
	}
	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return "", fmt.Errorf("resolve symlinks: %w", err)
	}
	if !within(base, resolved) {
		return "", fmt.Errorf("symlink escapes root: %s", relative)
	}
	return resolved, nil
}

// within reports whether path is root itself or a descendant of it. Both
// arguments must already be clean and absolute.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ReadFileCapped reads the file at relative inside root, refusing anything
// larger than maxBytes. Planning files are hand-written and small; a huge
// file at one of their paths means something else entirely is sitting there.
func ReadFileCapped(root, relative string, maxBytes int64) ([]byte, error) {
	path, err := ResolveUnder(root, relative)
	if err != nil {
		return nil, fmt.Errorf("invalid file path: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", relative, err)
	}
	if info.Size() > maxBytes {
		return nil, fmt.Errorf("file %s is %d bytes, cap is %d", relative, info.Size(), maxBytes)
	}
	return io.ReadAll(f)
}
