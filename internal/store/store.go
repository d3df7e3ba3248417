// Package store persists small JSON documents as whole files.
//
// Every document is read in full and written in full. Writes go to a
// sibling temp file that is renamed over the target, so a reader never sees
// a half-written document.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Documents reads and writes JSON documents on a filesystem.
type Documents struct {
	fs afero.Fs
}

// New creates a Documents store on fs.
func New(fs afero.Fs) *Documents {
	return &Documents{fs: fs}
}

// Fs returns the underlying filesystem.
func (d *Documents) Fs() afero.Fs {
	return d.fs
}

// Read decodes the document at path into v.
// Returns (false, nil) if the document does not exist.
func (d *Documents) Read(path string, v any) (bool, error) {
	data, err := afero.ReadFile(d.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("parsing %s: %w", path, err)
	}

	return true, nil
}

// Write encodes v as indented JSON and replaces the document at path,
// creating the parent directory if needed.
func (d *Documents) Write(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return d.WriteRaw(path, append(data, '\n'))
}

// WriteRaw replaces the file at path with data.
func (d *Documents) WriteRaw(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := d.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(d.fs, dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = d.fs.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = d.fs.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", path, err)
	}

	if err := d.fs.Rename(tmpPath, path); err != nil {
		_ = d.fs.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	return nil
}
