// Package fsutil holds small file helpers shared by the config and store layers.
package fsutil

import (
	"errors"
	"os"
	"path/filepath"
)

// WriteFileAtomic replaces path with b via a synced temp file in the same
// directory, creating the directory if needed.
func WriteFileAtomic(path string, b []byte) error {
	path = filepath.Clean(path)
	if path == "" || path == "." {
		return errors.New("write file: missing path")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
