// Package fsutil writes report artifacts without leaving partial files.
package fsutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/prism/internal/model"
)

// Permissions used for artifacts and the directories holding them.
const (
	DirPerm  os.FileMode = 0750
	FilePerm os.FileMode = 0600
)

// WriteFileAtomic streams write into a temporary file next to path and
// renames it over path once write succeeds. The parent directory is created
// if needed. On failure path is left untouched: it holds either nothing or
// its previous content.
//
// Errors from creating, syncing or renaming wrap model.ErrFilesystem; an
// error returned by write is passed through unchanged.
func WriteFileAtomic(path string, perm os.FileMode, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return model.Wrap(model.ErrFilesystem, "create directory "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp.*")
	if err != nil {
		return model.Wrap(model.ErrFilesystem, "create temporary file", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return model.Wrap(model.ErrFilesystem, "chmod "+tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		return model.Wrap(model.ErrFilesystem, "sync "+tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return model.Wrap(model.ErrFilesystem, "close "+tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return model.Wrap(model.ErrFilesystem, fmt.Sprintf("rename to %s", path), err)
	}
	committed = true
	return nil
}

// WriteBytesAtomic is WriteFileAtomic for an in-memory payload.
func WriteBytesAtomic(path string, data []byte, perm os.FileMode) error {
	return WriteFileAtomic(path, perm, func(w io.Writer) error {
		if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
			return model.Wrap(model.ErrFilesystem, "write "+path, err)
		}
		return nil
	})
}
