package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Subdirectories under the upload root.
const (
	DirComplaints = "complaints"
	DirProfiles   = "profiles"
)

// Local stores uploaded files on disk under a single root directory. The
// root is served statically at /uploads, so the returned paths double as
// public URLs.
type Local struct {
	root string
}

func NewLocal(root string) *Local {
	return &Local{root: root}
}

// Root returns the on-disk upload directory.
func (l *Local) Root() string { return l.root }

// Save writes src into <root>/<subdir>/ under a fresh UUID name (original
// extension kept) and returns the public /uploads path.
func (l *Local) Save(subdir, originalName string, src io.Reader) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))

	dir := filepath.Join(l.root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write upload file: %w", err)
	}

	return path.Join("/uploads", subdir, name), nil
}

// Remove deletes a previously stored file by its public path. Paths outside
// /uploads (externally hosted avatars, data URLs) are left alone. Missing
// files count as already deleted.
func (l *Local) Remove(publicPath string) error {
	rel, ok := strings.CutPrefix(publicPath, "/uploads/")
	if !ok {
		return nil
	}
	// Reject traversal out of the upload root.
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(l.root, rel))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
