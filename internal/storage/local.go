// Package storage is the blob store behind uploads: bytes go to local disk
// under UUID-derived names, the database keeps only the returned path.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type LocalStore struct {
	baseDir string
}

func NewLocalStore(baseDir string) *LocalStore {
	return &LocalStore{baseDir: baseDir}
}

// Save writes the content under <subdir>/<uuid>.<ext> and returns that
// relative path for persistence. The original filename contributes only its
// extension.
func (s *LocalStore) Save(r io.Reader, originalFilename, subdir string) (string, error) {
	ext := strings.TrimPrefix(filepath.Ext(originalFilename), ".")
	if ext == "" {
		ext = "bin"
	}
	rel := filepath.ToSlash(filepath.Join(subdir, uuid.NewString()+"."+ext))
	full := filepath.Join(s.baseDir, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("criar diretório de upload: %w", err)
	}
	out, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("gravar arquivo no disco: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		// A half-written blob must not survive a failed upload.
		_ = os.Remove(full)
		return "", fmt.Errorf("gravar arquivo no disco: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("gravar arquivo no disco: %w", err)
	}
	return rel, nil
}

// Open returns the stored file for streaming. os.IsNotExist on the error
// distinguishes a missing physical file from other failures.
func (s *LocalStore) Open(rel string) (*os.File, error) {
	return os.Open(filepath.Join(s.baseDir, filepath.FromSlash(rel)))
}

// Remove deletes a blob, tolerating files already gone.
func (s *LocalStore) Remove(rel string) error {
	err := os.Remove(filepath.Join(s.baseDir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
