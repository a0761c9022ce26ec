package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/username/liquidador/src/logger"
	"github.com/username/liquidador/src/models"
)

// fileProofService stores proof files under a single directory, one file per
// handle, named by UUID so client file names never touch the filesystem.
type fileProofService struct {
	dir string
}

// NewProofService creates the on-disk proof store, creating dir if needed.
func NewProofService(dir string) (ProofService, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &fileProofService{dir: dir}, nil
}

func (s *fileProofService) Store(fileName, contentType string, r io.Reader) (models.ProofReference, error) {
	storedName := uuid.NewString() + sanitizeExt(fileName)
	path := filepath.Join(s.dir, storedName)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return models.ProofReference{}, fmt.Errorf("failed to create proof file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return models.ProofReference{}, fmt.Errorf("failed to write proof file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return models.ProofReference{}, fmt.Errorf("failed to close proof file: %w", err)
	}

	logger.L.Debug("Stored proof file", "name", fileName, "storedName", storedName)
	return models.ProofReference{
		Name:       fileName,
		StoredName: storedName,
		MIMEType:   contentType,
	}, nil
}

func (s *fileProofService) Open(ref models.ProofReference) (io.ReadCloser, error) {
	if ref.StoredName == "" {
		return nil, fmt.Errorf("proof reference has no stored file")
	}
	return os.Open(filepath.Join(s.dir, ref.StoredName))
}

// Release removes the stored file. Callers guarantee exactly-once release;
// an already-missing file is logged but not an error, so teardown paths
// stay idempotent.
func (s *fileProofService) Release(ref models.ProofReference) error {
	if ref.StoredName == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, ref.StoredName))
	if err != nil {
		if os.IsNotExist(err) {
			logger.L.Warn("Proof file already released", "storedName", ref.StoredName)
			return nil
		}
		return fmt.Errorf("failed to release proof file %s: %w", ref.StoredName, err)
	}
	logger.L.Debug("Released proof file", "storedName", ref.StoredName)
	return nil
}

// sanitizeExt keeps a short, safe extension from the client file name so the
// stored file remains recognizable. Anything suspicious is dropped.
func sanitizeExt(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}
