package reference

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	apperrors "github.com/william251082/fileupload/errors"
)

// StagedFile is a decoded upload materialized on disk. Close removes it.
type StagedFile struct {
	*os.File
	Size int64

	once sync.Once
}

// StageBase64 decodes encoded into a temporary file under dir and rewinds it
// for reading. Callers must defer Close on the result; on error nothing is
// left on disk.
func StageBase64(encoded io.Reader, dir string) (*StagedFile, error) {
	f, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging file: %w", err)
	}
	staged := &StagedFile{File: f}

	n, err := io.Copy(f, base64.NewDecoder(base64.StdEncoding, encoded))
	if err != nil {
		_ = staged.Close()
		var corrupt base64.CorruptInputError
		// Truncated or unpadded input surfaces as io.ErrUnexpectedEOF.
		if errors.As(err, &corrupt) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, apperrors.InvalidInput("base64Data", "is not valid base64")
		}
		return nil, fmt.Errorf("staging upload: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = staged.Close()
		return nil, fmt.Errorf("rewinding staging file: %w", err)
	}
	staged.Size = n
	return staged, nil
}

// Close closes and deletes the file. Safe to call more than once.
func (s *StagedFile) Close() error {
	var err error
	s.once.Do(func() {
		name := s.File.Name()
		_ = s.File.Close()
		if rmErr := os.Remove(name); rmErr != nil && !os.IsNotExist(rmErr) {
			err = rmErr
		}
	})
	return err
}
