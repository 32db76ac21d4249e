package reference_test

import (
	"encoding/base64"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/william251082/fileupload/errors"
	"github.com/william251082/fileupload/reference"
)

func dirEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}

func TestStageBase64(t *testing.T) {
	dir := t.TempDir()
	encoded := base64.StdEncoding.EncodeToString(pdfBytes)

	staged, err := reference.StageBase64(strings.NewReader(encoded), dir)
	require.NoError(t, err)
	assert.Equal(t, int64(len(pdfBytes)), staged.Size)
	assert.Len(t, dirEntries(t, dir), 1)

	got, err := io.ReadAll(staged)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, got)

	require.NoError(t, staged.Close())
	assert.Empty(t, dirEntries(t, dir))
	assert.NoError(t, staged.Close(), "Close is idempotent")
}

func TestStageBase64_InvalidLeavesNothing(t *testing.T) {
	dir := t.TempDir()

	staged, err := reference.StageBase64(strings.NewReader("%%% not base64 %%%"), dir)

	assert.Nil(t, staged)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput), "got %v", err)
	assert.Empty(t, dirEntries(t, dir))
}

func TestStageBase64_TruncatedInput(t *testing.T) {
	for _, input := range []string{"***", "JVBERi0xLj", "JVBERi0xLjQ"} {
		t.Run(input, func(t *testing.T) {
			dir := t.TempDir()

			staged, err := reference.StageBase64(strings.NewReader(input), dir)

			assert.Nil(t, staged)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput), "got %v", err)
			assert.Empty(t, dirEntries(t, dir))
		})
	}
}

func TestStageBase64_UploadFailureStillCleansUp(t *testing.T) {
	dir := t.TempDir()
	e := newEnv(t, envOptions{cfg: reference.Config{MaxSize: "10B"}})

	staged, err := reference.StageBase64(strings.NewReader(base64.StdEncoding.EncodeToString(pdfBytes)), dir)
	require.NoError(t, err)
	func() {
		defer staged.Close()
		_, err = e.svc.Upload(t.Context(), reference.UploadInput{
			ArticleID: e.article.ID, File: staged, OriginalFilename: "a.pdf", DeclaredSize: staged.Size,
		})
	}()

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeFileTooLarge), "got %v", err)
	assert.Empty(t, dirEntries(t, dir))
}
