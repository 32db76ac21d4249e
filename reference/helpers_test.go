package reference_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/william251082/fileupload/article"
	"github.com/william251082/fileupload/database"
	dbtest "github.com/william251082/fileupload/database/testutil"
	"github.com/william251082/fileupload/logger"
	"github.com/william251082/fileupload/reference"
	"github.com/william251082/fileupload/storage"
	storetest "github.com/william251082/fileupload/storage/testutil"
)

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)
	zipBytes = append([]byte("PK\x03\x04"), bytes.Repeat([]byte{1}, 64)...)
)

type env struct {
	db       *database.DB
	mem      *storetest.Memory
	articles *article.Store
	svc      *reference.Service
	article  *article.Article
}

type envOptions struct {
	cfg      reference.Config
	download reference.DownloadConfig
	backend  storage.Backend
	opts     []reference.Option
}

func newEnv(t *testing.T, o envOptions) *env {
	t.Helper()
	db := dbtest.Open(t)
	store := article.NewStore(db)

	a := &article.Article{Title: "Why Asteroids Taste Like Bacon", AuthorID: "author-1"}
	require.NoError(t, store.Create(context.Background(), a))

	mem := storetest.NewMemory()
	backend := o.backend
	if backend == nil {
		backend = mem
	}
	svc, err := reference.NewService(o.cfg, o.download, db, backend, store, logger.Nop(), o.opts...)
	require.NoError(t, err)

	return &env{db: db, mem: mem, articles: store, svc: svc, article: a}
}

func (e *env) upload(t *testing.T, name string, data []byte) *reference.Reference {
	t.Helper()
	ref, err := e.svc.Upload(context.Background(), reference.UploadInput{
		ArticleID:        e.article.ID,
		File:             bytes.NewReader(data),
		OriginalFilename: name,
		DeclaredSize:     int64(len(data)),
	})
	require.NoError(t, err)
	return ref
}

func (e *env) countRows(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Gorm().Model(&reference.Reference{}).Count(&n).Error)
	return n
}

func ids(refs []reference.Reference) []uint64 {
	out := make([]uint64, len(refs))
	for i, r := range refs {
		out[i] = r.ID
	}
	return out
}

func bytesReader(b []byte) *bytes.Reader { return bytes.NewReader(b) }

func nopLogger() *logger.Logger { return logger.Nop() }
