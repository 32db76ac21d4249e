package api_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/william251082/fileupload/article"
	"github.com/william251082/fileupload/auth"
	"github.com/william251082/fileupload/auth/jwt"
	"github.com/william251082/fileupload/authz"
	dbtest "github.com/william251082/fileupload/database/testutil"
	apperrors "github.com/william251082/fileupload/errors"
	"github.com/william251082/fileupload/logger"
	"github.com/william251082/fileupload/reference"
	"github.com/william251082/fileupload/reference/api"
	"github.com/william251082/fileupload/server/middleware"
	"github.com/william251082/fileupload/storage"
	storetest "github.com/william251082/fileupload/storage/testutil"
)

const secret = "0123456789abcdef0123456789abcdef"

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	engine     *gin.Engine
	tokens     *jwt.Service[*auth.Claims]
	articles   *article.Store
	mem        *storetest.Memory
	stagingDir string
	articleID  uint64
}

func newFixture(t *testing.T, backend storage.Backend, download reference.DownloadConfig) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	store := article.NewStore(db)
	mem := storetest.NewMemory()
	if backend == nil {
		backend = mem
	}

	svc, err := reference.NewService(reference.Config{}, download, db, backend, store, logger.Nop())
	require.NoError(t, err)
	tokens, err := jwt.NewService(jwt.Config{Secret: secret}, func() *auth.Claims { return &auth.Claims{} })
	require.NoError(t, err)

	stagingDir := t.TempDir()
	h := api.NewHandler(api.Options{
		References: svc,
		Articles:   store,
		Images:     article.NewImageUploader(article.Config{}, store, backend, logger.Nop()),
		Policy:     article.NewPolicy(authz.NewMapChecker(auth.DefaultRoles())),
		StagingDir: stagingDir,
	}, logger.Nop())

	engine := gin.New()
	group := engine.Group("/api", middleware.Auth(tokens))
	h.Register(group)

	a := &article.Article{Title: "Deep Space", AuthorID: "alice"}
	require.NoError(t, store.Create(context.Background(), a))

	return &fixture{engine: engine, tokens: tokens, articles: store, mem: mem, stagingDir: stagingDir, articleID: a.ID}
}

func (f *fixture) token(t *testing.T, sub string, roles ...string) string {
	t.Helper()
	c := &auth.Claims{Roles: roles}
	c.Subject = sub
	tok, err := f.tokens.GenerateAccess(c)
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(t *testing.T, token string, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *fixture) referencesPath(suffix string) string {
	return fmt.Sprintf("/api/articles/%d/references%s", f.articleID, suffix)
}

func multipartBody(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("note", "ignored"))
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

type refJSON struct {
	ID               uint64 `json:"id"`
	ArticleID        uint64 `json:"articleId"`
	OriginalFilename string `json:"originalFilename"`
	MimeType         string `json:"mimeType"`
	Position         int    `json:"position"`
	Size             int64  `json:"size"`
	DownloadURL      string `json:"downloadUrl"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (f *fixture) uploadPDF(t *testing.T, token, name string) refJSON {
	t.Helper()
	body, ct := multipartBody(t, "reference", name, "application/pdf", pdfBytes)
	w := f.do(t, token, http.MethodPost, f.referencesPath(""), body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[refJSON](t, w)
}

func TestUploadMultipart(t *testing.T) {
	f := newFixture(t, nil, reference.DownloadConfig{})
	tok := f.token(t, "alice", "author")

	ref := f.uploadPDF(t, tok, "Quarterly Report.pdf")

	assert.NotZero(t, ref.ID)
	assert.Equal(t, f.articleID, ref.ArticleID)
	assert.Equal(t, "Quarterly Report.pdf", ref.OriginalFilename)
	assert.Equal(t, "application/pdf", ref.MimeType)
	assert.Equal(t, 0, ref.Position)
	assert.Equal(t, int64(len(pdfBytes)), ref.Size)
	assert.Equal(t, fmt.Sprintf("/api/references/%d/download", ref.ID), ref.DownloadURL)
	assert.Len(t, f.mem.Keys(), 1)
}

func TestUploadJSON(t *testing.T) {
	f := newFixture(t, nil, reference.DownloadConfig{})
	tok := f.token(t, "alice", "author")

	payload, _ := json.Marshal(map[string]string{
		"filename":   "notes.txt",
		"mimeType":   "text/plain",
		"base64Data": base64.StdEncoding.EncodeToString([]byte("hello references")),
	})
	w := f.do(t, tok, http.MethodPost, f.referencesPath(""), bytes.NewReader(payload), "application/json")

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ref := decode[refJSON](t, w)
	assert.Equal(t, "notes.txt", ref.OriginalFilename)
	assert.Equal(t, "text/plain", ref.MimeType)
	entries, err := os.ReadDir(f.stagingDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged file removed after success")
}

func TestUploadJSON_FailuresCleanStaging(t *testing.T) {
	f := newFixture(t, nil, reference.DownloadConfig{})
	tok := f.token(t, "alice", "author")

	cases := map[string]map[string]string{
		"disallowed type": {
			"filename": "a.zip", "base64Data": base64.StdEncoding.EncodeToString(append([]byte("PK\x03\x04"), make([]byte, 64)...)),
		},
		"invalid base64": {"filename": "a.txt", "base64Data": "***"},
		"missing data":   {"filename": "a.txt"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			payload, _ := json.Marshal(body)
			w := f.do(t, tok, http.MethodPost, f.referencesPath(""), bytes.NewReader(payload), "application/json")

			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			entries, err := os.ReadDir(f.stagingDir)
			require.NoError(t, err)
			assert.Empty(t, entries)
			assert.Empty(t, f.mem.Keys())
		})
	}
}

func TestUploadValidationErrors(t *testing.T) {
	f := newFixture(t, nil, reference.DownloadConfig{})
	tok := f.token(t, "alice", "author")

	t.Run("no file", func(t *testing.T) {
		body, ct := multipartBody(t, "", "", "", nil)
		w := f.do(t, tok, http.MethodPost, f.referencesPath(""), body, ct)

		require.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[apperrors.ErrorResponse](t, w)
		assert.Equal(t, string(apperrors.ErrCodeMissingField), string(resp.Error.Code))
		assert.Equal(t, "Please select a file to upload", resp.Error.Message)
	})

	t.Run("too large", func(t *testing.T) {
		big := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 5<<20)...)
		body, ct := multipartBody(t, "reference", "big.pdf", "application/pdf", big)
		w := f.do(t, tok, http.MethodPost, f.referencesPath(""), body, ct)

		require.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[apperrors.ErrorResponse](t, w)
		assert.Equal(t, string(apperrors.ErrCodeFileTooLarge), string(resp.Error.Code))
		assert.Empty(t, f.mem.Keys())
	})

	t.Run("wrong content type", func(t *testing.T) {
		w := f.do(t, tok, http.MethodPost, f.referencesPath(""), strings.NewReader("x"), "text/plain")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthorization(t *testing.T) {
	f := newFixture(t, nil, reference.DownloadConfig{})
	ref := f.uploadPDF(t, f.token(t, "alice", "author"), "a.pdf")
	download := fmt.Sprintf("/api/references/%d/download", ref.ID)

	t.Run("missing token", func(t *testing.T) {
		w := f.do(t, "", http.MethodGet, f.referencesPath(""), nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("other author", func(t *testing.T) {
		tok := f.token(t, "mallory", "author")
		assert.Equal(t, http.StatusForbidden, f.do(t, tok, http.MethodGet, f.referencesPath(""), nil, "").Code)
		reads := f.mem.Calls(storetest.OpRead)
		assert.Equal(t, http.StatusForbidden, f.do(t, tok, http.MethodGet, download, nil, "").Code)
		assert.Equal(t, reads, f.mem.Calls(storetest.OpRead), "denied download never reads storage")
		assert.Equal(t, http.StatusForbidden,
			f.do(t, tok, http.MethodDelete, fmt.Sprintf("/api/references/%d", ref.ID), nil, "").Code)
	})

	t.Run("editor manages any article", func(t *testing.T) {
		tok := f.token(t, "bob", "editor")
		assert.Equal(t, http.StatusOK, f.do(t, tok, http.MethodGet, f.referencesPath(""), nil, "").Code)
	})

	t.Run("unknown article", func(t *testing.T) {
		tok := f.token(t, "bob", "editor")
		w := f.do(t, tok, http.MethodGet, "/api/articles/9999/references", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = f.do(t, tok, http.MethodGet, "/api/articles/abc/references", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListReorderUpdateDelete(t *testing.T) {
	f := newFixture(t, nil, reference.DownloadConfig{})
	tok := f.token(t, "alice", "author")
	r1 := f.uploadPDF(t, tok, "one.pdf")
	r2 := f.uploadPDF(t, tok, "two.pdf")
	r3 := f.uploadPDF(t, tok, "three.pdf")

	order := func(w *httptest.ResponseRecorder) []uint64 {
		refs := decode[[]refJSON](t, w)
		out := make([]uint64, len(refs))
		for i, r := range refs {
			out[i] = r.ID
		}
		return out
	}

	w := f.do(t, tok, http.MethodGet, f.referencesPath(""), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uint64{r1.ID, r2.ID, r3.ID}, order(w))

	body := fmt.Sprintf("[%d,%d,%d]", r3.ID, r1.ID, r2.ID)
	w = f.do(t, tok, http.MethodPost, f.referencesPath("/reorder"), strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []uint64{r3.ID, r1.ID, r2.ID}, order(w))

	for _, bad := range []string{`{"ids": [1]}`, `not json`, fmt.Sprintf("[%d,%d]", r1.ID, r2.ID)} {
		w = f.do(t, tok, http.MethodPost, f.referencesPath("/reorder"), strings.NewReader(bad), "application/json")
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
	w = f.do(t, tok, http.MethodGet, f.referencesPath(""), nil, "")
	assert.Equal(t, []uint64{r3.ID, r1.ID, r2.ID}, order(w), "rejected reorders change nothing")

	refPath := fmt.Sprintf("/api/references/%d", r1.ID)
	w = f.do(t, tok, http.MethodPut, refPath, strings.NewReader(`{"originalFilename": "renamed.pdf"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "renamed.pdf", decode[refJSON](t, w).OriginalFilename)
	assert.Len(t, f.mem.Keys(), 3, "update keeps the blob")

	w = f.do(t, tok, http.MethodPut, refPath, strings.NewReader(`{"mimeType": "nope"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, tok, http.MethodDelete, refPath, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, f.mem.Keys(), 2)
	w = f.do(t, tok, http.MethodDelete, refPath, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadProxy(t *testing.T) {
	f := newFixture(t, nil, reference.DownloadConfig{})
	tok := f.token(t, "alice", "author")
	ref := f.uploadPDF(t, tok, "Quarterly Report.pdf")

	w := f.do(t, tok, http.MethodGet, ref.DownloadURL, nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Quarterly Report.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, pdfBytes, w.Body.Bytes())
}

func TestDownloadRedirect(t *testing.T) {
	presigning := storetest.NewPresigningMemory()
	f := newFixture(t, presigning, reference.DownloadConfig{Strategy: reference.StrategyRedirect})
	tok := f.token(t, "alice", "author")
	ref := f.uploadPDF(t, tok, "report.pdf")

	w := f.do(t, tok, http.MethodGet, ref.DownloadURL, nil, "")

	require.Equal(t, http.StatusFound, w.Code)
	loc := w.Header().Get("Location")
	assert.True(t, strings.HasPrefix(loc, "memory://blobs/article_reference/"), loc)
	assert.Contains(t, loc, "ttl=1800")
	assert.Zero(t, presigning.Calls(storetest.OpRead))
}

func TestArticles(t *testing.T) {
	f := newFixture(t, nil, reference.DownloadConfig{})
	tok := f.token(t, "alice", "author")

	w := f.do(t, tok, http.MethodPost, "/api/articles", strings.NewReader(`{"title": "New Moons"}`), "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	assert.Equal(t, "alice", created["authorId"])

	w = f.do(t, f.token(t, "dan", "reader"), http.MethodPost, "/api/articles", strings.NewReader(`{"title": "x"}`), "application/json")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, tok, http.MethodPost, "/api/articles", strings.NewReader(`{"title": ""}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, ct := multipartBody(t, "image", "cover.png", "image/png", pngBytes)
	w = f.do(t, tok, http.MethodPost, fmt.Sprintf("/api/articles/%d/image", f.articleID), body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	withImage := decode[map[string]any](t, w)
	assert.Contains(t, withImage["imageUrl"], "/uploads/article_image/cover-")

	w = f.do(t, tok, http.MethodGet, fmt.Sprintf("/api/articles/%d", f.articleID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, withImage["imageUrl"], decode[map[string]any](t, w)["imageUrl"])
}
