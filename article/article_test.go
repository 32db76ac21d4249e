package article_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/william251082/fileupload/article"
	"github.com/william251082/fileupload/auth"
	"github.com/william251082/fileupload/authz"
	dbtest "github.com/william251082/fileupload/database/testutil"
	apperrors "github.com/william251082/fileupload/errors"
	"github.com/william251082/fileupload/logger"
	storetest "github.com/william251082/fileupload/storage/testutil"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)

func claims(sub string, roles ...string) *auth.Claims {
	c := &auth.Claims{Roles: roles}
	c.Subject = sub
	return c
}

func TestPolicy(t *testing.T) {
	policy := article.NewPolicy(authz.NewMapChecker(auth.DefaultRoles()))
	owned := &article.Article{ID: 1, AuthorID: "alice"}

	tests := []struct {
		name   string
		claims *auth.Claims
		want   bool
	}{
		{"admin", claims("root", "admin"), true},
		{"editor on any article", claims("bob", "editor"), true},
		{"author on own article", claims("alice", "author"), true},
		{"author on someone else's article", claims("carol", "author"), false},
		{"no roles", claims("alice"), false},
		{"unknown role", claims("alice", "reader"), false},
		{"nil claims", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.CanManage(tt.claims, owned))
		})
	}

	assert.True(t, apperrors.HasCode(policy.Authorize(nil, owned), apperrors.ErrCodeUnauthorized))
	assert.True(t, apperrors.HasCode(policy.Authorize(claims("carol", "author"), owned), apperrors.ErrCodeForbidden))
	assert.NoError(t, policy.Authorize(claims("alice", "author"), owned))

	assert.True(t, policy.CanCreate(claims("alice", "author")))
	assert.True(t, policy.CanCreate(claims("bob", "editor")))
	assert.False(t, policy.CanCreate(claims("dan", "reader")))
	assert.False(t, policy.CanCreate(claims("", "admin")))
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := article.NewStore(dbtest.Open(t))

	a := &article.Article{Title: "Light Speed Travel", AuthorID: "alice"}
	require.NoError(t, store.Create(ctx, a))
	require.NotZero(t, a.ID)

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Light Speed Travel", got.Title)
	assert.Nil(t, got.ImageFilename)

	ok, err := store.Exists(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.Exists(ctx, a.ID+1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Get(ctx, a.ID+1)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))

	prev, err := store.SetImage(ctx, a.ID, "first.png")
	require.NoError(t, err)
	assert.Empty(t, prev)
	prev, err = store.SetImage(ctx, a.ID, "second.png")
	require.NoError(t, err)
	assert.Equal(t, "first.png", prev)
}

func newUploader(t *testing.T) (*article.ImageUploader, *article.Store, *storetest.Memory, *article.Article) {
	t.Helper()
	store := article.NewStore(dbtest.Open(t))
	a := &article.Article{Title: "t", AuthorID: "alice"}
	require.NoError(t, store.Create(context.Background(), a))
	mem := storetest.NewMemory()
	up := article.NewImageUploader(article.Config{PublicBaseURL: "https://cdn.example.com/"}, store, mem, logger.Nop())
	return up, store, mem, a
}

func TestImageUploader_ReplacesPreviousImage(t *testing.T) {
	ctx := context.Background()
	up, _, mem, a := newUploader(t)

	first, err := up.Upload(ctx, a.ID, bytes.NewReader(pngBytes), "Cover Photo.png", "", int64(len(pngBytes)))
	require.NoError(t, err)
	require.NotNil(t, first.ImageFilename)
	firstKey := *first.ImageFilename
	assert.Equal(t, []string{article.ImagePrefix + "/" + firstKey}, mem.Keys())

	second, err := up.Upload(ctx, a.ID, bytes.NewReader(pngBytes), "Cover Photo.png", "", -1)
	require.NoError(t, err)
	secondKey := *second.ImageFilename
	assert.NotEqual(t, firstKey, secondKey)
	assert.Equal(t, []string{article.ImagePrefix + "/" + secondKey}, mem.Keys(), "previous image deleted")

	assert.Equal(t, "https://cdn.example.com/uploads/article_image/"+secondKey, up.PublicPath(secondKey))
}

func TestImageUploader_MissingPreviousImageIsNotFatal(t *testing.T) {
	ctx := context.Background()
	up, store, _, a := newUploader(t)
	_, err := store.SetImage(ctx, a.ID, "gone.png")
	require.NoError(t, err)

	got, err := up.Upload(ctx, a.ID, bytes.NewReader(pngBytes), "x.png", "", int64(len(pngBytes)))

	require.NoError(t, err)
	assert.NotEqual(t, "gone.png", *got.ImageFilename)
}

func TestImageUploader_Rejections(t *testing.T) {
	ctx := context.Background()
	up, _, mem, a := newUploader(t)

	_, err := up.Upload(ctx, a.ID, nil, "x.png", "", -1)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMissingField))

	_, err = up.Upload(ctx, a.ID, bytes.NewReader([]byte("%PDF-1.4\n")), "x.pdf", "image/png", 9)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnsupportedType))

	_, err = up.Upload(ctx, a.ID, bytes.NewReader(pngBytes), "x.png", "", 6<<20)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeFileTooLarge))

	_, err = up.Upload(ctx, a.ID+1, bytes.NewReader(pngBytes), "x.png", "", int64(len(pngBytes)))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))

	mem.Fail(storetest.OpWrite, errors.New("read-only"))
	_, err = up.Upload(ctx, a.ID, bytes.NewReader(pngBytes), "x.png", "", int64(len(pngBytes)))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorage))

	assert.Empty(t, mem.Keys())
}

func TestPublicPath(t *testing.T) {
	assert.Equal(t, "/uploads/article_image/k.png", article.PublicPath("", "k.png"))
	assert.Equal(t, "https://x.test/uploads/article_image/k.png", article.PublicPath("https://x.test/", "k.png"))
}
