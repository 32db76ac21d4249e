package api

import (
	"strconv"
	"time"

	"github.com/william251082/fileupload/article"
	"github.com/william251082/fileupload/reference"
)

type referenceView struct {
	ID               uint64 `json:"id"`
	ArticleID        uint64 `json:"articleId"`
	OriginalFilename string `json:"originalFilename"`
	MimeType         string `json:"mimeType"`
	Position         int    `json:"position"`
	Size             int64  `json:"size"`
	DownloadURL      string `json:"downloadUrl"`
}

func (h *Handler) referenceView(ref *reference.Reference) referenceView {
	return referenceView{
		ID:               ref.ID,
		ArticleID:        ref.ArticleID,
		OriginalFilename: ref.OriginalFilename,
		MimeType:         ref.MimeType,
		Position:         ref.Position,
		Size:             ref.Size,
		DownloadURL:      h.basePath + "/references/" + strconv.FormatUint(ref.ID, 10) + "/download",
	}
}

func (h *Handler) referenceViews(refs []reference.Reference) []referenceView {
	views := make([]referenceView, len(refs))
	for i := range refs {
		views[i] = h.referenceView(&refs[i])
	}
	return views
}

type articleView struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	AuthorID  string    `json:"authorId"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *Handler) articleView(a *article.Article) articleView {
	v := articleView{ID: a.ID, Title: a.Title, AuthorID: a.AuthorID, CreatedAt: a.CreatedAt}
	if a.ImageFilename != nil && h.images != nil {
		v.ImageURL = h.images.PublicPath(*a.ImageFilename)
	}
	return v
}
