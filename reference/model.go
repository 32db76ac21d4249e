package reference

import (
	"io"
	"time"
)

// Reference is a file attached to an article.
type Reference struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ArticleID        uint64    `gorm:"not null;index:idx_article_references_article_position,priority:1" json:"articleId"`
	StorageKey       string    `gorm:"size:255;not null;uniqueIndex" json:"-"`
	OriginalFilename string    `gorm:"size:255;not null" json:"originalFilename"`
	MimeType         string    `gorm:"size:255;not null" json:"mimeType"`
	Position         int       `gorm:"not null;index:idx_article_references_article_position,priority:2" json:"position"`
	Size             int64     `gorm:"not null" json:"size"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// TableName overrides GORM's pluralized default.
func (Reference) TableName() string { return "article_references" }

// MetadataPatch holds the user-editable fields. Nil fields are left alone.
type MetadataPatch struct {
	OriginalFilename *string `json:"originalFilename" validate:"omitnil,min=1,max=255"`
	MimeType         *string `json:"mimeType" validate:"omitnil,max=255,mediatype"`
}

// Empty reports whether the patch changes nothing.
func (p MetadataPatch) Empty() bool {
	return p.OriginalFilename == nil && p.MimeType == nil
}

// UploadInput describes one incoming file. DeclaredSize is the size the
// client announced; negative means unknown.
type UploadInput struct {
	ArticleID        uint64
	File             io.Reader
	OriginalFilename string
	DeclaredMimeType string
	DeclaredSize     int64
}
