package article

import "time"

// Article is the parent of a set of references.
type Article struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string    `gorm:"not null" json:"title"`
	AuthorID      string    `gorm:"not null;index" json:"authorId"`
	ImageFilename *string   `json:"imageFilename,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Article) TableName() string { return "articles" }
