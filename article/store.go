package article

import (
	"context"
	"strconv"

	"gorm.io/gorm"

	"github.com/william251082/fileupload/database"
	"github.com/william251082/fileupload/util"
)

// Store persists articles.
type Store struct {
	db *database.DB
}

func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, a *Article) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return database.FromGorm(err, "article", "")
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id uint64) (*Article, error) {
	var a Article
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, database.FromGorm(err, "article", strconv.FormatUint(id, 10))
	}
	return &a, nil
}

// Exists reports whether an article with id is stored.
func (s *Store) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Article{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, database.FromGorm(err, "article", "")
	}
	return n > 0, nil
}

// SetImage points the article at a new image key and returns the previous
// key, "" when there was none.
func (s *Store) SetImage(ctx context.Context, id uint64, key string) (string, error) {
	var previous string
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		var a Article
		if err := tx.First(&a, id).Error; err != nil {
			return err
		}
		previous = util.DerefOr(a.ImageFilename, "")
		return tx.Model(&a).Update("image_filename", key).Error
	})
	if err != nil {
		return "", database.FromGorm(err, "article", strconv.FormatUint(id, 10))
	}
	return previous, nil
}
