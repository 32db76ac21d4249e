package reference

import (
	"context"
	"database/sql"
	"sort"
	"strconv"

	"gorm.io/gorm"

	"github.com/william251082/fileupload/database"
	apperrors "github.com/william251082/fileupload/errors"
)

const resourceName = "reference"

// Registry persists reference metadata.
type Registry struct {
	db *database.DB
}

func NewRegistry(db *database.DB) *Registry {
	return &Registry{db: db}
}

// Add inserts ref and fills in its id and timestamps.
func (r *Registry) Add(ctx context.Context, ref *Reference) error {
	if err := r.db.WithContext(ctx).Create(ref).Error; err != nil {
		return database.FromGorm(err, resourceName, "")
	}
	return nil
}

func (r *Registry) Get(ctx context.Context, id uint64) (*Reference, error) {
	var ref Reference
	if err := r.db.WithContext(ctx).First(&ref, id).Error; err != nil {
		return nil, database.FromGorm(err, resourceName, idString(id))
	}
	return &ref, nil
}

// ListByArticle returns the article's references by position, oldest first
// among equal positions.
func (r *Registry) ListByArticle(ctx context.Context, articleID uint64) ([]Reference, error) {
	refs := make([]Reference, 0)
	err := r.db.WithContext(ctx).
		Where("article_id = ?", articleID).
		Order("position ASC").
		Order("id ASC").
		Find(&refs).Error
	if err != nil {
		return nil, database.FromGorm(err, resourceName, "")
	}
	return refs, nil
}

// UpdateMetadata applies patch to the filename and media type only.
func (r *Registry) UpdateMetadata(ctx context.Context, id uint64, patch MetadataPatch) (*Reference, error) {
	updates := make(map[string]any, 2)
	if patch.OriginalFilename != nil {
		updates["original_filename"] = *patch.OriginalFilename
	}
	if patch.MimeType != nil {
		updates["mime_type"] = *patch.MimeType
	}

	var ref Reference
	err := r.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&ref, id).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&Reference{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&ref, id).Error
	})
	if err != nil {
		return nil, database.FromGorm(err, resourceName, idString(id))
	}
	return &ref, nil
}

// Remove deletes the row and returns the storage key it pointed at.
func (r *Registry) Remove(ctx context.Context, id uint64) (string, error) {
	var key string
	err := r.db.Transaction(ctx, func(tx *gorm.DB) error {
		var ref Reference
		if err := tx.First(&ref, id).Error; err != nil {
			return err
		}
		res := tx.Delete(&ref)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		key = ref.StorageKey
		return nil
	})
	if err != nil {
		return "", database.FromGorm(err, resourceName, idString(id))
	}
	return key, nil
}

// NextPosition is one past the highest sibling position, 0 for the first.
func (r *Registry) NextPosition(ctx context.Context, articleID uint64) (int, error) {
	var highest sql.NullInt64
	row := r.db.WithContext(ctx).
		Model(&Reference{}).
		Select("MAX(position)").
		Where("article_id = ?", articleID).
		Row()
	if err := row.Scan(&highest); err != nil {
		return 0, database.FromGorm(err, resourceName, "")
	}
	if !highest.Valid {
		return 0, nil
	}
	return int(highest.Int64) + 1, nil
}

// ApplyPositions assigns positions[id] to every reference of the article in
// one transaction. Every current sibling must have an entry; otherwise
// nothing is written and a validation error lists the missing ids. Entries
// for ids that are not siblings are ignored.
func (r *Registry) ApplyPositions(ctx context.Context, articleID uint64, positions map[uint64]int) error {
	err := r.db.Transaction(ctx, func(tx *gorm.DB) error {
		var ids []uint64
		if err := tx.Model(&Reference{}).Where("article_id = ?", articleID).Pluck("id", &ids).Error; err != nil {
			return err
		}

		var missing []uint64
		for _, id := range ids {
			if _, ok := positions[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
			return apperrors.Validation("The order must list every reference of the article.").
				WithDetail("missing_ids", missing)
		}

		for _, id := range ids {
			err := tx.Model(&Reference{}).
				Where("id = ? AND article_id = ?", id, articleID).
				Update("position", positions[id]).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	return database.FromGorm(err, resourceName, "")
}

func idString(id uint64) string {
	return strconv.FormatUint(id, 10)
}
