package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"imagetagger/internal/models"
	"imagetagger/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- images -----------------------------------------------------------------

func (s *Store) DeleteImage(ctx context.Context, imageID int64) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Where("id = ?", imageID).Delete(&models.Image{}).Error
}

func (s *Store) ImageExists(ctx context.Context, imageID int64) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Image{}).
		Where("id = ?", imageID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) GetImageByID(ctx context.Context, imageID int64) (*models.Image, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Image
	err := s.db.WithContext(ctx).Where("id = ?", imageID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// --- tags -------------------------------------------------------------------

func (s *Store) FindTagsByNames(ctx context.Context, names []string) ([]models.Tag, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	names = cleanStrings(names)
	if len(names) == 0 {
		return nil, nil
	}
	var items []models.Tag
	if err := s.db.WithContext(ctx).
		Where("name IN ?", names).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CreateTags inserts in one batch and ignores rows whose name already exists,
// so a concurrent creation of the same tag is not a fault.
func (s *Store) CreateTags(ctx context.Context, items []models.Tag) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).CreateInBatches(items, 200).Error
}

func (s *Store) ListTags(ctx context.Context, params repository.ListTagsParams) ([]models.Tag, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyTagFilters(s.db.WithContext(ctx).Model(&models.Tag{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "name")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Tag
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountTags(ctx context.Context, params repository.ListTagsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	query := applyTagFilters(s.db.WithContext(ctx).Model(&models.Tag{}), params)
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func applyTagFilters(query *gorm.DB, params repository.ListTagsParams) *gorm.DB {
	if params.Name != nil && strings.TrimSpace(*params.Name) != "" {
		query = query.Where("name LIKE ?", "%"+strings.TrimSpace(*params.Name)+"%")
	}
	if params.Type != nil && strings.TrimSpace(*params.Type) != "" {
		query = query.Where("type = ?", strings.TrimSpace(*params.Type))
	}
	return query
}

// --- associations -----------------------------------------------------------

func (s *Store) DeleteAutomatedImageTags(ctx context.Context, imageID int64) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("image_id = ? AND automated = ?", imageID, true).
		Delete(&models.ImageTag{}).Error
}

// UpsertImageTags overwrites confidence on the (image_id, tag_id) key and
// leaves every other column of an existing row alone.
func (s *Store) UpsertImageTags(ctx context.Context, items []models.ImageTag) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "image_id"}, {Name: "tag_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"confidence", "updated_at"}),
	}).CreateInBatches(items, 200).Error
}

func (s *Store) ListImageTags(ctx context.Context, imageID int64) ([]repository.ImageTagRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []repository.ImageTagRow
	err := s.db.WithContext(ctx).
		Table("image_tags").
		Select("image_tags.tag_id, tags.name, tags.type, image_tags.confidence, image_tags.automated").
		Joins("JOIN tags ON tags.id = image_tags.tag_id").
		Where("image_tags.image_id = ?", imageID).
		Order("tags.name asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// --- scan state -------------------------------------------------------------

func (s *Store) FinalizeImageScan(ctx context.Context, imageID int64, at time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.Image{}).
		Where("id = ?", imageID).
		Updates(map[string]any{
			"scanned_at": at,
			"unsafe": gorm.Expr(
				"EXISTS(SELECT 1 FROM image_tags it JOIN tags t ON t.id = it.tag_id"+
					" WHERE it.image_id = images.id AND it.automated AND t.type = ?)",
				models.TagTypeModeration,
			),
		})
	return res.RowsAffected, res.Error
}

// ListUnfinalizedImageIDs returns images whose automated associations are
// older than cutoff but whose scan stamp is missing or predates them, i.e.
// the flag update never landed after the association upsert committed.
func (s *Store) ListUnfinalizedImageIDs(ctx context.Context, cutoff time.Time, limit int) ([]int64, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 200)
	var ids []int64
	err := s.db.WithContext(ctx).
		Table("images").
		Distinct().
		Joins("JOIN image_tags ON image_tags.image_id = images.id AND image_tags.automated").
		Where("image_tags.updated_at < ?", cutoff).
		Where("images.scanned_at IS NULL OR images.scanned_at < image_tags.updated_at").
		Limit(limit).
		Pluck("images.id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// --- helpers ----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, raw := range items {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}
	return out
}
