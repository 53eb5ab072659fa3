package repository

import (
	"context"
	"time"

	"imagetagger/internal/models"
)

// Repository is the persistence contract the scan pipeline requires. The
// query engine behind it is owned elsewhere; only these operations are
// assumed of the store.
type Repository interface {
	// Images. DeleteImage is idempotent from the caller's perspective:
	// deleting an absent row is not an error.
	DeleteImage(ctx context.Context, imageID int64) error
	ImageExists(ctx context.Context, imageID int64) (bool, error)
	GetImageByID(ctx context.Context, imageID int64) (*models.Image, error)

	// Tags. CreateTags must treat a name-uniqueness violation as "already
	// exists" so that racing creations degrade to a requery, not a fault.
	FindTagsByNames(ctx context.Context, names []string) ([]models.Tag, error)
	CreateTags(ctx context.Context, items []models.Tag) error
	ListTags(ctx context.Context, params ListTagsParams) ([]models.Tag, error)
	CountTags(ctx context.Context, params ListTagsParams) (int64, error)

	// Associations. Upsert is unique on (image_id, tag_id) and overwrites
	// confidence only on conflict.
	DeleteAutomatedImageTags(ctx context.Context, imageID int64) error
	UpsertImageTags(ctx context.Context, items []models.ImageTag) error
	ListImageTags(ctx context.Context, imageID int64) ([]ImageTagRow, error)

	// FinalizeImageScan stamps scanned_at and derives the unsafe flag from
	// the automated moderation associations in one statement. It reports the
	// number of image rows touched so callers can detect a vanished image.
	FinalizeImageScan(ctx context.Context, imageID int64, at time.Time) (int64, error)
	ListUnfinalizedImageIDs(ctx context.Context, cutoff time.Time, limit int) ([]int64, error)
}

type ListTagsParams struct {
	Limit   int
	Offset  int
	Name    *string
	Type    *string
	OrderBy string
	Asc     *bool
}

// ImageTagRow is an association joined with its tag, for read endpoints.
type ImageTagRow struct {
	TagID      uint64  `json:"tagId"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Automated  bool    `json:"automated"`
}
