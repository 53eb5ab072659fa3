package tagging

import (
	"context"
	"time"

	"imagetagger/internal/models"
	"imagetagger/internal/repository"
)

// fakeStore implements repository.Repository with function-field overrides
// and records the calls the pipeline makes.
type fakeStore struct {
	findTagsByNames func(names []string) ([]models.Tag, error)
	createTags      func(items []models.Tag) error
	upsertImageTags func(items []models.ImageTag) error
	deleteAutomated func(imageID int64) error
	deleteImage     func(imageID int64) error
	imageExists     func(imageID int64) (bool, error)
	finalize        func(imageID int64) (int64, error)
	listUnfinalized func(cutoff time.Time, limit int) ([]int64, error)

	findCalls   int
	createCalls int
	cleared     []int64
	deleted     []int64
	upserted    [][]models.ImageTag
	finalized   []int64
}

func (f *fakeStore) DeleteImage(_ context.Context, imageID int64) error {
	f.deleted = append(f.deleted, imageID)
	if f.deleteImage != nil {
		return f.deleteImage(imageID)
	}
	return nil
}

func (f *fakeStore) ImageExists(_ context.Context, imageID int64) (bool, error) {
	if f.imageExists != nil {
		return f.imageExists(imageID)
	}
	return true, nil
}

func (f *fakeStore) GetImageByID(_ context.Context, imageID int64) (*models.Image, error) {
	return &models.Image{ID: imageID}, nil
}

func (f *fakeStore) FindTagsByNames(_ context.Context, names []string) ([]models.Tag, error) {
	f.findCalls++
	if f.findTagsByNames != nil {
		return f.findTagsByNames(names)
	}
	return nil, nil
}

func (f *fakeStore) CreateTags(_ context.Context, items []models.Tag) error {
	f.createCalls++
	if f.createTags != nil {
		return f.createTags(items)
	}
	return nil
}

func (f *fakeStore) ListTags(_ context.Context, _ repository.ListTagsParams) ([]models.Tag, error) {
	return nil, nil
}

func (f *fakeStore) CountTags(_ context.Context, _ repository.ListTagsParams) (int64, error) {
	return 0, nil
}

func (f *fakeStore) DeleteAutomatedImageTags(_ context.Context, imageID int64) error {
	f.cleared = append(f.cleared, imageID)
	if f.deleteAutomated != nil {
		return f.deleteAutomated(imageID)
	}
	return nil
}

func (f *fakeStore) UpsertImageTags(_ context.Context, items []models.ImageTag) error {
	f.upserted = append(f.upserted, items)
	if f.upsertImageTags != nil {
		return f.upsertImageTags(items)
	}
	return nil
}

func (f *fakeStore) ListImageTags(_ context.Context, _ int64) ([]repository.ImageTagRow, error) {
	return nil, nil
}

func (f *fakeStore) FinalizeImageScan(_ context.Context, imageID int64, _ time.Time) (int64, error) {
	f.finalized = append(f.finalized, imageID)
	if f.finalize != nil {
		return f.finalize(imageID)
	}
	return 1, nil
}

func (f *fakeStore) ListUnfinalizedImageIDs(_ context.Context, cutoff time.Time, limit int) ([]int64, error) {
	if f.listUnfinalized != nil {
		return f.listUnfinalized(cutoff, limit)
	}
	return nil, nil
}
