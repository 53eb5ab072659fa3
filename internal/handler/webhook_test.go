package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"imagetagger/internal/models"
	"imagetagger/internal/repository"
	"imagetagger/internal/tagging"
)

var errFake = errors.New("store down")

type stubRepo struct {
	tags         map[string]uint64
	clearErr     error
	upsertErr    error
	imageMissing bool
}

func (s *stubRepo) DeleteImage(context.Context, int64) error { return nil }

func (s *stubRepo) ImageExists(context.Context, int64) (bool, error) {
	return !s.imageMissing, nil
}

func (s *stubRepo) GetImageByID(_ context.Context, imageID int64) (*models.Image, error) {
	if s.imageMissing {
		return nil, nil
	}
	return &models.Image{ID: imageID}, nil
}

func (s *stubRepo) FindTagsByNames(_ context.Context, names []string) ([]models.Tag, error) {
	var items []models.Tag
	for _, name := range names {
		if id, ok := s.tags[name]; ok {
			items = append(items, models.Tag{ID: id, Name: name})
		}
	}
	return items, nil
}

func (s *stubRepo) CreateTags(context.Context, []models.Tag) error { return nil }

func (s *stubRepo) ListTags(context.Context, repository.ListTagsParams) ([]models.Tag, error) {
	return nil, nil
}

func (s *stubRepo) CountTags(context.Context, repository.ListTagsParams) (int64, error) {
	return 0, nil
}

func (s *stubRepo) DeleteAutomatedImageTags(context.Context, int64) error { return s.clearErr }

func (s *stubRepo) UpsertImageTags(context.Context, []models.ImageTag) error { return s.upsertErr }

func (s *stubRepo) ListImageTags(context.Context, int64) ([]repository.ImageTagRow, error) {
	return nil, nil
}

func (s *stubRepo) FinalizeImageScan(context.Context, int64, time.Time) (int64, error) {
	if s.imageMissing {
		return 0, nil
	}
	return 1, nil
}

func (s *stubRepo) ListUnfinalizedImageIDs(context.Context, time.Time, int) ([]int64, error) {
	return nil, nil
}

func newTestRouter(repo repository.Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	pipeline := &tagging.Pipeline{
		Repo:     repo,
		Resolver: &tagging.Resolver{Cache: tagging.NewCache(), Repo: repo},
	}
	engine := gin.New()
	h := &ScanWebhookHandler{Pipeline: pipeline}
	h.Register(engine)
	return engine
}

func postScan(t *testing.T, engine *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/image-scan", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_MissingFields(t *testing.T) {
	engine := newTestRouter(&stubRepo{})
	rec := postScan(t, engine, `{"isValid": true}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestWebhook_InvalidImageAcknowledged(t *testing.T) {
	engine := newTestRouter(&stubRepo{})
	rec := postScan(t, engine, `{"id": 5, "isValid": false, "tags": [{"tag": "cat", "confidence": 0.9}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestWebhook_ValidWithTags(t *testing.T) {
	engine := newTestRouter(&stubRepo{tags: map[string]uint64{"cat": 1}})
	rec := postScan(t, engine, `{"id": 5, "isValid": true, "tags": [{"tag": " Cat", "confidence": 0.9}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestWebhook_EmptyTags(t *testing.T) {
	engine := newTestRouter(&stubRepo{})
	rec := postScan(t, engine, `{"id": 5, "isValid": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestWebhook_ImageVanished(t *testing.T) {
	engine := newTestRouter(&stubRepo{
		tags:         map[string]uint64{"cat": 1},
		upsertErr:    errFake,
		imageMissing: true,
	})
	rec := postScan(t, engine, `{"id": 5, "isValid": true, "tags": [{"tag": "cat", "confidence": 0.9}]}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestWebhook_StoreFault(t *testing.T) {
	engine := newTestRouter(&stubRepo{clearErr: errFake})
	rec := postScan(t, engine, `{"id": 5, "isValid": true}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}
