package tagging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"imagetagger/internal/metrics"
	"imagetagger/internal/models"
	"imagetagger/internal/repository"
)

// ErrImageNotFound reports that the image vanished between pipeline steps,
// usually a race with a deletion elsewhere.
var ErrImageNotFound = errors.New("image not found")

// ScanResult is one delivery from the external classifier.
type ScanResult struct {
	ImageID int64
	IsValid bool
	Tags    []RawObservation
}

// Pipeline runs one classifier delivery to completion. Events are processed
// concurrently, one invocation per delivery; the only state shared between
// invocations is the resolver's tag cache.
type Pipeline struct {
	Repo     repository.Repository
	Resolver *Resolver
	Logger   *zap.Logger
	Metrics  *metrics.ScanMetrics
}

// Process purges invalid images (best-effort, always success) and, for valid
// ones, rebuilds the automated association set from the observation list and
// rederives the moderation flag. No retries happen here: a store fault is
// surfaced so the sender can redeliver the whole event. Associations that
// committed before a later fault stay committed.
func (p *Pipeline) Process(ctx context.Context, res ScanResult) error {
	if !res.IsValid {
		p.purge(ctx, res.ImageID)
		p.Metrics.IncrementEvents("purged")
		return nil
	}

	err := p.apply(ctx, res)
	switch {
	case err == nil:
		p.Metrics.IncrementEvents("ok")
	case errors.Is(err, ErrImageNotFound):
		p.Metrics.IncrementEvents("not_found")
	default:
		p.Metrics.IncrementEvents("fault")
	}
	return err
}

func (p *Pipeline) apply(ctx context.Context, res ScanResult) error {
	// Clearing first makes reprocessing idempotent: the automated set is
	// always rebuilt from scratch, never accumulated on top of stale rows.
	if err := p.Repo.DeleteAutomatedImageTags(ctx, res.ImageID); err != nil {
		return fmt.Errorf("clear automated tags: %w", err)
	}

	obs := Dedupe(res.Tags)
	if len(obs) > 0 {
		names := make([]string, 0, len(obs))
		for _, o := range obs {
			names = append(names, o.Name)
		}
		ids, err := p.Resolver.Resolve(ctx, names)
		if err != nil {
			return err
		}

		rows := make([]models.ImageTag, 0, len(obs))
		for _, o := range obs {
			id, ok := ids[o.Name]
			if !ok {
				continue
			}
			rows = append(rows, models.ImageTag{
				ImageID:    res.ImageID,
				TagID:      id,
				Confidence: o.Confidence,
				Automated:  true,
			})
		}
		if len(rows) > 0 {
			if err := p.Repo.UpsertImageTags(ctx, rows); err != nil {
				if exists, checkErr := p.Repo.ImageExists(ctx, res.ImageID); checkErr == nil && !exists {
					return ErrImageNotFound
				}
				return fmt.Errorf("upsert image tags: %w", err)
			}
		}
	}

	// Runs after the upsert commits since the derivation reads the
	// association table. The unsafe flag must track the current automated
	// set even when that set came out empty.
	touched, err := p.Repo.FinalizeImageScan(ctx, res.ImageID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("finalize image scan: %w", err)
	}
	if touched == 0 {
		return ErrImageNotFound
	}
	return nil
}

// purge deletes the image outright. Failures are swallowed: the desired end
// state is "image gone", and a row that is already absent, or that gets
// cleaned up elsewhere, satisfies it. The caller is always told success.
func (p *Pipeline) purge(ctx context.Context, imageID int64) {
	if err := p.Repo.DeleteImage(ctx, imageID); err != nil {
		if p.Logger != nil {
			p.Logger.Warn("image purge failed", zap.Int64("image_id", imageID), zap.Error(err))
		}
		return
	}
	p.Metrics.IncrementPurged()
}
