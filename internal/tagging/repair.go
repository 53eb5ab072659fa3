package tagging

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"imagetagger/internal/metrics"
	"imagetagger/internal/repository"
)

// ScanRepairer retries the scanned-stamp/unsafe derivation for images whose
// association rows committed but whose flag update never landed. It exists
// because the pipeline accepts that partial success and leaves the retry to
// run out-of-band.
type ScanRepairer struct {
	Repo    repository.Repository
	Logger  *zap.Logger
	Metrics *metrics.ScanMetrics
	MinAge  time.Duration
	Batch   int
}

func (s *ScanRepairer) Run(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.MinAge)
	ids, err := s.Repo.ListUnfinalizedImageIDs(ctx, cutoff, s.Batch)
	if err != nil {
		return 0, fmt.Errorf("list unfinalized images: %w", err)
	}
	repaired := 0
	for _, id := range ids {
		rows, err := s.Repo.FinalizeImageScan(ctx, id, time.Now().UTC())
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warn("scan repair failed", zap.Int64("image_id", id), zap.Error(err))
			}
			continue
		}
		if rows == 0 {
			// image deleted between the sweep listing and the update
			continue
		}
		repaired++
	}
	s.Metrics.AddScansRepaired(repaired)
	return repaired, nil
}
