package tagging

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"imagetagger/internal/metrics"
	"imagetagger/internal/models"
	"imagetagger/internal/repository"
)

// Resolver maps canonical tag names to persistent identifiers: cache first,
// then one batched store lookup, then one batched creation plus requery for
// whatever is still missing. The store's unique name constraint is the
// arbiter when two invocations race to create the same tag: the loser's
// insert is a no-op and the requery picks up the winner's row.
type Resolver struct {
	Cache   Cache
	Repo    repository.Repository
	Logger  *zap.Logger
	Metrics *metrics.ScanMetrics
}

// Resolve returns an identifier for each name it can account for. Names the
// store cannot hand back even after creation are excluded from the result
// rather than failing the call; only store round-trip errors are returned.
func (r *Resolver) Resolve(ctx context.Context, names []string) (map[string]uint64, error) {
	resolved := make(map[string]uint64, len(names))
	missing := make([]string, 0, len(names))
	for _, name := range names {
		if id, ok := r.Cache.Lookup(name); ok {
			resolved[name] = id
			continue
		}
		missing = append(missing, name)
	}
	r.Metrics.AddCacheHits(len(names) - len(missing))
	r.Metrics.AddCacheMisses(len(missing))
	if len(missing) == 0 {
		return resolved, nil
	}

	found, err := r.Repo.FindTagsByNames(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("find tags by name: %w", err)
	}
	missing = r.absorb(resolved, found, missing)
	if len(missing) == 0 {
		return resolved, nil
	}

	items := make([]models.Tag, 0, len(missing))
	for _, name := range missing {
		items = append(items, models.Tag{
			Name:   name,
			Type:   models.TagTypeLabel,
			Target: models.AllTargets(),
		})
	}
	if err := r.Repo.CreateTags(ctx, items); err != nil {
		return nil, fmt.Errorf("create tags: %w", err)
	}
	r.Metrics.AddTagsCreated(len(items))

	// The creation call does not report assigned identifiers; requery
	// exactly the names that were just inserted.
	found, err = r.Repo.FindTagsByNames(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("requery created tags: %w", err)
	}
	missing = r.absorb(resolved, found, missing)
	if len(missing) > 0 {
		r.Metrics.AddTagsDropped(len(missing))
		if r.Logger != nil {
			r.Logger.Warn("tags unresolved after create", zap.Strings("names", missing))
		}
	}
	return resolved, nil
}

// absorb records found tags into the result set and the cache and returns
// the names still unresolved.
func (r *Resolver) absorb(resolved map[string]uint64, found []models.Tag, names []string) []string {
	for _, tag := range found {
		resolved[tag.Name] = tag.ID
		r.Cache.Put(tag.Name, tag.ID)
	}
	remaining := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := resolved[name]; !ok {
			remaining = append(remaining, name)
		}
	}
	return remaining
}
