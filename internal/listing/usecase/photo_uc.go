package usecase

import (
	"context"
	"fmt"

	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
	"github.com/jrybusiness/stylerental-backend/internal/platform/metrics"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentPuts = 4

// PurgeFailure is a key that is no longer referenced but still present in the store.
type PurgeFailure struct {
	Key string
	Err error
}

// PhotoUsecase moves image bytes in and out of the content store.
type PhotoUsecase struct {
	store   domain.ContentStore
	metrics *metrics.MetricsManager
	logger  *logger.Logger
}

func NewPhotoUsecase(store domain.ContentStore, m *metrics.MetricsManager, log *logger.Logger) *PhotoUsecase {
	return &PhotoUsecase{store: store, metrics: m, logger: log}
}

// StoreAll writes every upload and returns the keys in upload order. All
// writes are awaited; if any fails the ones that succeeded are removed again.
func (uc *PhotoUsecase) StoreAll(ctx context.Context, uploads []domain.Upload) ([]string, error) {
	if len(uploads) == 0 {
		return nil, nil
	}

	keys := make([]string, len(uploads))
	var g errgroup.Group
	g.SetLimit(maxConcurrentPuts)
	for i, u := range uploads {
		g.Go(func() error {
			key, err := uc.store.Put(ctx, u.Data, u.Filename)
			if err != nil {
				return fmt.Errorf("%w: put %q: %w", domain.ErrStoreFailure, u.Filename, err)
			}
			keys[i] = key
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var stored []string
		for _, k := range keys {
			if k != "" {
				stored = append(stored, k)
			}
		}
		uc.logger.Warn("PhotoUsecase.StoreAll: rolling back stored images", "stored", len(stored), "requested", len(uploads), "error", err.Error())
		for _, f := range uc.Purge(ctx, stored) {
			uc.logger.Error("PhotoUsecase.StoreAll: rollback left an orphaned image", "key", f.Key, "error", f.Err.Error())
		}
		return nil, err
	}

	uc.metrics.ImagesStoredTotal.Add(float64(len(keys)))
	return keys, nil
}

// Purge deletes keys one by one, continuing past failures, and reports what could not be deleted.
func (uc *PhotoUsecase) Purge(ctx context.Context, keys []string) []PurgeFailure {
	var failures []PurgeFailure
	for _, key := range keys {
		if err := uc.store.Delete(ctx, key); err != nil {
			failures = append(failures, PurgeFailure{Key: key, Err: err})
			continue
		}
		uc.logger.Debug("PhotoUsecase.Purge: image removed", "key", key)
	}
	return failures
}

// Missing returns the keys whose blob no longer exists.
func (uc *PhotoUsecase) Missing(ctx context.Context, keys []string) ([]string, error) {
	missing := []string{}
	for _, key := range uniqueKeys(keys) {
		ok, err := uc.store.Exists(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("%w: stat %q: %w", domain.ErrStoreFailure, key, err)
		}
		if !ok {
			missing = append(missing, key)
		}
	}
	return missing, nil
}

func (uc *PhotoUsecase) URLFor(key string) string {
	return uc.store.URLFor(key)
}
