package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/jrybusiness/stylerental-backend/internal/platform/logger"
	"github.com/jrybusiness/stylerental-backend/internal/platform/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Limits struct {
	MaxUploadFiles  int
	MaxUploadBytes  int64
	PageSizeDefault int64
	PageSizeMax     int64
}

// ListingDeps wires the usecase. Favorites, Cache, Publisher and Notifier are optional.
type ListingDeps struct {
	Repo      domain.ListingRepository
	Favorites domain.FavoriteRepository
	Store     domain.ContentStore
	Cache     domain.ListingCache
	Publisher domain.EventPublisher
	Notifier  domain.ListingNotifier
	Metrics   *metrics.MetricsManager
	Logger    *logger.Logger
	Limits    Limits
}

type SearchResult struct {
	Items []*domain.Listing
	Total int64
	Page  int64
	Limit int64
}

type ListingUsecase struct {
	repo      domain.ListingRepository
	favorites domain.FavoriteRepository
	photos    *PhotoUsecase
	cache     domain.ListingCache
	publisher domain.EventPublisher
	notifier  domain.ListingNotifier
	metrics   *metrics.MetricsManager
	logger    *logger.Logger
	limits    Limits
	tracer    trace.Tracer
	now       func() time.Time
}

func NewListingUsecase(deps ListingDeps) *ListingUsecase {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.NewMetricsManager("stylerental")
	}
	limits := deps.Limits
	if limits.PageSizeDefault < 1 {
		limits.PageSizeDefault = 8
	}
	if limits.PageSizeMax < limits.PageSizeDefault {
		limits.PageSizeMax = limits.PageSizeDefault
	}
	uc := &ListingUsecase{
		repo:      deps.Repo,
		favorites: deps.Favorites,
		photos:    NewPhotoUsecase(deps.Store, m, log),
		cache:     deps.Cache,
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		metrics:   m,
		logger:    log,
		limits:    limits,
		tracer:    otel.Tracer("listing-usecase"),
		now:       time.Now,
	}
	if uc.cache == nil {
		uc.cache = noopCache{}
	}
	if uc.publisher == nil {
		uc.publisher = noopPublisher{}
	}
	return uc
}

func (uc *ListingUsecase) Create(ctx context.Context, caller domain.Caller, input domain.ListingInput, uploads []domain.Upload) (*domain.Listing, error) {
	ctx, span := uc.tracer.Start(ctx, "ListingUsecase.Create", trace.WithAttributes(attribute.String("caller.id", caller.ID)))
	defer span.End()

	uc.logger.Info("ListingUsecase.Create: creating listing", "user_id", caller.ID, "uploads", len(uploads))

	if AuthorizeCreate(caller) != Allowed {
		uc.logger.Warn("ListingUsecase.Create: caller may not create listings", "user_id", caller.ID, "role", string(caller.Role))
		return nil, domain.ErrForbidden
	}

	verr := &domain.ValidationError{}
	listing := newListingFromInput(input, verr)
	validateUploads(uploads, uc.limits.MaxUploadFiles, uc.limits.MaxUploadBytes, verr)
	if !verr.Empty() {
		uc.logger.Info("ListingUsecase.Create: rejected input", "user_id", caller.ID, "fields", verr.Fields)
		return nil, verr
	}

	// Side effects below run to completion even if the client goes away.
	opCtx := context.WithoutCancel(ctx)

	keys, err := uc.photos.StoreAll(opCtx, uploads)
	if err != nil {
		recordErr(span, err)
		uc.logger.Error("ListingUsecase.Create: failed to store images", "user_id", caller.ID, "error", err.Error())
		return nil, err
	}

	now := uc.now()
	listing.OwnerID = caller.ID
	listing.OwnerUsername = caller.Username
	listing.Images = keys
	if listing.Images == nil {
		listing.Images = []string{}
	}
	listing.Version = 1
	listing.CreatedAt = now
	listing.UpdatedAt = now

	if err := uc.repo.Create(opCtx, listing); err != nil {
		recordErr(span, err)
		uc.logger.Error("ListingUsecase.Create: failed to persist listing, removing stored images", "user_id", caller.ID, "error", err.Error())
		uc.reportOrphans("create", "", uc.photos.Purge(opCtx, keys))
		return nil, fmt.Errorf("create listing: %w", err)
	}

	uc.metrics.ListingsCreatedTotal.Inc()
	span.SetAttributes(attribute.String("listing.id", listing.ID))
	uc.logger.Info("ListingUsecase.Create: listing created", "listing_id", listing.ID, "user_id", caller.ID, "images", len(keys))

	if err := uc.cache.SetListing(opCtx, listing); err != nil {
		uc.logger.Warn("ListingUsecase.Create: failed to cache listing", "listing_id", listing.ID, "error", err.Error())
	}
	uc.publish(opCtx, domain.SubjectListingCreated, uc.event(listing, nil))
	uc.notifyCreated(opCtx, caller, listing)
	return listing, nil
}

func (uc *ListingUsecase) Update(ctx context.Context, caller domain.Caller, id string, patch domain.ListingPatch, uploads []domain.Upload) (*domain.Listing, error) {
	ctx, span := uc.tracer.Start(ctx, "ListingUsecase.Update", trace.WithAttributes(
		attribute.String("listing.id", id),
		attribute.String("caller.id", caller.ID),
	))
	defer span.End()

	uc.logger.Info("ListingUsecase.Update: updating listing", "listing_id", id, "user_id", caller.ID,
		"delete_images", len(patch.DeleteImages), "uploads", len(uploads))

	if !caller.Role.CanList() {
		uc.logger.Warn("ListingUsecase.Update: role may not edit listings", "listing_id", id, "user_id", caller.ID, "role", string(caller.Role))
		return nil, domain.ErrForbidden
	}

	current, err := uc.find(ctx, id)
	if err != nil {
		recordErr(span, err)
		return nil, err
	}
	if Authorize(caller, current) != Allowed {
		uc.logger.Warn("ListingUsecase.Update: forbidden to update listing",
			"listing_id", id, "listing_owner_id", current.OwnerID, "user_id", caller.ID, "role", string(caller.Role))
		return nil, domain.ErrForbidden
	}

	next := current.Clone()
	verr := &domain.ValidationError{}
	applyPatch(next, patch, verr)
	validateUploads(uploads, uc.limits.MaxUploadFiles, uc.limits.MaxUploadBytes, verr)
	if !verr.Empty() {
		uc.logger.Info("ListingUsecase.Update: rejected input", "listing_id", id, "fields", verr.Fields)
		return nil, verr
	}

	opCtx := context.WithoutCancel(ctx)

	newKeys, err := uc.photos.StoreAll(opCtx, uploads)
	if err != nil {
		recordErr(span, err)
		uc.logger.Error("ListingUsecase.Update: failed to store images", "listing_id", id, "error", err.Error())
		return nil, err
	}

	var purge []string
	next.Images, purge = ReconcileImages(current.Images, patch.DeleteImages, newKeys)
	next.UpdatedAt = uc.now()

	if err := uc.repo.Update(opCtx, next); err != nil {
		recordErr(span, err)
		uc.logger.Error("ListingUsecase.Update: failed to persist listing, removing new images",
			"listing_id", id, "new_images", len(newKeys), "error", err.Error())
		uc.reportOrphans("update", id, uc.photos.Purge(opCtx, newKeys))
		return nil, fmt.Errorf("update listing %s: %w", id, err)
	}

	// Invalidate before purging so no reader is handed a key that is about to vanish.
	if err := uc.cache.DeleteListing(opCtx, id, next.Version); err != nil {
		uc.logger.Warn("ListingUsecase.Update: failed to invalidate cache", "listing_id", id, "error", err.Error())
	}
	// The record no longer references purge, so the blobs can go.
	uc.reportOrphans("update", id, uc.photos.Purge(opCtx, purge))

	uc.metrics.ListingUpdatesTotal.Inc()
	uc.logger.Info("ListingUsecase.Update: listing updated", "listing_id", id, "version", next.Version,
		"images", len(next.Images), "purged", len(purge))

	uc.publish(opCtx, domain.SubjectListingUpdated, uc.event(next, purge))
	return next, nil
}

func (uc *ListingUsecase) Delete(ctx context.Context, caller domain.Caller, id string) error {
	ctx, span := uc.tracer.Start(ctx, "ListingUsecase.Delete", trace.WithAttributes(
		attribute.String("listing.id", id),
		attribute.String("caller.id", caller.ID),
	))
	defer span.End()

	uc.logger.Info("ListingUsecase.Delete: deleting listing", "listing_id", id, "user_id", caller.ID)

	if !caller.Role.CanList() {
		uc.logger.Warn("ListingUsecase.Delete: role may not delete listings", "listing_id", id, "user_id", caller.ID, "role", string(caller.Role))
		return domain.ErrForbidden
	}

	current, err := uc.find(ctx, id)
	if err != nil {
		recordErr(span, err)
		return err
	}
	if Authorize(caller, current) != Allowed {
		uc.logger.Warn("ListingUsecase.Delete: forbidden to delete listing",
			"listing_id", id, "listing_owner_id", current.OwnerID, "user_id", caller.ID, "role", string(caller.Role))
		return domain.ErrForbidden
	}

	opCtx := context.WithoutCancel(ctx)

	if err := uc.repo.Delete(opCtx, id); err != nil {
		recordErr(span, err)
		uc.logger.Error("ListingUsecase.Delete: failed to delete listing in repo", "listing_id", id, "error", err.Error())
		return fmt.Errorf("delete listing %s: %w", id, err)
	}

	// A deleted record counts as one version past the last stored one.
	if err := uc.cache.DeleteListing(opCtx, id, current.Version+1); err != nil {
		uc.logger.Warn("ListingUsecase.Delete: failed to invalidate cache", "listing_id", id, "error", err.Error())
	}

	purge := uniqueKeys(current.Images)
	uc.reportOrphans("delete", id, uc.photos.Purge(opCtx, purge))

	if uc.favorites != nil {
		if n, err := uc.favorites.DeleteByListingID(opCtx, id); err != nil {
			uc.logger.Warn("ListingUsecase.Delete: failed to remove favorites", "listing_id", id, "error", err.Error())
		} else if n > 0 {
			uc.logger.Debug("ListingUsecase.Delete: removed favorites", "listing_id", id, "count", n)
		}
	}

	uc.metrics.ListingDeletesTotal.Inc()
	uc.publish(opCtx, domain.SubjectListingDeleted, uc.event(current, purge))
	uc.logger.Info("ListingUsecase.Delete: listing deleted", "listing_id", id, "purged", len(purge))
	return nil
}

// Get serves from the cache when possible and fills it on a miss. The cache
// drops a fill whose version is older than the last invalidation, so a slow
// reader cannot put back a record an update already replaced.
func (uc *ListingUsecase) Get(ctx context.Context, id string) (*domain.Listing, error) {
	cached, err := uc.cache.GetListing(ctx, id)
	if err != nil {
		uc.logger.Warn("ListingUsecase.Get: cache read failed", "listing_id", id, "error", err.Error())
	}
	if cached != nil {
		return cached, nil
	}

	listing, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.cache.SetListing(ctx, listing); err != nil {
		uc.logger.Warn("ListingUsecase.Get: failed to cache listing", "listing_id", id, "error", err.Error())
	}
	return listing, nil
}

func (uc *ListingUsecase) Search(ctx context.Context, filter domain.Filter) (*SearchResult, error) {
	filter = uc.normalizeFilter(filter)
	uc.logger.Debug("ListingUsecase.Search: searching listings", "filter", fmt.Sprintf("%+v", filter))

	items, total, err := uc.repo.FindByFilter(ctx, filter)
	if err != nil {
		uc.logger.Error("ListingUsecase.Search: failed to search listings", "filter", fmt.Sprintf("%+v", filter), "error", err.Error())
		return nil, fmt.Errorf("search listings: %w", err)
	}
	if items == nil {
		items = []*domain.Listing{}
	}
	return &SearchResult{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// AuditImages lists the image keys of a listing whose blob is gone from the store.
func (uc *ListingUsecase) AuditImages(ctx context.Context, caller domain.Caller, id string) ([]string, error) {
	if !caller.Role.CanList() {
		return nil, domain.ErrForbidden
	}
	current, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if Authorize(caller, current) != Allowed {
		return nil, domain.ErrForbidden
	}
	missing, err := uc.photos.Missing(ctx, current.Images)
	if err != nil {
		uc.logger.Error("ListingUsecase.AuditImages: store check failed", "listing_id", id, "error", err.Error())
		return nil, err
	}
	if len(missing) > 0 {
		uc.logger.Warn("ListingUsecase.AuditImages: listing references missing images", "listing_id", id, "missing", missing)
	}
	return missing, nil
}

func (uc *ListingUsecase) ImageURL(key string) string {
	return uc.photos.URLFor(key)
}

func (uc *ListingUsecase) find(ctx context.Context, id string) (*domain.Listing, error) {
	listing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			uc.logger.Debug("ListingUsecase: listing not found", "listing_id", id)
			return nil, domain.ErrListingNotFound
		}
		uc.logger.Error("ListingUsecase: failed to find listing", "listing_id", id, "error", err.Error())
		return nil, fmt.Errorf("find listing %s: %w", id, err)
	}
	if listing == nil {
		return nil, domain.ErrListingNotFound
	}
	return listing, nil
}

func (uc *ListingUsecase) normalizeFilter(f domain.Filter) domain.Filter {
	f.Query = strings.TrimSpace(f.Query)
	f.Occasion = strings.TrimSpace(f.Occasion)
	f.Gender = strings.TrimSpace(f.Gender)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = uc.limits.PageSizeDefault
	}
	if f.Limit > uc.limits.PageSizeMax {
		f.Limit = uc.limits.PageSizeMax
	}
	return f
}

// reportOrphans sends purge failures to the log, the failure counter and the event bus.
// They never change the outcome of the operation.
func (uc *ListingUsecase) reportOrphans(operation, listingID string, failures []PurgeFailure) {
	for _, f := range failures {
		uc.logger.Error("ListingUsecase: image left orphaned in content store",
			"operation", operation, "listing_id", listingID, "key", f.Key, "error", f.Err.Error())
		uc.metrics.ImagePurgeFailuresTotal.WithLabelValues(operation).Inc()
		uc.publish(context.Background(), domain.SubjectImageOrphaned, domain.ImageOrphanedEvent{
			ListingID:  listingID,
			Key:        f.Key,
			Reason:     f.Err.Error(),
			OccurredAt: uc.now(),
		})
	}
}

func (uc *ListingUsecase) publish(ctx context.Context, subject string, payload interface{}) {
	if err := uc.publisher.Publish(ctx, subject, payload); err != nil {
		uc.logger.Warn("ListingUsecase: failed to publish event", "subject", subject, "error", err.Error())
	}
}

func (uc *ListingUsecase) event(l *domain.Listing, purged []string) domain.ListingEvent {
	return domain.ListingEvent{
		ListingID:  l.ID,
		OwnerID:    l.OwnerID,
		Images:     l.Images,
		Purged:     purged,
		Version:    l.Version,
		OccurredAt: uc.now(),
	}
}

func (uc *ListingUsecase) notifyCreated(ctx context.Context, caller domain.Caller, l *domain.Listing) {
	if uc.notifier == nil || !strings.Contains(caller.Username, "@") {
		return
	}
	if err := uc.notifier.NotifyListingCreated(ctx, caller.Username, l); err != nil {
		uc.logger.Warn("ListingUsecase.Create: failed to send notification", "listing_id", l.ID, "recipient", caller.Username, "error", err.Error())
	}
}

func recordErr(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

type noopCache struct{}

func (noopCache) GetListing(context.Context, string) (*domain.Listing, error) { return nil, nil }
func (noopCache) SetListing(context.Context, *domain.Listing) error           { return nil }
func (noopCache) DeleteListing(context.Context, string, int64) error          { return nil }

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, interface{}) error { return nil }
