package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/timepiece/backend/internal/domain"
	"github.com/timepiece/backend/internal/infrastructure/logger"
	"github.com/timepiece/backend/internal/infrastructure/metrics"
)

// refreshKey is the single singleflight key; every refresh shares it
const refreshKey = "catalog"

// CatalogServiceConfig holds configuration for the catalog cache
type CatalogServiceConfig struct {
	TTL     time.Duration
	BaseURL string // used for the fallback catalog and status output
	Now     func() time.Time
}

// CatalogService holds the last extracted catalog snapshot.
// Snapshots are swapped atomically and refreshes are coalesced, so concurrent readers
// always see one complete snapshot and trigger at most one extraction at a time.
type CatalogService struct {
	source   domain.CatalogSource
	ttl      time.Duration
	baseURL  string
	now      func() time.Time
	logger   *zap.Logger
	metrics  *metrics.Metrics
	current  atomic.Pointer[domain.CatalogSnapshot]
	group    singleflight.Group
	shutdown atomic.Bool

	// extractions numbers every extraction at the moment it starts
	extractions atomic.Uint64
}

// flightResult is what a refresh flight hands to every caller sharing it.
// seq is zero when the flight reused a still-valid snapshot instead of extracting.
type flightResult struct {
	snapshot *domain.CatalogSnapshot
	seq      uint64
}

// NewCatalogService creates a catalog cache backed by source
func NewCatalogService(
	source domain.CatalogSource,
	config CatalogServiceConfig,
	log *zap.Logger,
	m *metrics.Metrics,
) *CatalogService {
	ttl := config.TTL
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &CatalogService{
		source:  source,
		ttl:     ttl,
		baseURL: config.BaseURL,
		now:     now,
		logger:  logger.OrNop(log).Named("catalog"),
		metrics: m,
	}
}

// GetCatalog returns the current snapshot, refreshing it first when missing or expired
func (s *CatalogService) GetCatalog(ctx context.Context) *domain.CatalogSnapshot {
	snapshot := s.current.Load()
	if snapshot != nil && (s.shutdown.Load() || !snapshot.ExpiredAt(s.now(), s.ttl)) {
		return snapshot
	}

	if s.shutdown.Load() {
		// Never refreshed and no longer allowed to; serve the placeholders
		return s.fallbackSnapshot()
	}

	s.logger.Debug("catalog missing or stale, refreshing")
	return s.refresh(ctx, false)
}

// ForceRefresh re-extracts the catalog regardless of staleness.
// A concurrent refresh already in flight is joined rather than duplicated.
func (s *CatalogService) ForceRefresh(ctx context.Context) *domain.CatalogSnapshot {
	s.logger.Info("forced catalog refresh")
	return s.refresh(ctx, true)
}

// Status summarizes the current snapshot for introspection
func (s *CatalogService) Status(ctx context.Context) domain.CatalogStatus {
	snapshot := s.GetCatalog(ctx)
	return domain.CatalogStatus{
		Count:     snapshot.Len(),
		Source:    string(snapshot.Source),
		Website:   s.baseURL,
		FetchedAt: snapshot.FetchedAt,
	}
}

// Shutdown stops further refreshes; reads keep returning the last snapshot
func (s *CatalogService) Shutdown() {
	s.shutdown.Store(true)
	s.logger.Info("catalog service shut down")
}

// refresh runs one coalesced extraction and installs its result.
// Unforced refreshes re-check the snapshot first: a flight that finished between the
// caller's staleness check and this call has already done the work. Forced refreshes only
// accept a flight whose extraction started after they were requested.
func (s *CatalogService) refresh(ctx context.Context, force bool) *domain.CatalogSnapshot {
	// The flight is shared, so one caller going away must not cancel it for the others
	flightCtx := context.WithoutCancel(ctx)
	floor := s.extractions.Load()

	for {
		v, _, shared := s.group.Do(refreshKey, func() (interface{}, error) {
			if !force {
				if current := s.current.Load(); current != nil && !current.ExpiredAt(s.now(), s.ttl) {
					return flightResult{snapshot: current}, nil
				}
			}
			seq := s.extractions.Add(1)
			return flightResult{snapshot: s.extractAndInstall(flightCtx), seq: seq}, nil
		})
		result := v.(flightResult)
		if shared {
			s.logger.Debug("joined in-flight catalog refresh")
		}
		if !force || result.seq > floor {
			return result.snapshot
		}
		s.logger.Debug("joined refresh started before the forced request, extracting again")
	}
}

// extractAndInstall builds the next snapshot and swaps it in
func (s *CatalogService) extractAndInstall(ctx context.Context) *domain.CatalogSnapshot {
	start := s.now()
	products, err := s.source.Extract(ctx)

	var next *domain.CatalogSnapshot
	if err != nil {
		next = s.degradedSnapshot(err)
	} else {
		next = &domain.CatalogSnapshot{
			Products:  products,
			FetchedAt: s.now(),
			Source:    domain.SourceWebsite,
		}
		s.logger.Info("catalog refreshed",
			zap.Int("products", len(products)),
			zap.Duration("took", s.now().Sub(start)),
		)
	}

	s.current.Store(next)
	s.metrics.ObserveRefresh(string(next.Source), next.Len(), float64(next.FetchedAt.Unix()))
	return next
}

// degradedSnapshot keeps the last real products after a failed extraction, or installs the
// placeholder catalog when no extraction has ever succeeded. Either way it is timestamped so
// the next real attempt happens after one more TTL.
func (s *CatalogService) degradedSnapshot(err error) *domain.CatalogSnapshot {
	previous := s.current.Load()
	if previous != nil && previous.Source != domain.SourceFallback {
		s.logger.Warn("catalog refresh failed, keeping previous products",
			zap.Error(err),
			zap.Int("products", previous.Len()),
			zap.Time("previous_fetched_at", previous.FetchedAt),
		)
		return &domain.CatalogSnapshot{
			Products:  previous.Products,
			FetchedAt: s.now(),
			Source:    domain.SourceStale,
		}
	}

	s.logger.Warn("catalog refresh failed, installing fallback catalog", zap.Error(err))
	return s.fallbackSnapshot()
}

func (s *CatalogService) fallbackSnapshot() *domain.CatalogSnapshot {
	return &domain.CatalogSnapshot{
		Products:  domain.FallbackProducts(s.baseURL),
		FetchedAt: s.now(),
		Source:    domain.SourceFallback,
	}
}
