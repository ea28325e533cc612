package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/timepiece/backend/internal/domain"
	"github.com/timepiece/backend/internal/infrastructure/logger"
	"github.com/timepiece/backend/internal/infrastructure/metrics"
)

// Tier names, in evaluation order
const (
	TierExact  = "exact"
	TierBrand  = "brand"
	TierSearch = "search"
	tierNone   = "none"
)

// CatalogProvider supplies the current catalog snapshot
type CatalogProvider interface {
	GetCatalog(ctx context.Context) *domain.CatalogSnapshot
}

// normalizedQuery is a match query lower-cased once for substring checks
type normalizedQuery struct {
	raw   domain.MatchQuery
	brand string
	model string
}

func normalizeQuery(q domain.MatchQuery) normalizedQuery {
	return normalizedQuery{
		raw:   q,
		brand: strings.ToLower(q.Brand),
		model: strings.ToLower(q.Model),
	}
}

// matchTier is one matching strategy; find returns nil when the tier has no answer
type matchTier struct {
	name string
	find func(ctx context.Context, products []domain.Product, q normalizedQuery) *domain.Product
}

// MatchingService resolves a (brand, model) query to a catalog product
type MatchingService struct {
	catalog  CatalogProvider
	searcher domain.ProductSearcher
	tiers    []matchTier
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewMatchingService creates a matcher reading from catalog.
// searcher may be nil, which disables the live search tier.
func NewMatchingService(
	catalog CatalogProvider,
	searcher domain.ProductSearcher,
	log *zap.Logger,
	m *metrics.Metrics,
) *MatchingService {
	s := &MatchingService{
		catalog:  catalog,
		searcher: searcher,
		logger:   logger.OrNop(log).Named("matcher"),
		metrics:  m,
	}
	s.tiers = []matchTier{
		{name: TierExact, find: exactMatch},
		{name: TierBrand, find: brandMatch},
		{name: TierSearch, find: s.liveSearch},
	}
	return s
}

// Match runs the tiers in order against a single catalog snapshot and returns the first hit.
// Returns domain.ErrNoMatch when every tier comes up empty.
func (s *MatchingService) Match(ctx context.Context, query domain.MatchQuery) (*domain.Product, error) {
	q := normalizeQuery(query)
	products := s.catalog.GetCatalog(ctx).Products

	s.logger.Debug("matching",
		zap.String("brand", query.Brand),
		zap.String("model", query.Model),
		zap.Int("catalog_size", len(products)),
	)

	for _, tier := range s.tiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if product := tier.find(ctx, products, q); product != nil {
			s.logger.Info("match found",
				zap.String("tier", tier.name),
				zap.String("title", product.Title),
				zap.String("url", product.URL),
			)
			s.metrics.ObserveMatch(tier.name)
			return product, nil
		}
	}

	s.logger.Info("no matching product", zap.String("brand", query.Brand), zap.String("model", query.Model))
	s.metrics.ObserveMatch(tierNone)
	return nil, domain.ErrNoMatch
}

// exactMatch returns the first product whose title contains both brand and model.
// An empty model matches every title, reducing this tier to a brand check.
func exactMatch(_ context.Context, products []domain.Product, q normalizedQuery) *domain.Product {
	for i := range products {
		title := strings.ToLower(products[i].Title)
		if strings.Contains(title, q.brand) && strings.Contains(title, q.model) {
			p := products[i]
			return &p
		}
	}
	return nil
}

// brandMatch returns the first product whose title contains the brand
func brandMatch(_ context.Context, products []domain.Product, q normalizedQuery) *domain.Product {
	for i := range products {
		if strings.Contains(strings.ToLower(products[i].Title), q.brand) {
			p := products[i]
			return &p
		}
	}
	return nil
}

// liveSearch asks the storefront directly. Only attempted with a brand; failures are logged
// and treated as no match.
func (s *MatchingService) liveSearch(ctx context.Context, _ []domain.Product, q normalizedQuery) *domain.Product {
	if s.searcher == nil || q.raw.Brand == "" {
		return nil
	}

	product, err := s.searcher.Search(ctx, q.raw.Brand, q.raw.Model)
	if err != nil {
		if errors.Is(err, domain.ErrNoMatch) {
			s.logger.Debug("live search found nothing", zap.String("brand", q.raw.Brand))
		} else {
			s.logger.Warn("live search failed", zap.String("brand", q.raw.Brand), zap.Error(err))
		}
		return nil
	}
	return product
}
