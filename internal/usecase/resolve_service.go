package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/timepiece/backend/internal/domain"
	"github.com/timepiece/backend/internal/infrastructure/logger"
	"github.com/timepiece/backend/internal/infrastructure/metrics"
)

// Resolution outcomes, used as metric labels
const (
	outcomeMatched          = "matched"
	outcomeNoMatch          = "no_match"
	outcomeLowConfidence    = "low_confidence"
	outcomeClassifierFailed = "classifier_failed"
	outcomeOutOfStock       = "out_of_stock"
)

// Matcher resolves a query to a product
type Matcher interface {
	Match(ctx context.Context, query domain.MatchQuery) (*domain.Product, error)
}

// ResolveService orchestrates classify -> match and exposes catalog introspection
type ResolveService struct {
	classifier domain.Classifier
	matcher    Matcher
	catalog    *CatalogService
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewResolveService creates the resolver facade consumed by the transport layer
func NewResolveService(
	classifier domain.Classifier,
	matcher Matcher,
	catalog *CatalogService,
	log *zap.Logger,
	m *metrics.Metrics,
) *ResolveService {
	return &ResolveService{
		classifier: classifier,
		matcher:    matcher,
		catalog:    catalog,
		logger:     logger.OrNop(log).Named("resolver"),
		metrics:    m,
	}
}

// Resolve identifies the watch in imageRef and returns its catalog listing.
// Every failure, including a low-confidence identification, is reported as domain.ErrNoMatch.
func (s *ResolveService) Resolve(ctx context.Context, imageRef string) (*domain.Product, error) {
	if strings.TrimSpace(imageRef) == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrNoMatch, domain.ErrInvalidRequest)
	}

	guess, err := s.classifier.Classify(ctx, imageRef)
	if err != nil {
		s.logger.Warn("classification failed", zap.Error(err))
		s.metrics.ObserveResolution(outcomeClassifierFailed)
		return nil, fmt.Errorf("%w: %w", domain.ErrNoMatch, err)
	}

	if guess == nil || guess.Confidence != domain.ConfidenceHigh {
		s.logger.Info("identification not confident enough, skipping match")
		s.metrics.ObserveResolution(outcomeLowConfidence)
		return nil, domain.ErrNoMatch
	}

	s.logger.Info("watch identified",
		zap.String("brand", guess.Brand),
		zap.String("canonical_brand", domain.CanonicalBrand(guess.Brand)),
		zap.String("model", guess.Model),
	)

	product, err := s.matcher.Match(ctx, domain.QueryFromGuess(guess))
	if err != nil {
		s.metrics.ObserveResolution(outcomeNoMatch)
		if errors.Is(err, domain.ErrNoMatch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrNoMatch, err)
	}

	if !product.InStock {
		s.metrics.ObserveResolution(outcomeOutOfStock)
		return nil, domain.ErrNoMatch
	}

	s.metrics.ObserveResolution(outcomeMatched)
	return product, nil
}

// Snapshot reports the size and origin of the current catalog
func (s *ResolveService) Snapshot(ctx context.Context) domain.CatalogStatus {
	return s.catalog.Status(ctx)
}

// Refresh forces an immediate re-extraction
func (s *ResolveService) Refresh(ctx context.Context) domain.RefreshResult {
	return domain.RefreshResult{Count: s.catalog.ForceRefresh(ctx).Len()}
}

// Products returns up to limit products from the current catalog; limit <= 0 means all
func (s *ResolveService) Products(ctx context.Context, limit int) []domain.Product {
	products := s.catalog.GetCatalog(ctx).Products
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	out := make([]domain.Product, len(products))
	copy(out, products)
	return out
}
