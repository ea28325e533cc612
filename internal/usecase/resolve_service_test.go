package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timepiece/backend/internal/domain"
	"github.com/timepiece/backend/internal/infrastructure/metrics"
)

const testImage = "https://media.example.com/watch.jpg"

func newTestResolver(classifier domain.Classifier, matcher Matcher, source domain.CatalogSource, m *metrics.Metrics) *ResolveService {
	catalog := NewCatalogService(source, CatalogServiceConfig{
		TTL:     6 * time.Hour,
		BaseURL: testWebsite,
		Now:     newFakeClock().Now,
	}, nil, m)
	return NewResolveService(classifier, matcher, catalog, nil, m)
}

func TestResolve_LowConfidenceSkipsMatcher(t *testing.T) {
	classifier := &fakeClassifier{guess: &domain.ClassifierGuess{Brand: "Rolex", Model: "Daytona", Confidence: domain.ConfidenceLow}}
	matcher := &fakeMatcher{product: &domain.Product{Title: "Rolex Daytona", URL: "https://x/1", InStock: true}}
	m := metrics.New()
	svc := newTestResolver(classifier, matcher, &fakeSource{}, m)

	got, err := svc.Resolve(context.Background(), testImage)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrNoMatch)
	assert.Equal(t, 0, matcher.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues(outcomeLowConfidence)))
}

func TestResolve_ClassifierFailureIsNotFound(t *testing.T) {
	classifier := &fakeClassifier{err: domain.ErrClassifierFailure}
	matcher := &fakeMatcher{}
	svc := newTestResolver(classifier, matcher, &fakeSource{}, nil)

	_, err := svc.Resolve(context.Background(), testImage)

	assert.ErrorIs(t, err, domain.ErrNoMatch)
	assert.ErrorIs(t, err, domain.ErrClassifierFailure)
	assert.Equal(t, 0, matcher.calls)
}

func TestResolve_EmptyImageReference(t *testing.T) {
	classifier := &fakeClassifier{}
	svc := newTestResolver(classifier, &fakeMatcher{}, &fakeSource{}, nil)

	_, err := svc.Resolve(context.Background(), "  ")

	assert.ErrorIs(t, err, domain.ErrNoMatch)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Equal(t, 0, classifier.calls)
}

func TestResolve_HighConfidenceMatches(t *testing.T) {
	classifier := &fakeClassifier{guess: &domain.ClassifierGuess{Brand: "Omega", Model: "Seamaster 300", Confidence: domain.ConfidenceHigh}}
	want := &domain.Product{Title: "Omega Seamaster 300", URL: "https://x/omega", InStock: true}
	matcher := &fakeMatcher{product: want}
	m := metrics.New()
	svc := newTestResolver(classifier, matcher, &fakeSource{}, m)

	got, err := svc.Resolve(context.Background(), testImage)

	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Equal(t, domain.MatchQuery{Brand: "Omega", Model: "Seamaster 300"}, matcher.query)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues(outcomeMatched)))
}

func TestResolve_NoMatch(t *testing.T) {
	classifier := &fakeClassifier{guess: &domain.ClassifierGuess{Brand: "Seiko", Confidence: domain.ConfidenceHigh}}
	svc := newTestResolver(classifier, &fakeMatcher{err: domain.ErrNoMatch}, &fakeSource{}, nil)

	_, err := svc.Resolve(context.Background(), testImage)

	assert.ErrorIs(t, err, domain.ErrNoMatch)
}

func TestResolve_MatcherErrorsBecomeNotFound(t *testing.T) {
	classifier := &fakeClassifier{guess: &domain.ClassifierGuess{Brand: "Rolex", Confidence: domain.ConfidenceHigh}}
	svc := newTestResolver(classifier, &fakeMatcher{err: context.DeadlineExceeded}, &fakeSource{}, nil)

	_, err := svc.Resolve(context.Background(), testImage)

	assert.ErrorIs(t, err, domain.ErrNoMatch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolve_OutOfStockIsNotFound(t *testing.T) {
	classifier := &fakeClassifier{guess: &domain.ClassifierGuess{Brand: "Rolex", Confidence: domain.ConfidenceHigh}}
	matcher := &fakeMatcher{product: &domain.Product{Title: "Rolex GMT", URL: "https://x/gmt", InStock: false}}
	svc := newTestResolver(classifier, matcher, &fakeSource{}, nil)

	_, err := svc.Resolve(context.Background(), testImage)

	assert.ErrorIs(t, err, domain.ErrNoMatch)
}

func TestResolve_EndToEndWithFallbackCatalog(t *testing.T) {
	source := &fakeSource{errs: []error{errSiteDown}}
	catalog := NewCatalogService(source, CatalogServiceConfig{BaseURL: testWebsite, Now: newFakeClock().Now}, nil, nil)
	matcher := NewMatchingService(catalog, nil, nil, nil)
	classifier := &fakeClassifier{guess: &domain.ClassifierGuess{Brand: "Cartier", Confidence: domain.ConfidenceHigh}}
	svc := NewResolveService(classifier, matcher, catalog, nil, nil)

	got, err := svc.Resolve(context.Background(), testImage)

	require.NoError(t, err)
	assert.Equal(t, "Cartier Watch", got.Title)
	assert.Equal(t, "fallback", svc.Snapshot(context.Background()).Source)
}

func TestResolveService_SnapshotRefreshProducts(t *testing.T) {
	source := &fakeSource{results: [][]domain.Product{
		{newProduct("Rolex Submariner", "https://x/1"), newProduct("Omega Seamaster", "https://x/2"), newProduct("Hublot Big Bang", "https://x/3")},
		{newProduct("Panerai Luminor", "https://x/4")},
	}}
	svc := newTestResolver(&fakeClassifier{}, &fakeMatcher{}, source, nil)
	ctx := context.Background()

	status := svc.Snapshot(ctx)
	assert.Equal(t, 3, status.Count)
	assert.Equal(t, "website", status.Source)
	assert.Equal(t, testWebsite, status.Website)

	limited := svc.Products(ctx, 2)
	assert.Len(t, limited, 2)
	assert.Len(t, svc.Products(ctx, 0), 3)

	result := svc.Refresh(ctx)
	assert.Equal(t, domain.RefreshResult{Count: 1}, result)
	assert.Equal(t, 1, svc.Snapshot(ctx).Count)
	assert.Equal(t, 2, source.Calls())
}
