package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/timepiece/backend/internal/domain"
)

const testWebsite = "https://shop.example.com"

// fakeSource is a scripted domain.CatalogSource
type fakeSource struct {
	mu       sync.Mutex
	results  [][]domain.Product
	errs     []error
	calls    int32
	started  chan struct{}
	release  chan struct{}
	lastCtxE error
}

// Extract returns the scripted result for this call; the last entry repeats
func (f *fakeSource) Extract(ctx context.Context) ([]domain.Product, error) {
	n := int(atomic.AddInt32(&f.calls, 1)) - 1
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCtxE = ctx.Err()

	var products []domain.Product
	if len(f.results) > 0 {
		products = f.results[min(n, len(f.results)-1)]
	}
	var err error
	if len(f.errs) > 0 {
		err = f.errs[min(n, len(f.errs)-1)]
	}
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (f *fakeSource) Calls() int {
	return int(atomic.LoadInt32(&f.calls))
}

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeCatalog is a fixed CatalogProvider that counts reads
type fakeCatalog struct {
	snapshot *domain.CatalogSnapshot
	calls    int
}

func newFakeCatalog(products ...domain.Product) *fakeCatalog {
	return &fakeCatalog{snapshot: &domain.CatalogSnapshot{Products: products, Source: domain.SourceWebsite}}
}

func (f *fakeCatalog) GetCatalog(ctx context.Context) *domain.CatalogSnapshot {
	f.calls++
	return f.snapshot
}

// fakeSearcher is a scripted domain.ProductSearcher
type fakeSearcher struct {
	product  *domain.Product
	err      error
	calls    int
	gotBrand string
	gotModel string
}

func (f *fakeSearcher) Search(ctx context.Context, brand, model string) (*domain.Product, error) {
	f.calls++
	f.gotBrand = brand
	f.gotModel = model
	if f.err != nil {
		return nil, f.err
	}
	return f.product, nil
}

// fakeClassifier is a scripted domain.Classifier
type fakeClassifier struct {
	guess *domain.ClassifierGuess
	err   error
	calls int
}

func (f *fakeClassifier) Classify(ctx context.Context, imageRef string) (*domain.ClassifierGuess, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.guess, nil
}

// fakeMatcher records queries and returns a fixed result
type fakeMatcher struct {
	product *domain.Product
	err     error
	calls   int
	query   domain.MatchQuery
}

func (f *fakeMatcher) Match(ctx context.Context, query domain.MatchQuery) (*domain.Product, error) {
	f.calls++
	f.query = query
	if f.err != nil {
		return nil, f.err
	}
	return f.product, nil
}

func newProduct(title, url string) domain.Product {
	brand, model := domain.ExtractBrandModel(title)
	return domain.Product{Title: title, URL: url, Brand: brand, Model: model, InStock: true}
}
