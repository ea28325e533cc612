package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/timepiece/backend/config"
	"github.com/timepiece/backend/internal/domain"
	"github.com/timepiece/backend/internal/infrastructure/cache"
	"github.com/timepiece/backend/internal/infrastructure/metrics"
	"github.com/timepiece/backend/internal/infrastructure/vision"
	"github.com/timepiece/backend/internal/infrastructure/website"
	"github.com/timepiece/backend/internal/usecase"
)

// application is the wired service graph shared by every subcommand
type application struct {
	cfg        *config.Config
	logger     *zap.Logger
	metrics    *metrics.Metrics
	website    *website.Client
	extractor  *website.Extractor
	catalog    *usecase.CatalogService
	matcher    *usecase.MatchingService
	classifier domain.Classifier
	resolver   *usecase.ResolveService
	closers    []func()
}

func newApplication(cfg *config.Config, log *zap.Logger) (*application, error) {
	m := metrics.New()

	client := website.NewClient(website.ClientConfig{
		BaseURL:           cfg.Website.BaseURL,
		UserAgent:         cfg.Website.UserAgent,
		FetchTimeout:      cfg.Website.FetchTimeout,
		SearchTimeout:     cfg.Website.SearchTimeout,
		RequestsPerSecond: cfg.Website.RequestsPerSecond,
		MaxRetries:        cfg.Website.MaxRetries,
	}, log)

	extractor, err := website.NewExtractor(client, client.BaseURL(), log)
	if err != nil {
		return nil, fmt.Errorf("create extractor: %w", err)
	}

	catalog := usecase.NewCatalogService(extractor, usecase.CatalogServiceConfig{
		TTL:     cfg.Catalog.TTL,
		BaseURL: client.BaseURL(),
	}, log, m)

	matcher := usecase.NewMatchingService(catalog, client, log, m)

	var classifier domain.Classifier = vision.NewClient(vision.Config{
		APIKey:  cfg.Classifier.APIKey,
		BaseURL: cfg.Classifier.BaseURL,
		Model:   cfg.Classifier.Model,
		Timeout: cfg.Classifier.Timeout,
	}, log)

	var closers []func()
	if cfg.Classifier.CacheTTL > 0 {
		cached := cache.NewClassifier(classifier, cfg.Classifier.CacheTTL, log)
		closers = append(closers, cached.Close)
		classifier = cached
	}

	if cfg.Classifier.APIKey == "" {
		log.Warn("classifier API key not configured, every image will resolve to no match")
	}

	return &application{
		cfg:        cfg,
		logger:     log,
		metrics:    m,
		website:    client,
		extractor:  extractor,
		catalog:    catalog,
		matcher:    matcher,
		classifier: classifier,
		resolver:   usecase.NewResolveService(classifier, matcher, catalog, log, m),
		closers:    closers,
	}, nil
}

// close releases background resources held by the graph
func (a *application) close() {
	for _, fn := range a.closers {
		fn()
	}
}
