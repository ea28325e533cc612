// Package cache holds in-memory caches used in front of slow or billed dependencies.
package cache

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/timepiece/backend/internal/domain"
	"github.com/timepiece/backend/internal/infrastructure/logger"
)

// Classifier memoizes successful identifications per image reference.
// Messaging providers redeliver webhooks on slow replies; the same media URL
// then reaches the vision model only once per TTL.
type Classifier struct {
	next   domain.Classifier
	cache  *MemoryCache[domain.ClassifierGuess]
	logger *zap.Logger
}

// NewClassifier wraps next with a cache of the given TTL
func NewClassifier(next domain.Classifier, ttl time.Duration, log *zap.Logger) *Classifier {
	return &Classifier{
		next:   next,
		cache:  NewMemoryCache[domain.ClassifierGuess](ttl, ttl),
		logger: logger.OrNop(log).Named("classifier_cache"),
	}
}

// Classify returns a cached guess for imageRef or delegates to the wrapped classifier.
// Failures are never cached.
func (c *Classifier) Classify(ctx context.Context, imageRef string) (*domain.ClassifierGuess, error) {
	key := strings.TrimSpace(imageRef)

	if guess, ok := c.cache.Get(key); ok {
		c.logger.Debug("cache hit", zap.String("image", key))
		return &guess, nil
	}

	guess, err := c.next.Classify(ctx, imageRef)
	if err != nil {
		return nil, err
	}
	if guess != nil {
		c.cache.Set(key, *guess)
	}
	return guess, nil
}

// Close releases the cache janitor
func (c *Classifier) Close() {
	c.cache.Close()
}
