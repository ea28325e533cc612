package domain

import "time"

// Product represents a single listing on the merchant's catalog
type Product struct {
	Title   string `json:"title"`
	URL     string `json:"url"`   // Absolute; identity of the product
	Brand   string `json:"brand"` // Canonical brand name or "Unknown"
	Model   string `json:"model"`
	InStock bool   `json:"in_stock"`
}

// SnapshotSource records where the products of a snapshot came from
type SnapshotSource string

const (
	// SourceWebsite marks products extracted from the merchant website
	SourceWebsite SnapshotSource = "website"
	// SourceStale marks previously extracted products re-installed after a failed refresh
	SourceStale SnapshotSource = "stale"
	// SourceFallback marks the fixed brand placeholder catalog
	SourceFallback SnapshotSource = "fallback"
)

// CatalogSnapshot is an immutable, timestamped catalog instance.
// Snapshots are replaced, never modified, once installed in the cache.
type CatalogSnapshot struct {
	Products  []Product      `json:"products"`
	FetchedAt time.Time      `json:"fetchedAt"`
	Source    SnapshotSource `json:"source"`
}

// Len returns the number of products in the snapshot
func (s *CatalogSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Products)
}

// ExpiredAt reports whether the snapshot is older than ttl at the given instant
func (s *CatalogSnapshot) ExpiredAt(now time.Time, ttl time.Duration) bool {
	if s == nil {
		return true
	}
	return now.Sub(s.FetchedAt) > ttl
}

// Confidence is the coarse confidence label returned by the image classifier
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// ParseConfidence normalizes a raw confidence label. Anything other than "high" is low.
func ParseConfidence(raw string) Confidence {
	if Confidence(raw) == ConfidenceHigh {
		return ConfidenceHigh
	}
	return ConfidenceLow
}

// ClassifierGuess is the structured identification produced by the image classifier
type ClassifierGuess struct {
	Brand      string     `json:"brand"`
	Model      string     `json:"model"`
	Confidence Confidence `json:"confidence"`
}

// MatchQuery is the (brand, model) pair resolved against the catalog
type MatchQuery struct {
	Brand string `json:"brand"`
	Model string `json:"model"`
}

// QueryFromGuess derives a match query from a classifier guess
func QueryFromGuess(guess *ClassifierGuess) MatchQuery {
	if guess == nil {
		return MatchQuery{}
	}
	return MatchQuery{Brand: guess.Brand, Model: guess.Model}
}

// CatalogStatus is the introspection view of the current catalog
type CatalogStatus struct {
	Count     int       `json:"count"`
	Source    string    `json:"source"`
	Website   string    `json:"website"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// RefreshResult is returned after a forced catalog re-extraction
type RefreshResult struct {
	Count int `json:"count"`
}
