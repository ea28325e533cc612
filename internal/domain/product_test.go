package domain

import (
	"testing"
	"time"
)

func TestCatalogSnapshot_ExpiredAt(t *testing.T) {
	fetched := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	snapshot := &CatalogSnapshot{FetchedAt: fetched}

	t.Run("valid inside window", func(t *testing.T) {
		if snapshot.ExpiredAt(fetched.Add(6*time.Hour), 6*time.Hour) {
			t.Error("snapshot expired at exactly ttl, want valid")
		}
	})

	t.Run("expired after window", func(t *testing.T) {
		if !snapshot.ExpiredAt(fetched.Add(6*time.Hour+time.Second), 6*time.Hour) {
			t.Error("snapshot valid after ttl, want expired")
		}
	})

	t.Run("nil snapshot is always expired", func(t *testing.T) {
		var missing *CatalogSnapshot
		if !missing.ExpiredAt(fetched, time.Hour) {
			t.Error("nil snapshot reported valid")
		}
		if missing.Len() != 0 {
			t.Errorf("Len() = %d, want 0", missing.Len())
		}
	})
}

func TestParseConfidence(t *testing.T) {
	tests := map[string]Confidence{
		"high":   ConfidenceHigh,
		"low":    ConfidenceLow,
		"HIGH":   ConfidenceLow,
		"":       ConfidenceLow,
		"medium": ConfidenceLow,
	}
	for raw, want := range tests {
		if got := ParseConfidence(raw); got != want {
			t.Errorf("ParseConfidence(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestQueryFromGuess(t *testing.T) {
	q := QueryFromGuess(&ClassifierGuess{Brand: "Rolex", Model: "Daytona", Confidence: ConfidenceHigh})
	if q.Brand != "Rolex" || q.Model != "Daytona" {
		t.Errorf("QueryFromGuess() = %+v", q)
	}
	if empty := QueryFromGuess(nil); empty != (MatchQuery{}) {
		t.Errorf("QueryFromGuess(nil) = %+v, want zero", empty)
	}
}
