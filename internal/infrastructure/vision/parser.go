package vision

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/timepiece/backend/internal/domain"
)

var (
	// jsonObjectRegex finds the first flat JSON object in a free-text reply
	jsonObjectRegex = regexp.MustCompile(`\{[^}]+\}`)
	spaceRegex      = regexp.MustCompile(`\s+`)
)

// rawGuess mirrors the JSON object the model is asked to return
type rawGuess struct {
	Brand      string `json:"brand"`
	Model      string `json:"model"`
	Confidence string `json:"confidence"`
}

// ParseGuess extracts the identification object from a model reply.
// Replies often wrap the object in prose or code fences; only the first {...} is read.
func ParseGuess(content string) (*domain.ClassifierGuess, error) {
	match := jsonObjectRegex.FindString(content)
	if match == "" {
		return nil, fmt.Errorf("%w: no JSON object in reply", domain.ErrClassifierFailure)
	}

	var raw rawGuess
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return nil, fmt.Errorf("%w: decode reply: %v", domain.ErrClassifierFailure, err)
	}

	return &domain.ClassifierGuess{
		Brand:      cleanField(raw.Brand),
		Model:      cleanField(raw.Model),
		Confidence: domain.ParseConfidence(raw.Confidence),
	}, nil
}

// cleanField trims stray quotes and collapses whitespace in a free-text field
func cleanField(s string) string {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	s = spaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
