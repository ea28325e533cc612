package domain

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// UnknownBrand is reported for titles that mention no known brand
const UnknownBrand = "Unknown"

// brandToken maps a lower-cased token to its canonical display name
type brandToken struct {
	token string
	name  string
}

// brandTokens is scanned in order; the first token found in a title wins,
// regardless of where in the title it occurs.
var brandTokens = []brandToken{
	{"rolex", "Rolex"},
	{"omega", "Omega"},
	{"audemars piguet", "Audemars Piguet"},
	{"ap ", "Audemars Piguet"},
	{"patek philippe", "Patek Philippe"},
	{"cartier", "Cartier"},
	{"tag heuer", "Tag Heuer"},
	{"hublot", "Hublot"},
	{"panerai", "Panerai"},
	{"iwc", "IWC"},
	{"breitling", "Breitling"},
}

// fallbackBrands backs the placeholder catalog used when no extraction has succeeded
var fallbackBrands = []string{
	"Rolex", "Omega", "Audemars Piguet", "Patek Philippe", "Cartier",
	"Tag Heuer", "Hublot", "Panerai", "IWC", "Breitling",
}

// modelTokenLimit is the number of words after the brand kept as the model
const modelTokenLimit = 3

// ExtractBrandModel derives a canonical brand and a short model string from a product title.
// The model is the first three words following the canonical brand name in the title; it is
// empty when the brand was matched through an alias that differs from the canonical name.
func ExtractBrandModel(title string) (string, string) {
	brand := CanonicalBrand(title)
	if brand == UnknownBrand {
		return UnknownBrand, ""
	}

	_, end := indexFold(title, brand)
	if end < 0 {
		return brand, ""
	}

	words := strings.Fields(title[end:])
	if len(words) > modelTokenLimit {
		words = words[:modelTokenLimit]
	}
	return brand, strings.Join(words, " ")
}

// CanonicalBrand returns the canonical brand named in text, or UnknownBrand
func CanonicalBrand(text string) string {
	lower := strings.ToLower(text)
	for _, bt := range brandTokens {
		if strings.Contains(lower, bt.token) {
			return bt.name
		}
	}
	return UnknownBrand
}

// FallbackProducts returns the fixed placeholder catalog, one generic search listing per brand
func FallbackProducts(baseURL string) []Product {
	products := make([]Product, 0, len(fallbackBrands))
	for _, brand := range fallbackBrands {
		products = append(products, Product{
			Title:   brand + " Watch",
			URL:     SearchURL(baseURL, brand),
			Brand:   brand,
			Model:   "",
			InStock: true,
		})
	}
	return products
}

// SearchURL builds the merchant search URL for a free-text query
func SearchURL(baseURL, query string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
	return strings.TrimRight(baseURL, "/") + "/search?q=" + escaped
}

// indexFold finds substr in s ignoring case and returns byte offsets into s.
// Offsets are computed on s itself so multi-byte case mappings cannot shift them.
func indexFold(s, substr string) (int, int) {
	width := utf8.RuneCountInString(substr)
	if width == 0 {
		return 0, 0
	}
	for i := range s {
		j, n := i, 0
		for j < len(s) && n < width {
			_, size := utf8.DecodeRuneInString(s[j:])
			j += size
			n++
		}
		if n < width {
			break
		}
		if strings.EqualFold(s[i:j], substr) {
			return i, j
		}
	}
	return -1, -1
}
