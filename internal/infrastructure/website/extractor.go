package website

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/timepiece/backend/internal/domain"
	"github.com/timepiece/backend/internal/infrastructure/logger"
)

const (
	// maxFallbackTitleRunes bounds titles taken from an element's whole text
	maxFallbackTitleRunes = 100
	// minTitleRunes is the shortest title kept, exclusive
	minTitleRunes = 3
)

var titleClassRegex = regexp.MustCompile(`title|name|product`)

// titleTags are tried in order when looking for a product title inside a candidate
var titleTags = []string{"h3", "h4", "h2", "a", "span"}

var (
	errNoURL       = errors.New("no product url")
	errBadURL      = errors.New("unresolvable product url")
	errShortTitle  = errors.New("title too short")
	errNoSelection = errors.New("empty selection")
)

// candidateFinder locates product-bearing elements with one structural heuristic
type candidateFinder struct {
	name string
	find func(doc *goquery.Document) *goquery.Selection
}

// candidateFinders are tried in order; the first one returning elements wins
var candidateFinders = []candidateFinder{
	{"div.product-item", byClass("div", "product-item")},
	{"div.product-card", byClass("div", "product-card")},
	{"div.product", byClass("div", "product")},
	{"article.product", byClass("article", "product")},
	{"a[href*=/product]", productLinks},
}

// byClass matches tag elements whose class attribute contains pattern
func byClass(tag, pattern string) func(doc *goquery.Document) *goquery.Selection {
	return func(doc *goquery.Document) *goquery.Selection {
		return doc.Find(tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
			class, _ := s.Attr("class")
			return strings.Contains(class, pattern)
		})
	}
}

// productLinks matches every hyperlink whose target path mentions /product
func productLinks(doc *goquery.Document) *goquery.Selection {
	return doc.Find("a[href]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		return strings.Contains(href, "/product")
	})
}

// Extractor turns the storefront catalog page into normalized products
type Extractor struct {
	fetcher    domain.PageFetcher
	catalogURL string
	base       *url.URL
	logger     *zap.Logger
}

// NewExtractor creates an extractor for the catalog page at catalogURL.
// Relative product links are resolved against the same URL.
func NewExtractor(fetcher domain.PageFetcher, catalogURL string, log *zap.Logger) (*Extractor, error) {
	base, err := url.Parse(catalogURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("%w: catalog url %q must be absolute", domain.ErrInvalidRequest, catalogURL)
	}

	return &Extractor{
		fetcher:    fetcher,
		catalogURL: catalogURL,
		base:       base,
		logger:     logger.OrNop(log).Named("extractor"),
	}, nil
}

// CatalogURL returns the page the extractor reads
func (e *Extractor) CatalogURL() string {
	return e.catalogURL
}

// Extract fetches, parses and normalizes the catalog page
func (e *Extractor) Extract(ctx context.Context) ([]domain.Product, error) {
	body, err := e.fetcher.Fetch(ctx, e.catalogURL)
	if err != nil {
		if errors.Is(err, domain.ErrFetchFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailure, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
	}

	products := ExtractProducts(doc, e.base, e.logger)
	e.logger.Info("extracted catalog", zap.String("url", e.catalogURL), zap.Int("products", len(products)))
	return products, nil
}

// ExtractProducts applies the candidate heuristics to doc and returns the products found,
// deduplicated by URL in first-seen order. Malformed elements are skipped.
func ExtractProducts(doc *goquery.Document, base *url.URL, log *zap.Logger) []domain.Product {
	log = logger.OrNop(log)

	candidates, heuristic := findCandidates(doc)
	if candidates == nil {
		log.Debug("no product candidates found")
		return []domain.Product{}
	}
	log.Debug("product candidates found", zap.String("heuristic", heuristic), zap.Int("count", candidates.Length()))

	products := make([]domain.Product, 0, candidates.Length())
	candidates.Each(func(i int, elem *goquery.Selection) {
		product, err := extractElement(elem, base)
		if err != nil {
			log.Debug("skipping candidate", zap.Int("index", i), zap.Error(err))
			return
		}
		products = append(products, product)
	})

	return dedupeByURL(products)
}

// findCandidates returns the elements of the first heuristic that matches anything
func findCandidates(doc *goquery.Document) (*goquery.Selection, string) {
	for _, finder := range candidateFinders {
		if sel := finder.find(doc); sel.Length() > 0 {
			return sel, finder.name
		}
	}
	return nil, ""
}

// extractElement builds a product from one candidate element
func extractElement(elem *goquery.Selection, base *url.URL) (domain.Product, error) {
	if elem == nil || elem.Length() == 0 {
		return domain.Product{}, errNoSelection
	}

	productURL, err := resolveURL(elem, base)
	if err != nil {
		return domain.Product{}, err
	}

	title := resolveTitle(elem)
	if utf8.RuneCountInString(title) <= minTitleRunes {
		return domain.Product{}, fmt.Errorf("%w: %q", errShortTitle, title)
	}

	brand, model := domain.ExtractBrandModel(title)
	return domain.Product{
		Title:   title,
		URL:     productURL,
		Brand:   brand,
		Model:   model,
		InStock: true,
	}, nil
}

// resolveURL reads the element's own href, else its first link, and makes it absolute
func resolveURL(elem *goquery.Selection, base *url.URL) (string, error) {
	href, _ := elem.Attr("href")
	href = strings.TrimSpace(href)
	if href == "" {
		href, _ = elem.Find("a[href]").First().Attr("href")
		href = strings.TrimSpace(href)
	}
	if href == "" {
		return "", errNoURL
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBadURL, err)
	}

	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	if (abs.Scheme != "http" && abs.Scheme != "https") || abs.Host == "" {
		return "", fmt.Errorf("%w: %q", errBadURL, href)
	}
	return abs.String(), nil
}

// resolveTitle prefers a title-like child element and falls back to the element's text
func resolveTitle(elem *goquery.Selection) string {
	var title string
	for _, tag := range titleTags {
		match := elem.Find(tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
			class, _ := s.Attr("class")
			return titleClassRegex.MatchString(class)
		}).First()
		if match.Length() > 0 {
			title = visibleText(match)
			break
		}
	}

	if title == "" {
		title = truncateRunes(visibleText(elem), maxFallbackTitleRunes)
	}
	return title
}

// visibleText returns the selection's text with whitespace runs collapsed
func visibleText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}

// dedupeByURL keeps the first product seen for every URL
func dedupeByURL(products []domain.Product) []domain.Product {
	seen := make(map[string]bool, len(products))
	unique := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if seen[p.URL] {
			continue
		}
		seen[p.URL] = true
		unique = append(unique, p)
	}
	return unique
}
