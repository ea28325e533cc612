package domain

import "context"

// PageFetcher retrieves raw documents from the merchant website
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

// CatalogSource extracts the full product catalog end-to-end (fetch, parse, normalize)
type CatalogSource interface {
	Extract(ctx context.Context) ([]Product, error)
}

// ProductSearcher performs a live search on the merchant website
type ProductSearcher interface {
	Search(ctx context.Context, brand, model string) (*Product, error)
}

// Classifier identifies a watch from an image reference
type Classifier interface {
	Classify(ctx context.Context, imageRef string) (*ClassifierGuess, error)
}
