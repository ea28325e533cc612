package domain

import "errors"

var (
	// ErrFetchFailure is returned when a page or search result cannot be retrieved
	ErrFetchFailure = errors.New("page fetch failed")

	// ErrParseFailure is returned when a fetched page cannot be parsed
	ErrParseFailure = errors.New("page parse failed")

	// ErrClassifierFailure is returned when the image classifier errors or replies with garbage
	ErrClassifierFailure = errors.New("image classification failed")

	// ErrNoMatch is returned when no catalog product matches a query
	ErrNoMatch = errors.New("no matching product found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")
)
