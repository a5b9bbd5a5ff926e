// Package search fans keyword queries out to aggregator sources and merges the results.
package search

import "errors"

var (
	// ErrEmptyKeyword indicates a blank search keyword.
	ErrEmptyKeyword = errors.New("keyword is required")

	// ErrNoSources indicates no sources are available for the query.
	ErrNoSources = errors.New("no sources configured")

	// ErrUnknownSource indicates the requested source API is not registered.
	ErrUnknownSource = errors.New("unknown source")
)
