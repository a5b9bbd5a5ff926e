package detail

import "errors"

var (
	// ErrNotFound indicates the source returned no record for the id.
	ErrNotFound = errors.New("video not found")

	// ErrNoEpisodes indicates the record has no playable episodes.
	ErrNoEpisodes = errors.New("no playable episodes")
)
