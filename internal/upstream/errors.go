package upstream

import "errors"

// ErrNoData is returned for any upstream failure: transport errors, timeouts,
// non-200 responses, malformed JSON and empty result lists. Callers treat it
// as "no results" rather than as a fatal condition.
var ErrNoData = errors.New("upstream returned no data")

// StatusError reports a non-200 upstream response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return "unexpected status " + statusText(e.StatusCode)
}
