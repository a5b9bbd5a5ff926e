// internal/search/errors_test.go
package search

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors(t *testing.T) {
	// Verify errors are distinct
	assert.False(t, errors.Is(ErrEmptyKeyword, ErrNoSources), "ErrEmptyKeyword should not equal ErrNoSources")
	assert.False(t, errors.Is(ErrNoSources, ErrUnknownSource), "ErrNoSources should not equal ErrUnknownSource")

	// Verify error messages
	assert.NotEmpty(t, ErrEmptyKeyword.Error(), "ErrEmptyKeyword should have a message")
	assert.NotEmpty(t, ErrNoSources.Error(), "ErrNoSources should have a message")
	assert.NotEmpty(t, ErrUnknownSource.Error(), "ErrUnknownSource should have a message")
}
