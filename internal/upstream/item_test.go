package upstream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`{"vod_id":123}`, "123"},
		{`{"vod_id":"456"}`, "456"},
		{`{"vod_id":" 78 "}`, "78"},
		{`{"vod_id":null}`, ""},
		{`{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var item Item
			require.NoError(t, json.Unmarshal([]byte(tt.input), &item))
			assert.Equal(t, tt.want, item.ID.String())
		})
	}
}

func TestFlexString_Invalid(t *testing.T) {
	var item Item
	err := json.Unmarshal([]byte(`{"vod_id":{"x":1}}`), &item)
	assert.Error(t, err)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&StatusError{StatusCode: 429}))
	assert.True(t, isRetryable(&StatusError{StatusCode: 503}))
	assert.False(t, isRetryable(&StatusError{StatusCode: 404}))
	assert.False(t, isRetryable(assert.AnError))
}

func TestBackoff(t *testing.T) {
	rc := DefaultRetryConfig
	assert.Equal(t, rc.InitialWait, backoff(rc, 0))
	assert.Equal(t, 2*rc.InitialWait, backoff(rc, 1))
	assert.Equal(t, rc.MaxWait, backoff(rc, 10))
}
