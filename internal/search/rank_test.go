package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vmunix/vodgate/internal/media"
)

func TestFoldTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Friends", "friends"},
		{"ＦＲＩＥＮＤＳ", "friends"},
		{"  Léon   the  Professional ", "leon the professional"},
		{"三体", "三体"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, foldTitle(tt.input))
		})
	}
}

func TestRelevance(t *testing.T) {
	assert.InDelta(t, 1.0, Relevance("三体", "三体"), 0.0001)
	assert.InDelta(t, 1.0, Relevance("friends", "FRIENDS"), 0.0001)
	assert.Zero(t, Relevance("", "x"))
	assert.Greater(t, Relevance("matrix", "matrix reloaded"), Relevance("matrix", "gardening"))
}

func TestRank(t *testing.T) {
	items := []media.SearchResult{
		{ID: "1", Title: "bb"},
		{ID: "2", Title: "aaa"},
		{ID: "3", Title: "ab"},
		{ID: "4", Title: "Key"},
		{ID: "5", Title: "key"},
		{ID: "6", Title: "ab"},
	}
	Rank("KEY", items)

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	// exact (stable) -> length -> lexical -> merge order
	assert.Equal(t, []string{"4", "5", "3", "6", "1", "2"}, ids)
}
