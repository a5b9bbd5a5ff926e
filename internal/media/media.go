// Package media defines the transient video types shared by search, detail and the web layer.
package media

// Category is a normalized content category derived from the upstream type name.
type Category string

const (
	CategoryMovie       Category = "movie"
	CategorySeries      Category = "series"
	CategoryAnime       Category = "anime"
	CategoryVariety     Category = "variety"
	CategoryDocumentary Category = "documentary"
	CategoryShort       Category = "short"
	CategoryOther       Category = "other"
)

// SearchResult is one item returned by a source for a keyword search.
type SearchResult struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Cover      string   `json:"cover"`
	Note       string   `json:"note"`
	SourceName string   `json:"source_name"`
	SourceAPI  string   `json:"source_api"`
	Category   Category `json:"category"`
	Relevance  float64  `json:"relevance"`
}

// Episode is one playable entry of a playlist. Index is the 0-based position
// in the selected playlist and is preserved from the source ordering.
type Episode struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

// VideoDetail is the normalized detail payload for a single item.
type VideoDetail struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Cover       string    `json:"cover"`
	Remarks     string    `json:"remarks,omitempty"`
	Category    Category  `json:"category"`
	SourceAPI   string    `json:"source_api"`
	Episodes    []Episode `json:"episodes"`
	Truncated   bool      `json:"truncated,omitempty"`
}

// Episode returns the episode at index i, falling back to the first episode
// when i is out of range. The returned index is the one actually used.
func (d *VideoDetail) Episode(i int) (Episode, int) {
	if len(d.Episodes) == 0 {
		return Episode{}, 0
	}
	if i < 0 || i >= len(d.Episodes) {
		i = 0
	}
	return d.Episodes[i], i
}
