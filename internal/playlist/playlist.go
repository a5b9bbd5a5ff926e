// Package playlist parses the episode-list strings returned by aggregator detail APIs.
//
// A play URL field carries one or more alternate playlists:
//
//	playlists := playlist ("$$$" playlist)*
//	playlist  := entry ("#" entry)*
//	entry     := [name "$"] url
//
// The companion play-from field lists one source name per playlist, using the
// same "$$$" separator. Entries may carry more than one "$"; the last field is
// the URL and the one before it is the display name.
package playlist

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/vmunix/vodgate/internal/media"
)

const (
	PlaylistSep = "$$$"
	EntrySep    = "#"
	FieldSep    = "$"

	// MaxRawBytes bounds the play URL field considered for parsing.
	MaxRawBytes = 1 << 20
	// MaxEpisodes bounds the number of episodes taken from one playlist.
	MaxEpisodes = 5000
)

// MediaFilter selects how episodes with unrecognized media URLs are handled.
type MediaFilter string

const (
	// FilterKeep keeps every episode regardless of URL suffix.
	FilterKeep MediaFilter = "keep"
	// FilterDrop keeps only .m3u8 and .mp4 episodes.
	FilterDrop MediaFilter = "drop"
)

var mediaSuffixes = []string{".m3u8", ".mp4"}

// Playlist is the selected, parsed playlist of one detail record.
type Playlist struct {
	Source    string // play-from name of the selected playlist, if known
	Episodes  []media.Episode
	Truncated bool
}

// Extract selects a playlist from playURL and parses it.
func Extract(playURL, playFrom string, filter MediaFilter) Playlist {
	raw, truncated := clampRaw(playURL)
	segment, name := Select(raw, playFrom)
	episodes, cut := Parse(segment)
	if filter == FilterDrop {
		episodes = DropUnsupported(episodes)
	}
	return Playlist{
		Source:    name,
		Episodes:  episodes,
		Truncated: truncated || cut,
	}
}

// Select returns the first playlist that references an m3u8 stream, either in
// its entries or in its play-from name ("m3u8", "hls"). Without a qualifying
// playlist the first one is returned. The second result is the play-from name.
func Select(playURL, playFrom string) (string, string) {
	segments := strings.Split(playURL, PlaylistSep)
	names := strings.Split(playFrom, PlaylistSep)

	nameAt := func(i int) string {
		if i < len(names) {
			return strings.TrimSpace(names[i])
		}
		return ""
	}

	for i, seg := range segments {
		if strings.Contains(strings.ToLower(seg), ".m3u8") || isStreamName(nameAt(i)) {
			return seg, nameAt(i)
		}
	}
	return segments[0], nameAt(0)
}

func isStreamName(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "m3u8") || strings.Contains(n, "hls")
}

// Parse splits one playlist into episodes. Blank and URL-less entries are
// skipped; indices are 0-based over the kept entries. The boolean reports
// whether the list was cut at MaxEpisodes.
func Parse(segment string) ([]media.Episode, bool) {
	var episodes []media.Episode
	for _, entry := range strings.Split(segment, EntrySep) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if len(episodes) == MaxEpisodes {
			return episodes, true
		}

		name, link := splitEntry(entry)
		if link == "" {
			continue
		}
		idx := len(episodes)
		if name == "" {
			name = fallbackName(idx)
		}
		episodes = append(episodes, media.Episode{Index: idx, Name: name, URL: link})
	}
	return episodes, false
}

func splitEntry(entry string) (name, link string) {
	parts := strings.Split(entry, FieldSep)
	if len(parts) < 2 {
		return "", strings.TrimSpace(parts[0])
	}
	return strings.TrimSpace(parts[len(parts)-2]), strings.TrimSpace(parts[len(parts)-1])
}

func fallbackName(idx int) string {
	return fmt.Sprintf("Episode %d", idx+1)
}

// DropUnsupported removes episodes whose URL path does not end in a
// recognized media suffix and reassigns indices. When nothing would remain,
// the input is returned unchanged.
func DropUnsupported(episodes []media.Episode) []media.Episode {
	var kept []media.Episode
	for _, ep := range episodes {
		if IsSupported(ep.URL) {
			ep.Index = len(kept)
			kept = append(kept, ep)
		}
	}
	if len(kept) == 0 {
		return episodes
	}
	return kept
}

// IsSupported reports whether link points at an .m3u8 or .mp4 resource.
func IsSupported(link string) bool {
	p := link
	if u, err := url.Parse(link); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	for _, s := range mediaSuffixes {
		if ext == s {
			return true
		}
	}
	return false
}

// clampRaw cuts playURL at MaxRawBytes, backing up to the last entry boundary.
func clampRaw(playURL string) (string, bool) {
	if len(playURL) <= MaxRawBytes {
		return playURL, false
	}
	raw := playURL[:MaxRawBytes]
	if i := strings.LastIndex(raw, EntrySep); i > 0 {
		raw = raw[:i]
	}
	return raw, true
}
