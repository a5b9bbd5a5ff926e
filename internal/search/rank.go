package search

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/vmunix/vodgate/internal/media"
)

var folder = cases.Fold()

// foldTitle normalizes a title for comparison: full-width forms are mapped to
// ASCII (NFKC), case is folded, accents are removed and whitespace is collapsed.
func foldTitle(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFKC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}
	result = folder.String(result)
	return strings.Join(strings.Fields(result), " ")
}

func foldTerms(terms []string) []string {
	var out []string
	for _, term := range terms {
		if f := foldTitle(term); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Relevance scores how closely title matches keyword, from 0 to 1.
func Relevance(keyword, title string) float64 {
	k, t := foldTitle(keyword), foldTitle(title)
	if k == "" || t == "" {
		return 0
	}
	if k == t {
		return 1
	}
	return float64(edlib.JaroWinklerSimilarity(k, t))
}

// Rank sorts items in place: exact (normalized) title matches first, then
// shorter titles, then lexical order. Ties keep their merge order.
func Rank(keyword string, items []media.SearchResult) {
	k := foldTitle(keyword)
	slices.SortStableFunc(items, func(a, b media.SearchResult) int {
		fa, fb := foldTitle(a.Title), foldTitle(b.Title)
		ea, eb := fa == k, fb == k
		if ea != eb {
			if ea {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(utf8.RuneCountInString(fa), utf8.RuneCountInString(fb)); c != 0 {
			return c
		}
		return cmp.Compare(fa, fb)
	})
}
