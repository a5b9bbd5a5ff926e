package media

import "strings"

// categoryTerms maps substrings of upstream type names to a category.
// Order matters: the first matching rule wins ("动漫电影" is anime, not movie).
var categoryTerms = []struct {
	category Category
	terms    []string
}{
	{CategoryAnime, []string{"动漫", "动画", "番剧", "anime", "cartoon"}},
	{CategoryDocumentary, []string{"纪录", "documentary"}},
	{CategoryVariety, []string{"综艺", "variety", "show"}},
	{CategoryShort, []string{"短剧", "short"}},
	{CategorySeries, []string{"剧", "series", "tv"}},
	{CategoryMovie, []string{"片", "电影", "movie", "film"}},
}

// NormalizeCategory maps an upstream type name (e.g. "国产剧", "动作片") to a Category.
func NormalizeCategory(typeName string) Category {
	s := strings.ToLower(strings.TrimSpace(typeName))
	if s == "" {
		return CategoryOther
	}
	for _, rule := range categoryTerms {
		for _, term := range rule.terms {
			if strings.Contains(s, term) {
				return rule.category
			}
		}
	}
	return CategoryOther
}
