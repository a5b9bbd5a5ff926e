// Package analytics summarizes the visit log for the operator dashboard.
package analytics

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/vmunix/vodgate/internal/visits"
)

// Store is the read side of the visit log.
type Store interface {
	Totals(ctx context.Context, since string) (pv, uv int64, err error)
	Daily(ctx context.Context, since string) ([]visits.DayCount, error)
	ActionCounts(ctx context.Context) ([]visits.Count, error)
	TopLocations(ctx context.Context, n int) ([]visits.Count, error)
	Recent(ctx context.Context, limit int) ([]visits.Record, error)
	Each(ctx context.Context, fn func(visits.Record) error) error
}

// Options configures a Reporter.
type Options struct {
	WindowDays  int
	RecentLimit int
	TopN        int
	Location    *time.Location
}

// Summary is an aggregate view of the visit log.
type Summary struct {
	TotalPV      int64             `json:"total_pv"`
	TotalUV      int64             `json:"total_uv"`
	TodayPV      int64             `json:"today_pv"`
	TodayUV      int64             `json:"today_uv"`
	Daily        []visits.DayCount `json:"daily"`
	Categories   []CategoryCount   `json:"categories"`
	TopActions   []visits.Count    `json:"top_actions"`
	TopLocations []visits.Count    `json:"top_locations"`
	Sessions     []Session         `json:"sessions"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

// Reporter computes summaries from a Store.
type Reporter struct {
	store Store
	opts  Options
	now   func() time.Time
	log   *slog.Logger
}

// NewReporter creates a Reporter.
func NewReporter(store Store, opts Options, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = 7
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 200
	}
	if opts.TopN <= 0 {
		opts.TopN = 10
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Reporter{
		store: store,
		opts:  opts,
		now:   time.Now,
		log:   logger.With("component", "analytics"),
	}
}

// Summarize aggregates the visit log. window is the number of trailing days
// in the daily table; zero uses the configured default.
func (r *Reporter) Summarize(ctx context.Context, window int) (*Summary, error) {
	if window <= 0 {
		window = r.opts.WindowDays
	}
	now := r.now().In(r.opts.Location)
	today := now.Format(visits.DayLayout)
	first := now.AddDate(0, 0, -(window - 1)).Format(visits.DayLayout)

	s := &Summary{GeneratedAt: now}
	var err error

	if s.TotalPV, s.TotalUV, err = r.store.Totals(ctx, ""); err != nil {
		return nil, err
	}
	if s.TodayPV, s.TodayUV, err = r.store.Totals(ctx, today); err != nil {
		return nil, err
	}

	days, err := r.store.Daily(ctx, first)
	if err != nil {
		return nil, err
	}
	s.Daily = fillDays(days, now, window)

	actions, err := r.store.ActionCounts(ctx)
	if err != nil {
		return nil, err
	}
	s.Categories = Categorize(actions)
	s.TopActions = lo.Slice(actions, 0, r.opts.TopN)

	if s.TopLocations, err = r.store.TopLocations(ctx, r.opts.TopN); err != nil {
		return nil, err
	}

	recent, err := r.store.Recent(ctx, r.opts.RecentLimit)
	if err != nil {
		return nil, err
	}
	s.Sessions = GroupSessions(recent, r.opts.Location)

	r.log.Debug("summary computed", "window", window, "total_pv", s.TotalPV, "sessions", len(s.Sessions))
	return s, nil
}

// fillDays returns one row per day in the window ending at now, oldest first.
func fillDays(days []visits.DayCount, now time.Time, window int) []visits.DayCount {
	byDay := lo.KeyBy(days, func(d visits.DayCount) string { return d.Day })
	out := make([]visits.DayCount, 0, window)
	for i := window - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format(visits.DayLayout)
		if d, ok := byDay[day]; ok {
			out = append(out, d)
			continue
		}
		out = append(out, visits.DayCount{Day: day})
	}
	return out
}

// Category groups action labels on the dashboard.
type Category string

const (
	CategorySearch Category = "search"
	CategoryPlay   Category = "play"
	CategoryHome   Category = "home"
	CategoryAPI    Category = "api"
	CategoryOther  Category = "other"
)

// CategoryOrder is the display order of categories.
var CategoryOrder = []Category{CategorySearch, CategoryPlay, CategoryHome, CategoryAPI, CategoryOther}

// CategoryCount is the number of visits in a category.
type CategoryCount struct {
	Category Category `json:"category"`
	N        int64    `json:"count"`
}

// Older databases carry localized labels.
var categoryAliases = []struct {
	substr   string
	category Category
}{
	{"api", CategoryAPI},
	{"play", CategoryPlay},
	{"播放", CategoryPlay},
	{"search", CategorySearch},
	{"搜索", CategorySearch},
	{"home", CategoryHome},
	{"首页", CategoryHome},
}

// Classify maps an action label to a category by substring match on the
// label's kind (the text before the first colon).
func Classify(action string) Category {
	kind, _, _ := strings.Cut(action, ":")
	kind = strings.ToLower(strings.TrimSpace(kind))
	for _, a := range categoryAliases {
		if strings.Contains(kind, a.substr) {
			return a.category
		}
	}
	return CategoryOther
}

// Categorize sums per-action counts into categories, in CategoryOrder.
func Categorize(actions []visits.Count) []CategoryCount {
	sums := make(map[Category]int64, len(CategoryOrder))
	for _, a := range actions {
		sums[Classify(a.Key)] += a.N
	}
	return lo.Map(CategoryOrder, func(c Category, _ int) CategoryCount {
		return CategoryCount{Category: c, N: sums[c]}
	})
}

// Session is a run of consecutive visits from one address.
type Session struct {
	IP       string          `json:"ip"`
	Location string          `json:"location"`
	Start    string          `json:"start"` // oldest visit
	End      string          `json:"end"`   // newest visit
	Duration time.Duration   `json:"duration"`
	Visits   []visits.Record `json:"visits"` // newest first
}

// GroupSessions groups consecutive same-IP records, which must be ordered
// newest first. Boundaries follow row order, not per-address time gaps.
func GroupSessions(records []visits.Record, loc *time.Location) []Session {
	var out []Session
	for _, rec := range records {
		if n := len(out); n > 0 && out[n-1].IP == rec.IP {
			out[n-1].Visits = append(out[n-1].Visits, rec)
			continue
		}
		out = append(out, Session{IP: rec.IP, Location: rec.Location, Visits: []visits.Record{rec}})
	}
	for i := range out {
		s := &out[i]
		s.End = s.Visits[0].Time
		s.Start = s.Visits[len(s.Visits)-1].Time
		s.Duration = sessionDuration(s.End, s.Start, loc)
	}
	return out
}

func sessionDuration(newest, oldest string, loc *time.Location) time.Duration {
	end, err := visits.ParseTime(newest, loc)
	if err != nil {
		return 0
	}
	start, err := visits.ParseTime(oldest, loc)
	if err != nil {
		return 0
	}
	return max(0, end.Sub(start))
}
