package search_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/vodgate/internal/media"
	"github.com/vmunix/vodgate/internal/search"
	"github.com/vmunix/vodgate/internal/search/mocks"
	"github.com/vmunix/vodgate/internal/source"
	"github.com/vmunix/vodgate/internal/upstream"
)

const (
	apiFast = "https://fast.example.com/api"
	apiB    = "https://b.example.com/api"
	apiC    = "https://c.example.com/api"
)

// testLogger returns a discard logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry() *source.Registry {
	return source.NewRegistry([]source.Source{
		{Name: "Fast", API: apiFast, Speed: source.SpeedFast},
		{Name: "B", API: apiB},
		{Name: "C", API: apiC},
	})
}

func item(id, name string) upstream.Item {
	return upstream.Item{ID: upstream.FlexString(id), Name: name, TypeName: "国产剧"}
}

func titles(items []media.SearchResult) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func TestSearcher_FastMode(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockUpstream(ctrl)
	up.EXPECT().Search(gomock.Any(), apiFast, "三体").Return([]upstream.Item{item("1", "三体")}, nil)

	s := search.NewSearcher(up, testRegistry(), nil, search.Options{}, testLogger())
	res, err := s.Search(context.Background(), search.Query{Keyword: " 三体 ", Mode: search.ModeFast})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, 1, res.Sources)
	assert.Equal(t, "Fast", res.Items[0].SourceName)
	assert.Equal(t, apiFast, res.Items[0].SourceAPI)
	assert.Equal(t, media.CategorySeries, res.Items[0].Category)
	assert.InDelta(t, 1.0, res.Items[0].Relevance, 0.0001)
}

func TestSearcher_FastModeWithSource(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockUpstream(ctrl)
	up.EXPECT().Search(gomock.Any(), apiC, "x").Return([]upstream.Item{item("9", "x")}, nil)

	s := search.NewSearcher(up, testRegistry(), nil, search.Options{}, testLogger())
	res, err := s.Search(context.Background(), search.Query{Keyword: "x", SourceAPI: apiC})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "C", res.Items[0].SourceName)
}

func TestSearcher_AllModeMergesAndRanks(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockUpstream(ctrl)
	up.EXPECT().Search(gomock.Any(), apiFast, "三体").Return([]upstream.Item{
		item("1", "三体 第二季"),
		item("2", "三体"),
		item("2", "三体"), // duplicate within one source
	}, nil)
	up.EXPECT().Search(gomock.Any(), apiB, "三体").Return(nil, errors.New("connection reset"))
	up.EXPECT().Search(gomock.Any(), apiC, "三体").Return([]upstream.Item{
		item("2", "三体"), // same id, different source: kept
		item("7", "三体前传之长夜"),
		item("8", "三体2"),
	}, nil)

	s := search.NewSearcher(up, testRegistry(), nil, search.Options{}, testLogger())
	res, err := s.Search(context.Background(), search.Query{Keyword: "三体", Mode: search.ModeAll})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Sources)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"三体", "三体", "三体2", "三体 第二季", "三体前传之长夜"}, titles(res.Items))
	// Exact matches keep source order.
	assert.Equal(t, apiFast, res.Items[0].SourceAPI)
	assert.Equal(t, apiC, res.Items[1].SourceAPI)
}

func TestSearcher_ExactMatchFirstIgnoresCaseAndWidth(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockUpstream(ctrl)
	up.EXPECT().Search(gomock.Any(), apiFast, "Friends").Return([]upstream.Item{
		item("1", "Fr"),
		item("2", "Best Friends Forever"),
		item("3", "ＦＲＩＥＮＤＳ"),
	}, nil)

	s := search.NewSearcher(up, testRegistry(), nil, search.Options{}, testLogger())
	res, err := s.Search(context.Background(), search.Query{Keyword: "Friends"})
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "3", res.Items[0].ID)
}

func TestSearcher_SlowSourceDoesNotDropOthers(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockUpstream(ctrl)
	up.EXPECT().Search(gomock.Any(), apiFast, "k").DoAndReturn(func(ctx context.Context, api, kw string) ([]upstream.Item, error) {
		time.Sleep(50 * time.Millisecond)
		return []upstream.Item{item("1", "slow k")}, nil
	})
	up.EXPECT().Search(gomock.Any(), apiB, "k").Return([]upstream.Item{item("2", "k")}, nil)
	up.EXPECT().Search(gomock.Any(), apiC, "k").Return(nil, upstream.ErrNoData)

	s := search.NewSearcher(up, testRegistry(), nil, search.Options{}, testLogger())
	res, err := s.Search(context.Background(), search.Query{Keyword: "k", Mode: search.ModeAll})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"k", "slow k"}, titles(res.Items))
	assert.Equal(t, 1, res.Failed)
}

func TestSearcher_AllSourcesFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockUpstream(ctrl)
	up.EXPECT().Search(gomock.Any(), gomock.Any(), "k").Return(nil, upstream.ErrNoData).Times(3)

	s := search.NewSearcher(up, testRegistry(), nil, search.Options{}, testLogger())
	res, err := s.Search(context.Background(), search.Query{Keyword: "k", Mode: search.ModeAll})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 3, res.Failed)
}

func TestSearcher_Denylist(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockUpstream(ctrl)
	up.EXPECT().Search(gomock.Any(), apiFast, "show").Return([]upstream.Item{
		item("1", "Show"),
		item("2", "Show [TRAILER]"),
		item("3", "Show 伦理"),
	}, nil)

	s := search.NewSearcher(up, testRegistry(), nil, search.Options{Denylist: []string{"trailer", "伦理"}}, testLogger())
	res, err := s.Search(context.Background(), search.Query{Keyword: "show"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Show"}, titles(res.Items))
}

func TestSearcher_MinRelevance(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockUpstream(ctrl)
	up.EXPECT().Search(gomock.Any(), apiFast, "matrix").Return([]upstream.Item{
		item("1", "The Matrix Reloaded"),
		item("2", "Gardening Weekly"),
		item("3", "Matrix"),
	}, nil)

	s := search.NewSearcher(up, testRegistry(), nil, search.Options{MinRelevance: 0.8}, testLogger())
	res, err := s.Search(context.Background(), search.Query{Keyword: "matrix"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Matrix", "The Matrix Reloaded"}, titles(res.Items), "titles containing the keyword are kept")
}

func TestSearcher_SkipsItemsWithoutIDOrName(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockUpstream(ctrl)
	up.EXPECT().Search(gomock.Any(), apiFast, "k").Return([]upstream.Item{
		{ID: "", Name: "no id"},
		{ID: "5", Name: ""},
		item("6", "k"),
	}, nil)

	s := search.NewSearcher(up, testRegistry(), nil, search.Options{}, testLogger())
	res, err := s.Search(context.Background(), search.Query{Keyword: "k"})
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, titles(res.Items))
}

func TestSearcher_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockUpstream(ctrl)

	s := search.NewSearcher(up, testRegistry(), nil, search.Options{}, testLogger())
	_, err := s.Search(context.Background(), search.Query{Keyword: "   "})
	assert.ErrorIs(t, err, search.ErrEmptyKeyword)

	_, err = s.Search(context.Background(), search.Query{Keyword: "k", SourceAPI: "https://evil.example.com/"})
	assert.ErrorIs(t, err, search.ErrUnknownSource)

	empty := search.NewSearcher(up, source.NewRegistry(nil), nil, search.Options{}, testLogger())
	_, err = empty.Search(context.Background(), search.Query{Keyword: "k"})
	assert.ErrorIs(t, err, search.ErrNoSources)
	_, err = empty.Search(context.Background(), search.Query{Keyword: "k", Mode: search.ModeAll})
	assert.ErrorIs(t, err, search.ErrNoSources)
}

func TestSearcher_CacheHitSkipsFanOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockUpstream(ctrl)
	up.EXPECT().Search(gomock.Any(), gomock.Any(), "三体").Return([]upstream.Item{item("1", "三体")}, nil).Times(3)

	cache := search.NewCache(time.Hour, 100, nil, testLogger())
	s := search.NewSearcher(up, testRegistry(), cache, search.Options{}, testLogger())

	first, err := s.Search(context.Background(), search.Query{Keyword: "三体", Mode: search.ModeAll})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := s.Search(context.Background(), search.Query{Keyword: "三体", Mode: search.ModeAll})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Items, second.Items)
}

func TestSearcher_CacheExpires(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockUpstream(ctrl)
	up.EXPECT().Search(gomock.Any(), apiFast, "k").Return([]upstream.Item{item("1", "k")}, nil).Times(2)

	cache := search.NewCache(20*time.Millisecond, 100, nil, testLogger())
	s := search.NewSearcher(up, testRegistry(), cache, search.Options{}, testLogger())

	_, err := s.Search(context.Background(), search.Query{Keyword: "k"})
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond)
	res, err := s.Search(context.Background(), search.Query{Keyword: "k"})
	require.NoError(t, err)
	assert.False(t, res.Cached)
}

func TestSearcher_EmptyResultsNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockUpstream(ctrl)
	up.EXPECT().Search(gomock.Any(), apiFast, "k").Return(nil, upstream.ErrNoData).Times(2)

	cache := search.NewCache(time.Hour, 100, nil, testLogger())
	s := search.NewSearcher(up, testRegistry(), cache, search.Options{}, testLogger())

	for range 2 {
		res, err := s.Search(context.Background(), search.Query{Keyword: "k"})
		require.NoError(t, err)
		assert.False(t, res.Cached)
	}
	assert.Equal(t, 0, cache.Len())
}

func TestSearcher_CacheKeyIncludesMode(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockUpstream(ctrl)
	up.EXPECT().Search(gomock.Any(), gomock.Any(), "k").Return([]upstream.Item{item("1", "k")}, nil).Times(4)

	cache := search.NewCache(time.Hour, 100, nil, testLogger())
	s := search.NewSearcher(up, testRegistry(), cache, search.Options{}, testLogger())

	_, err := s.Search(context.Background(), search.Query{Keyword: "k", Mode: search.ModeFast})
	require.NoError(t, err)
	res, err := s.Search(context.Background(), search.Query{Keyword: "k", Mode: search.ModeAll})
	require.NoError(t, err)
	assert.False(t, res.Cached)
}

func TestSearcher_ConcurrentMissesShareFanOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockUpstream(ctrl)
	up.EXPECT().Search(gomock.Any(), apiFast, "k").DoAndReturn(func(ctx context.Context, api, kw string) ([]upstream.Item, error) {
		time.Sleep(30 * time.Millisecond)
		return []upstream.Item{item("1", "k")}, nil
	}).Times(1)

	cache := search.NewCache(time.Hour, 100, nil, testLogger())
	s := search.NewSearcher(up, testRegistry(), cache, search.Options{}, testLogger())

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.Search(context.Background(), search.Query{Keyword: "k"})
			assert.NoError(t, err)
			assert.Len(t, res.Items, 1)
		}()
	}
	wg.Wait()
}

func TestSearcher_FanOutOutlivesCanceledCaller(t *testing.T) {
	ctrl := gomock.NewController(t)
	up := mocks.NewMockUpstream(ctrl)
	up.EXPECT().Search(gomock.Any(), apiFast, "k").DoAndReturn(func(ctx context.Context, api, kw string) ([]upstream.Item, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []upstream.Item{item("1", "k")}, nil
	}).Times(1)

	cache := search.NewCache(time.Hour, 100, nil, testLogger())
	s := search.NewSearcher(up, testRegistry(), cache, search.Options{}, testLogger())

	// The caller that starts the fan-out has already gone away.
	gone, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := s.Search(gone, search.Query{Keyword: "k"})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.Zero(t, res.Failed)

	// The result was cached for everyone else.
	res, err = s.Search(context.Background(), search.Query{Keyword: "k"})
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Len(t, res.Items, 1)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, search.ModeAll, search.ParseMode("all"))
	assert.Equal(t, search.ModeAll, search.ParseMode(" ALL "))
	assert.Equal(t, search.ModeFast, search.ParseMode("fast"))
	assert.Equal(t, search.ModeFast, search.ParseMode(""))
	assert.Equal(t, search.ModeFast, search.ParseMode("bogus"))
}
