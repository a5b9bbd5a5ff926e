package visits_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/vodgate/internal/visits"
)

type memoryInserter struct {
	mu      sync.Mutex
	records []visits.Record
	block   chan struct{}
	err     error
	panics  bool
}

func (m *memoryInserter) Insert(_ context.Context, r *visits.Record) error {
	if m.block != nil {
		<-m.block
	}
	if m.panics {
		panic("insert exploded")
	}
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = int64(len(m.records) + 1)
	m.records = append(m.records, *r)
	return nil
}

func (m *memoryInserter) all() []visits.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]visits.Record(nil), m.records...)
}

type fixedLocator string

func (f fixedLocator) Locate(context.Context, string) string { return string(f) }

func runRecorder(t *testing.T, rec *visits.Recorder) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rec.Run(ctx) }()
	return func() {
		stop()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("recorder did not stop")
		}
	}
}

func TestRecorder_RecordsVisit(t *testing.T) {
	store := &memoryInserter{}
	shanghai := time.FixedZone("CST", 8*60*60)
	rec := visits.NewRecorder(store, fixedLocator("Earth"), visits.RecorderOptions{Location: shanghai}, testLogger())

	stop := runRecorder(t, rec)
	r := httptest.NewRequest("GET", "/search?q=x", nil)
	r.RemoteAddr = "203.0.113.5:4000"
	r.Header.Set("User-Agent", "agent/1.0")
	before := time.Now()
	rec.Record(r, "search: x")

	require.Eventually(t, func() bool { return len(store.all()) == 1 }, 2*time.Second, 10*time.Millisecond)
	stop()

	got := store.all()[0]
	assert.Equal(t, "203.0.113.5", got.IP)
	assert.Equal(t, "Earth", got.Location)
	assert.Equal(t, "search: x", got.Action)
	assert.Equal(t, "agent/1.0", got.UserAgent)

	at, err := visits.ParseTime(got.Time, shanghai)
	require.NoError(t, err)
	assert.WithinDuration(t, before, at, 2*time.Second)
	assert.Equal(t, before.In(shanghai).Format(visits.DayLayout), got.Time[:10])

	recorded, dropped := rec.Stats()
	assert.Equal(t, int64(1), recorded)
	assert.Zero(t, dropped)
}

func TestRecorder_NilGeoStoresUnknown(t *testing.T) {
	store := &memoryInserter{}
	rec := visits.NewRecorder(store, nil, visits.RecorderOptions{}, testLogger())
	require.NoError(t, rec.Enqueue("8.8.8.8", "home", ""))

	stop := runRecorder(t, rec)
	require.Eventually(t, func() bool { return len(store.all()) == 1 }, 2*time.Second, 10*time.Millisecond)
	stop()

	assert.Equal(t, visits.UnknownLocation, store.all()[0].Location)
}

func TestRecorder_QueueFullDrops(t *testing.T) {
	store := &memoryInserter{}
	rec := visits.NewRecorder(store, nil, visits.RecorderOptions{QueueSize: 2}, testLogger())

	// No workers running: the queue fills and further visits are dropped.
	require.NoError(t, rec.Enqueue("1.1.1.1", "a", ""))
	require.NoError(t, rec.Enqueue("1.1.1.1", "b", ""))
	assert.ErrorIs(t, rec.Enqueue("1.1.1.1", "c", ""), visits.ErrQueueFull)

	_, dropped := rec.Stats()
	assert.Equal(t, int64(1), dropped)
}

func TestRecorder_RecordNeverBlocks(t *testing.T) {
	store := &memoryInserter{block: make(chan struct{})}
	rec := visits.NewRecorder(store, nil, visits.RecorderOptions{QueueSize: 1, Workers: 1}, testLogger())
	stop := runRecorder(t, rec)
	defer stop()
	defer close(store.block)

	r := httptest.NewRequest("GET", "/", nil)
	done := make(chan struct{})
	go func() {
		for range 50 {
			rec.Record(r, "home")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a stalled store")
	}
}

func TestRecorder_Denylist(t *testing.T) {
	store := &memoryInserter{}
	rec := visits.NewRecorder(store, nil, visits.RecorderOptions{Denylist: []string{"10.0.0.1", "bogus", "2001:db8::1"}}, testLogger())

	assert.ErrorIs(t, rec.Enqueue("10.0.0.1", "home", ""), visits.ErrDenied)
	assert.ErrorIs(t, rec.Enqueue("::ffff:10.0.0.1", "home", ""), visits.ErrDenied)
	assert.ErrorIs(t, rec.Enqueue("2001:db8::1", "home", ""), visits.ErrDenied)
	assert.NoError(t, rec.Enqueue("10.0.0.2", "home", ""))
}

func TestRecorder_DrainsOnShutdown(t *testing.T) {
	store := &memoryInserter{}
	rec := visits.NewRecorder(store, nil, visits.RecorderOptions{QueueSize: 16}, testLogger())
	for range 10 {
		require.NoError(t, rec.Enqueue("1.1.1.1", "home", ""))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, rec.Run(ctx))

	assert.Len(t, store.all(), 10)
}

func TestRecorder_InsertErrorIsAbsorbed(t *testing.T) {
	store := &memoryInserter{err: errors.New("disk full")}
	rec := visits.NewRecorder(store, nil, visits.RecorderOptions{}, testLogger())
	require.NoError(t, rec.Enqueue("1.1.1.1", "home", ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, rec.Run(ctx))

	recorded, _ := rec.Stats()
	assert.Zero(t, recorded)
}

func TestRecorder_PanicIsRecovered(t *testing.T) {
	store := &memoryInserter{panics: true}
	rec := visits.NewRecorder(store, nil, visits.RecorderOptions{}, testLogger())
	require.NoError(t, rec.Enqueue("1.1.1.1", "home", ""))
	require.NoError(t, rec.Enqueue("1.1.1.1", "home", ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NotPanics(t, func() { _ = rec.Run(ctx) })
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var rec *visits.Recorder
	assert.NotPanics(t, func() {
		rec.Record(httptest.NewRequest("GET", "/", nil), "home")
	})
}

func TestRecorder_WritesToStore(t *testing.T) {
	store, _ := setupStore(t)
	rec := visits.NewRecorder(store, fixedLocator("Mars"), visits.RecorderOptions{Location: time.UTC}, testLogger())
	require.NoError(t, rec.Enqueue("8.8.4.4", "play: id=7 ep=2", "ua"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, rec.Run(ctx))

	recent, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Mars", recent[0].Location)
	assert.Equal(t, "play: id=7 ep=2", recent[0].Action)
}
