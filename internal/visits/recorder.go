package visits

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"
)

const drainTimeout = 5 * time.Second

// Inserter persists a visit.
type Inserter interface {
	Insert(ctx context.Context, r *Record) error
}

// Locator resolves an address to a location string.
type Locator interface {
	Locate(ctx context.Context, ip string) string
}

// RecorderOptions configures a Recorder.
type RecorderOptions struct {
	QueueSize int
	Workers   int
	Location  *time.Location // zone used for stored timestamps
	Denylist  []string       // addresses that are never logged
}

type job struct {
	ip        string
	action    string
	userAgent string
	at        time.Time
}

// Recorder logs visits off the request path. Record enqueues onto a bounded
// queue and returns immediately; Run drains the queue with a fixed worker pool.
type Recorder struct {
	store   Inserter
	geo     Locator
	queue   chan job
	workers int
	loc     *time.Location
	deny    map[netip.Addr]bool
	now     func() time.Time
	log     *slog.Logger

	dropped  atomic.Int64
	recorded atomic.Int64
}

// NewRecorder creates a Recorder. geo may be nil.
func NewRecorder(store Inserter, geo Locator, opts RecorderOptions, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	deny := make(map[netip.Addr]bool, len(opts.Denylist))
	for _, s := range opts.Denylist {
		if addr, err := netip.ParseAddr(s); err == nil {
			deny[addr.Unmap()] = true
		}
	}

	return &Recorder{
		store:   store,
		geo:     geo,
		queue:   make(chan job, opts.QueueSize),
		workers: opts.Workers,
		loc:     opts.Location,
		deny:    deny,
		now:     time.Now,
		log:     logger.With("component", "visits"),
	}
}

// Record logs a visit for r under action. It never blocks and never fails
// the caller; a full queue drops the visit with a warning.
func (rec *Recorder) Record(r *http.Request, action string) {
	if rec == nil {
		return
	}
	_ = rec.Enqueue(ClientIP(r), action, r.UserAgent())
}

// Enqueue queues a visit. It returns ErrDenied for excluded addresses and
// ErrQueueFull when the queue is saturated.
func (rec *Recorder) Enqueue(ip, action, userAgent string) error {
	if addr, err := netip.ParseAddr(ip); err == nil && rec.deny[addr.Unmap()] {
		return ErrDenied
	}
	j := job{ip: ip, action: action, userAgent: userAgent, at: rec.now()}
	select {
	case rec.queue <- j:
		return nil
	default:
		rec.dropped.Add(1)
		rec.log.Warn("visit queue full, dropping visit", "action", action, "dropped_total", rec.dropped.Load())
		return ErrQueueFull
	}
}

// Run processes queued visits until ctx is canceled, then drains what is
// left within a short deadline. It always returns nil.
func (rec *Recorder) Run(ctx context.Context) error {
	rec.log.Info("visit recorder started", "workers", rec.workers, "queue", cap(rec.queue))

	// In-flight visits finish even after shutdown begins.
	work := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	for range rec.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case j := <-rec.queue:
					rec.process(work, j)
				}
			}
		}()
	}
	wg.Wait()

	drainCtx, cancel := context.WithTimeout(work, drainTimeout)
	defer cancel()
	drained := 0
drain:
	for drainCtx.Err() == nil {
		select {
		case j := <-rec.queue:
			rec.process(drainCtx, j)
			drained++
		default:
			break drain
		}
	}
	rec.log.Info("visit recorder stopped", "drained", drained, "recorded", rec.recorded.Load(), "dropped", rec.dropped.Load())
	return nil
}

func (rec *Recorder) process(ctx context.Context, j job) {
	defer func() {
		if p := recover(); p != nil {
			rec.log.Error("visit worker panic", "panic", fmt.Sprint(p))
		}
	}()

	location := UnknownLocation
	if rec.geo != nil && ctx.Err() == nil {
		location = rec.geo.Locate(ctx, j.ip)
	}

	r := &Record{
		IP:        j.ip,
		Location:  location,
		Time:      j.at.In(rec.loc).Format(TimeLayout),
		Action:    j.action,
		UserAgent: j.userAgent,
	}
	if err := rec.store.Insert(ctx, r); err != nil {
		rec.log.Error("failed to record visit", "action", j.action, "error", err)
		return
	}
	rec.recorded.Add(1)
}

// Stats returns the number of visits recorded and dropped since start.
func (rec *Recorder) Stats() (recorded, dropped int64) {
	return rec.recorded.Load(), rec.dropped.Load()
}
