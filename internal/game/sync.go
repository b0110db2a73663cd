package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quiz-live/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
)

// DurableStore is the key-by-code document store sessions are mirrored to.
// Every call may fail; none of them is allowed to affect gameplay.
type DurableStore interface {
	Put(ctx context.Context, code string, snapshot GameSession) error
	Update(ctx context.Context, code string, fields map[string]any) error
	Get(ctx context.Context, code string) (GameSession, bool, error)
}

// AnswerArchive is implemented by stores that keep an answer audit trail.
type AnswerArchive interface {
	SaveAnswer(ctx context.Context, record AnswerRecord) error
}

type SyncOptions struct {
	QueueSize        int
	Timeout          time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

func (o SyncOptions) withDefaults() SyncOptions {
	if o.QueueSize <= 0 {
		o.QueueSize = 1024
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.FailureThreshold == 0 {
		o.FailureThreshold = 5
	}
	if o.OpenTimeout <= 0 {
		o.OpenTimeout = 30 * time.Second
	}
	return o
}

type syncOp struct {
	name string
	code string
	run  func(ctx context.Context) error
	done chan struct{}
}

// Synchronizer mirrors session mutations to a DurableStore in the order they
// were applied in memory. Enqueueing never blocks; a single worker drains the
// queue through a circuit breaker and swallows every failure.
type Synchronizer struct {
	store   DurableStore
	archive AnswerArchive
	queue   chan syncOp
	breaker *gobreaker.CircuitBreaker[any]
	timeout time.Duration
	logger  zerolog.Logger
}

// NewSynchronizer returns a disabled synchronizer when store is nil.
func NewSynchronizer(store DurableStore, opts SyncOptions) *Synchronizer {
	s := &Synchronizer{
		logger: log.With().Str("component", "synchronizer").Logger(),
	}
	if store == nil {
		return s
	}
	opts = opts.withDefaults()
	s.store = store
	if archive, ok := store.(AnswerArchive); ok {
		s.archive = archive
	}
	s.queue = make(chan syncOp, opts.QueueSize)
	s.timeout = opts.Timeout
	s.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "durable-store",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.Set(float64(to))
			s.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("store breaker state changed")
		},
	})
	return s
}

func (s *Synchronizer) Enabled() bool {
	return s != nil && s.store != nil
}

func (s *Synchronizer) String() string {
	return "store-synchronizer"
}

// Serve drains the queue until ctx is cancelled, then processes whatever is
// already queued before returning.
func (s *Synchronizer) Serve(ctx context.Context) error {
	if !s.Enabled() {
		<-ctx.Done()
		return ctx.Err()
	}
	for {
		select {
		case <-ctx.Done():
			s.drain()
			return ctx.Err()
		case op := <-s.queue:
			s.exec(context.Background(), op)
		}
	}
}

func (s *Synchronizer) drain() {
	for {
		select {
		case op := <-s.queue:
			s.exec(context.Background(), op)
		default:
			return
		}
	}
}

// Flush blocks until every op enqueued before the call has been processed.
func (s *Synchronizer) Flush(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.queue <- syncOp{name: "flush", done: done}:
		metrics.SyncQueueDepth.Inc()
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Synchronizer) enqueue(op syncOp) {
	if !s.Enabled() {
		return
	}
	select {
	case s.queue <- op:
		metrics.SyncQueueDepth.Inc()
	default:
		metrics.StoreOps.WithLabelValues(op.name, "dropped").Inc()
		s.logger.Warn().Str("op", op.name).Str("code", op.code).Msg("store queue full, mirror write dropped")
	}
}

func (s *Synchronizer) exec(ctx context.Context, op syncOp) {
	metrics.SyncQueueDepth.Dec()
	if op.done != nil {
		close(op.done)
		return
	}
	start := time.Now()
	_, err := s.breaker.Execute(func() (any, error) {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return nil, op.run(opCtx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.StoreOps.WithLabelValues(op.name, "breaker_open").Inc()
		s.logger.Debug().Str("op", op.name).Str("code", op.code).Msg("store breaker open, mirror write skipped")
		return
	}
	metrics.RecordStoreOp(op.name, time.Since(start), err)
	if err != nil {
		s.logger.Warn().Err(fmt.Errorf("%w: %v", ErrStoreUnavailable, err)).Str("op", op.name).Str("code", op.code).Msg("store write failed")
	}
}

func (s *Synchronizer) put(snapshot GameSession) {
	s.enqueue(syncOp{
		name: "put",
		code: snapshot.Code,
		run: func(ctx context.Context) error {
			return s.store.Put(ctx, snapshot.Code, snapshot)
		},
	})
}

// update takes ownership of fields; callers must not reuse slices stored in it.
func (s *Synchronizer) update(code string, fields map[string]any) {
	s.enqueue(syncOp{
		name: "update",
		code: code,
		run: func(ctx context.Context) error {
			return s.store.Update(ctx, code, fields)
		},
	})
}

func (s *Synchronizer) saveAnswer(record AnswerRecord) {
	if s.archive == nil {
		return
	}
	s.enqueue(syncOp{
		name: "save_answer",
		code: record.Code,
		run: func(ctx context.Context) error {
			return s.archive.SaveAnswer(ctx, record)
		},
	})
}

// get reads straight from the store. It is only used for codes unknown in memory.
func (s *Synchronizer) get(ctx context.Context, code string) (GameSession, bool, error) {
	if !s.Enabled() {
		return GameSession{}, false, nil
	}
	type result struct {
		session GameSession
		found   bool
	}
	start := time.Now()
	out, err := s.breaker.Execute(func() (any, error) {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		session, found, err := s.store.Get(opCtx, code)
		return result{session: session, found: found}, err
	})
	if err != nil {
		if !errors.Is(err, gobreaker.ErrOpenState) && !errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordStoreOp("get", time.Since(start), err)
		}
		return GameSession{}, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	metrics.RecordStoreOp("get", time.Since(start), nil)
	res := out.(result)
	return res.session, res.found, nil
}
