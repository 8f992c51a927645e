// Package scheduler implements the per-model request pump: token/request
// pools, FIFO queueing, retry classification (retryable failures are
// re-queued at the tail with no added delay), and header-driven
// recalibration described for the rate-limited scheduler component.
package scheduler

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sagentic-ai/sagentic-af/provider"
	"github.com/sagentic-ai/sagentic-af/telemetry"
)

// DispatchFunc performs one attempt against a provider adapter.
type DispatchFunc func(ctx context.Context, req *provider.Request) (*provider.Response, provider.Headers, error)

// ClassifyFunc maps a dispatch error to a retry class.
type ClassifyFunc func(err error) provider.RetryClass

const defaultFallbackInterval = 60 * time.Second
const defaultMaxRetries = 5
const warnThreshold = 10 * time.Second

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

func WithPools(tokenMax, requestMax int) Option {
	return func(s *Scheduler) {
		s.tokenPoolMax, s.tokenPool = tokenMax, tokenMax
		s.requestPoolMax, s.requestPool = requestMax, requestMax
	}
}

func WithMaxRetries(n int) Option { return func(s *Scheduler) { s.maxRetries = n } }

func WithRequestTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.requestTimeout = d }
}

func WithFallbackInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.fallbackInterval = d }
}

func WithLogger(l telemetry.Logger) Option { return func(s *Scheduler) { s.logger = l } }

// Scheduler serializes outbound requests for one model.
type Scheduler struct {
	modelID  string
	dispatch DispatchFunc
	classify ClassifyFunc
	logger   telemetry.Logger

	mu             sync.Mutex
	tokenPool      int
	tokenPoolMax   int
	requestPool    int
	requestPoolMax int
	queue          *list.List // of *ticket
	inflight       map[uint64]*ticket
	nextID         uint64

	maxRetries       int
	requestTimeout   time.Duration
	fallbackInterval time.Duration

	fallbackTimer     *time.Timer
	requestResetTimer *time.Timer
	tokenResetTimer   *time.Timer
	requestResetArmed bool
	tokenResetArmed   bool

	running atomic.Bool
	stopped atomic.Bool
	wg      sync.WaitGroup
}

// New constructs a Scheduler for one model. dispatch and classify must be
// non-nil; they are typically bound to a provider.Adapter's Complete and
// ClassifyError methods.
func New(modelID string, dispatch DispatchFunc, classify ClassifyFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		modelID:          modelID,
		dispatch:         dispatch,
		classify:         classify,
		logger:           telemetry.NewNoopLogger(),
		queue:            list.New(),
		inflight:         make(map[uint64]*ticket),
		maxRetries:       defaultMaxRetries,
		requestTimeout:   30 * time.Second,
		fallbackInterval: defaultFallbackInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start arms the fallback refill timer. Calling Start twice is a no-op.
func (s *Scheduler) Start() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	s.stopped.Store(false)
	s.mu.Lock()
	s.fallbackTimer = time.AfterFunc(s.fallbackInterval, s.onFallback)
	s.mu.Unlock()
}

// Stop disarms all timers and rejects every ticket still queued with
// ErrShutdown. In-flight dispatches are left to resolve on their own
// goroutines; Stop does not block waiting for them.
func (s *Scheduler) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	s.stopped.Store(true)

	s.mu.Lock()
	if s.fallbackTimer != nil {
		s.fallbackTimer.Stop()
	}
	if s.requestResetTimer != nil {
		s.requestResetTimer.Stop()
	}
	if s.tokenResetTimer != nil {
		s.tokenResetTimer.Stop()
	}
	var drained []*ticket
	for e := s.queue.Front(); e != nil; {
		next := e.Next()
		drained = append(drained, e.Value.(*ticket))
		s.queue.Remove(e)
		e = next
	}
	s.mu.Unlock()

	for _, t := range drained {
		t.reject(ErrShutdown)
	}
}

// Enqueue submits a request of estimated token size, blocking until the
// scheduler resolves or rejects it, or ctx is canceled.
func (s *Scheduler) Enqueue(ctx context.Context, estimatedTokens int, req *provider.Request) (*provider.Response, error) {
	t := newTicket(atomic.AddUint64(&s.nextID, 1), estimatedTokens, req)

	s.mu.Lock()
	s.queue.PushBack(t)
	s.step()
	s.mu.Unlock()

	select {
	case res := <-t.done:
		return res.resp, res.err
	case <-ctx.Done():
		s.cancelQueued(t)
		return nil, ctx.Err()
	}
}

// cancelQueued removes t from the queue if it is still sitting there
// (i.e. hasn't been picked up for dispatch yet); if it has already been
// dispatched, the result channel will still deliver once it settles, so
// there is nothing to cancel on the scheduler's side.
func (s *Scheduler) cancelQueued(t *ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for e := s.queue.Front(); e != nil; e = e.Next() {
		if e.Value.(*ticket) == t {
			s.queue.Remove(e)
			return
		}
	}
}

// step advances the scheduling state machine. Callers must hold s.mu. step
// recurses (not loops) to mirror the spec's recursive scheduling step, and
// never blocks: dispatch is always launched on its own goroutine.
func (s *Scheduler) step() {
	if s.queue.Len() == 0 {
		return
	}
	if s.requestPool <= 0 {
		return
	}

	front := s.queue.Front()
	t := front.Value.(*ticket)

	if t.tokens > s.tokenPoolMax {
		s.queue.Remove(front)
		t.reject(ErrExceedsContext)
		s.step()
		return
	}
	if t.tokens > s.tokenPool {
		return
	}

	s.queue.Remove(front)
	s.requestPool--
	s.tokenPool -= t.tokens
	s.inflight[t.id] = t

	s.wg.Add(1)
	go s.runDispatch(t)

	s.step()
}

func (s *Scheduler) runDispatch(t *ticket) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.requestTimeout)
	defer cancel()

	resp, headers, err := s.dispatch(ctx, t.request)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	s.mu.Lock()
	delete(s.inflight, t.id)
	s.applyHeadersLocked(headers)

	if err == nil {
		s.mu.Unlock()
		t.resolve(resp)
		s.mu.Lock()
		s.step()
		s.mu.Unlock()
		return
	}

	class := s.classifyErr(ctx, err)
	retryable := class == provider.ClassTooManyRequests || class == provider.ClassServerError || class == provider.ClassTimeout

	if retryable && t.retries < s.maxRetries {
		t.retries++
		s.queue.PushBack(t)
		s.step()
		s.mu.Unlock()
		return
	}

	s.step()
	s.mu.Unlock()
	t.reject(&RetryError{Class: string(class), Retries: t.retries, Cause: err})
}

func (s *Scheduler) classifyErr(ctx context.Context, err error) provider.RetryClass {
	if ctx.Err() != nil {
		return provider.ClassTimeout
	}
	return s.classify(err)
}

// applyHeadersLocked folds a provider's normalized rate-limit headers into
// the live pools and (re)arms the per-reset timers. Callers must hold s.mu.
func (s *Scheduler) applyHeadersLocked(h provider.Headers) {
	now := time.Now()

	if h.RequestLimit > 0 {
		s.requestPoolMax = h.RequestLimit
		s.requestPool = h.RequestRemaining
	}
	if h.HasRequestReset {
		s.armResetTimer(&s.requestResetTimer, &s.requestResetArmed, h.RequestResetDuration, s.onRequestReset)
		if h.RequestResetDuration > warnThreshold {
			s.logger.Warn(context.Background(), "scheduler: next request-pool refill is more than 10s away",
				"model", s.modelID, "reset_in", h.RequestResetDuration)
		}
	}

	if h.TokenLimit > 0 {
		s.tokenPoolMax = h.TokenLimit
		s.tokenPool = h.TokenRemaining
	}
	if h.HasTokenReset {
		s.armResetTimer(&s.tokenResetTimer, &s.tokenResetArmed, h.TokenResetDuration, s.onTokenReset)
		if h.TokenResetDuration > warnThreshold {
			s.logger.Warn(context.Background(), "scheduler: next token-pool refill is more than 10s away",
				"model", s.modelID, "reset_in", h.TokenResetDuration)
		}
	}
	_ = now
}

func (s *Scheduler) armResetTimer(timer **time.Timer, armed *bool, d time.Duration, fn func()) {
	if *timer != nil {
		(*timer).Stop()
	}
	*armed = true
	*timer = time.AfterFunc(d, fn)
}

func (s *Scheduler) onRequestReset() {
	s.mu.Lock()
	s.requestPool = s.requestPoolMax
	s.requestResetArmed = false
	s.step()
	s.mu.Unlock()
}

func (s *Scheduler) onTokenReset() {
	s.mu.Lock()
	s.tokenPool = s.tokenPoolMax
	s.tokenResetArmed = false
	s.step()
	s.mu.Unlock()
}

// onFallback unconditionally refills any pool whose own reset timer is not
// currently armed, guaranteeing progress when a provider omits headers.
func (s *Scheduler) onFallback() {
	s.mu.Lock()
	if !s.requestResetArmed {
		s.requestPool = s.requestPoolMax
	}
	if !s.tokenResetArmed {
		s.tokenPool = s.tokenPoolMax
	}
	s.step()
	if s.running.Load() {
		s.fallbackTimer = time.AfterFunc(s.fallbackInterval, s.onFallback)
	}
	s.mu.Unlock()
}

// Snapshot reports the current pool state, for tests and diagnostics.
type Snapshot struct {
	TokenPool, TokenPoolMax     int
	RequestPool, RequestPoolMax int
	QueueLen                    int
	InflightLen                 int
}

func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		TokenPool: s.tokenPool, TokenPoolMax: s.tokenPoolMax,
		RequestPool: s.requestPool, RequestPoolMax: s.requestPoolMax,
		QueueLen: s.queue.Len(), InflightLen: len(s.inflight),
	}
}
