package search

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"refsearch/internal/logging"
	"refsearch/internal/metrics"
)

// State is the lifecycle state of a search session.
type State string

const (
	// StateIdle means no session has started since the last reset.
	StateIdle State = "idle"
	// StateRunning means a traversal is in flight.
	StateRunning State = "running"
	// StateCompleted means the last session finished normally.
	StateCompleted State = "completed"
	// StateCancelled means the last session was cancelled; its partial
	// results are valid.
	StateCancelled State = "cancelled"
	// StateFailed means the last session failed (all roots unavailable).
	StateFailed State = "failed"
)

// ResultCache stores completed result sets keyed by the criteria hash.
// Implementations own their expiry policy.
type ResultCache interface {
	Get(key string) ([]byte, bool)
	Put(key string, payload []byte)
}

// Snapshot is a point-in-time view of the session for progress polling.
type Snapshot struct {
	ID             uuid.UUID `json:"id"`
	State          State     `json:"state"`
	Processed      int64     `json:"processed"`
	EstimatedTotal int64     `json:"estimatedTotal"`
	CurrentPath    string    `json:"currentPath"`
	Cached         bool      `json:"cached"`
	Error          string    `json:"error,omitempty"`
}

// Service owns the single search session. Exactly one session may be
// Running at a time; starting a new search while one is Running returns
// ErrSearchRunning and the caller must cancel first.
//
// The service replaces the process-wide "is searching" flag of ad-hoc
// designs: all mutable session state lives here, and the traversal engine
// and aggregator are created fresh per session and discarded with it.
type Service struct {
	cache   ResultCache
	workers int

	mu          sync.Mutex
	state       State
	id          uuid.UUID
	cancel      context.CancelFunc
	groups      []ResultGroup
	cached      bool
	err         error
	processed   int64
	estimated   int64
	currentPath string
	done        chan struct{}
}

// NewService creates a search service. cache may be nil to disable result
// caching; workerCount <= 0 selects the engine default.
func NewService(cache ResultCache, workerCount int) *Service {
	return &Service{
		cache:   cache,
		workers: workerCount,
		state:   StateIdle,
	}
}

// Start begins a reference search session. On a cache hit the session
// completes immediately with the stored groups and no traversal runs.
// Returns ErrSearchRunning if a session is already Running.
func (s *Service) Start(criteria Criteria) (uuid.UUID, error) {
	s.mu.Lock()
	if s.state == StateRunning {
		s.mu.Unlock()
		return uuid.Nil, ErrSearchRunning
	}

	id := uuid.New()
	s.resetLocked(id)

	if s.cache != nil {
		if payload, ok := s.cache.Get(criteria.Key()); ok {
			var groups []ResultGroup
			if err := json.Unmarshal(payload, &groups); err == nil {
				s.state = StateCompleted
				s.groups = groups
				s.cached = true
				s.mu.Unlock()
				metrics.CacheHits.Inc()
				logging.Info("search %s served from cache (%d references)", id, len(groups))
				return id, nil
			}
			logging.Warn("discarding undecodable cache entry for key %s", criteria.Key())
		}
		metrics.CacheMisses.Inc()
	}

	ctx, cancel := context.WithCancel(context.Background())
	engine := NewEngine(criteria, s.workers)
	aggregator := NewAggregator(criteria.References())
	done := make(chan struct{})

	s.state = StateRunning
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	metrics.SearchRunning.Set(1)
	logging.Info("search %s started: %d references, %d roots",
		id, len(criteria.References()), len(criteria.Roots()))

	go s.run(ctx, cancel, engine, aggregator, criteria, done)
	return id, nil
}

func (s *Service) run(ctx context.Context, cancel context.CancelFunc, engine *Engine, aggregator *Aggregator, criteria Criteria, done chan struct{}) {
	defer close(done)
	defer cancel()
	defer metrics.SearchRunning.Set(0)
	start := time.Now()

	var consumers sync.WaitGroup
	consumers.Add(2)
	go func() {
		defer consumers.Done()
		for ev := range engine.Progress() {
			s.setProgress(ev)
		}
	}()
	go func() {
		defer consumers.Done()
		aggregator.Consume(engine.Matches())
	}()

	err := engine.Run(ctx)
	consumers.Wait()

	groups := aggregator.Groups()
	outcome := s.finish(err, groups, false)

	if outcome == StateCompleted && s.cache != nil {
		if payload, marshalErr := json.Marshal(groups); marshalErr == nil {
			s.cache.Put(criteria.Key(), payload)
		} else {
			logging.Error("failed to encode result groups for caching: %v", marshalErr)
		}
	}

	metrics.SearchesTotal.WithLabelValues("reference", string(outcome)).Inc()
	metrics.SearchDuration.WithLabelValues("reference").Observe(time.Since(start).Seconds())
	logging.Info("search finished: %s in %v", outcome, time.Since(start).Round(time.Millisecond))
}

// RunExclusive runs fn under the session state machine, for search modes
// that drive their own traversal (image similarity). It blocks until fn
// returns, holding the Running state for its duration; Cancel works the
// same as for reference searches.
func (s *Service) RunExclusive(mode string, fn func(ctx context.Context, report func(ProgressEvent)) error) error {
	s.mu.Lock()
	if s.state == StateRunning {
		s.mu.Unlock()
		return ErrSearchRunning
	}
	id := uuid.New()
	s.resetLocked(id)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.state = StateRunning
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	metrics.SearchRunning.Set(1)
	start := time.Now()

	err := fn(ctx, s.setProgress)

	cancel()
	close(done)
	metrics.SearchRunning.Set(0)

	outcome := s.finish(err, nil, true)
	metrics.SearchesTotal.WithLabelValues(mode, string(outcome)).Inc()
	metrics.SearchDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	if outcome == StateCancelled {
		return nil
	}
	return err
}

// finish transitions the session to its terminal state and stores results.
// keepGroups skips the group update for modes that keep results elsewhere.
func (s *Service) finish(err error, groups []ResultGroup, keepGroups bool) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !keepGroups {
		s.groups = groups
	}
	switch {
	case err != nil && errors.Is(err, context.Canceled):
		s.state = StateCancelled
	case err != nil:
		s.state = StateFailed
		s.err = err
	default:
		s.state = StateCompleted
	}
	return s.state
}

func (s *Service) setProgress(ev ProgressEvent) {
	s.mu.Lock()
	s.processed = ev.Processed
	s.estimated = ev.EstimatedTotal
	s.currentPath = ev.CurrentPath
	s.mu.Unlock()
}

// resetLocked clears per-session fields. Caller holds s.mu.
func (s *Service) resetLocked(id uuid.UUID) {
	s.id = id
	s.groups = nil
	s.cached = false
	s.err = nil
	s.processed = 0
	s.estimated = 0
	s.currentPath = ""
	s.cancel = nil
	s.done = nil
}

// Cancel requests cooperative cancellation of the running session.
// Returns false when no session is Running. Partial results accumulated
// before cancellation remain available.
func (s *Service) Cancel() bool {
	s.mu.Lock()
	cancel := s.cancel
	running := s.state == StateRunning
	s.mu.Unlock()
	if !running || cancel == nil {
		return false
	}
	logging.Info("search cancellation requested")
	cancel()
	return true
}

// Done returns a channel closed when the current session's run loop has
// exited. Returns a closed channel when nothing is running.
func (s *Service) Done() <-chan struct{} {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return done
}

// Snapshot returns a point-in-time view of the session.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:             s.id,
		State:          s.state,
		Processed:      s.processed,
		EstimatedTotal: s.estimated,
		CurrentPath:    s.currentPath,
		Cached:         s.cached,
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	return snap
}

// Results returns the groups of the last terminal session. Cancelled
// sessions return their partial results; Failed sessions return the
// failure. ErrSearchRunning while Running, ErrNoResults before any run.
func (s *Service) Results() ([]ResultGroup, State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateRunning:
		return nil, s.state, ErrSearchRunning
	case StateIdle:
		return nil, s.state, ErrNoResults
	case StateFailed:
		return nil, s.state, s.err
	}
	groups := make([]ResultGroup, len(s.groups))
	copy(groups, s.groups)
	return groups, s.state, nil
}

// Reset returns the session to Idle, discarding results and counters.
// Running sessions must be cancelled first.
func (s *Service) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return ErrSearchRunning
	}
	s.resetLocked(uuid.Nil)
	s.state = StateIdle
	return nil
}
