package search

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"refsearch/internal/filesystem"
	"refsearch/internal/logging"
	"refsearch/internal/metrics"
	"refsearch/internal/reference"
	"refsearch/internal/workers"
)

// maxTraversalWorkers caps the pool size: NAS connections have a practical
// concurrency ceiling and more workers just queue on the server side.
const maxTraversalWorkers = 16

// FileMatch is one entry whose name matched a reference. In image-discovery
// mode Reference is the zero token.
type FileMatch struct {
	Reference reference.Token `json:"reference"`
	Class     Class           `json:"class"`
	Name      string          `json:"name"`
	Path      string          `json:"path"`
}

// ProgressEvent reports traversal progress. EstimatedTotal is revised
// upward as deeper directories are discovered, so the derived percentage
// is a monotonically-adjusted approximation, not exact.
type ProgressEvent struct {
	Processed      int64  `json:"processed"`
	EstimatedTotal int64  `json:"estimatedTotal"`
	CurrentPath    string `json:"currentPath"`
}

// dirJob is one directory waiting to be scanned. The pre-pass keeps the
// root listings it already paid for so roots are not listed twice.
type dirJob struct {
	path    string
	listing []os.DirEntry
}

// dirQueue is the shared work queue: workers are both producers (they
// enqueue subdirectories as discovered) and consumers. pending counts jobs
// pushed but not yet finished, so pop blocks while any worker might still
// produce more work and returns false once the traversal has drained.
type dirQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	jobs    []dirJob
	pending int
	closed  bool
}

func newDirQueue() *dirQueue {
	q := &dirQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *dirQueue) push(j dirJob) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.jobs = append(q.jobs, j)
	q.pending++
	q.cond.Signal()
}

func (q *dirQueue) pop() (dirJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.jobs) == 0 && q.pending > 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed || len(q.jobs) == 0 {
		return dirJob{}, false
	}
	j := q.jobs[0]
	q.jobs = q.jobs[1:]
	return j, true
}

// done marks one popped job finished. Once pending drops to zero no worker
// can produce more work, so blocked poppers are released.
func (q *dirQueue) done() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending--
	if q.pending == 0 {
		q.cond.Broadcast()
	}
}

// close aborts the traversal: queued jobs are discarded and poppers return.
func (q *dirQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.jobs = nil
	q.cond.Broadcast()
}

// Engine concurrently walks the criteria's roots, matching entries and
// emitting FileMatch and ProgressEvent streams. One Engine runs one
// traversal: create a fresh instance per session and discard it after
// Run returns.
type Engine struct {
	criteria Criteria
	workers  int
	retry    filesystem.RetryConfig

	matches  chan FileMatch
	progress chan ProgressEvent

	processed   atomic.Int64
	estimated   atomic.Int64
	entryErrors atomic.Int64
}

// NewEngine creates a traversal engine for the given criteria. workerCount
// <= 0 selects an I/O-oriented default capped at maxTraversalWorkers.
func NewEngine(criteria Criteria, workerCount int) *Engine {
	if workerCount <= 0 {
		workerCount = workers.ForIO(maxTraversalWorkers)
	}
	return &Engine{
		criteria: criteria,
		workers:  workerCount,
		retry:    filesystem.DefaultRetryConfig(),
		matches:  make(chan FileMatch, 256),
		progress: make(chan ProgressEvent, 64),
	}
}

// Matches returns the match event stream. It is closed when Run returns.
func (e *Engine) Matches() <-chan FileMatch { return e.matches }

// Progress returns the progress event stream. Delivery is best-effort:
// events are coalesced under backpressure so workers never block on it.
// It is closed when Run returns.
func (e *Engine) Progress() <-chan ProgressEvent { return e.progress }

// Counts returns the processed-directory count, the current total
// estimate and the number of entries skipped on I/O errors.
func (e *Engine) Counts() (processed, estimated, entryErrors int64) {
	return e.processed.Load(), e.estimated.Load(), e.entryErrors.Load()
}

// Run walks the roots until completion or cancellation, then closes both
// event streams. It returns ErrAllRootsUnavailable when no root was
// reachable at start, the context error on cancellation, and nil on
// normal completion. Per-entry failures never abort the traversal.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.matches)
	defer close(e.progress)

	queue := newDirQueue()

	// Shallow pre-pass: verify each root and seed the estimate with its
	// immediate walkable subdirectory count. The listing is reused by the
	// worker that picks the root up, and scanDir does not re-count its
	// subdirectories, so a completed traversal settles at
	// processed == estimated.
	available := 0
	for _, root := range e.criteria.roots {
		listing, err := filesystem.ReadDirWithRetry(root, e.retry)
		if err != nil {
			logging.Warn("search root unavailable, skipping: %s: %v", root, err)
			metrics.RootsSkipped.Inc()
			continue
		}
		subdirs := int64(0)
		for _, entry := range listing {
			if entry.IsDir() && !skipDir(entry.Name()) {
				subdirs++
			}
		}
		e.estimated.Add(1 + subdirs)
		queue.push(dirJob{path: root, listing: listing})
		available++
	}
	if available == 0 {
		return ErrAllRootsUnavailable
	}

	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			queue.close()
		case <-watchDone:
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.worker(ctx, queue)
		}()
	}
	wg.Wait()
	close(watchDone)

	if err := ctx.Err(); err != nil {
		logging.Info("traversal cancelled after %d directories", e.processed.Load())
		return err
	}
	logging.Debug("traversal complete: %d directories, %d entry errors",
		e.processed.Load(), e.entryErrors.Load())
	return nil
}

func (e *Engine) worker(ctx context.Context, queue *dirQueue) {
	for {
		job, ok := queue.pop()
		if !ok {
			return
		}
		e.scanDir(ctx, queue, job)
		queue.done()
		e.processed.Add(1)
		metrics.DirectoriesProcessed.Inc()
		e.emitProgress(job.path)
	}
}

func (e *Engine) scanDir(ctx context.Context, queue *dirQueue, job dirJob) {
	// Subdirectories of a pre-pass-listed job are already in the estimate.
	seeded := job.listing != nil
	listing := job.listing
	if listing == nil {
		var err error
		listing, err = filesystem.ReadDirWithRetry(job.path, e.retry)
		if err != nil {
			logging.Warn("skipping unreadable directory %s: %v", job.path, err)
			e.entryErrors.Add(1)
			metrics.EntryErrors.Inc()
			return
		}
	}

	for _, entry := range listing {
		if ctx.Err() != nil {
			return
		}
		name := entry.Name()
		fullPath := filepath.Join(job.path, name)

		if entry.IsDir() {
			if skipDir(name) {
				continue
			}
			if !seeded {
				e.estimated.Add(1)
			}
			queue.push(dirJob{path: fullPath})
			if !e.criteria.matchAll && e.criteria.HasClass(ClassFolder) {
				e.matchEntry(ctx, name, ClassFolder, name, fullPath)
			}
			continue
		}

		class, ok := e.criteria.classifyFile(name)
		if !ok || !e.criteria.HasClass(class) {
			continue
		}
		if e.criteria.matchAll {
			e.emit(ctx, FileMatch{Class: class, Name: name, Path: fullPath})
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		e.matchEntry(ctx, stem, class, name, fullPath)
	}
}

// matchEntry tests one entry against every reference. A compound folder
// name can match several references; each match is emitted separately.
func (e *Engine) matchEntry(ctx context.Context, matchText string, class Class, name, fullPath string) {
	normalized := reference.NormalizeName(matchText)
	if normalized == "" {
		return
	}
	for _, ref := range e.criteria.references {
		if ref.MatchesName(normalized) {
			e.emit(ctx, FileMatch{Reference: ref, Class: class, Name: name, Path: fullPath})
		}
	}
}

func (e *Engine) emit(ctx context.Context, m FileMatch) {
	select {
	case e.matches <- m:
		metrics.MatchesTotal.WithLabelValues(string(m.Class)).Inc()
	case <-ctx.Done():
	}
}

func (e *Engine) emitProgress(path string) {
	ev := ProgressEvent{
		Processed:      e.processed.Load(),
		EstimatedTotal: e.estimated.Load(),
		CurrentPath:    path,
	}
	select {
	case e.progress <- ev:
	default:
		// Coalesce under backpressure; workers never block on progress.
	}
}

// skipDir filters directories that are never search targets: hidden
// entries and NAS recycle/snapshot folders.
func skipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	return strings.Contains(name, "@Recycle") || name == "#recycle" || name == "$RECYCLE.BIN"
}
