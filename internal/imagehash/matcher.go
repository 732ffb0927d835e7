package imagehash

import (
	"context"
	"image"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"refsearch/internal/logging"
	"refsearch/internal/metrics"
	"refsearch/internal/search"
	"refsearch/internal/workers"
)

// DefaultThreshold is the recognition threshold for normal-resolution
// images. Cropped or heavily re-encoded candidates need a looser
// threshold, typically 6-10.
const DefaultThreshold = 1

// maxHashWorkers caps the decode/hash pool; hashing is CPU-bound.
const maxHashWorkers = 8

// Match is one candidate image within the recognition threshold.
type Match struct {
	Path              string `json:"path"`
	Distance          int    `json:"distance"`
	SimilarityPercent int    `json:"similarityPercent"`
}

// Matcher ranks candidate images by Hamming distance to a reference
// image's perceptual hash. Candidates are discovered with the traversal
// engine restricted to image files.
type Matcher struct {
	// Threshold is the maximum Hamming distance reported as a match.
	Threshold int
	// Workers bounds the hashing pool; <= 0 selects a CPU-bound default.
	Workers int
	// ResolveSymlinks is passed through to root optimization.
	ResolveSymlinks bool
}

// Search hashes the reference image, walks the roots for image files,
// and returns candidates with distance <= Threshold ranked ascending by
// distance. Unreadable or corrupt candidates are logged and skipped. On
// cancellation the matches collected so far are returned along with the
// context error (a valid partial result).
func (m *Matcher) Search(ctx context.Context, ref image.Image, roots []string, report func(search.ProgressEvent)) ([]Match, error) {
	refHash := FromImage(ref)
	logging.Info("image search: reference hash %s, threshold %d", refHash, m.Threshold)

	criteria, err := search.NewImageScanCriteria(roots, m.ResolveSymlinks)
	if err != nil {
		return nil, err
	}
	engine := search.NewEngine(criteria, 0)

	hashWorkers := m.Workers
	if hashWorkers <= 0 {
		hashWorkers = workers.ForCPU(maxHashWorkers)
	}

	var mu sync.Mutex
	var found []Match

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return engine.Run(gctx)
	})
	g.Go(func() error {
		for ev := range engine.Progress() {
			if report != nil {
				report(ev)
			}
		}
		return nil
	})
	g.Go(func() error {
		pool, poolCtx := errgroup.WithContext(gctx)
		pool.SetLimit(hashWorkers)
		for candidate := range engine.Matches() {
			if poolCtx.Err() != nil {
				continue // keep draining so the engine can finish
			}
			candidate := candidate
			pool.Go(func() error {
				m.scoreCandidate(refHash, candidate.Path, &mu, &found)
				return nil
			})
		}
		return pool.Wait()
	})

	err = g.Wait()
	sortMatches(found)
	if err != nil {
		if ctx.Err() != nil {
			return found, ctx.Err()
		}
		return nil, err
	}

	logging.Info("image search complete: %d matches within threshold %d", len(found), m.Threshold)
	return found, nil
}

func (m *Matcher) scoreCandidate(refHash Hash, path string, mu *sync.Mutex, found *[]Match) {
	start := time.Now()
	h, err := FromFile(path)
	metrics.ImageHashDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		logging.Warn("skipping undecodable image %s: %v", path, err)
		metrics.ImageDecodeErrors.Inc()
		return
	}

	d := Distance(refHash, h)
	if d > m.Threshold {
		return
	}
	mu.Lock()
	*found = append(*found, Match{
		Path:              path,
		Distance:          d,
		SimilarityPercent: SimilarityPercent(d),
	})
	mu.Unlock()
}

func sortMatches(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Path < matches[j].Path
	})
}
