package verify

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"refcheck/internal/models"
	"refcheck/internal/util"
)

// URLProber is the single-URL check the scheduler fans out over.
type URLProber interface {
	Probe(ctx context.Context, rawURL string) models.VerificationResult
}

// Scheduler runs liveness checks over a URL set with a bounded worker pool.
// Each normalized URL is probed at most once per call; the whole batch is
// bounded by a global deadline, and URLs that never get dispatched before it
// fires are reported as Timeout rather than left unresolved.
type Scheduler struct {
	prober        URLProber
	workers       int
	limiter       *rate.Limiter
	globalTimeout time.Duration
	now           func() time.Time
}

type SchedulerOption func(*Scheduler)

func WithWorkers(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRateLimit spaces probe dispatches out to perSec requests per second.
// Zero disables pacing.
func WithRateLimit(perSec float64) SchedulerOption {
	return func(s *Scheduler) {
		if perSec > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
		}
	}
}

func WithGlobalTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.globalTimeout = d
		}
	}
}

func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

func NewScheduler(prober URLProber, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		prober:        prober,
		workers:       10,
		globalTimeout: 2 * time.Minute,
		now:           time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// VerifyAll checks every URL in urls and returns one result per distinct
// normalized URL. The map always covers the full input set: URLs that fail
// normalization come back Broken, URLs cut off by the global deadline come
// back Timeout.
func (s *Scheduler) VerifyAll(ctx context.Context, urls []string) map[string]models.VerificationResult {
	results := make(map[string]models.VerificationResult)
	var mu sync.Mutex

	pending := make([]string, 0, len(urls))
	seen := make(map[string]bool, len(urls))
	for _, raw := range urls {
		norm, err := util.NormalizeURL(raw)
		if err != nil {
			key := raw
			if _, dup := results[key]; !dup {
				results[key] = models.VerificationResult{
					URL:       key,
					Status:    models.StatusBroken,
					CheckedAt: s.now(),
				}
			}
			continue
		}
		if seen[norm] {
			continue
		}
		seen[norm] = true
		pending = append(pending, norm)
	}
	if len(pending) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, s.globalTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(s.workers))
	for _, u := range pending {
		u := u
		if err := sem.Acquire(gctx, 1); err != nil {
			// Deadline fired before this URL could start.
			mu.Lock()
			results[u] = models.VerificationResult{
				URL:       u,
				Status:    models.StatusTimeout,
				CheckedAt: s.now(),
			}
			mu.Unlock()
			continue
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(gctx); err != nil {
				sem.Release(1)
				mu.Lock()
				results[u] = models.VerificationResult{
					URL:       u,
					Status:    models.StatusTimeout,
					CheckedAt: s.now(),
				}
				mu.Unlock()
				continue
			}
		}
		g.Go(func() error {
			defer sem.Release(1)
			res := s.prober.Probe(gctx, u)
			mu.Lock()
			results[u] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// The prober reports its own timeouts, but a probe cancelled mid-flight
	// by the batch deadline may not have recorded anything.
	mu.Lock()
	for _, u := range pending {
		if _, ok := results[u]; !ok {
			results[u] = models.VerificationResult{
				URL:       u,
				Status:    models.StatusTimeout,
				CheckedAt: s.now(),
			}
		}
	}
	mu.Unlock()
	return results
}
