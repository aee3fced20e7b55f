package summarize

import (
	"context"
	"log/slog"
	"time"

	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/metrics"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/store"
)

// Options tunes the scheduler. Zero values fall back to the defaults below.
type Options struct {
	Cooldown            time.Duration
	MaxPerRun           int
	ChunkSize           int
	InterChunkDelay     time.Duration
	TransientRetryDelay time.Duration
}

func (o *Options) withDefaults() {
	if o.Cooldown <= 0 {
		o.Cooldown = 50 * time.Second
	}
	if o.MaxPerRun <= 0 {
		o.MaxPerRun = 30
	}
	if o.ChunkSize <= 0 || o.ChunkSize > o.MaxPerRun {
		o.ChunkSize = o.MaxPerRun
	}
	if o.InterChunkDelay <= 0 {
		o.InterChunkDelay = 2 * time.Second
	}
	if o.TransientRetryDelay <= 0 {
		o.TransientRetryDelay = 10 * time.Second
	}
}

// Report describes one scheduler invocation.
type Report struct {
	Skipped       bool
	WaitRemaining time.Duration

	Summarized int
	Failed     int
	CycleTotal int
	CycleDone  int
}

// Scheduler drains the unsummarized backlog in cooldown-separated runs.
// Cycle progress survives restarts through the store, so a backlog of 100
// items completes over several invocations instead of starting over.
type Scheduler struct {
	store    store.Store
	provider Provider
	opts     Options
	log      *slog.Logger

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewScheduler(st store.Store, provider Provider, opts Options, log *slog.Logger) *Scheduler {
	opts.withDefaults()
	return &Scheduler{
		store:    st,
		provider: provider,
		opts:     opts,
		log:      log,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run performs one scheduler invocation: cooldown check, cycle bookkeeping,
// then up to MaxPerRun items summarized in sequential chunks.
func (s *Scheduler) Run(ctx context.Context) (Report, error) {
	cycle, err := s.store.LoadCycle()
	if err != nil {
		return Report{}, err
	}

	if wait := s.opts.Cooldown - time.Since(cycle.LastRunAt); wait > 0 {
		return Report{Skipped: true, WaitRemaining: wait, CycleTotal: cycle.CycleTotal, CycleDone: cycle.CycleDone}, nil
	}

	backlog, err := s.store.UnsummarizedCount()
	if err != nil {
		return Report{}, err
	}
	if backlog == 0 {
		return Report{CycleTotal: cycle.CycleTotal, CycleDone: cycle.CycleDone}, nil
	}

	// A finished cycle starts fresh; an in-flight cycle extends when new
	// items arrived but never shrinks.
	if cycle.CycleDone >= cycle.CycleTotal {
		cycle.CycleTotal = backlog
		cycle.CycleDone = 0
	} else if extended := cycle.CycleDone + backlog; extended > cycle.CycleTotal {
		cycle.CycleTotal = extended
	}

	pending, err := s.store.ListUnsummarized(s.opts.MaxPerRun)
	if err != nil {
		return Report{}, err
	}

	requests := make([]Request, len(pending))
	for i, p := range pending {
		requests[i] = Request{ItemID: p.ItemID, Title: p.Title, Content: p.Content}
	}

	var summaries []store.Summary
	failed := 0

	for start := 0; start < len(requests); start += s.opts.ChunkSize {
		end := start + s.opts.ChunkSize
		if end > len(requests) {
			end = len(requests)
		}
		chunk := requests[start:end]

		if start > 0 {
			if err := s.sleep(ctx, s.opts.InterChunkDelay); err != nil {
				break
			}
		}

		blocks, err := s.summarizeChunk(ctx, chunk)
		if err != nil {
			s.log.Warn("summary chunk failed", "size", len(chunk), "error", err)
			metrics.Global.IncrementSummaryFailures()
			failed += len(chunk)
			continue
		}

		now := time.Now()
		for _, block := range blocks {
			if block.Index < 1 || block.Index > len(chunk) {
				continue
			}
			req := chunk[block.Index-1]
			summaries = append(summaries, store.Summary{
				ItemID:     req.ItemID,
				Title:      req.Title,
				Lines:      block.Lines,
				Conclusion: block.Conclusion,
				CreatedAt:  now,
			})
		}
	}

	if err := s.persist(summaries); err != nil {
		return Report{}, err
	}

	cycle.CycleDone += len(summaries)
	cycle.LastRunAt = time.Now()
	if err := s.store.SaveCycle(cycle); err != nil {
		return Report{}, err
	}

	metrics.Global.AddSummariesGenerated(len(summaries))
	s.log.Info("summarization run complete",
		"summarized", len(summaries), "failed", failed,
		"cycle_done", cycle.CycleDone, "cycle_total", cycle.CycleTotal)

	return Report{
		Summarized: len(summaries),
		Failed:     failed,
		CycleTotal: cycle.CycleTotal,
		CycleDone:  cycle.CycleDone,
	}, nil
}

// summarizeChunk calls the provider, retrying exactly once after a delay when
// the failure looks transient.
func (s *Scheduler) summarizeChunk(ctx context.Context, chunk []Request) ([]Block, error) {
	blocks, err := s.provider.Summarize(ctx, chunk)
	if err == nil {
		return blocks, nil
	}
	if !IsTransient(err) {
		return nil, err
	}

	s.log.Info("model overloaded, retrying chunk", "wait", s.opts.TransientRetryDelay)
	if serr := s.sleep(ctx, s.opts.TransientRetryDelay); serr != nil {
		return nil, serr
	}
	return s.provider.Summarize(ctx, chunk)
}

// The store rejects batches over its cap, so writes go out in full-size
// slices at most.
const persistChunkSize = store.MaxBatchSize

func (s *Scheduler) persist(summaries []store.Summary) error {
	for start := 0; start < len(summaries); start += persistChunkSize {
		end := start + persistChunkSize
		if end > len(summaries) {
			end = len(summaries)
		}
		if err := s.store.BatchWriteSummaries(summaries[start:end]); err != nil {
			return err
		}
	}
	return nil
}
