package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/news"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/store"
)

// fakeStore is an in-memory Store for scheduler tests.
type fakeStore struct {
	cycle      store.Cycle
	pending    []store.PendingItem
	summarized map[string]store.Summary
	batches    []int // write batch sizes, in call order
}

func newFakeStore(pendingCount int) *fakeStore {
	fs := &fakeStore{summarized: make(map[string]store.Summary)}
	fs.addPending(pendingCount)
	return fs
}

func (fs *fakeStore) addPending(n int) {
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("n_%06d", len(fs.pending))
		fs.pending = append(fs.pending, store.PendingItem{
			ItemID: id, Title: "기사 " + id, AddedAt: time.Now(),
		})
	}
}

func (fs *fakeStore) SaveItems(items []news.Item) error { return nil }

func (fs *fakeStore) GetSummaries(ids []string) (map[string]store.Summary, error) {
	out := make(map[string]store.Summary)
	for _, id := range ids {
		if s, ok := fs.summarized[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func (fs *fakeStore) UnsummarizedCount() (int, error) {
	count := 0
	for _, p := range fs.pending {
		if _, done := fs.summarized[p.ItemID]; !done {
			count++
		}
	}
	return count, nil
}

func (fs *fakeStore) ListUnsummarized(limit int) ([]store.PendingItem, error) {
	var out []store.PendingItem
	for _, p := range fs.pending {
		if len(out) >= limit {
			break
		}
		if _, done := fs.summarized[p.ItemID]; !done {
			out = append(out, p)
		}
	}
	return out, nil
}

func (fs *fakeStore) BatchWriteSummaries(summaries []store.Summary) error {
	if len(summaries) > store.MaxBatchSize {
		return store.ErrBatchTooLarge
	}
	fs.batches = append(fs.batches, len(summaries))
	for _, s := range summaries {
		fs.summarized[s.ItemID] = s
	}
	return nil
}

func (fs *fakeStore) LoadCycle() (store.Cycle, error) { return fs.cycle, nil }
func (fs *fakeStore) SaveCycle(c store.Cycle) error   { fs.cycle = c; return nil }
func (fs *fakeStore) Cleanup(time.Duration) (int, error) {
	return 0, nil
}
func (fs *fakeStore) Close() error { return nil }

// fakeProvider answers every request with a well-formed block, unless errs
// are queued.
type fakeProvider struct {
	calls int
	errs  []error
}

func (fp *fakeProvider) Summarize(ctx context.Context, batch []Request) ([]Block, error) {
	fp.calls++
	if len(fp.errs) > 0 {
		err := fp.errs[0]
		fp.errs = fp.errs[1:]
		if err != nil {
			return nil, err
		}
	}

	blocks := make([]Block, len(batch))
	for i := range batch {
		blocks[i] = Block{
			Index:      i + 1,
			Lines:      []string{"요약임"},
			Conclusion: "결론임",
		}
	}
	return blocks, nil
}

func newTestScheduler(fs *fakeStore, fp *fakeProvider, opts Options) (*Scheduler, *[]time.Duration) {
	s := NewScheduler(fs, fp, opts, slog.Default())
	var slept []time.Duration
	s.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return s, &slept
}

func TestSchedulerCooldown(t *testing.T) {
	fs := newFakeStore(10)
	fs.cycle.LastRunAt = time.Now()
	fp := &fakeProvider{}
	s, _ := newTestScheduler(fs, fp, Options{Cooldown: 50 * time.Second})

	report, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Skipped)
	assert.Greater(t, report.WaitRemaining, time.Duration(0))
	assert.Zero(t, fp.calls)
}

func TestSchedulerFreshCycle(t *testing.T) {
	fs := newFakeStore(10)
	fp := &fakeProvider{}
	s, _ := newTestScheduler(fs, fp, Options{MaxPerRun: 30})

	report, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Skipped)
	assert.Equal(t, 10, report.Summarized)
	assert.Equal(t, 10, report.CycleTotal)
	assert.Equal(t, 10, report.CycleDone)
	assert.Equal(t, 1, fp.calls)

	count, _ := fs.UnsummarizedCount()
	assert.Zero(t, count)
}

func TestSchedulerResumesAndExtendsCycle(t *testing.T) {
	fs := newFakeStore(100)
	fp := &fakeProvider{}
	s, _ := newTestScheduler(fs, fp, Options{MaxPerRun: 30, Cooldown: time.Millisecond})

	report, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, report.CycleTotal)
	assert.Equal(t, 30, report.CycleDone)

	// New items land mid-cycle; the total extends, never shrinks.
	fs.addPending(10)
	fs.cycle.LastRunAt = time.Now().Add(-time.Minute)

	report, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 110, report.CycleTotal)
	assert.Equal(t, 60, report.CycleDone)
}

func TestSchedulerTransientRetry(t *testing.T) {
	fs := newFakeStore(5)
	fp := &fakeProvider{errs: []error{&TransientError{Err: fmt.Errorf("503 overloaded")}}}
	s, slept := newTestScheduler(fs, fp, Options{TransientRetryDelay: 10 * time.Second})

	report, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, report.Summarized)
	assert.Zero(t, report.Failed)
	assert.Equal(t, 2, fp.calls)
	assert.Contains(t, *slept, 10*time.Second)
}

func TestSchedulerPermanentFailureSkipsChunk(t *testing.T) {
	fs := newFakeStore(5)
	fp := &fakeProvider{errs: []error{fmt.Errorf("invalid request")}}
	s, _ := newTestScheduler(fs, fp, Options{})

	report, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Summarized)
	assert.Equal(t, 5, report.Failed)
	assert.Equal(t, 1, fp.calls)
	assert.Zero(t, report.CycleDone)
}

func TestSchedulerChunking(t *testing.T) {
	fs := newFakeStore(5)
	fp := &fakeProvider{}
	s, slept := newTestScheduler(fs, fp, Options{MaxPerRun: 30, ChunkSize: 2, InterChunkDelay: 2 * time.Second})

	report, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, report.Summarized)
	assert.Equal(t, 3, fp.calls)

	// Two inter-chunk pauses between three chunks.
	pauses := 0
	for _, d := range *slept {
		if d == 2*time.Second {
			pauses++
		}
	}
	assert.Equal(t, 2, pauses)
}

func TestPersistUsesFullBatches(t *testing.T) {
	fs := newFakeStore(0)
	s, _ := newTestScheduler(fs, &fakeProvider{}, Options{})

	summaries := make([]store.Summary, store.MaxBatchSize+1)
	for i := range summaries {
		summaries[i] = store.Summary{ItemID: fmt.Sprintf("n_%06d", i), Lines: []string{"줄"}}
	}

	// Exactly the store cap goes out as one write.
	require.NoError(t, s.persist(summaries[:store.MaxBatchSize]))
	assert.Equal(t, []int{store.MaxBatchSize}, fs.batches)

	// One over the cap splits into a full batch plus the remainder.
	fs.batches = nil
	require.NoError(t, s.persist(summaries))
	assert.Equal(t, []int{store.MaxBatchSize, 1}, fs.batches)
}

func TestSchedulerNoBacklog(t *testing.T) {
	fs := newFakeStore(0)
	fp := &fakeProvider{}
	s, _ := newTestScheduler(fs, fp, Options{})

	report, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Summarized)
	assert.Zero(t, fp.calls)
}
