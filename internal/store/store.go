// Package store persists summaries and the summarization cycle state across
// process restarts.
package store

import (
	"errors"
	"time"

	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/news"
)

// MaxBatchSize is the largest summary batch a single write accepts.
const MaxBatchSize = 500

// ErrBatchTooLarge is returned when a summary batch exceeds MaxBatchSize.
var ErrBatchTooLarge = errors.New("summary batch exceeds max batch size")

// Summary is one persisted summarization result, keyed by the stable item ID.
type Summary struct {
	ItemID     string
	Title      string
	Lines      []string
	Conclusion string
	CreatedAt  time.Time
}

// PendingItem is an item recorded but not yet summarized.
type PendingItem struct {
	ItemID  string
	Title   string
	Content string
	AddedAt time.Time
}

// Cycle tracks summarization progress across cooldown-separated runs.
type Cycle struct {
	CycleTotal int
	CycleDone  int
	LastRunAt  time.Time
}

// Store is the durable summary backend.
type Store interface {
	// SaveItems records collected items as summarization candidates.
	// Already-known IDs are left untouched.
	SaveItems(items []news.Item) error

	// GetSummaries returns the stored summaries for the given IDs; IDs
	// without a summary are simply absent from the result.
	GetSummaries(ids []string) (map[string]Summary, error)

	// UnsummarizedCount reports how many recorded items still lack a summary.
	UnsummarizedCount() (int, error)

	// ListUnsummarized returns up to limit pending items, oldest first.
	ListUnsummarized(limit int) ([]PendingItem, error)

	// BatchWriteSummaries persists a batch of summaries. Batches larger than
	// MaxBatchSize fail with ErrBatchTooLarge; callers chunk.
	BatchWriteSummaries(summaries []Summary) error

	// LoadCycle returns the persisted cycle state, zero-valued if none.
	LoadCycle() (Cycle, error)

	// SaveCycle persists the cycle state.
	SaveCycle(c Cycle) error

	// Cleanup removes summaries and pending items older than retention.
	Cleanup(retention time.Duration) (int, error)

	Close() error
}
