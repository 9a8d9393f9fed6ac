package tasks

import (
	"sync"

	"github.com/madc0w/playlister/internal/models"
)

// Operation kinds charged against the YouTube Data API quota.
const (
	OpSearch             = "search"
	OpPlaylistsInsert    = "playlists.insert"
	OpPlaylistItemInsert = "playlistItems.insert"
	OpVideosList         = "videos.list"
)

// QuotaCosts are the documented unit costs per call.
var QuotaCosts = map[string]int{
	OpSearch:             100,
	OpPlaylistsInsert:    50,
	OpPlaylistItemInsert: 50,
	OpVideosList:         1,
}

// QuotaLedger counts remote calls for one request. Safe for concurrent use.
type QuotaLedger struct {
	mu    sync.Mutex
	calls map[string]int
}

func NewQuotaLedger() *QuotaLedger {
	return &QuotaLedger{calls: make(map[string]int)}
}

// Charge records one call of kind op. A nil ledger ignores charges.
func (q *QuotaLedger) Charge(op string) {
	if q == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls[op]++
}

// Calls returns the number of recorded calls of kind op.
func (q *QuotaLedger) Calls(op string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls[op]
}

// Summary returns per-operation calls and costs plus the total.
func (q *QuotaLedger) Summary() *models.QuotaSummary {
	q.mu.Lock()
	defer q.mu.Unlock()

	summary := &models.QuotaSummary{Operations: make(map[string]models.QuotaEntry, len(q.calls))}
	for op, calls := range q.calls {
		cost := calls * QuotaCosts[op]
		summary.Operations[op] = models.QuotaEntry{Calls: calls, Cost: cost}
		summary.TotalCost += cost
	}
	return summary
}
