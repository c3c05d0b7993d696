package dashboard

import (
	"sync"

	"github.com/couchcryptid/energy-analytics-service/internal/domain"
)

// historyLimit caps the number of predictions kept.
const historyLimit = 10

// history keeps the most recent predictions, newest first.
type history struct {
	mu      sync.Mutex
	limit   int
	records []domain.PredictionRecord
}

func newHistory(limit int) *history {
	return &history{limit: limit, records: make([]domain.PredictionRecord, 0, limit)}
}

func (h *history) add(rec domain.PredictionRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	keep := min(len(h.records), h.limit-1)
	next := make([]domain.PredictionRecord, 0, h.limit)
	next = append(next, rec)
	h.records = append(next, h.records[:keep]...)
}

// list returns a copy of the records, newest first.
func (h *history) list() []domain.PredictionRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]domain.PredictionRecord, len(h.records))
	copy(out, h.records)
	return out
}
