package worker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"rewards/internal/amqp"
)

// ReportWorker consumes report-computed events and logs how each source's
// totals moved since the previous event.
type ReportWorker struct {
	mu       sync.Mutex
	last     map[string]*amqp.ReportComputedMessage
	seen     map[string]struct{}
	received int64
}

func NewReportWorker() *ReportWorker {
	return &ReportWorker{
		last: make(map[string]*amqp.ReportComputedMessage),
		seen: make(map[string]struct{}),
	}
}

// HandleReportComputed records msg. Redelivered ids are acknowledged
// without being counted twice.
func (w *ReportWorker) HandleReportComputed(ctx context.Context, msg *amqp.ReportComputedMessage) error {
	w.mu.Lock()
	if _, dup := w.seen[msg.ID]; dup {
		w.mu.Unlock()
		slog.DebugContext(ctx, "Skipping duplicate report event", "id", msg.ID)
		return nil
	}
	w.seen[msg.ID] = struct{}{}
	prev := w.last[msg.Source]
	w.last[msg.Source] = msg
	w.received++
	w.mu.Unlock()

	attrs := []any{
		"id", msg.ID,
		"source", msg.Source,
		"total_earned", msg.TotalEarned,
		"total_entries", msg.TotalEntries,
		"entity_count", msg.EntityCount,
		"start_date", msg.StartDate,
		"end_date", msg.EndDate,
	}
	if prev != nil {
		delta := decimal.NewFromFloat(msg.TotalEarned).Sub(decimal.NewFromFloat(prev.TotalEarned))
		attrs = append(attrs,
			"earned_delta", delta.Round(4).InexactFloat64(),
			"entries_delta", msg.TotalEntries-prev.TotalEntries)
	}

	slog.InfoContext(ctx, "Report computed", attrs...)
	return nil
}

// Latest returns a copy of the most recent event per source.
func (w *ReportWorker) Latest() map[string]amqp.ReportComputedMessage {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]amqp.ReportComputedMessage, len(w.last))
	for source, m := range w.last {
		out[source] = *m
	}
	return out
}

// Received counts distinct events handled.
func (w *ReportWorker) Received() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.received
}
