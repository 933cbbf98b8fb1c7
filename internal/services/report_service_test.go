package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"rewards/internal/amqp"
	"rewards/internal/core"
	"rewards/internal/ledger"
	"rewards/internal/report"
	"rewards/internal/source/memory"
)

type fakePublisher struct {
	mu     sync.Mutex
	msgs   []*amqp.ReportComputedMessage
	err    error
	closed bool
}

func (f *fakePublisher) PublishReportComputed(_ context.Context, msg *amqp.ReportComputedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func sample() core.Table {
	return core.Table{
		{Alias: "A", Date: core.NewDate(2024, 1, 1), Amount: decimal.NewFromInt(100)},
		{Alias: "B", Date: core.NewDate(2024, 2, 1), Amount: decimal.NewFromInt(250)},
	}
}

func TestReportService_GeneratePublishesOnSuccess(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewReportService(memory.New(sample()), report.Options{IncludeLedger: true, Ledger: ledger.DefaultConfig()}, pub)

	p, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if p.Outcome != report.OK || p.Ledger == nil {
		t.Fatalf("unexpected payload: %+v", p)
	}
	if len(pub.msgs) != 1 {
		t.Fatalf("expected one event, got %d", len(pub.msgs))
	}
	msg := pub.msgs[0]
	if msg.Source != "memory" || msg.TotalEarned != 350 || msg.StartDate != "2024-01-01" || msg.EndDate != "2024-02-01" {
		t.Fatalf("unexpected event: %+v", msg)
	}
}

func TestReportService_NoEventWithoutData(t *testing.T) {
	pub := &fakePublisher{}
	store := memory.New(nil)
	svc := NewReportService(store, report.Options{}, pub)

	p, err := svc.Generate(context.Background())
	if err != nil || p.Outcome != report.Empty {
		t.Fatalf("expected empty outcome, got %+v (err=%v)", p, err)
	}

	store.Fail(core.ErrDataSourceNotFound)
	p, err = svc.Generate(context.Background())
	if err != nil || p.Outcome != report.NotFound {
		t.Fatalf("expected not found outcome, got %+v (err=%v)", p, err)
	}

	if len(pub.msgs) != 0 {
		t.Fatalf("expected no events, got %d", len(pub.msgs))
	}
}

func TestReportService_PublishFailureIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("circuit breaker is open")}
	svc := NewReportService(memory.New(sample()), report.Options{}, pub)

	p, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("publish failure should not fail the request: %v", err)
	}
	if p.Stats == nil {
		t.Fatal("expected stats")
	}
}

func TestReportService_MalformedDataFails(t *testing.T) {
	store := memory.New(nil)
	store.Fail(&core.MalformedRowError{Line: 3, Column: "date", Value: "x", Err: errors.New("bad")})
	svc := NewReportService(store, report.Options{}, nil)

	if _, err := svc.Generate(context.Background()); !errors.Is(err, core.ErrMalformedRow) {
		t.Fatalf("expected ErrMalformedRow, got %v", err)
	}
}

func TestReportService_Close(t *testing.T) {
	t.Run("nil publisher", func(t *testing.T) {
		svc := NewReportService(memory.New(nil), report.Options{}, nil)
		if err := svc.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})

	t.Run("closes publisher", func(t *testing.T) {
		pub := &fakePublisher{}
		svc := NewReportService(memory.New(nil), report.Options{}, pub)
		if err := svc.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		if !pub.closed {
			t.Fatal("publisher was not closed")
		}
	})
}
