package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"rewards/internal/amqp"
	"rewards/internal/report"
	"rewards/internal/source"
)

// EventPublisher announces computed reports. *amqp.Client implements it.
type EventPublisher interface {
	PublishReportComputed(ctx context.Context, msg *amqp.ReportComputedMessage) error
	Close() error
}

// ReportService runs the assembler against the configured source and
// publishes an event for every successful report.
type ReportService struct {
	reader    source.TableReader
	opts      report.Options
	publisher EventPublisher
}

// NewReportService wires a reader and options. publisher may be nil.
func NewReportService(reader source.TableReader, opts report.Options, publisher EventPublisher) *ReportService {
	return &ReportService{
		reader:    reader,
		opts:      opts,
		publisher: publisher,
	}
}

// Generate re-reads the source and assembles a fresh payload.
func (s *ReportService) Generate(ctx context.Context) (*report.Payload, error) {
	p, err := report.Build(ctx, s.reader, s.opts)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	slog.DebugContext(ctx, "Report assembled",
		"source", p.Source,
		"outcome", p.Outcome.String(),
		"entries", p.Entries)

	if p.Outcome == report.OK {
		if err := s.publish(ctx, p); err != nil {
			slog.ErrorContext(ctx, "Failed to publish report event",
				"source", p.Source, "error", err)
			// The report itself is fine.
		}
	}
	return p, nil
}

// Source names the configured reader.
func (s *ReportService) Source() string {
	return s.reader.Name()
}

func (s *ReportService) publish(ctx context.Context, p *report.Payload) error {
	if s.publisher == nil {
		return nil
	}
	msg := amqp.NewReportComputedMessage(p.Source, amqp.ReportSummary{
		TotalEarned:  p.Stats.TotalEarned,
		TotalEntries: p.Stats.TotalEntries,
		EntityCount:  p.Stats.EntityCount,
		StartDate:    p.Stats.DateRange.Start,
		EndDate:      p.Stats.DateRange.End,
	})
	return s.publisher.PublishReportComputed(ctx, msg)
}

// Close releases the publisher and, when it holds resources, the reader.
func (s *ReportService) Close() error {
	var errs []error

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	if c, ok := s.reader.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("reader: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close report service: %w", err)
	}
	return nil
}
