// Package report assembles the payload consumed by the presentation layer.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"rewards/internal/core"
	"rewards/internal/ledger"
	"rewards/internal/source"
	"rewards/internal/stats"
)

// Outcome tells the presentation layer which result shape it received.
type Outcome int

const (
	OK Outcome = iota
	NotFound
	Empty
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case NotFound:
		return "not_found"
	case Empty:
		return "empty"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Options selects the optional parts of the payload.
type Options struct {
	IncludeLedger bool
	Ledger        ledger.Config
}

// Payload is the assembled result for one request.
type Payload struct {
	Outcome     Outcome
	Source      string
	Entries     int
	Stats       *stats.Report
	Ledger      *ledger.Ledger
	GeneratedAt time.Time
}

// Build loads the table through r and derives the report from it.
// A missing source is not an error: it yields a NotFound payload.
// Malformed data is returned as an error.
func Build(ctx context.Context, r source.TableReader, opts Options) (*Payload, error) {
	p := &Payload{Source: r.Name(), GeneratedAt: time.Now().UTC()}

	tbl, err := r.ReadTable(ctx)
	if err != nil {
		if errors.Is(err, core.ErrDataSourceNotFound) {
			p.Outcome = NotFound
			return p, nil
		}
		return nil, fmt.Errorf("read %s: %w", r.Name(), err)
	}

	p.Entries = tbl.Len()
	if tbl.Empty() {
		p.Outcome = Empty
		return p, nil
	}

	// Both branches only read tbl.
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		p.Stats = stats.Compute(tbl)
		return nil
	})
	if opts.IncludeLedger {
		g.Go(func() error {
			l := ledger.Build(tbl, opts.Ledger)
			p.Ledger = &l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.Outcome = OK
	return p, nil
}
