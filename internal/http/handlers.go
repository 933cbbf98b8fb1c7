package http

import (
	"bytes"
	"net/http"
	"time"

	"rewards/internal/ledger"
	"rewards/internal/log"
	"rewards/internal/report"
	"rewards/internal/stats"
)

const (
	msgSourceNotFound = "rewards data source not found"
	msgDataNotFound   = "Data file not found"
	msgLedgerDisabled = "Ledger is disabled"
)

type dashboardView struct {
	Source      string
	Empty       bool
	Stats       *stats.Report
	Ledger      *ledger.Ledger
	GeneratedAt time.Time
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	if s.templates == nil {
		logger.ErrorContext(ctx, "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	p, err := s.reports.Generate(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Report generation failed", log.FieldError, err, log.FieldOperation, log.OpCompute)
		http.Error(w, clientMessage(err), http.StatusInternalServerError)
		return
	}
	if p.Outcome == report.NotFound {
		logger.WarnContext(ctx, "Rewards data source not found", log.FieldSource, p.Source)
		http.Error(w, msgSourceNotFound, http.StatusNotFound)
		return
	}

	view := dashboardView{
		Source:      p.Source,
		Empty:       p.Outcome == report.Empty,
		Stats:       p.Stats,
		Ledger:      p.Ledger,
		GeneratedAt: p.GeneratedAt,
	}

	// Render to a buffer so a template error never leaves a half-written page.
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard.html", view); err != nil {
		logger.WithComponent(log.ComponentTemplate).ErrorContext(ctx, "Dashboard template execution failed",
			log.FieldError, err, log.FieldOperation, log.OpRender)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	p, ok := s.generate(w, r)
	if !ok {
		return
	}
	// An empty dataset encodes as null.
	writeJSON(w, http.StatusOK, p.Stats)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	p, ok := s.generate(w, r)
	if !ok {
		return
	}
	if p.Outcome == report.OK && p.Ledger == nil {
		writeError(w, http.StatusNotFound, msgLedgerDisabled)
		return
	}
	writeJSON(w, http.StatusOK, p.Ledger)
}

// generate maps the assembler result onto JSON error responses.
// It reports false when a response has already been written.
func (s *Server) generate(w http.ResponseWriter, r *http.Request) (*report.Payload, bool) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	p, err := s.reports.Generate(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Report generation failed", log.FieldError, err, log.FieldPath, r.URL.Path)
		writeError(w, http.StatusInternalServerError, clientMessage(err))
		return nil, false
	}
	if p.Outcome == report.NotFound {
		writeError(w, http.StatusNotFound, msgDataNotFound)
		return nil, false
	}

	logger.DebugContext(ctx, "Report served",
		log.NewFields().WithReport(p.Source, p.Outcome.String(), p.Entries).ToSlice()...)
	return p, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the pieces every request depends on without
// reading the data source.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	code := http.StatusOK
	checks := map[string]string{"source": s.reports.Source()}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		code = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": checks,
	})
}
