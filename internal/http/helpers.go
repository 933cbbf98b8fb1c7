package http

import (
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"rewards/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err, "status_code", status)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// clientMessage is the part of a load failure safe to show a client. Wrapped
// errors carry file paths and connection details, which stay in the log.
func clientMessage(err error) string {
	var mre *core.MalformedRowError
	switch {
	case errors.As(err, &mre):
		return mre.Error()
	case errors.Is(err, core.ErrMissingColumn):
		return "rewards data is missing a mapped column"
	default:
		return "failed to load rewards data"
	}
}

var templateFuncs = template.FuncMap{
	"amount":  formatAmount,
	"decimal": formatDecimal,
	"percent": formatPercent,
}

// formatAmount renders a float with two decimals.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatDecimal(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// formatPercent accepts a plain or pointer float; nil renders as a dash.
func formatPercent(v any) string {
	switch p := v.(type) {
	case float64:
		return strconv.FormatFloat(p, 'f', 2, 64) + "%"
	case *float64:
		if p == nil {
			return "-"
		}
		return strconv.FormatFloat(*p, 'f', 2, 64) + "%"
	default:
		return "-"
	}
}
