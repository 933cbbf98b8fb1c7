// Package google reads reward rows from a Google Sheets range.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"rewards/internal/core"
	"rewards/internal/loader"
	"rewards/internal/source"
)

// DefaultRange covers the first sheet's leading columns.
const DefaultRange = "Rewards!A:Z"

// Config locates the range and the service account used to read it.
type Config struct {
	SpreadsheetID string
	Range         string
	// CredentialsJSON takes precedence over CredentialsFile.
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	rng           string
	mapping       loader.Mapping
}

var _ source.TableReader = (*Client)(nil)

// New creates a read-only Sheets client using service account credentials.
// When neither credential field is set GOOGLE_APPLICATION_CREDENTIALS is tried.
func New(ctx context.Context, cfg Config, m loader.Mapping) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg, m), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, cfg Config, m loader.Mapping) *Client {
	rng := strings.TrimSpace(cfg.Range)
	if rng == "" {
		rng = DefaultRange
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		rng:           rng,
		mapping:       m,
	}
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credsJSON := strings.TrimSpace(cfg.CredentialsJSON)
	credsFile := strings.TrimSpace(cfg.CredentialsFile)
	if credsJSON == "" && credsFile == "" {
		credsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var raw []byte
	switch {
	case credsJSON != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		raw = []byte(credsJSON)
	case credsFile != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", credsFile)
		b, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		raw = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(raw),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// ReadTable fetches the range and validates it with the configured mapping.
// A 404 from the API means the spreadsheet or sheet does not exist.
func (c *Client) ReadTable(ctx context.Context) (core.Table, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", c.rng, core.ErrDataSourceNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", c.rng, err)
	}
	return loader.FromRecords(toRecords(resp.Values), c.mapping)
}

func (c *Client) Name() string {
	return "sheets:" + c.rng
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

func toRecords(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = toStrings(row)
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case nil:
			out[i] = ""
		case string:
			out[i] = x
		case float64:
			// Unformatted numbers; avoid exponent notation.
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		case bool:
			out[i] = strconv.FormatBool(x)
		default:
			out[i] = fmt.Sprint(x)
		}
	}
	return out
}
