// Package source defines where reward tables come from.
package source

import (
	"context"

	"rewards/internal/core"
)

// Ports for inbound data.
type (
	// TableReader loads the full transaction table on every call.
	// A missing source yields an error matching core.ErrDataSourceNotFound.
	TableReader interface {
		ReadTable(ctx context.Context) (core.Table, error)
		// Name identifies the source in logs and events.
		Name() string
	}
)
