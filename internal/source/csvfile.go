package source

import (
	"context"
	"path/filepath"

	"rewards/internal/core"
	"rewards/internal/loader"
)

// CSVFile reads a delimited rewards export from disk.
type CSVFile struct {
	Path    string
	Mapping loader.Mapping
}

var _ TableReader = (*CSVFile)(nil)

func NewCSVFile(path string, m loader.Mapping) *CSVFile {
	return &CSVFile{Path: path, Mapping: m}
}

// ReadTable re-reads the file. Nothing is cached between calls.
func (f *CSVFile) ReadTable(ctx context.Context) (core.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return loader.Load(f.Path, f.Mapping)
}

func (f *CSVFile) Name() string {
	return "csv:" + filepath.Base(f.Path)
}
