package engine

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/patientbook/internal/merge"
	"github.com/roach88/patientbook/internal/record"
	"github.com/roach88/patientbook/internal/store"
	"github.com/roach88/patientbook/internal/tabular"
)

// ImportMerge adds incoming records, reassigning colliding serial numbers.
func (e *Engine) ImportMerge(incoming []record.Patient, opts merge.Options) (merge.Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	report, err := merge.Merge(e.store, incoming, opts)
	if err != nil {
		e.logger.Warn("import failed", "incoming", len(incoming), "error", err)
		return merge.Report{}, err
	}
	e.logger.Info("records imported",
		"added", report.Added,
		"reassigned", len(report.Reassigned),
		"generation", e.store.Meta().Generation,
	)
	return report, nil
}

// ReadSource reads an import source: another patientbook data file (.db,
// .sqlite) or a CSV or JSON export. Any failure is a CorruptStoreError
// naming path.
func ReadSource(path string) ([]record.Patient, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		if _, err := os.Stat(path); err != nil {
			return nil, record.NewCorruptStoreError(path, "cannot read import source", err)
		}
		records, _, err := store.ReadFile(path)
		return records, err
	}

	format, ok := tabular.FormatFromPath(path)
	if !ok {
		return nil, record.NewCorruptStoreError(path, "unsupported import format", nil)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, record.NewCorruptStoreError(path, "cannot read import source", err)
	}
	defer f.Close()

	records, err := tabular.Read(f, format)
	if err != nil {
		return nil, record.NewCorruptStoreError(path, "cannot parse import source", err)
	}
	return records, nil
}

// ImportFile reads path with ReadSource and merges the result.
func (e *Engine) ImportFile(path string, opts merge.Options) (merge.Report, error) {
	incoming, err := ReadSource(path)
	if err != nil {
		e.logger.Warn("import source rejected", "path", path, "error", err)
		return merge.Report{}, err
	}
	e.logger.Debug("import source read", "path", path, "records", len(incoming))
	return e.ImportMerge(incoming, opts)
}
