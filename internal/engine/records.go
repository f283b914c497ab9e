package engine

import (
	"github.com/roach88/patientbook/internal/query"
	"github.com/roach88/patientbook/internal/record"
	"github.com/roach88/patientbook/internal/stats"
)

// Create stores a new record. A zero serial number is allocated.
func (e *Engine) Create(p record.Patient) (record.Patient, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	created, err := e.store.Create(p)
	if err != nil {
		e.logger.Warn("create failed", "serial", p.SerialNo, "error", err)
		return record.Patient{}, err
	}
	e.logger.Info("patient created", "serial", created.SerialNo, "generation", e.store.Meta().Generation)
	return created, nil
}

// Get returns the record with the given serial number.
func (e *Engine) Get(serial int64) (record.Patient, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Get(serial)
}

// Update applies patch to one record.
func (e *Engine) Update(serial int64, patch record.Patch) (record.Patient, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	updated, err := e.store.Update(serial, patch)
	if err != nil {
		e.logger.Warn("update failed", "serial", serial, "error", err)
		return record.Patient{}, err
	}
	e.logger.Info("patient updated", "serial", serial, "generation", e.store.Meta().Generation)
	return updated, nil
}

// Delete removes the listed records in one save and returns how many were
// removed. Photos of the removed records are deleted afterwards unless a
// surviving record still references them; a photo that cannot be deleted is
// logged and left behind.
func (e *Engine) Delete(serials ...int64) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	drop := make(map[int64]struct{}, len(serials))
	for _, serial := range serials {
		drop[serial] = struct{}{}
	}
	var refs []string
	for _, r := range e.store.Records() {
		if _, ok := drop[r.SerialNo]; ok && r.PhotoRef != "" {
			refs = append(refs, r.PhotoRef)
		}
	}

	removed, err := e.store.Delete(serials)
	if err != nil {
		e.logger.Warn("delete failed", "serials", serials, "error", err)
		return 0, err
	}
	if removed == 0 {
		e.logger.Debug("delete matched nothing", "serials", serials)
		return 0, nil
	}

	e.removeUnusedPhotos(refs)
	e.logger.Info("patients deleted", "count", removed, "generation", e.store.Meta().Generation)
	return removed, nil
}

// RenameIdentifier moves a record to a new serial number.
func (e *Engine) RenameIdentifier(oldSerial, newSerial int64) (record.Patient, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	renamed, err := e.store.RenameIdentifier(oldSerial, newSerial)
	if err != nil {
		e.logger.Warn("rename failed", "old", oldSerial, "new", newSerial, "error", err)
		return record.Patient{}, err
	}
	e.logger.Info("serial renamed", "old", oldSerial, "new", newSerial)
	return renamed, nil
}

// Query filters, searches, sorts and paginates the table. A non-positive
// page size uses the configured one.
func (e *Engine) Query(q query.Query) query.Result {
	if q.PageSize <= 0 {
		q.PageSize = e.cfg.PageSize
	}
	records, _ := e.snapshot()
	res := query.Run(records, q)
	e.logger.Debug("query", "text", q.Text, "sort", q.SortBy, "page", q.Page, "total", res.Total)
	return res
}

// Export returns every record matching q in sort order, ignoring pagination.
func (e *Engine) Export(q query.Query) []record.Patient {
	records, _ := e.snapshot()
	return query.Select(records, q)
}

// Stats summarizes the records matching q's filter and search text.
func (e *Engine) Stats(q query.Query) stats.Summary {
	return stats.Summarize(e.Export(q))
}
