package engine

import (
	"github.com/roach88/patientbook/internal/dedup"
	"github.com/roach88/patientbook/internal/record"
)

// FindDuplicateGroups returns the current duplicate groups.
func (e *Engine) FindDuplicateGroups() []dedup.Group {
	records, _ := e.snapshot()
	groups := dedup.FindGroups(records)
	e.logger.Debug("duplicate scan", "records", len(records), "groups", len(groups))
	return groups
}

// DismissDuplicate marks records as reviewed and not duplicates, removing
// them from future duplicate groups. It returns how many records changed.
func (e *Engine) DismissDuplicate(serials ...int64) (int, error) {
	return e.setDismissed(serials, true)
}

// RestoreDuplicate clears the dismissed mark so the records are considered
// again.
func (e *Engine) RestoreDuplicate(serials ...int64) (int, error) {
	return e.setDismissed(serials, false)
}

func (e *Engine) setDismissed(serials []int64, dismissed bool) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, serial := range serials {
		if _, err := e.store.Get(serial); err != nil {
			return 0, err
		}
	}

	changed, err := e.store.Modify(serials, func(p record.Patient) record.Patient {
		p.DuplicateDismissed = dismissed
		return p
	})
	if err != nil {
		e.logger.Warn("dismissal update failed", "serials", serials, "error", err)
		return 0, err
	}
	e.logger.Info("duplicate dismissal updated", "dismissed", dismissed, "count", changed)
	return changed, nil
}
