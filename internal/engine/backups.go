package engine

import (
	"github.com/roach88/patientbook/internal/backup"
)

// SnapshotBackup copies the data file to a new snapshot. With a positive
// configured retention, older snapshots beyond it are pruned afterwards.
func (e *Engine) SnapshotBackup() (backup.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.backups.Snapshot()
	if err != nil {
		e.logger.Warn("backup failed", "path", e.cfg.DataFile, "error", err)
		return backup.Snapshot{}, err
	}
	e.logger.Info("backup created", "path", snap.Path, "compressed", snap.Compressed)

	if keep := e.cfg.BackupKeep; keep > 0 {
		removed, err := e.backups.Prune(keep)
		if err != nil {
			return snap, err
		}
		if len(removed) > 0 {
			e.logger.Info("old backups pruned", "count", len(removed), "keep", keep)
		}
	}
	return snap, nil
}

// ListBackups returns the snapshots of the data file, newest first.
func (e *Engine) ListBackups() ([]backup.Snapshot, error) {
	return e.backups.List()
}

// RestoreBackup replaces the data file with a snapshot and reloads it.
func (e *Engine) RestoreBackup(name string) (backup.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.backups.Restore(name)
	if err != nil {
		e.logger.Warn("restore failed", "name", name, "error", err)
		return backup.Snapshot{}, err
	}
	if err := e.store.Load(); err != nil {
		e.logger.Error("reload after restore failed", "name", name, "error", err)
		return backup.Snapshot{}, err
	}
	e.logger.Info("backup restored", "name", name, "records", e.store.Len())
	return snap, nil
}

// PruneBackups deletes all but the newest keep snapshots.
func (e *Engine) PruneBackups(keep int) ([]backup.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed, err := e.backups.Prune(keep)
	if err != nil {
		return removed, err
	}
	e.logger.Info("backups pruned", "count", len(removed), "keep", keep)
	return removed, nil
}
