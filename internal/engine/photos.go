package engine

import (
	"github.com/roach88/patientbook/internal/photo"
	"github.com/roach88/patientbook/internal/record"
)

// photoInUse reports whether ref is the photo of any record in rows.
func photoInUse(rows []record.Patient, ref string) bool {
	for _, r := range rows {
		if photo.SameFile(r.PhotoRef, ref) {
			return true
		}
	}
	return false
}

// removeUnusedPhotos deletes the owned photos in refs that no record in the
// current table references any more. Failures are logged.
func (e *Engine) removeUnusedPhotos(refs []string) {
	live := e.store.Records()
	for _, ref := range refs {
		if photoInUse(live, ref) {
			e.logger.Debug("photo still referenced, keeping it", "path", ref)
			continue
		}
		if _, err := e.photos.Remove(ref); err != nil {
			e.logger.Warn("failed to remove unused photo", "path", ref, "error", err)
		}
	}
}

// others returns every row except the first one holding serial, which is the
// row the single-record operations act on.
func (e *Engine) others(serial int64) []record.Patient {
	rows := e.store.Records()
	for i, r := range rows {
		if r.SerialNo == serial {
			return append(rows[:i:i], rows[i+1:]...)
		}
	}
	return rows
}

// AttachPhoto stores the image at src as the patient's photo and records the
// reference.
func (e *Engine) AttachPhoto(serial int64, src string) (record.Patient, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	current, err := e.store.Get(serial)
	if err != nil {
		return record.Patient{}, err
	}

	others := e.others(serial)
	ref, err := e.photos.Attach(serial, src, func(ref string) bool {
		return photoInUse(others, ref)
	})
	if err != nil {
		e.logger.Warn("photo attach failed", "serial", serial, "src", src, "error", err)
		return record.Patient{}, err
	}

	updated, err := e.store.Update(serial, record.Patch{PhotoRef: &ref})
	if err != nil {
		return record.Patient{}, err
	}
	if current.PhotoRef != "" && !photo.SameFile(current.PhotoRef, ref) {
		e.removeUnusedPhotos([]string{current.PhotoRef})
	}
	e.logger.Info("photo attached", "serial", serial, "path", ref)
	return updated, nil
}

// RemovePhoto clears the patient's photo reference and deletes the file when
// the photo directory owns it and no other record still references it.
func (e *Engine) RemovePhoto(serial int64) (record.Patient, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.store.Get(serial)
	if err != nil {
		return record.Patient{}, err
	}
	if p.PhotoRef == "" {
		return p, nil
	}

	if !photoInUse(e.others(serial), p.PhotoRef) {
		if _, err := e.photos.Remove(p.PhotoRef); err != nil {
			e.logger.Warn("photo remove failed", "serial", serial, "path", p.PhotoRef, "error", err)
			return record.Patient{}, err
		}
	}

	empty := ""
	updated, err := e.store.Update(serial, record.Patch{PhotoRef: &empty})
	if err != nil {
		return record.Patient{}, err
	}
	e.logger.Info("photo removed", "serial", serial)
	return updated, nil
}
