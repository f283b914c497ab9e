// Package store owns the in-memory patient table and its durable file.
//
// The durable file is a single SQLite database holding one table, patients,
// whose columns are exactly the record fields (see schema.sql), plus a small
// store_meta table describing the last save.
//
// # Load-modify-save
//
// The table is loaded once (Open / Load) and written back in full after every
// mutating call. Mutations build a new table value, save it, and only then
// swap it in, so a failed save leaves both the file and memory as they were.
//
// # Atomic save
//
//   - A complete new database is written to <path>.tmp in one transaction
//   - journal_mode=OFF: the temporary file is the only artifact
//   - synchronous=FULL: the data is on disk before the rename
//   - The temporary file is renamed over <path> and the directory synced
//
// A crash at any point leaves either the previous file or the new one.
//
// # Single writer
//
// Store does no locking. Callers serialize mutating calls (the engine facade
// holds a mutex); Records returns a copy that is safe to read concurrently
// with later mutations.
//
// # Identifier collisions
//
// serial_no is not a UNIQUE column. Lookups act on the first matching row in
// table order, Delete removes every matching row, and RenameIdentifier moves
// one row at a time, which is how collisions are resolved.
package store
