// Package engine is the presentation boundary of patientbook.
//
// An Engine composes the record store with query, duplicate detection,
// import, backup, statistics and photo handling. Presentation layers (the
// CLI, or any other front end) call the Engine and nothing below it.
//
// Concurrency model:
//
// The store is a single writer and does not lock. The Engine serializes every
// call with one mutex. Read operations take a copy of the table under the
// lock and compute outside it, so a slow query never blocks a save for long.
//
// Failure model:
//
// Every mutating call either persists completely or leaves both the durable
// file and the in-memory table as they were. Errors are *record.Error values;
// use the record.IsXxx predicates to branch on them.
package engine
