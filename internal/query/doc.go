// Package query filters, searches, sorts and paginates a snapshot of the
// patient table for presentation.
//
// Every function is a pure transformation over a slice of records and never
// mutates its input. Run composes the stages in a fixed order:
//
//	filter → search → sort → paginate
//
// Filters are evaluated into one roaring bitmap of row positions per active
// predicate; the bitmaps are intersected and the surviving rows are emitted
// in table order.
package query
