// Package tabular reads and writes patient records in interchange formats.
//
// CSV is the import format for spreadsheets exported from other tools, so
// headers are matched loosely (case-insensitive, legacy names such as
// "SerialNo" or "PhoneNo" accepted) and unknown columns are ignored. JSON is
// an export format and mirrors the record's field tags exactly.
package tabular
