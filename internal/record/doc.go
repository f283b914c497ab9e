// Package record defines the patient record schema shared by every layer of
// patientbook, together with the engine's error taxonomy.
//
// A Patient is one row of the durable table. Its fields are typed at this
// boundary: ages are non-negative integers or unset, genders and treatment
// satisfaction are closed enums, and dates are civil dates with no time or
// zone component. Parsing helpers (ParseGender, ParseDate, ...) turn the
// loosely typed cells found in files and command lines into these types.
//
// # Identity
//
// SerialNo is the record key. Zero means "unset"; the store allocates a value
// on create. Identifiers are unique at the end of every mutating operation,
// but a file edited outside the engine may carry collisions, so nothing in
// this package assumes uniqueness.
//
// # Errors
//
// Every failure surfaced by the engine is an *Error with a Code. Use the Is*
// predicates rather than comparing codes directly; they see through
// fmt.Errorf wrapping.
package record
