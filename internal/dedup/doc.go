// Package dedup groups patient records that plausibly describe the same
// person.
//
// Two records are linked when they share a normalized name, a non-empty
// email, phone number or Aadhaar number, or a serial number. Linking is
// transitive: if A shares a phone with B and B shares an email with C, all
// three form one group. Records marked duplicate-dismissed take part only
// through serial number collisions, which must always be resolved.
package dedup
