// Package approval implements the book approval workflow.
//
// A book moves between three approval states (Pending, Approved, Rejected).
// Every approval action leaves one line in the book's approval note, a
// free-text field that doubles as an append-only audit trail:
//
//	[APPROVED 2024-01-15 10:00:00 UTC] Looks good now
//	[REJECTED 2024-01-14 09:30:00 UTC] Bad formatting
//
// Callers work with structured Entry values; the string form only exists at
// the storage and wire boundary (AppendEntry, Encode, Entries, Decode).
//
// Everything in this package is pure: no I/O, no shared state.
package approval
