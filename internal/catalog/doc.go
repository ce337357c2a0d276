// Package catalog implements the transactional relational store of
// spec.md §4.C: a mattn/go-sqlite3-backed handle fronting archives,
// connections, backup profiles, basebackups, tablespaces, retention
// policies, and worker-process records.
//
// Lookups never return a nil descriptor; an absent row comes back
// with its sentinel ID (descriptor.NotFoundID) set, per spec.md
// §4.C's "contract for absent entities"; the name-keyed backup
// profiles and retention policies instead come back with an empty
// Name. Mutating operations that
// take an attrs descriptor.AttributeSet write exactly and only the
// columns named in it, leaving the remainder of the row untouched.
package catalog
