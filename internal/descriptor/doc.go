// Package descriptor holds the typed, in-memory records for every entity
// tracked by the catalog: archives, connections, backup profiles,
// base-backups, tablespaces, retention policies and rules, pin requests,
// stream identification and worker-process records.
//
// Every descriptor stored as a catalog row carries an Affected
// AttributeSet, a small set of column tags recording which fields a
// caller intends to read or write (Pin and Command carry none). The
// catalog store (internal/catalog) uses this set to build minimal SQL
// statements; see AttributeSet for the contract.
package descriptor
