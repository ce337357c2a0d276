// Package pgconn adapts the PostgreSQL replication protocol to the
// narrow interface the Base-backup Pipeline (internal/basebackup)
// drives: connect, identify, request a base backup, step through its
// tablespaces, end the backup, and disconnect — the sequence of
// spec.md §4.E's state machine.
//
// Conn is the abstraction; PQConn is the github.com/lib/pq-backed
// implementation used outside tests. It opens a "replication=database"
// connection and issues IDENTIFY_SYSTEM / BASE_BACKUP / START_REPLICATION
// as plain queries: lib/pq's driver answers a replication connection's
// COPY BOTH responses by handing back *sql.Rows whose Next/Scan yields
// one raw CopyData message per row, so the ordinary database/sql
// surface is enough to drive the whole exchange without a
// protocol-specific extension library.
package pgconn
