// Package basebackup drives the state machine of spec.md §4.E against
// one upstream server: connect, identify, request a base backup,
// register it, stream each tablespace to an archivefs directory
// through an internal/sink.Writer, finalize, and disconnect. Every
// transition that touches the catalog (registration, per-tablespace
// recording, finalization, abort) runs in its own transaction; the
// streaming loop itself is never held under one.
package basebackup
