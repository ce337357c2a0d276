// Package ioring implements the vectored, bounded-in-flight file I/O
// engine of spec.md §4.A: a VectoredBuffer (a fixed set of aligned
// buffers addressable as one movable logical extent) and a Ring that
// moves bytes between it and an archive file with at most queue_depth
// operations in flight at once.
//
// The contract is satisfied synchronously: Read/Write validate and
// record a submission, and HandleCurrentIO performs the transfer and
// reports the actual byte count, mirroring the submit/complete split
// of a kernel io_uring instance (see
// _examples/original_source/include/filesystem/io_uring_instance.hxx)
// without depending on a platform-specific io_uring binding. Per
// spec.md §9, a process-wide versus per-command ring is left to the
// caller; this package does not impose either.
package ioring
