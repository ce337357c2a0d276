package ioring

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/semaphore"
)

// File is the minimal handle a Ring transfers bytes against. It is
// satisfied by *os.File.
type File interface {
	io.ReaderAt
	io.WriterAt
}

type opKind int

const (
	opNone opKind = iota
	opRead
	opWrite
)

// Ring is a bounded submission/completion queue over a single File:
// at most queue_depth vectored operations may be admitted before a
// prior one is completed with HandleCurrentIO. Ring mirrors the
// submit/complete split of a kernel io_uring instance, generalizing
// the semaphore-bounded concurrency pattern of
// broker/fragment/persister.go to a single in-flight operation per
// Ring (queue_depth governs vector width, not concurrent Rings).
type Ring struct {
	mu         sync.Mutex
	queueDepth int
	blockSize  int
	sem        *semaphore.Weighted

	file    File
	kind    opKind
	buf     *VectoredBuffer
	pos     int64
	pending bool
}

// Setup prepares the Ring to transfer against file, admitting up to
// queueDepth buffer slots of blockSize bytes per submission.
func (r *Ring) Setup(file File, queueDepth, blockSize int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.file = file
	r.queueDepth = queueDepth
	r.blockSize = blockSize
	r.sem = semaphore.NewWeighted(int64(queueDepth))
	r.kind = opNone
	r.pending = false
}

// Exit tears down the Ring. Any operation submitted but not completed
// is discarded.
func (r *Ring) Exit() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.file = nil
	r.sem = nil
	r.kind = opNone
	r.pending = false
}

// Available reports whether the Ring has been Setup and not yet Exit.
func (r *Ring) Available() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file != nil
}

// Read submits a vectored read of buf's slots starting at file offset
// pos. The read is not performed until HandleCurrentIO is called.
func (r *Ring) Read(ctx context.Context, buf *VectoredBuffer, pos int64) error {
	return r.submit(ctx, opRead, buf, pos)
}

// Write submits a vectored write of buf's slots (up to its current
// EffectiveSize) to file offset pos. The write is not performed until
// HandleCurrentIO is called.
func (r *Ring) Write(ctx context.Context, buf *VectoredBuffer, pos int64) error {
	return r.submit(ctx, opWrite, buf, pos)
}

func (r *Ring) submit(ctx context.Context, kind opKind, buf *VectoredBuffer, pos int64) error {
	r.mu.Lock()
	if r.file == nil {
		r.mu.Unlock()
		return ErrRingUnavailable
	}
	if buf.NumBuffers() > r.queueDepth {
		r.mu.Unlock()
		return ErrSubmissionFull
	}
	if buf.BufferSize() != r.blockSize {
		r.mu.Unlock()
		return ErrSubmissionFull
	}
	var sem = r.sem
	r.mu.Unlock()

	if err := sem.Acquire(ctx, int64(buf.NumBuffers())); err != nil {
		return err
	}

	r.mu.Lock()
	r.kind = kind
	r.buf = buf
	r.pos = pos
	r.pending = true
	r.mu.Unlock()

	return nil
}

// HandleCurrentIO performs the transfer submitted by the most recent
// Read or Write call, blocking until it completes, and releases the
// queue_depth slots it held. It reports the number of bytes actually
// transferred and sets buf's EffectiveSize accordingly.
func (r *Ring) HandleCurrentIO() (int64, error) {
	r.mu.Lock()
	if r.file == nil {
		r.mu.Unlock()
		return 0, ErrRingUnavailable
	}
	if !r.pending {
		r.mu.Unlock()
		return 0, ErrNoPendingIO
	}
	var (
		kind = r.kind
		buf  = r.buf
		pos  = r.pos
		file = r.file
		sem  = r.sem
		n    = int64(buf.NumBuffers())
	)
	r.pending = false
	r.kind = opNone
	r.buf = nil
	r.mu.Unlock()

	defer sem.Release(n)

	var total int64
	var readErr error
	for _, slot := range buf.Slots() {
		var off = pos + total
		switch kind {
		case opRead:
			var m int
			m, readErr = file.ReadAt(slot, off)
			total += int64(m)
			if readErr != nil {
				break
			}
		case opWrite:
			var want = slot
			if remain := buf.EffectiveSize() - total; remain < int64(len(slot)) {
				if remain <= 0 {
					want = nil
				} else {
					want = slot[:remain]
				}
			}
			if len(want) == 0 {
				break
			}
			var m int
			m, readErr = file.WriteAt(want, off)
			total += int64(m)
			if readErr != nil {
				break
			}
		}
		if readErr != nil {
			break
		}
	}

	if readErr != nil && readErr != io.EOF {
		return total, newIOError("transfer failed", readErr)
	}
	if kind == opRead {
		if err := buf.SetEffectiveSize(total); err != nil {
			return total, newIOError("short read exceeds buffer capacity", err)
		}
	}
	return total, nil
}
