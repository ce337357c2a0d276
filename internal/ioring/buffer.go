package ioring

// VectoredBuffer is a set of num_buffers equally sized buffers,
// addressable as a single movable logical extent by (index, offset).
// See spec.md §4.A.
type VectoredBuffer struct {
	bufferSize int
	numBuffers int
	buffers    [][]byte

	effectiveSize int64
	index         int
	offset        int
}

// NewVectoredBuffer allocates numBuffers buffers of bufferSize bytes each.
func NewVectoredBuffer(bufferSize, numBuffers int) *VectoredBuffer {
	var vb = &VectoredBuffer{bufferSize: bufferSize, numBuffers: numBuffers}
	vb.buffers = make([][]byte, numBuffers)
	for i := range vb.buffers {
		vb.buffers[i] = make([]byte, bufferSize)
	}
	return vb
}

// BufferSize returns the size in bytes of a single buffer slot.
func (vb *VectoredBuffer) BufferSize() int { return vb.bufferSize }

// NumBuffers returns the number of buffer slots.
func (vb *VectoredBuffer) NumBuffers() int { return vb.numBuffers }

// Size returns the total addressable capacity of the buffer set.
func (vb *VectoredBuffer) Size() int64 { return int64(vb.bufferSize) * int64(vb.numBuffers) }

// EffectiveSize returns the number of bytes currently valid within the
// buffer set.
func (vb *VectoredBuffer) EffectiveSize() int64 { return vb.effectiveSize }

// SetEffectiveSize sets the number of valid bytes. It is the owner's
// responsibility to call this after a short read or write; it must
// satisfy 0 <= size <= Size().
func (vb *VectoredBuffer) SetEffectiveSize(size int64) error {
	if size < 0 || size > vb.Size() {
		return ErrInvalidOffset
	}
	vb.effectiveSize = size
	return nil
}

// Offset returns the absolute offset of the current position into the
// buffer set.
func (vb *VectoredBuffer) Offset() int64 {
	return int64(vb.index)*int64(vb.bufferSize) + int64(vb.offset)
}

// SetOffset moves the current position to the given absolute offset.
// It fails with ErrInvalidOffset if the offset falls outside the
// buffer set's capacity.
func (vb *VectoredBuffer) SetOffset(offset int64) error {
	if offset < 0 || offset > vb.Size() {
		return ErrInvalidOffset
	}
	vb.index = int(offset / int64(vb.bufferSize))
	vb.offset = int(offset % int64(vb.bufferSize))
	// An offset exactly at capacity addresses one-past-the-end, used
	// by callers probing for "no more space"; clamp the index so Ptr
	// does not panic indexing past the last buffer.
	if vb.index == vb.numBuffers && vb.offset == 0 && vb.numBuffers > 0 {
		vb.index = vb.numBuffers - 1
		vb.offset = vb.bufferSize
	}
	return nil
}

// Clear zeroes every buffer's contents but keeps the allocation and
// effective size untouched.
func (vb *VectoredBuffer) Clear() {
	for _, b := range vb.buffers {
		for i := range b {
			b[i] = 0
		}
	}
}

// Buffer returns the buffer slot at the current position.
func (vb *VectoredBuffer) Buffer() []byte { return vb.buffers[vb.index] }

// Ptr returns a slice into the current buffer slot, starting at the
// current in-slot offset.
func (vb *VectoredBuffer) Ptr() []byte { return vb.buffers[vb.index][vb.offset:] }

// Slots returns the full backing buffer slice set, for use by a Ring
// performing vectored transfer.
func (vb *VectoredBuffer) Slots() [][]byte { return vb.buffers }
