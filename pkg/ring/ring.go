// Package ring implements a fixed-size circular byte buffer backed by the
// global [pool.Pool], used by the mixer's per-layer PCM queues and the
// flow controller's crossfade lookahead buffer.
package ring

import "github.com/aurelink/aurelink/pkg/pool"

// Buffer is a single-producer, single-consumer circular byte buffer of a
// fixed size. Writing past capacity overwrites the oldest bytes rather than
// growing — callers that cannot tolerate data loss must size it generously.
//
// Buffer is not safe for concurrent use by more than one writer and one
// reader at a time; callers needing broader synchronization must add their
// own locking.
type Buffer struct {
	buf         []byte
	size        int
	writeOffset int
	readOffset  int
	length      int
	p           *pool.Pool
}

// New creates a Buffer of the given size in bytes, backed by the global
// byte pool.
func New(size int) *Buffer {
	return NewWithPool(size, pool.Global())
}

// NewWithPool creates a Buffer backed by an explicit pool, useful in tests
// that want an isolated pool instance.
func NewWithPool(size int, p *pool.Pool) *Buffer {
	buf := p.Acquire(size)
	buf = buf[:size]
	for i := range buf {
		buf[i] = 0
	}
	return &Buffer{buf: buf, size: size, p: p}
}

// Len returns the number of bytes currently available to read.
func (b *Buffer) Len() int { return b.length }

// Remaining returns how many bytes can be written before the buffer is full.
func (b *Buffer) Remaining() int { return b.size - b.length }

// IsEmpty reports whether the buffer holds no readable bytes.
func (b *Buffer) IsEmpty() bool { return b.length == 0 }

// Write copies chunk into the buffer, wrapping as needed. If chunk is
// larger than the available free space, the oldest bytes are discarded and
// the read pointer advances accordingly — the buffer never blocks and
// never grows.
func (b *Buffer) Write(chunk []byte) {
	toWrite := len(chunk)
	if toWrite == 0 {
		return
	}

	availableAtEnd := b.size - b.writeOffset
	if toWrite <= availableAtEnd {
		copy(b.buf[b.writeOffset:], chunk)
	} else {
		copy(b.buf[b.writeOffset:], chunk[:availableAtEnd])
		copy(b.buf, chunk[availableAtEnd:])
	}

	newLen := b.length + toWrite
	if newLen > b.size {
		overwritten := newLen - b.size
		b.readOffset = (b.readOffset + overwritten) % b.size
		b.length = b.size
	} else {
		b.length = newLen
	}
	b.writeOffset = (b.writeOffset + toWrite) % b.size
}

// Read returns up to n bytes in a freshly pool-acquired slice, or nil if the
// buffer is empty. The caller owns the returned slice and should release it
// back to the pool once done.
func (b *Buffer) Read(n int) []byte {
	toRead := min(n, b.length)
	if toRead == 0 {
		return nil
	}

	out := b.p.Acquire(toRead)
	out = out[:toRead]
	b.copyOut(out, b.readOffset, toRead)

	b.readOffset = (b.readOffset + toRead) % b.size
	b.length -= toRead
	return out
}

// Peek returns up to n bytes without advancing the read pointer, or nil if
// the buffer is empty.
func (b *Buffer) Peek(n int) []byte {
	toRead := min(n, b.length)
	if toRead == 0 {
		return nil
	}
	out := b.p.Acquire(toRead)
	out = out[:toRead]
	b.copyOut(out, b.readOffset, toRead)
	return out
}

// Skip discards up to n bytes without copying them, returning the number of
// bytes actually skipped.
func (b *Buffer) Skip(n int) int {
	toSkip := min(n, b.length)
	b.readOffset = (b.readOffset + toSkip) % b.size
	b.length -= toSkip
	return toSkip
}

// Clear resets the buffer to empty without releasing the underlying storage.
func (b *Buffer) Clear() {
	b.writeOffset = 0
	b.readOffset = 0
	b.length = 0
}

// Dispose returns the underlying storage to the pool. The Buffer must not
// be used afterwards.
func (b *Buffer) Dispose() {
	if b.buf == nil {
		return
	}
	b.p.Release(b.buf)
	b.buf = nil
}

func (b *Buffer) copyOut(dst []byte, from, n int) {
	availableAtEnd := b.size - from
	if n <= availableAtEnd {
		copy(dst, b.buf[from:from+n])
		return
	}
	copy(dst, b.buf[from:])
	copy(dst[availableAtEnd:], b.buf[:n-availableAtEnd])
}
