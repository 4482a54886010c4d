package protocol

import "io"

// Buffer is an in-memory packet body with an independent read cursor. Writes
// always append and reads advance the cursor without discarding data, so the
// same buffer can be sized, emitted, and re-read.
type Buffer struct {
	data []byte
	pos  int
}

// NewBuffer returns a Buffer over the given bytes with the cursor at the start.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *Buffer) WriteByte(c byte) error {
	b.data = append(b.data, c)
	return nil
}

func (b *Buffer) Read(p []byte) (int, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}

func (b *Buffer) ReadByte() (byte, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	c := b.data[b.pos]
	b.pos++
	return c, nil
}

// Bytes returns the full contents regardless of the cursor position.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the total number of bytes held.
func (b *Buffer) Len() int { return len(b.data) }

// Remaining returns the number of unread bytes.
func (b *Buffer) Remaining() int { return len(b.data) - b.pos }

// Reset discards the contents and rewinds the cursor.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.pos = 0
}

// ResetCursor rewinds the cursor so the contents can be read again.
func (b *Buffer) ResetCursor() { b.pos = 0 }
