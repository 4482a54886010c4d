package protocol

// FrameScanner incrementally splits a raw TCP stream into frames. Partial
// data is held between calls, so captured segments can be fed in as they
// arrive off the wire.
type FrameScanner struct {
	buf []byte
}

// Append adds captured stream bytes to the scanner.
func (s *FrameScanner) Append(data []byte) {
	s.buf = append(s.buf, data...)
}

// Buffered returns the number of bytes held back waiting for a complete
// frame.
func (s *FrameScanner) Buffered() int { return len(s.buf) }

// Next returns the payload of the next complete frame, or false when the
// buffered data does not yet hold one.
func (s *FrameScanner) Next() ([]byte, bool) {
	length, prefixLen, ok := s.peekLength()
	if !ok || length < 0 || len(s.buf) < prefixLen+int(length) {
		return nil, false
	}

	frame := make([]byte, length)
	copy(frame, s.buf[prefixLen:prefixLen+int(length)])
	s.buf = s.buf[prefixLen+int(length):]
	return frame, true
}

func (s *FrameScanner) peekLength() (int32, int, bool) {
	var result uint32
	for i := 0; i < maxVarIntBytes && i < len(s.buf); i++ {
		b := s.buf[i]
		result |= uint32(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return int32(result), i + 1, true
		}
	}
	return 0, 0, false
}
