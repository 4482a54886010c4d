package protocol

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// WriteFrame writes one length-prefixed frame containing payload, which must
// already hold the packet ID varint followed by the body. A negative
// threshold selects the uncompressed format. Otherwise the compression
// envelope is used: payloads shorter than the threshold are wrapped with a
// declared size of zero, longer ones are deflated and declare their true
// size. The frame is assembled in memory and emitted with a single Write.
func WriteFrame(w io.Writer, payload []byte, threshold int) error {
	inner := payload
	if threshold >= 0 {
		wrapped := &Buffer{}
		if len(payload) < threshold {
			if err := WriteVarInt(wrapped, 0); err != nil {
				return err
			}
			wrapped.Write(payload)
		} else {
			if err := WriteVarInt(wrapped, int32(len(payload))); err != nil {
				return err
			}
			var deflated bytes.Buffer
			zw := zlib.NewWriter(&deflated)
			if _, err := zw.Write(payload); err != nil {
				return fmt.Errorf("deflating %d byte payload: %w", len(payload), err)
			}
			if err := zw.Close(); err != nil {
				return fmt.Errorf("deflating %d byte payload: %w", len(payload), err)
			}
			wrapped.Write(deflated.Bytes())
		}
		inner = wrapped.Bytes()
	}

	frame := &Buffer{}
	if err := WriteVarInt(frame, int32(len(inner))); err != nil {
		return err
	}
	frame.Write(inner)

	if _, err := w.Write(frame.Bytes()); err != nil {
		return fmt.Errorf("writing %d byte frame: %w", frame.Len(), err)
	}
	return nil
}

// ReadFrame reads one frame from r and returns its payload positioned at the
// packet ID varint. EOF inside the length prefix reports ErrDisconnected;
// once the prefix has been read in full the rest of the frame is owed, so
// truncation there is an ordinary error.
func ReadFrame(r Reader, compressed bool) (*Buffer, error) {
	length, err := readFrameLength(r)
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, fmt.Errorf("negative frame length %d", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("reading %d byte frame: %w", length, err)
	}
	if !compressed {
		return NewBuffer(body), nil
	}
	return inflateFrame(NewBuffer(body))
}

// UnwrapFrameBody converts a raw frame body, as split off a byte stream by
// FrameScanner, into a payload positioned at the packet ID varint. It is the
// tail end of ReadFrame for callers that reassemble frames themselves.
func UnwrapFrameBody(body []byte, compressed bool) (*Buffer, error) {
	if !compressed {
		return NewBuffer(body), nil
	}
	return inflateFrame(NewBuffer(body))
}

// readFrameLength decodes the outer length prefix. It does not reuse
// ReadVarInt because a clean disconnect can only be told apart from a
// truncated packet while reading these particular bytes.
func readFrameLength(r io.ByteReader) (int32, error) {
	var result uint32
	for i := 0; i < maxVarIntBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, ErrDisconnected
			}
			return 0, fmt.Errorf("reading frame length: %w", err)
		}
		result |= uint32(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return int32(result), nil
		}
	}
	return 0, fmt.Errorf("frame length varint exceeds %d bytes", maxVarIntBytes)
}

// inflateFrame unwraps the compression envelope around a frame body.
func inflateFrame(body *Buffer) (*Buffer, error) {
	declared, err := ReadVarInt(body)
	if err != nil {
		return nil, fmt.Errorf("reading declared uncompressed size: %w", err)
	}
	rest := body.data[body.pos:]
	if declared == 0 {
		return NewBuffer(rest), nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(rest))
	if err != nil {
		return nil, fmt.Errorf("opening compressed frame: %w", err)
	}
	defer zr.Close()

	inflated, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflating frame: %w", err)
	}
	if int32(len(inflated)) != declared {
		return nil, fmt.Errorf("frame declared %d uncompressed bytes but carried %d", declared, len(inflated))
	}
	return NewBuffer(inflated), nil
}
