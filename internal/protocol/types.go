package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Reader is what frame and field decoding reads from. *Buffer and
// *bufio.Reader both satisfy it.
type Reader interface {
	io.Reader
	io.ByteReader
}

const maxVarIntBytes = 5

// ReadVarInt decodes a variable-length 32 bit integer: up to five bytes of
// seven low bits each, least significant group first, with the high bit set
// on every byte except the last.
func ReadVarInt(r io.ByteReader) (int32, error) {
	var result uint32
	for i := 0; i < maxVarIntBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return int32(result), nil
		}
	}
	return 0, fmt.Errorf("varint exceeds %d bytes", maxVarIntBytes)
}

// WriteVarInt encodes v as a varint. Negative values always occupy the full
// five bytes.
func WriteVarInt(w io.Writer, v int32) error {
	u := uint32(v)
	var buf [maxVarIntBytes]byte
	n := 0
	for {
		b := byte(u & 0x7f)
		u >>= 7
		if u != 0 {
			b |= 0x80
		}
		buf[n] = b
		n++
		if u == 0 {
			break
		}
	}
	_, err := w.Write(buf[:n])
	return err
}

// ReadString decodes a varint byte length followed by that many bytes of UTF-8.
func ReadString(r Reader) (string, error) {
	length, err := ReadVarInt(r)
	if err != nil {
		return "", fmt.Errorf("reading string length: %w", err)
	}
	if length < 0 {
		return "", fmt.Errorf("negative string length %d", length)
	}
	raw := make([]byte, length)
	if _, err := io.ReadFull(r, raw); err != nil {
		return "", fmt.Errorf("reading %d byte string: %w", length, err)
	}
	return string(raw), nil
}

// WriteString encodes a varint byte length followed by the raw UTF-8 bytes.
func WriteString(w io.Writer, s string) error {
	if err := WriteVarInt(w, int32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func ReadUnsignedShort(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func WriteUnsignedShort(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func ReadInt(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

func WriteInt(w io.Writer, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

func ReadLong(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

func WriteLong(w io.Writer, v int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	_, err := w.Write(buf[:])
	return err
}

func ReadSignedByte(r io.ByteReader) (int8, error) {
	b, err := r.ReadByte()
	return int8(b), err
}

func WriteSignedByte(w io.Writer, v int8) error {
	_, err := w.Write([]byte{byte(v)})
	return err
}

func ReadBool(r io.ByteReader) (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

func WriteBool(w io.Writer, v bool) error {
	var b byte
	if v {
		b = 1
	}
	_, err := w.Write([]byte{b})
	return err
}
