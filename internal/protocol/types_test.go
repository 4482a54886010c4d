package protocol

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteVarInt(t *testing.T) {
	type args struct {
		v int32
	}
	tests := []struct {
		name string
		args args
		want []byte
	}{
		{
			name: "zero",
			args: args{v: 0},
			want: []byte{0x00},
		},
		{
			name: "single byte maximum",
			args: args{v: 127},
			want: []byte{0x7f},
		},
		{
			name: "two bytes",
			args: args{v: 128},
			want: []byte{0x80, 0x01},
		},
		{
			name: "arbitrary two byte value",
			args: args{v: 300},
			want: []byte{0xac, 0x02},
		},
		{
			name: "int32 maximum",
			args: args{v: 2147483647},
			want: []byte{0xff, 0xff, 0xff, 0xff, 0x07},
		},
		{
			name: "negative one",
			args: args{v: -1},
			want: []byte{0xff, 0xff, 0xff, 0xff, 0x0f},
		},
		{
			name: "int32 minimum",
			args: args{v: -2147483648},
			want: []byte{0x80, 0x80, 0x80, 0x80, 0x08},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &Buffer{}
			if err := WriteVarInt(buf, tt.args.v); err != nil {
				t.Fatalf("WriteVarInt() returned error: %s", err)
			}
			if diff := cmp.Diff(tt.want, buf.Bytes()); diff != "" {
				t.Errorf("WriteVarInt(%d) encoded the wrong bytes; diff:\n%s", tt.args.v, diff)
			}

			got, err := ReadVarInt(buf)
			if err != nil {
				t.Fatalf("ReadVarInt() returned error: %s", err)
			}
			if got != tt.args.v {
				t.Errorf("ReadVarInt() = %d, want %d", got, tt.args.v)
			}
		})
	}
}

func TestReadVarIntRejectsOverlongEncoding(t *testing.T) {
	buf := NewBuffer([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00})
	if _, err := ReadVarInt(buf); err == nil {
		t.Error("ReadVarInt() accepted a six byte varint")
	}
}

func TestStringRoundTrip(t *testing.T) {
	type args struct {
		s string
	}
	tests := []struct {
		name string
		args args
		want []byte
	}{
		{
			name: "empty string",
			args: args{s: ""},
			want: []byte{0x00},
		},
		{
			name: "ascii",
			args: args{s: "mimic"},
			want: []byte{0x05, 'm', 'i', 'm', 'i', 'c'},
		},
		{
			name: "multibyte runes use their utf8 length",
			args: args{s: "§cred"},
			want: []byte{0x06, 0xc2, 0xa7, 'c', 'r', 'e', 'd'},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &Buffer{}
			if err := WriteString(buf, tt.args.s); err != nil {
				t.Fatalf("WriteString() returned error: %s", err)
			}
			if !reflect.DeepEqual(buf.Bytes(), tt.want) {
				t.Errorf("WriteString(%q) = %v, want %v", tt.args.s, buf.Bytes(), tt.want)
			}

			got, err := ReadString(buf)
			if err != nil {
				t.Fatalf("ReadString() returned error: %s", err)
			}
			if got != tt.args.s {
				t.Errorf("ReadString() = %q, want %q", got, tt.args.s)
			}
		})
	}
}

func TestReadStringRejectsNegativeLength(t *testing.T) {
	buf := &Buffer{}
	if err := WriteVarInt(buf, -5); err != nil {
		t.Fatalf("WriteVarInt() returned error: %s", err)
	}
	if _, err := ReadString(buf); err == nil {
		t.Error("ReadString() accepted a negative length prefix")
	}
}

func TestFixedWidthEncodings(t *testing.T) {
	buf := &Buffer{}
	if err := WriteUnsignedShort(buf, 25565); err != nil {
		t.Fatalf("WriteUnsignedShort() returned error: %s", err)
	}
	if err := WriteInt(buf, -2); err != nil {
		t.Fatalf("WriteInt() returned error: %s", err)
	}
	if err := WriteLong(buf, 0x1122334455667788); err != nil {
		t.Fatalf("WriteLong() returned error: %s", err)
	}
	if err := WriteSignedByte(buf, -1); err != nil {
		t.Fatalf("WriteSignedByte() returned error: %s", err)
	}
	if err := WriteBool(buf, true); err != nil {
		t.Fatalf("WriteBool() returned error: %s", err)
	}

	want := []byte{
		0x63, 0xdd,
		0xff, 0xff, 0xff, 0xfe,
		0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88,
		0xff,
		0x01,
	}
	if diff := cmp.Diff(want, buf.Bytes()); diff != "" {
		t.Fatalf("fixed width fields encoded the wrong bytes; diff:\n%s", diff)
	}

	port, err := ReadUnsignedShort(buf)
	if err != nil || port != 25565 {
		t.Errorf("ReadUnsignedShort() = %d, %v, want 25565", port, err)
	}
	i, err := ReadInt(buf)
	if err != nil || i != -2 {
		t.Errorf("ReadInt() = %d, %v, want -2", i, err)
	}
	l, err := ReadLong(buf)
	if err != nil || l != 0x1122334455667788 {
		t.Errorf("ReadLong() = %d, %v, want %d", l, err, int64(0x1122334455667788))
	}
	sb, err := ReadSignedByte(buf)
	if err != nil || sb != -1 {
		t.Errorf("ReadSignedByte() = %d, %v, want -1", sb, err)
	}
	b, err := ReadBool(buf)
	if err != nil || !b {
		t.Errorf("ReadBool() = %v, %v, want true", b, err)
	}
}
