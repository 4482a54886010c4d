// Packets exchanged during the handshake, status, login, and play phases,
// with their wire IDs resolved per protocol version.
package packets

import (
	"fmt"
	"io"

	"github.com/mimicraft/mimic/internal/protocol"
)

// Packet is a typed protocol message. Marshal and Unmarshal convert only the
// body; the leading ID varint and the surrounding frame are handled by
// Encode, Decode, and the connection.
type Packet interface {
	// ID returns the packet's wire ID under the given protocol context.
	ID(ctx protocol.Context) int32
	// Name returns a stable, human readable name for logs.
	Name() string
	Marshal(ctx protocol.Context, b *protocol.Buffer) error
	Unmarshal(ctx protocol.Context, b *protocol.Buffer) error
}

// Registry maps wire IDs to constructors for the packets expected in one
// connection phase and direction.
type Registry map[int32]func() Packet

// Encode renders p as its ID varint followed by the marshaled body.
func Encode(ctx protocol.Context, p Packet) ([]byte, error) {
	buf := &protocol.Buffer{}
	if err := protocol.WriteVarInt(buf, p.ID(ctx)); err != nil {
		return nil, err
	}
	if err := p.Marshal(ctx, buf); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", p.Name(), err)
	}
	return buf.Bytes(), nil
}

// Decode reads the leading packet ID from frame and unmarshals the rest into
// the type reg maps it to. IDs without an entry decode into *Unknown rather
// than failing, the way a real server skips packets it does not handle.
func Decode(ctx protocol.Context, reg Registry, frame *protocol.Buffer) (Packet, error) {
	id, err := protocol.ReadVarInt(frame)
	if err != nil {
		return nil, fmt.Errorf("reading packet ID: %w", err)
	}

	newPacket, ok := reg[id]
	if !ok {
		unknown := &Unknown{PacketID: id}
		if err := unknown.Unmarshal(ctx, frame); err != nil {
			return nil, err
		}
		return unknown, nil
	}

	p := newPacket()
	if err := p.Unmarshal(ctx, frame); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", p.Name(), err)
	}
	return p, nil
}

// Unknown carries the raw body of a packet the current registry has no
// entry for.
type Unknown struct {
	PacketID int32
	Body     []byte
}

func (p *Unknown) ID(protocol.Context) int32 { return p.PacketID }
func (p *Unknown) Name() string              { return "Unknown" }

func (p *Unknown) Marshal(_ protocol.Context, b *protocol.Buffer) error {
	_, err := b.Write(p.Body)
	return err
}

func (p *Unknown) Unmarshal(_ protocol.Context, b *protocol.Buffer) error {
	p.Body = make([]byte, b.Remaining())
	_, err := io.ReadFull(b, p.Body)
	return err
}
