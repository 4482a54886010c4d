package packets

import "github.com/mimicraft/mimic/internal/protocol"

// Next-state values carried by the handshake.
const (
	HandshakeStatus = 1
	HandshakeLogin  = 2
)

// Handshake is the first packet of every modern connection. NextState
// selects whether the client proceeds to the status or login phase.
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       int32
}

func (p *Handshake) ID(protocol.Context) int32 { return 0x00 }
func (p *Handshake) Name() string              { return "Handshake" }

func (p *Handshake) Marshal(_ protocol.Context, b *protocol.Buffer) error {
	if err := protocol.WriteVarInt(b, p.ProtocolVersion); err != nil {
		return err
	}
	if err := protocol.WriteString(b, p.ServerAddress); err != nil {
		return err
	}
	if err := protocol.WriteUnsignedShort(b, p.ServerPort); err != nil {
		return err
	}
	return protocol.WriteVarInt(b, p.NextState)
}

func (p *Handshake) Unmarshal(_ protocol.Context, b *protocol.Buffer) error {
	var err error
	if p.ProtocolVersion, err = protocol.ReadVarInt(b); err != nil {
		return err
	}
	if p.ServerAddress, err = protocol.ReadString(b); err != nil {
		return err
	}
	if p.ServerPort, err = protocol.ReadUnsignedShort(b); err != nil {
		return err
	}
	p.NextState, err = protocol.ReadVarInt(b)
	return err
}
