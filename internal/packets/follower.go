package packets

import "github.com/mimicraft/mimic/internal/protocol"

// Follower tracks the protocol version and phase of a connection observed
// from outside, so passive tools can decode both directions with the right
// registries. Feed it every packet in capture order.
type Follower struct {
	Ctx protocol.Context

	serverbound Registry
	clientbound Registry
}

func NewFollower() *Follower {
	f := &Follower{Ctx: protocol.Context{ProtocolVersion: protocol.Latest().Protocol}}
	f.serverbound = ServerboundHandshake(f.Ctx)
	f.clientbound = Registry{}
	return f
}

// Observe decodes one packet payload and advances the phase state it implies.
// clientPacket is true for serverbound traffic.
func (f *Follower) Observe(clientPacket bool, payload *protocol.Buffer) (Packet, error) {
	registry := f.clientbound
	if clientPacket {
		registry = f.serverbound
	}

	pkt, err := Decode(f.Ctx, registry, payload)
	if err != nil {
		return nil, err
	}
	f.advance(clientPacket, pkt)
	return pkt, nil
}

func (f *Follower) advance(clientPacket bool, pkt Packet) {
	switch p := pkt.(type) {
	case *Handshake:
		f.Ctx = protocol.Context{ProtocolVersion: p.ProtocolVersion}
		if p.NextState == HandshakeStatus {
			f.serverbound = ServerboundStatus(f.Ctx)
			f.clientbound = ClientboundStatus(f.Ctx)
		} else {
			f.serverbound = ServerboundLogin(f.Ctx)
			f.clientbound = ClientboundLogin(f.Ctx)
		}
	case *LoginSuccess:
		if !clientPacket {
			f.serverbound = ServerboundPlay(f.Ctx)
			f.clientbound = ClientboundPlay(f.Ctx)
		}
	}
}
