package packets

import "github.com/mimicraft/mimic/internal/protocol"

// JoinGame moves the client into the world. Dimension widened from a byte to
// an int in protocol 108.
type JoinGame struct {
	EntityID         int32
	GameMode         uint8
	Dimension        int32
	Difficulty       uint8
	MaxPlayers       uint8
	LevelType        string
	ReducedDebugInfo bool
}

func (p *JoinGame) ID(ctx protocol.Context) int32 {
	if ctx.ProtocolVersion >= 107 {
		return 0x23
	}
	return 0x01
}

func (p *JoinGame) Name() string { return "JoinGame" }

func (p *JoinGame) Marshal(ctx protocol.Context, b *protocol.Buffer) error {
	if err := protocol.WriteInt(b, p.EntityID); err != nil {
		return err
	}
	b.WriteByte(p.GameMode)
	if ctx.ProtocolVersion >= 108 {
		if err := protocol.WriteInt(b, p.Dimension); err != nil {
			return err
		}
	} else {
		if err := protocol.WriteSignedByte(b, int8(p.Dimension)); err != nil {
			return err
		}
	}
	b.WriteByte(p.Difficulty)
	b.WriteByte(p.MaxPlayers)
	if err := protocol.WriteString(b, p.LevelType); err != nil {
		return err
	}
	return protocol.WriteBool(b, p.ReducedDebugInfo)
}

func (p *JoinGame) Unmarshal(ctx protocol.Context, b *protocol.Buffer) error {
	var err error
	if p.EntityID, err = protocol.ReadInt(b); err != nil {
		return err
	}
	if p.GameMode, err = b.ReadByte(); err != nil {
		return err
	}
	if ctx.ProtocolVersion >= 108 {
		if p.Dimension, err = protocol.ReadInt(b); err != nil {
			return err
		}
	} else {
		dim, err := protocol.ReadSignedByte(b)
		if err != nil {
			return err
		}
		p.Dimension = int32(dim)
	}
	if p.Difficulty, err = b.ReadByte(); err != nil {
		return err
	}
	if p.MaxPlayers, err = b.ReadByte(); err != nil {
		return err
	}
	if p.LevelType, err = protocol.ReadString(b); err != nil {
		return err
	}
	p.ReducedDebugInfo, err = protocol.ReadBool(b)
	return err
}

// Chat is the serverbound chat message.
type Chat struct {
	Message string
}

func (p *Chat) ID(ctx protocol.Context) int32 {
	switch {
	case ctx.ProtocolVersion >= 336:
		return 0x02
	case ctx.ProtocolVersion >= 318:
		return 0x03
	case ctx.ProtocolVersion >= 107:
		return 0x02
	default:
		return 0x01
	}
}

func (p *Chat) Name() string { return "Chat" }

func (p *Chat) Marshal(_ protocol.Context, b *protocol.Buffer) error {
	return protocol.WriteString(b, p.Message)
}

func (p *Chat) Unmarshal(_ protocol.Context, b *protocol.Buffer) error {
	var err error
	p.Message, err = protocol.ReadString(b)
	return err
}

// MaxChatLength returns the longest message a client may legally send.
func MaxChatLength(ctx protocol.Context) int {
	if ctx.ProtocolVersion >= 306 {
		return 256
	}
	return 100
}

// ChatMessage is the clientbound chat packet: a chat JSON document plus the
// screen position it renders at.
type ChatMessage struct {
	JSON     string
	Position byte
}

func (p *ChatMessage) ID(ctx protocol.Context) int32 {
	if ctx.ProtocolVersion >= 107 {
		return 0x0F
	}
	return 0x02
}

func (p *ChatMessage) Name() string { return "ChatMessage" }

func (p *ChatMessage) Marshal(_ protocol.Context, b *protocol.Buffer) error {
	if err := protocol.WriteString(b, p.JSON); err != nil {
		return err
	}
	return b.WriteByte(p.Position)
}

func (p *ChatMessage) Unmarshal(_ protocol.Context, b *protocol.Buffer) error {
	var err error
	if p.JSON, err = protocol.ReadString(b); err != nil {
		return err
	}
	p.Position, err = b.ReadByte()
	return err
}

// PlayDisconnect kicks the client during the play phase. Reason is a chat
// JSON document.
type PlayDisconnect struct {
	Reason string
}

func (p *PlayDisconnect) ID(ctx protocol.Context) int32 {
	if ctx.ProtocolVersion >= 107 {
		return 0x1A
	}
	return 0x40
}

func (p *PlayDisconnect) Name() string { return "PlayDisconnect" }

func (p *PlayDisconnect) Marshal(_ protocol.Context, b *protocol.Buffer) error {
	return protocol.WriteString(b, p.Reason)
}

func (p *PlayDisconnect) Unmarshal(_ protocol.Context, b *protocol.Buffer) error {
	var err error
	p.Reason, err = protocol.ReadString(b)
	return err
}

// KeepAliveClientbound is the server's liveness probe. The payload was a
// varint until protocol 339 made it a long.
type KeepAliveClientbound struct {
	KeepAliveID int64
}

func (p *KeepAliveClientbound) ID(ctx protocol.Context) int32 {
	if ctx.ProtocolVersion >= 107 {
		return 0x1F
	}
	return 0x00
}

func (p *KeepAliveClientbound) Name() string { return "KeepAliveClientbound" }

func (p *KeepAliveClientbound) Marshal(ctx protocol.Context, b *protocol.Buffer) error {
	return marshalKeepAliveID(ctx, b, p.KeepAliveID)
}

func (p *KeepAliveClientbound) Unmarshal(ctx protocol.Context, b *protocol.Buffer) error {
	var err error
	p.KeepAliveID, err = unmarshalKeepAliveID(ctx, b)
	return err
}

// KeepAliveServerbound echoes a clientbound keep-alive's payload.
type KeepAliveServerbound struct {
	KeepAliveID int64
}

func (p *KeepAliveServerbound) ID(ctx protocol.Context) int32 {
	switch {
	case ctx.ProtocolVersion >= 336:
		return 0x0B
	case ctx.ProtocolVersion >= 318:
		return 0x0C
	case ctx.ProtocolVersion >= 107:
		return 0x0B
	default:
		return 0x00
	}
}

func (p *KeepAliveServerbound) Name() string { return "KeepAliveServerbound" }

func (p *KeepAliveServerbound) Marshal(ctx protocol.Context, b *protocol.Buffer) error {
	return marshalKeepAliveID(ctx, b, p.KeepAliveID)
}

func (p *KeepAliveServerbound) Unmarshal(ctx protocol.Context, b *protocol.Buffer) error {
	var err error
	p.KeepAliveID, err = unmarshalKeepAliveID(ctx, b)
	return err
}

func marshalKeepAliveID(ctx protocol.Context, b *protocol.Buffer, id int64) error {
	if ctx.ProtocolVersion >= 339 {
		return protocol.WriteLong(b, id)
	}
	return protocol.WriteVarInt(b, int32(id))
}

func unmarshalKeepAliveID(ctx protocol.Context, b *protocol.Buffer) (int64, error) {
	if ctx.ProtocolVersion >= 339 {
		return protocol.ReadLong(b)
	}
	id, err := protocol.ReadVarInt(b)
	return int64(id), err
}
