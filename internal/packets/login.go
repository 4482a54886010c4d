package packets

import "github.com/mimicraft/mimic/internal/protocol"

// LoginStart announces the player name the client wants to log in with.
type LoginStart struct {
	Username string
}

func (p *LoginStart) ID(protocol.Context) int32 { return 0x00 }
func (p *LoginStart) Name() string              { return "LoginStart" }

func (p *LoginStart) Marshal(_ protocol.Context, b *protocol.Buffer) error {
	return protocol.WriteString(b, p.Username)
}

func (p *LoginStart) Unmarshal(_ protocol.Context, b *protocol.Buffer) error {
	var err error
	p.Username, err = protocol.ReadString(b)
	return err
}

// LoginDisconnect rejects a login attempt. Reason is a chat JSON document.
type LoginDisconnect struct {
	Reason string
}

func (p *LoginDisconnect) ID(protocol.Context) int32 { return 0x00 }
func (p *LoginDisconnect) Name() string              { return "LoginDisconnect" }

func (p *LoginDisconnect) Marshal(_ protocol.Context, b *protocol.Buffer) error {
	return protocol.WriteString(b, p.Reason)
}

func (p *LoginDisconnect) Unmarshal(_ protocol.Context, b *protocol.Buffer) error {
	var err error
	p.Reason, err = protocol.ReadString(b)
	return err
}

// LoginSuccess completes the login phase and moves the connection to play.
type LoginSuccess struct {
	UUID     string
	Username string
}

func (p *LoginSuccess) ID(protocol.Context) int32 { return 0x02 }
func (p *LoginSuccess) Name() string              { return "LoginSuccess" }

func (p *LoginSuccess) Marshal(_ protocol.Context, b *protocol.Buffer) error {
	if err := protocol.WriteString(b, p.UUID); err != nil {
		return err
	}
	return protocol.WriteString(b, p.Username)
}

func (p *LoginSuccess) Unmarshal(_ protocol.Context, b *protocol.Buffer) error {
	var err error
	if p.UUID, err = protocol.ReadString(b); err != nil {
		return err
	}
	p.Username, err = protocol.ReadString(b)
	return err
}

// SetCompression announces the compression threshold. Every packet after it
// uses the compression envelope, in both directions.
type SetCompression struct {
	Threshold int32
}

func (p *SetCompression) ID(protocol.Context) int32 { return 0x03 }
func (p *SetCompression) Name() string              { return "SetCompression" }

func (p *SetCompression) Marshal(_ protocol.Context, b *protocol.Buffer) error {
	return protocol.WriteVarInt(b, p.Threshold)
}

func (p *SetCompression) Unmarshal(_ protocol.Context, b *protocol.Buffer) error {
	var err error
	p.Threshold, err = protocol.ReadVarInt(b)
	return err
}
