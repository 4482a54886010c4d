package packets

import "github.com/mimicraft/mimic/internal/protocol"

// Status is the JSON document served in response to a status request.
type Status struct {
	Version     StatusVersion     `json:"version"`
	Players     StatusPlayers     `json:"players"`
	Description StatusDescription `json:"description"`
}

type StatusVersion struct {
	Name     string `json:"name"`
	Protocol int32  `json:"protocol"`
}

type StatusPlayers struct {
	Max    int                 `json:"max"`
	Online int                 `json:"online"`
	Sample []StatusPlayerEntry `json:"sample"`
}

type StatusPlayerEntry struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type StatusDescription struct {
	Text string `json:"text"`
}

// StatusRequest asks the server for its status document. It has no body.
type StatusRequest struct{}

func (p *StatusRequest) ID(protocol.Context) int32 { return 0x00 }
func (p *StatusRequest) Name() string              { return "StatusRequest" }

func (p *StatusRequest) Marshal(protocol.Context, *protocol.Buffer) error   { return nil }
func (p *StatusRequest) Unmarshal(protocol.Context, *protocol.Buffer) error { return nil }

// StatusResponse carries the serialized status document.
type StatusResponse struct {
	JSON string
}

func (p *StatusResponse) ID(protocol.Context) int32 { return 0x00 }
func (p *StatusResponse) Name() string              { return "StatusResponse" }

func (p *StatusResponse) Marshal(_ protocol.Context, b *protocol.Buffer) error {
	return protocol.WriteString(b, p.JSON)
}

func (p *StatusResponse) Unmarshal(_ protocol.Context, b *protocol.Buffer) error {
	var err error
	p.JSON, err = protocol.ReadString(b)
	return err
}

// StatusPing carries an arbitrary client timestamp the server echoes back.
type StatusPing struct {
	Time int64
}

func (p *StatusPing) ID(protocol.Context) int32 { return 0x01 }
func (p *StatusPing) Name() string              { return "StatusPing" }

func (p *StatusPing) Marshal(_ protocol.Context, b *protocol.Buffer) error {
	return protocol.WriteLong(b, p.Time)
}

func (p *StatusPing) Unmarshal(_ protocol.Context, b *protocol.Buffer) error {
	var err error
	p.Time, err = protocol.ReadLong(b)
	return err
}

// StatusPong is the server's echo of a StatusPing.
type StatusPong struct {
	Time int64
}

func (p *StatusPong) ID(protocol.Context) int32 { return 0x01 }
func (p *StatusPong) Name() string              { return "StatusPong" }

func (p *StatusPong) Marshal(_ protocol.Context, b *protocol.Buffer) error {
	return protocol.WriteLong(b, p.Time)
}

func (p *StatusPong) Unmarshal(_ protocol.Context, b *protocol.Buffer) error {
	var err error
	p.Time, err = protocol.ReadLong(b)
	return err
}
