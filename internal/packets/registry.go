package packets

import "github.com/mimicraft/mimic/internal/protocol"

// The registries below enumerate the packets each side expects in a given
// phase. IDs are resolved through the packets themselves so the version
// shuffling stays in one place.

// ServerboundHandshake returns the packets a server accepts before a phase
// has been negotiated.
func ServerboundHandshake(ctx protocol.Context) Registry {
	return Registry{
		(&Handshake{}).ID(ctx): func() Packet { return &Handshake{} },
	}
}

// ServerboundStatus returns the packets a server accepts in the status phase.
func ServerboundStatus(ctx protocol.Context) Registry {
	return Registry{
		(&StatusRequest{}).ID(ctx): func() Packet { return &StatusRequest{} },
		(&StatusPing{}).ID(ctx):    func() Packet { return &StatusPing{} },
	}
}

// ServerboundLogin returns the packets a server accepts in the login phase.
func ServerboundLogin(ctx protocol.Context) Registry {
	return Registry{
		(&LoginStart{}).ID(ctx): func() Packet { return &LoginStart{} },
	}
}

// ServerboundPlay returns the play packets the server decodes into types.
// Anything else a client sends surfaces as *Unknown.
func ServerboundPlay(ctx protocol.Context) Registry {
	return Registry{
		(&Chat{}).ID(ctx):                 func() Packet { return &Chat{} },
		(&KeepAliveServerbound{}).ID(ctx): func() Packet { return &KeepAliveServerbound{} },
	}
}

// ClientboundStatus returns the packets a client expects in the status phase.
func ClientboundStatus(ctx protocol.Context) Registry {
	return Registry{
		(&StatusResponse{}).ID(ctx): func() Packet { return &StatusResponse{} },
		(&StatusPong{}).ID(ctx):     func() Packet { return &StatusPong{} },
	}
}

// ClientboundLogin returns the packets a client expects in the login phase.
func ClientboundLogin(ctx protocol.Context) Registry {
	return Registry{
		(&LoginDisconnect{}).ID(ctx): func() Packet { return &LoginDisconnect{} },
		(&LoginSuccess{}).ID(ctx):    func() Packet { return &LoginSuccess{} },
		(&SetCompression{}).ID(ctx):  func() Packet { return &SetCompression{} },
	}
}

// ClientboundPlay returns the play packets the client decodes into types.
func ClientboundPlay(ctx protocol.Context) Registry {
	return Registry{
		(&JoinGame{}).ID(ctx):             func() Packet { return &JoinGame{} },
		(&ChatMessage{}).ID(ctx):          func() Packet { return &ChatMessage{} },
		(&PlayDisconnect{}).ID(ctx):       func() Packet { return &PlayDisconnect{} },
		(&KeepAliveClientbound{}).ID(ctx): func() Packet { return &KeepAliveClientbound{} },
	}
}
