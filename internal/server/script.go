package server

import (
	"fmt"

	"github.com/mimicraft/mimic/internal/packets"
)

// Script receives the play phase events of one session. Implementations
// drive what the server does once a client is in game; embedding
// DefaultScript lets a script override only the hooks it cares about.
type Script interface {
	// OnPlayStart runs once, immediately after LoginSuccess.
	OnPlayStart(s *Session) error

	// OnPlayPacket runs for every packet the client sends during play.
	OnPlayPacket(s *Session, pkt packets.Packet) error

	// OnClientDisconnect runs when the client closes the connection between
	// packets.
	OnClientDisconnect(s *Session) error

	// OnServerDisconnect runs when a hook returned a Kick and the client is
	// still connected. The default implementation delivers the Disconnect
	// packet.
	OnServerDisconnect(s *Session, message string) error
}

// Kick ends a session from the server side. Any Script hook may return it;
// the session sends the client a Disconnect packet carrying Message and
// closes normally instead of reporting an error.
type Kick struct {
	Message string
}

func (k *Kick) Error() string {
	return fmt.Sprintf("kicked: %s", k.reason())
}

func (k *Kick) reason() string {
	if k.Message == "" {
		return "Disconnected."
	}
	return k.Message
}

// DefaultScript is the standard session behavior: put the client in an empty
// single player world and echo chat back as ordinary player messages.
type DefaultScript struct{}

func (DefaultScript) OnPlayStart(s *Session) error {
	return s.SendPacket(&packets.JoinGame{
		EntityID:         0,
		GameMode:         0,
		Dimension:        0,
		Difficulty:       2,
		MaxPlayers:       1,
		LevelType:        "default",
		ReducedDebugInfo: false,
	})
}

func (DefaultScript) OnPlayPacket(s *Session, pkt packets.Packet) error {
	switch p := pkt.(type) {
	case *packets.Chat:
		if max := packets.MaxChatLength(s.Context()); len(p.Message) > max {
			return fmt.Errorf("chat message length %d exceeds the %d character limit", len(p.Message), max)
		}
		return s.SendPacket(&packets.ChatMessage{
			JSON:     packets.ChatTextJSON(s.Username(), p.Message),
			Position: 0,
		})
	case *packets.KeepAliveServerbound:
		// Nothing to do; the client is answering one of ours.
	case *packets.Unknown:
		s.Logger().Debugf("[server] ignoring unknown packet %#x from %s", p.PacketID, s.RemoteAddr())
	}
	return nil
}

func (DefaultScript) OnClientDisconnect(s *Session) error {
	return nil
}

func (DefaultScript) OnServerDisconnect(s *Session, message string) error {
	return s.SendPacket(&packets.PlayDisconnect{Reason: packets.TextJSON(message)})
}
