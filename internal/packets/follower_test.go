package packets

import (
	"reflect"
	"testing"

	"github.com/mimicraft/mimic/internal/protocol"
)

func observe(t *testing.T, f *Follower, clientPacket bool, pkt Packet) Packet {
	t.Helper()
	raw, err := Encode(f.Ctx, pkt)
	if err != nil {
		t.Fatalf("Encode() returned error: %s", err)
	}
	decoded, err := f.Observe(clientPacket, protocol.NewBuffer(raw))
	if err != nil {
		t.Fatalf("Observe() returned error: %s", err)
	}
	return decoded
}

func TestFollowerTracksLoginIntoPlay(t *testing.T) {
	f := NewFollower()

	steps := []struct {
		name         string
		clientPacket bool
		send         Packet
	}{
		{"handshake", true, &Handshake{
			ProtocolVersion: 47,
			ServerAddress:   "localhost",
			ServerPort:      25565,
			NextState:       HandshakeLogin,
		}},
		{"login start", true, &LoginStart{Username: "TestUser"}},
		{"login success", false, &LoginSuccess{UUID: "abc", Username: "TestUser"}},
		{"serverbound chat", true, &Chat{Message: "hello"}},
		{"clientbound chat", false, &ChatMessage{JSON: ChatTextJSON("TestUser", "hello")}},
	}

	for _, step := range steps {
		decoded := observe(t, f, step.clientPacket, step.send)
		if reflect.TypeOf(decoded) != reflect.TypeOf(step.send) {
			t.Fatalf("%s decoded as %T, want %T", step.name, decoded, step.send)
		}
	}

	if f.Ctx.ProtocolVersion != 47 {
		t.Errorf("protocol version after handshake = %d, want 47", f.Ctx.ProtocolVersion)
	}
}

func TestFollowerTracksStatus(t *testing.T) {
	f := NewFollower()

	steps := []struct {
		name         string
		clientPacket bool
		send         Packet
	}{
		{"handshake", true, &Handshake{
			ProtocolVersion: 340,
			ServerAddress:   "localhost",
			ServerPort:      25565,
			NextState:       HandshakeStatus,
		}},
		{"status request", true, &StatusRequest{}},
		{"status response", false, &StatusResponse{JSON: "{}"}},
		{"ping", true, &StatusPing{Time: 7}},
		{"pong", false, &StatusPong{Time: 7}},
	}

	for _, step := range steps {
		decoded := observe(t, f, step.clientPacket, step.send)
		if reflect.TypeOf(decoded) != reflect.TypeOf(step.send) {
			t.Fatalf("%s decoded as %T, want %T", step.name, decoded, step.send)
		}
	}
}
