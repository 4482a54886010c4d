package server

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/unicode"

	"github.com/mimicraft/mimic/internal/core/data"
	"github.com/mimicraft/mimic/internal/identity"
	"github.com/mimicraft/mimic/internal/packets"
	"github.com/mimicraft/mimic/internal/protocol"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// startTestServer runs a server on an OS-chosen port and returns the channel
// Run's result will land on.
func startTestServer(t *testing.T, config Config) (*Server, chan error) {
	t.Helper()

	srv, err := NewServer(config, testLogger())
	if err != nil {
		t.Fatal("failed to start server:", err)
	}

	done := make(chan error, 1)
	go func() { done <- srv.Run() }()
	return srv, done
}

func waitForServer(t *testing.T, done chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the server to exit")
		return nil
	}
}

// wire is the client side of a test conversation, speaking the protocol
// directly so the server is exercised against known bytes.
type wire struct {
	t         *testing.T
	conn      net.Conn
	reader    *bufio.Reader
	ctx       protocol.Context
	threshold int
}

func dialServer(t *testing.T, srv *Server) *wire {
	t.Helper()

	addr := srv.Addr()
	conn, err := net.Dial(addr.Network(), addr.String())
	if err != nil {
		t.Fatal("failed to connect to", addr.String())
	}
	if err := conn.SetDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatal("failed to set connection deadline:", err)
	}

	return &wire{
		t:         t,
		conn:      conn,
		reader:    bufio.NewReader(conn),
		ctx:       srv.ctx,
		threshold: -1,
	}
}

func (w *wire) send(pkt packets.Packet) {
	w.t.Helper()
	payload, err := packets.Encode(w.ctx, pkt)
	if err != nil {
		w.t.Fatalf("failed to encode %s: %s", pkt.Name(), err)
	}
	if err := protocol.WriteFrame(w.conn, payload, w.threshold); err != nil {
		w.t.Fatalf("failed to send %s: %s", pkt.Name(), err)
	}
}

func (w *wire) recv(registry packets.Registry) packets.Packet {
	w.t.Helper()
	frame, err := protocol.ReadFrame(w.reader, w.threshold >= 0)
	if err != nil {
		w.t.Fatal("failed to read frame:", err)
	}
	pkt, err := packets.Decode(w.ctx, registry, frame)
	if err != nil {
		w.t.Fatal("failed to decode packet:", err)
	}
	return pkt
}

func (w *wire) close() {
	if err := w.conn.Close(); err != nil {
		w.t.Error("failed to close connection:", err)
	}
}

// completeLogin performs the handshake and login exchange, enabling
// compression if the server asks for it.
func (w *wire) completeLogin(username string) *packets.LoginSuccess {
	w.t.Helper()

	w.send(&packets.Handshake{
		ProtocolVersion: w.ctx.ProtocolVersion,
		ServerAddress:   "localhost",
		ServerPort:      25565,
		NextState:       packets.HandshakeLogin,
	})
	w.send(&packets.LoginStart{Username: username})

	registry := packets.ClientboundLogin(w.ctx)
	pkt := w.recv(registry)
	if compression, ok := pkt.(*packets.SetCompression); ok {
		w.threshold = int(compression.Threshold)
		pkt = w.recv(registry)
	}

	success, ok := pkt.(*packets.LoginSuccess)
	if !ok {
		w.t.Fatalf("expected LoginSuccess, got %s", pkt.Name())
	}
	return success
}

func (w *wire) joinGame(username string) *packets.JoinGame {
	w.t.Helper()
	w.completeLogin(username)
	pkt := w.recv(packets.ClientboundPlay(w.ctx))
	join, ok := pkt.(*packets.JoinGame)
	if !ok {
		w.t.Fatalf("expected JoinGame, got %s", pkt.Name())
	}
	return join
}

func TestStatus(t *testing.T) {
	srv, done := startTestServer(t, Config{})

	tests := []struct {
		name string
		ping bool
	}{
		{"with ping", true},
		{"without ping", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := dialServer(t, srv)
			defer w.close()

			w.send(&packets.Handshake{
				ProtocolVersion: w.ctx.ProtocolVersion,
				ServerAddress:   "localhost",
				ServerPort:      25565,
				NextState:       packets.HandshakeStatus,
			})
			w.send(&packets.StatusRequest{})

			registry := packets.ClientboundStatus(w.ctx)
			response, ok := w.recv(registry).(*packets.StatusResponse)
			if !ok {
				t.Fatal("expected a StatusResponse")
			}

			var status packets.Status
			if err := json.Unmarshal([]byte(response.JSON), &status); err != nil {
				t.Fatal("failed to unmarshal status document:", err)
			}
			want := packets.Status{
				Version:     packets.StatusVersion{Name: srv.Version().Name, Protocol: srv.Version().Protocol},
				Players:     packets.StatusPlayers{Max: 1, Online: 0, Sample: []packets.StatusPlayerEntry{}},
				Description: packets.StatusDescription{Text: "FakeServer"},
			}
			if diff := cmp.Diff(want, status); diff != "" {
				t.Errorf("unexpected status document (-want +got):\n%s", diff)
			}

			if tt.ping {
				w.send(&packets.StatusPing{Time: 1757519})
				pong, ok := w.recv(registry).(*packets.StatusPong)
				if !ok {
					t.Fatal("expected a StatusPong")
				}
				if pong.Time != 1757519 {
					t.Errorf("pong echoed %d, want 1757519", pong.Time)
				}
			}
		})
	}

	srv.Stop()
	if err := waitForServer(t, done); err != nil {
		t.Error("server exited with error:", err)
	}
}

func TestLoginJoinsGame(t *testing.T) {
	srv, done := startTestServer(t, Config{MinecraftVersion: "1.12.2"})

	w := dialServer(t, srv)
	success := w.completeLogin("TestUser")
	if success.Username != "TestUser" {
		t.Errorf("logged in as %q, want TestUser", success.Username)
	}
	if want := identity.OfflineUUID("TestUser"); success.UUID != want {
		t.Errorf("logged in with UUID %s, want %s", success.UUID, want)
	}

	pkt := w.recv(packets.ClientboundPlay(w.ctx))
	join, ok := pkt.(*packets.JoinGame)
	if !ok {
		t.Fatalf("expected JoinGame after login, got %s", pkt.Name())
	}
	if join.MaxPlayers != 1 || join.LevelType != "default" || join.Difficulty != 2 {
		t.Errorf("unexpected world configuration: %+v", join)
	}
	w.close()

	srv.Stop()
	if err := waitForServer(t, done); err != nil {
		t.Error("server exited with error:", err)
	}
}

func TestVersionMismatch(t *testing.T) {
	tests := []struct {
		name           string
		serverVersion  string
		clientProtocol int32
		wantMessage    string
	}{
		{
			name:           "outdated client",
			serverVersion:  "1.12.2",
			clientProtocol: 47,
			wantMessage:    "Outdated client! Please use 1.12.2",
		},
		{
			name:           "outdated server",
			serverVersion:  "1.8",
			clientProtocol: 340,
			wantMessage:    "Outdated server! I'm still on 1.8",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, done := startTestServer(t, Config{MinecraftVersion: tt.serverVersion})

			w := dialServer(t, srv)
			defer w.close()
			w.send(&packets.Handshake{
				ProtocolVersion: tt.clientProtocol,
				ServerAddress:   "localhost",
				ServerPort:      25565,
				NextState:       packets.HandshakeLogin,
			})

			pkt := w.recv(packets.ClientboundLogin(w.ctx))
			disconnect, ok := pkt.(*packets.LoginDisconnect)
			if !ok {
				t.Fatalf("expected LoginDisconnect, got %s", pkt.Name())
			}
			if got := packets.PlainText(disconnect.Reason); got != tt.wantMessage {
				t.Errorf("disconnected with %q, want %q", got, tt.wantMessage)
			}

			srv.Stop()
			if err := waitForServer(t, done); err != nil {
				t.Error("server exited with error:", err)
			}
		})
	}
}

func TestChatEcho(t *testing.T) {
	tests := []struct {
		version string
	}{
		{"1.8"},
		{"1.12.2"},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			srv, done := startTestServer(t, Config{MinecraftVersion: tt.version})

			w := dialServer(t, srv)
			w.joinGame("TestUser")

			w.send(&packets.Chat{Message: "hello there"})
			pkt := w.recv(packets.ClientboundPlay(w.ctx))
			chat, ok := pkt.(*packets.ChatMessage)
			if !ok {
				t.Fatalf("expected ChatMessage, got %s", pkt.Name())
			}

			var doc packets.TranslateComponent
			if err := json.Unmarshal([]byte(chat.JSON), &doc); err != nil {
				t.Fatal("failed to unmarshal chat document:", err)
			}
			want := packets.TranslateComponent{
				Translate: "chat.type.text",
				With:      []string{"TestUser", "hello there"},
			}
			if diff := cmp.Diff(want, doc); diff != "" {
				t.Errorf("unexpected chat document (-want +got):\n%s", diff)
			}
			w.close()

			srv.Stop()
			if err := waitForServer(t, done); err != nil {
				t.Error("server exited with error:", err)
			}
		})
	}
}

func TestChatLengthLimit(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{"at the limit", 256, false},
		{"over the limit", 257, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, done := startTestServer(t, Config{MinecraftVersion: "1.12.2"})

			w := dialServer(t, srv)
			w.joinGame("TestUser")
			w.send(&packets.Chat{Message: strings.Repeat("a", tt.length)})

			if tt.wantErr {
				err := waitForServer(t, done)
				if err == nil {
					t.Fatal("expected the oversized chat to stop the server")
				}
				if !strings.Contains(err.Error(), "exceeds") {
					t.Errorf("unexpected error: %s", err)
				}
				w.close()
				return
			}

			pkt := w.recv(packets.ClientboundPlay(w.ctx))
			if _, ok := pkt.(*packets.ChatMessage); !ok {
				t.Fatalf("expected ChatMessage, got %s", pkt.Name())
			}
			w.close()
			srv.Stop()
			if err := waitForServer(t, done); err != nil {
				t.Error("server exited with error:", err)
			}
		})
	}
}

func TestCompression(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
	}{
		{"compress everything", 0},
		{"compress large frames", 256},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			threshold := tt.threshold
			srv, done := startTestServer(t, Config{CompressionThreshold: &threshold})

			w := dialServer(t, srv)
			w.joinGame("TestUser")
			if w.threshold != tt.threshold {
				t.Errorf("server announced threshold %d, want %d", w.threshold, tt.threshold)
			}

			message := strings.Repeat("compressed hello ", 20)
			w.send(&packets.Chat{Message: message})
			pkt := w.recv(packets.ClientboundPlay(w.ctx))
			chat, ok := pkt.(*packets.ChatMessage)
			if !ok {
				t.Fatalf("expected ChatMessage, got %s", pkt.Name())
			}
			if !strings.Contains(chat.JSON, message) {
				t.Errorf("echo did not contain the original message: %s", chat.JSON)
			}
			w.close()

			srv.Stop()
			if err := waitForServer(t, done); err != nil {
				t.Error("server exited with error:", err)
			}
		})
	}
}

func TestRejectsNonHandshakeFirstPacket(t *testing.T) {
	srv, done := startTestServer(t, Config{})

	w := dialServer(t, srv)
	defer w.close()
	w.send(&packets.Chat{Message: "no handshake"})

	err := waitForServer(t, done)
	if err == nil {
		t.Fatal("expected the server to stop on a protocol violation")
	}
	if !strings.Contains(err.Error(), "expected a handshake") {
		t.Errorf("unexpected error: %s", err)
	}
}

func TestRejectsUnknownNextState(t *testing.T) {
	srv, done := startTestServer(t, Config{})

	w := dialServer(t, srv)
	defer w.close()
	w.send(&packets.Handshake{
		ProtocolVersion: w.ctx.ProtocolVersion,
		ServerAddress:   "localhost",
		ServerPort:      25565,
		NextState:       6,
	})

	err := waitForServer(t, done)
	if err == nil {
		t.Fatal("expected the server to stop on an unknown state")
	}
	if !strings.Contains(err.Error(), "unknown next state") {
		t.Errorf("unexpected error: %s", err)
	}
}

func TestLegacyPing(t *testing.T) {
	srv, done := startTestServer(t, Config{MinecraftVersion: "1.12.2"})

	w := dialServer(t, srv)
	if _, err := w.conn.Write([]byte{0xFE, 0x01}); err != nil {
		t.Fatal("failed to send legacy ping:", err)
	}

	reply, err := io.ReadAll(w.conn)
	if err != nil {
		t.Fatal("failed to read legacy reply:", err)
	}
	if len(reply) < 3 || reply[0] != 0xFF {
		t.Fatalf("malformed legacy reply: % x", reply)
	}
	if chars := binary.BigEndian.Uint16(reply[1:3]); int(chars) != len(reply[3:])/2 {
		t.Errorf("declared %d characters, body has %d", chars, len(reply[3:])/2)
	}

	decoded, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(reply[3:])
	if err != nil {
		t.Fatal("failed to decode legacy reply:", err)
	}
	fields := strings.Split(string(decoded), "\x00")
	want := []string{"§1", "340", "1.12.2", "FakeServer", "0", "1"}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("unexpected legacy status fields (-want +got):\n%s", diff)
	}
	w.close()

	srv.Stop()
	if err := waitForServer(t, done); err != nil {
		t.Error("server exited with error:", err)
	}
}

func TestStopWhileIdle(t *testing.T) {
	srv, done := startTestServer(t, Config{})

	start := time.Now()
	srv.Stop()
	if err := waitForServer(t, done); err != nil {
		t.Error("server exited with error:", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("server took %s to observe the stop", elapsed)
	}
}

type kickOnJoin struct {
	DefaultScript
	message string
}

func (k kickOnJoin) OnPlayStart(s *Session) error {
	if err := k.DefaultScript.OnPlayStart(s); err != nil {
		return err
	}
	return &Kick{Message: k.message}
}

func TestKick(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"custom message", "Server closed.", "Server closed."},
		{"default message", "", "Disconnected."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, done := startTestServer(t, Config{
				NewScript: func() Script { return kickOnJoin{message: tt.message} },
			})

			w := dialServer(t, srv)
			w.joinGame("TestUser")

			pkt := w.recv(packets.ClientboundPlay(w.ctx))
			disconnect, ok := pkt.(*packets.PlayDisconnect)
			if !ok {
				t.Fatalf("expected PlayDisconnect, got %s", pkt.Name())
			}
			if got := packets.PlainText(disconnect.Reason); got != tt.want {
				t.Errorf("kicked with %q, want %q", got, tt.want)
			}
			w.close()

			srv.Stop()
			if err := waitForServer(t, done); err != nil {
				t.Error("server exited with error:", err)
			}
		})
	}
}

func TestRecordsSessions(t *testing.T) {
	db, err := data.Initialize(data.EngineSQLite, filepath.Join(t.TempDir(), "mimic.db"), false)
	if err != nil {
		t.Fatalf("error initializing database: %s", err)
	}
	defer func() {
		if err := data.Shutdown(db); err != nil {
			t.Error("failed to shut down database:", err)
		}
	}()

	t.Run("client quit", func(t *testing.T) {
		srv, done := startTestServer(t, Config{Database: db})

		w := dialServer(t, srv)
		w.joinGame("QuitUser")
		w.close()

		srv.Stop()
		if err := waitForServer(t, done); err != nil {
			t.Error("server exited with error:", err)
		}

		sessions, err := data.FindSessionsByUsername(db, "QuitUser")
		if err != nil {
			t.Fatal("failed to load sessions:", err)
		}
		if len(sessions) != 1 {
			t.Fatalf("recorded %d sessions, want 1", len(sessions))
		}
		session := sessions[0]
		if session.UUID != identity.OfflineUUID("QuitUser") {
			t.Errorf("recorded UUID %s, want %s", session.UUID, identity.OfflineUUID("QuitUser"))
		}
		if session.Outcome != data.OutcomeClientQuit {
			t.Errorf("recorded outcome %s, want %s", session.Outcome, data.OutcomeClientQuit)
		}
		if session.Compressed {
			t.Error("session recorded as compressed without a threshold configured")
		}
	})

	t.Run("kicked", func(t *testing.T) {
		srv, done := startTestServer(t, Config{
			Database:  db,
			NewScript: func() Script { return kickOnJoin{} },
		})

		w := dialServer(t, srv)
		w.joinGame("KickedUser")
		w.recv(packets.ClientboundPlay(w.ctx))
		w.close()

		srv.Stop()
		if err := waitForServer(t, done); err != nil {
			t.Error("server exited with error:", err)
		}

		sessions, err := data.FindSessionsByUsername(db, "KickedUser")
		if err != nil {
			t.Fatal("failed to load sessions:", err)
		}
		if len(sessions) != 1 {
			t.Fatalf("recorded %d sessions, want 1", len(sessions))
		}
		if sessions[0].Outcome != data.OutcomeKicked {
			t.Errorf("recorded outcome %s, want %s", sessions[0].Outcome, data.OutcomeKicked)
		}
	})
}
