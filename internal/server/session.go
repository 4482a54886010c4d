package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/mimicraft/mimic/internal/core/data"
	"github.com/mimicraft/mimic/internal/core/debug"
	"github.com/mimicraft/mimic/internal/packets"
	"github.com/mimicraft/mimic/internal/protocol"
)

// Session drives one accepted connection through the protocol phases until
// the socket closes. Protocol violations are not handled locally; they
// propagate out of run and take the server down with them.
type Session struct {
	server *Server
	conn   net.Conn
	reader *bufio.Reader
	logger *logrus.Logger

	id       string
	ctx      protocol.Context
	registry packets.Registry
	script   Script

	// compression holds the threshold in effect for both directions, or -1
	// while the envelope is off.
	compression int

	username string
	uuid     string
	record   *data.Session
}

func newSession(server *Server, connection net.Conn) *Session {
	return &Session{
		server:      server,
		conn:        connection,
		reader:      bufio.NewReader(connection),
		logger:      server.Logger,
		id:          connection.RemoteAddr().String(),
		ctx:         server.ctx,
		script:      server.config.NewScript(),
		compression: -1,
	}
}

// Username returns the name the client logged in with, or "" before login.
func (s *Session) Username() string { return s.username }

// UUID returns the identity derived at login, or "" before login.
func (s *Session) UUID() string { return s.uuid }

// Context returns the protocol context the session speaks.
func (s *Session) Context() protocol.Context { return s.ctx }

// RemoteAddr returns the client's address.
func (s *Session) RemoteAddr() string { return s.id }

// Logger returns the server's logger for use by Script hooks.
func (s *Session) Logger() *logrus.Logger { return s.logger }

func (s *Session) run() error {
	lead, err := s.reader.Peek(1)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return protocol.ErrDisconnected
		}
		return fmt.Errorf("reading first byte: %w", err)
	}
	if lead[0] == protocol.LegacyPingLead {
		return s.runLegacyPing()
	}
	return s.runHandshake()
}

// runHandshake reads the one packet every modern connection opens with and
// dispatches on its next-state field.
func (s *Session) runHandshake() error {
	s.registry = s.server.handshakeRegistry

	pkt, err := s.readPacket()
	if err != nil {
		return err
	}
	handshake, ok := pkt.(*packets.Handshake)
	if !ok {
		return fmt.Errorf("expected a handshake, got %s", pkt.Name())
	}

	switch handshake.NextState {
	case packets.HandshakeStatus:
		return s.runStatus()
	case packets.HandshakeLogin:
		return s.runLogin(handshake)
	default:
		return fmt.Errorf("unknown next state %d in handshake", handshake.NextState)
	}
}

// runStatus serves one status request. The trailing ping is optional; most
// clients just hang up once they have the document.
func (s *Session) runStatus() error {
	s.registry = s.server.statusRegistry

	pkt, err := s.readPacket()
	if err != nil {
		return err
	}
	if _, ok := pkt.(*packets.StatusRequest); !ok {
		return fmt.Errorf("expected a status request, got %s", pkt.Name())
	}
	if err := s.sendStatusResponse(); err != nil {
		return err
	}

	pkt, err = s.readPacket()
	if errors.Is(err, protocol.ErrDisconnected) {
		return nil
	}
	if err != nil {
		return err
	}
	ping, ok := pkt.(*packets.StatusPing)
	if !ok {
		return fmt.Errorf("expected a ping, got %s", pkt.Name())
	}
	return s.writePacket(&packets.StatusPong{Time: ping.Time})
}

func (s *Session) sendStatusResponse() error {
	doc, err := json.Marshal(packets.Status{
		Version: packets.StatusVersion{
			Name:     s.server.version.Name,
			Protocol: s.server.version.Protocol,
		},
		Players: packets.StatusPlayers{
			Max:    1,
			Online: 0,
			Sample: []packets.StatusPlayerEntry{},
		},
		Description: packets.StatusDescription{Text: s.server.config.Motd},
	})
	if err != nil {
		return fmt.Errorf("marshaling status document: %w", err)
	}
	return s.writePacket(&packets.StatusResponse{JSON: string(doc)})
}

// runLogin walks the client through login and into play, provided its
// declared protocol version matches the server's.
func (s *Session) runLogin(handshake *packets.Handshake) error {
	if handshake.ProtocolVersion < s.ctx.ProtocolVersion {
		return s.sendLoginDisconnect(fmt.Sprintf("Outdated client! Please use %s", s.server.version.Name))
	}
	if handshake.ProtocolVersion > s.ctx.ProtocolVersion {
		return s.sendLoginDisconnect(fmt.Sprintf("Outdated server! I'm still on %s", s.server.version.Name))
	}

	s.registry = s.server.loginRegistry

	pkt, err := s.readPacket()
	if err != nil {
		return err
	}
	start, ok := pkt.(*packets.LoginStart)
	if !ok {
		return fmt.Errorf("expected a login start, got %s", pkt.Name())
	}

	if threshold := s.server.config.CompressionThreshold; threshold != nil {
		if err := s.writePacket(&packets.SetCompression{Threshold: int32(*threshold)}); err != nil {
			return err
		}
		s.compression = *threshold
	}

	profile := s.server.identities.Lookup(start.Username)
	s.username = profile.Username
	s.uuid = profile.UUID

	if err := s.writePacket(&packets.LoginSuccess{UUID: s.uuid, Username: s.username}); err != nil {
		return err
	}
	s.logger.Infof("[server] %s logged in as %s from %s", s.username, s.uuid, s.id)
	s.recordLogin()

	return s.runPlay()
}

func (s *Session) sendLoginDisconnect(message string) error {
	return s.writePacket(&packets.LoginDisconnect{Reason: packets.TextJSON(message)})
}

// runPlay hands control to the session's Script. A clean client disconnect
// and a Kick from a hook both end the session normally; anything else is a
// real error. A Kick raised after the client already left is swallowed since
// there is nobody left to deliver it to.
func (s *Session) runPlay() error {
	s.registry = s.server.playRegistry

	clientGone := false
	err := s.playLoop(&clientGone)

	var kick *Kick
	switch {
	case err == nil:
		s.closeRecord(data.OutcomeClientQuit)
		return nil
	case errors.As(err, &kick):
		s.closeRecord(data.OutcomeKicked)
		if clientGone {
			return nil
		}
		return s.script.OnServerDisconnect(s, kick.reason())
	default:
		s.closeRecord(data.OutcomeError)
		return err
	}
}

func (s *Session) playLoop(clientGone *bool) error {
	if err := s.script.OnPlayStart(s); err != nil {
		return err
	}
	for {
		pkt, err := s.readPacket()
		if errors.Is(err, protocol.ErrDisconnected) {
			*clientGone = true
			return s.script.OnClientDisconnect(s)
		}
		if err != nil {
			return err
		}
		if err := s.script.OnPlayPacket(s, pkt); err != nil {
			return err
		}
	}
}

// runLegacyPing answers a pre-Netty server list ping with the 0xFF kick
// reply and closes.
func (s *Session) runLegacyPing() error {
	// Whatever the client sent along with the 0xFE lead is not coming back
	// in any modern framing; drop it.
	if _, err := s.reader.Discard(s.reader.Buffered()); err != nil {
		return fmt.Errorf("draining legacy ping: %w", err)
	}

	s.logger.Infof("[server] answering legacy ping from %s", s.id)
	reply, err := protocol.EncodeLegacyKick(protocol.LegacyStatus{
		ProtocolVersion: s.ctx.ProtocolVersion,
		VersionName:     s.server.version.Name,
		Motd:            s.server.config.Motd,
		OnlinePlayers:   0,
		MaxPlayers:      1,
	})
	if err != nil {
		return err
	}
	if _, err := s.conn.Write(reply); err != nil {
		return fmt.Errorf("writing legacy kick: %w", err)
	}
	return nil
}

// SendPacket frames and sends one packet to the client, compressing it when
// the session has passed SetCompression.
func (s *Session) SendPacket(pkt packets.Packet) error {
	return s.writePacket(pkt)
}

func (s *Session) writePacket(pkt packets.Packet) error {
	payload, err := packets.Encode(s.ctx, pkt)
	if err != nil {
		return err
	}
	if err := protocol.WriteFrame(s.conn, payload, s.compression); err != nil {
		return fmt.Errorf("sending %s: %w", pkt.Name(), err)
	}
	s.logger.Debugf("[S-> ] %s", pkt.Name())
	if s.server.config.Debug {
		debug.TracePacket(s.logger, s.id, "server", "client", pkt, payload)
	}
	return nil
}

func (s *Session) readPacket() (packets.Packet, error) {
	frame, err := protocol.ReadFrame(s.reader, s.compression >= 0)
	if err != nil {
		return nil, err
	}
	payload := frame.Bytes()
	pkt, err := packets.Decode(s.ctx, s.registry, frame)
	if err != nil {
		return nil, err
	}
	s.logger.Debugf("[ ->S] %s", pkt.Name())
	if s.server.config.Debug {
		debug.TracePacket(s.logger, s.id, "client", "server", pkt, payload)
	}
	return pkt, nil
}

func (s *Session) recordLogin() {
	if s.server.config.Database == nil {
		return
	}
	s.record = &data.Session{
		Username:   s.username,
		UUID:       s.uuid,
		Protocol:   s.ctx.ProtocolVersion,
		RemoteAddr: s.id,
		Compressed: s.compression >= 0,
	}
	if err := data.RecordLogin(s.server.config.Database, s.record); err != nil {
		s.logger.Warnf("failed to record login for %s: %s", s.username, err)
	}
}

func (s *Session) closeRecord(outcome string) {
	if s.record == nil {
		return
	}
	if err := data.CloseSession(s.server.config.Database, s.record, outcome); err != nil {
		s.logger.Warnf("failed to record session outcome for %s: %s", s.username, err)
	}
}
