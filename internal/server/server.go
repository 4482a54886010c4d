// Package server implements enough of the Minecraft server protocol to walk
// a real client through status, login, and into the play phase. It exists to
// test clients, not to host them: connections are handled one at a time and
// the first protocol violation stops the whole server.
package server

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mimicraft/mimic/internal/identity"
	"github.com/mimicraft/mimic/internal/packets"
	"github.com/mimicraft/mimic/internal/protocol"
)

// acceptTimeout bounds each accept attempt so that Stop is observed promptly
// while the server is idle.
const acceptTimeout = 100 * time.Millisecond

// Config declares everything a Server needs to run.
type Config struct {
	// Hostname to bind, defaulting to localhost.
	Hostname string
	// Port to listen on. 0 picks an ephemeral port; read it back via Addr.
	Port int
	// MinecraftVersion is the release label to speak, e.g. "1.12.2". Empty
	// selects the newest supported release.
	MinecraftVersion string
	// CompressionThreshold enables the compression envelope after login when
	// non-nil. Payloads at or above the threshold are deflated.
	CompressionThreshold *int
	// Motd is the description served in the status document.
	Motd string
	// NewScript builds the Script driving each session's play phase. Nil
	// selects DefaultScript.
	NewScript func() Script
	// Database receives a session ledger entry per login when non-nil.
	Database *gorm.DB
	// Debug turns on per-packet tracing.
	Debug bool
}

// Server owns the listening socket and serializes connection handling: one
// session runs to completion before the next client is accepted.
type Server struct {
	Logger *logrus.Logger

	config     Config
	version    protocol.Version
	ctx        protocol.Context
	identities *identity.Cache

	handshakeRegistry packets.Registry
	statusRegistry    packets.Registry
	loginRegistry     packets.Registry
	playRegistry      packets.Registry

	listener *net.TCPListener

	mu       sync.Mutex
	stopping bool
}

// NewServer resolves the configured version, builds the per-phase packet
// registries, and binds the listening socket, so Addr is usable before Run
// is called.
func NewServer(config Config, logger *logrus.Logger) (*Server, error) {
	version := protocol.Latest()
	if config.MinecraftVersion != "" {
		var err error
		version, err = protocol.VersionByName(config.MinecraftVersion)
		if err != nil {
			return nil, err
		}
	}
	if config.Hostname == "" {
		config.Hostname = "localhost"
	}
	if config.Motd == "" {
		config.Motd = "FakeServer"
	}
	if config.NewScript == nil {
		config.NewScript = func() Script { return DefaultScript{} }
	}

	ctx := protocol.Context{ProtocolVersion: version.Protocol}
	s := &Server{
		Logger:            logger,
		config:            config,
		version:           version,
		ctx:               ctx,
		identities:        identity.NewCache(),
		handshakeRegistry: packets.ServerboundHandshake(ctx),
		statusRegistry:    packets.ServerboundStatus(ctx),
		loginRegistry:     packets.ServerboundLogin(ctx),
		playRegistry:      packets.ServerboundPlay(ctx),
	}

	hostAddr, err := net.ResolveTCPAddr("tcp", net.JoinHostPort(config.Hostname, strconv.Itoa(config.Port)))
	if err != nil {
		return nil, fmt.Errorf("error resolving address %s", err.Error())
	}
	s.listener, err = net.ListenTCP("tcp", hostAddr)
	if err != nil {
		return nil, fmt.Errorf("error listening on socket: %s", err.Error())
	}
	return s, nil
}

// Addr returns the bound listen address, which is how callers learn the
// actual port when the configured one was 0.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Version returns the release the server speaks.
func (s *Server) Version() protocol.Version { return s.version }

// Run accepts and serves connections until Stop is called or a session
// fails. Sessions run serially; the listener is closed on every exit path.
func (s *Server) Run() error {
	defer s.listener.Close()

	s.Logger.Infof("[server] %s waiting for connections on %v", s.version.Name, s.listener.Addr())

	for {
		if err := s.listener.SetDeadline(time.Now().Add(acceptTimeout)); err != nil {
			return fmt.Errorf("error arming accept deadline: %w", err)
		}

		connection, err := s.listener.AcceptTCP()
		if err == nil {
			if err := s.serve(connection); err != nil {
				return err
			}
		} else {
			var netErr net.Error
			if !errors.As(err, &netErr) || !netErr.Timeout() {
				return fmt.Errorf("error accepting connection: %w", err)
			}
		}

		if s.stopRequested() {
			s.Logger.Debugf("[ ** ] server stopped normally")
			return nil
		}
	}
}

func (s *Server) serve(connection *net.TCPConn) error {
	defer func() {
		if err := connection.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.Logger.Warnf("failed to close client connection: %s", err)
		}
	}()

	s.Logger.Debugf("[ ++ ] client %s connected", connection.RemoteAddr())
	if err := newSession(s, connection).run(); err != nil {
		return fmt.Errorf("session with %s: %w", connection.RemoteAddr(), err)
	}
	s.Logger.Debugf("[ -- ] client %s disconnected", connection.RemoteAddr())
	return nil
}

// Stop requests shutdown. An in-progress session is not interrupted; the
// accept loop observes the flag at its next timeout boundary.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopping = true
}

func (s *Server) stopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}
