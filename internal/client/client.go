// Package client is a minimal Minecraft client: enough of the protocol to
// log in to a server, stay connected, and let callers observe and send
// packets. It is the counterpart the server in this module is tested
// against.
package client

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mimicraft/mimic/internal/packets"
	"github.com/mimicraft/mimic/internal/protocol"
)

// Options configures a Connection.
type Options struct {
	// Address of the server as host:port.
	Address string
	// Username to log in with.
	Username string
	// MinecraftVersion is the release label to speak, e.g. "1.12.2". Empty
	// selects the newest supported release.
	MinecraftVersion string
	// HandleException receives the networking goroutine's terminal error, at
	// most once. Listeners end a connection on purpose by returning a
	// distinguished error here.
	HandleException func(error)
	// Logger for connection events.
	Logger *logrus.Logger
}

// Connection is one client connection. Registering listeners and calling
// Connect starts a networking goroutine that owns all reads; writes may come
// from any goroutine.
type Connection struct {
	address  string
	host     string
	port     uint16
	username string

	version protocol.Version
	ctx     protocol.Context

	handleException func(error)
	logger          *logrus.Logger

	conn   net.Conn
	reader *bufio.Reader

	// registry is the clientbound registry for the current phase. Only the
	// networking goroutine touches it.
	registry packets.Registry

	// mu guards writes to the socket and the compression threshold, which a
	// SetCompression read flips mid-connection.
	mu        sync.Mutex
	threshold int
	started   bool

	listenersMu sync.Mutex
	listeners   []listener

	failOnce sync.Once
	done     chan struct{}
}

// New builds a Connection from opts without touching the network.
func New(opts Options) (*Connection, error) {
	version := protocol.Latest()
	if opts.MinecraftVersion != "" {
		var err error
		version, err = protocol.VersionByName(opts.MinecraftVersion)
		if err != nil {
			return nil, err
		}
	}

	host, portStr, err := net.SplitHostPort(opts.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", opts.Address, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid server port %q: %w", portStr, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}

	return &Connection{
		address:         opts.Address,
		host:            host,
		port:            uint16(port),
		username:        opts.Username,
		version:         version,
		ctx:             protocol.Context{ProtocolVersion: version.Protocol},
		handleException: opts.HandleException,
		logger:          logger,
		threshold:       -1,
		done:            make(chan struct{}),
	}, nil
}

// Username returns the name the connection logs in with.
func (c *Connection) Username() string { return c.username }

// Context returns the protocol context the connection speaks.
func (c *Connection) Context() protocol.Context { return c.ctx }

// Done is closed when the networking goroutine exits. Joining on it is how a
// test waits for the connection to wind down.
func (c *Connection) Done() <-chan struct{} { return c.done }

// Started reports whether Connect has spawned the networking goroutine, and
// with it whether Done will ever close.
func (c *Connection) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Connect dials the server, performs the handshake and login start exchange,
// and spawns the networking goroutine. Errors after this point are reported
// through HandleException.
func (c *Connection) Connect() error {
	conn, err := net.Dial("tcp", c.address)
	if err != nil {
		return fmt.Errorf("error connecting to %s: %s", c.address, err.Error())
	}
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	c.registry = packets.ClientboundLogin(c.ctx)

	c.logger.Infof("[client] connecting to %s as %s (%s)", c.address, c.username, c.version.Name)

	if err := c.SendPacket(&packets.Handshake{
		ProtocolVersion: c.ctx.ProtocolVersion,
		ServerAddress:   c.host,
		ServerPort:      c.port,
		NextState:       packets.HandshakeLogin,
	}); err != nil {
		c.close()
		return err
	}
	if err := c.SendPacket(&packets.LoginStart{Username: c.username}); err != nil {
		c.close()
		return err
	}

	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
	go c.readLoop()
	return nil
}

// Disconnect closes the connection from this side. The networking goroutine
// exits without reporting an exception.
func (c *Connection) Disconnect() {
	c.close()
}

func (c *Connection) close() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		c.logger.Warnf("[client] failed to close connection: %s", err)
	}
}

// SendPacket frames and sends one packet, running any outgoing listeners
// first. Safe for concurrent use.
func (c *Connection) SendPacket(pkt packets.Packet) error {
	if err := c.runListeners(pkt, outgoingListeners); err != nil {
		return err
	}

	payload, err := packets.Encode(c.ctx, pkt)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := protocol.WriteFrame(c.conn, payload, c.threshold); err != nil {
		return fmt.Errorf("sending %s: %w", pkt.Name(), err)
	}
	return nil
}

func (c *Connection) setThreshold(threshold int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threshold = threshold
}

func (c *Connection) compressed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.threshold >= 0
}

// readLoop is the networking goroutine: it reads packets, lets reactions and
// listeners observe them, and reports the terminal outcome. The socket is
// closed on the way out no matter how the loop ends.
func (c *Connection) readLoop() {
	defer close(c.done)
	defer c.close()

	for {
		pkt, err := c.readPacket()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				c.fail(err)
			}
			return
		}

		if err := c.dispatch(pkt); err != nil {
			c.fail(err)
			return
		}

		// A play phase Disconnect ends the connection without being an
		// exception; whether the session succeeded is for the listeners to
		// decide.
		if disconnect, ok := pkt.(*packets.PlayDisconnect); ok {
			c.logger.Infof("[client] disconnected by server: %s", packets.PlainText(disconnect.Reason))
			return
		}
	}
}

func (c *Connection) readPacket() (packets.Packet, error) {
	frame, err := protocol.ReadFrame(c.reader, c.compressed())
	if err != nil {
		return nil, err
	}
	return packets.Decode(c.ctx, c.registry, frame)
}

func (c *Connection) dispatch(pkt packets.Packet) error {
	if err := c.runListeners(pkt, earlyListeners); err != nil {
		return err
	}
	if err := c.react(pkt); err != nil {
		return err
	}
	return c.runListeners(pkt, normalListeners)
}

// react applies the connection's own handling of a packet before normal
// listeners see it.
func (c *Connection) react(pkt packets.Packet) error {
	switch p := pkt.(type) {
	case *packets.SetCompression:
		c.setThreshold(int(p.Threshold))
	case *packets.LoginSuccess:
		c.logger.Infof("[client] logged in as %s (%s)", p.Username, p.UUID)
		c.registry = packets.ClientboundPlay(c.ctx)
	case *packets.LoginDisconnect:
		return fmt.Errorf("login refused: %s", packets.PlainText(p.Reason))
	case *packets.KeepAliveClientbound:
		return c.SendPacket(&packets.KeepAliveServerbound{KeepAliveID: p.KeepAliveID})
	}
	return nil
}

// fail reports the networking goroutine's terminal error, once.
func (c *Connection) fail(err error) {
	c.failOnce.Do(func() {
		if c.handleException != nil {
			c.handleException(err)
		}
	})
}
