package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/mimicraft/mimic/internal/packets"
	"github.com/mimicraft/mimic/internal/protocol"
)

// Status queries the server's status document over a connection of its own
// and measures the ping round trip. It does not interact with Connect's
// networking goroutine and may be called without ever logging in.
func (c *Connection) Status() (*packets.Status, time.Duration, error) {
	conn, err := net.Dial("tcp", c.address)
	if err != nil {
		return nil, 0, fmt.Errorf("error connecting to %s: %s", c.address, err.Error())
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	send := func(pkt packets.Packet) error {
		payload, err := packets.Encode(c.ctx, pkt)
		if err != nil {
			return err
		}
		if err := protocol.WriteFrame(conn, payload, -1); err != nil {
			return fmt.Errorf("sending %s: %w", pkt.Name(), err)
		}
		return nil
	}
	registry := packets.ClientboundStatus(c.ctx)
	recv := func() (packets.Packet, error) {
		frame, err := protocol.ReadFrame(reader, false)
		if err != nil {
			return nil, err
		}
		return packets.Decode(c.ctx, registry, frame)
	}

	if err := send(&packets.Handshake{
		ProtocolVersion: c.ctx.ProtocolVersion,
		ServerAddress:   c.host,
		ServerPort:      c.port,
		NextState:       packets.HandshakeStatus,
	}); err != nil {
		return nil, 0, err
	}
	if err := send(&packets.StatusRequest{}); err != nil {
		return nil, 0, err
	}

	pkt, err := recv()
	if err != nil {
		return nil, 0, err
	}
	response, ok := pkt.(*packets.StatusResponse)
	if !ok {
		return nil, 0, fmt.Errorf("expected a status response, got %s", pkt.Name())
	}
	var status packets.Status
	if err := json.Unmarshal([]byte(response.JSON), &status); err != nil {
		return nil, 0, fmt.Errorf("unmarshaling status document: %w", err)
	}

	start := time.Now()
	if err := send(&packets.StatusPing{Time: start.UnixNano()}); err != nil {
		return nil, 0, err
	}
	pkt, err = recv()
	if err != nil {
		return nil, 0, err
	}
	pong, ok := pkt.(*packets.StatusPong)
	if !ok {
		return nil, 0, fmt.Errorf("expected a pong, got %s", pkt.Name())
	}
	latency := time.Since(start)
	if pong.Time != start.UnixNano() {
		return nil, 0, fmt.Errorf("pong echoed %d, want %d", pong.Time, start.UnixNano())
	}

	return &status, latency, nil
}
