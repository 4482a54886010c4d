package main

import (
	"bufio"
	"fmt"

	"github.com/mimicraft/mimic/internal/core/debug"
	"github.com/mimicraft/mimic/internal/packets"
	"github.com/mimicraft/mimic/internal/protocol"
)

// sniffer reassembles both directions of one connection at a time, which is
// enough for a server that handles sessions serially. A SYN to the server
// port resets it for the next connection.
type sniffer struct {
	writer *bufio.Writer

	serverPort uint16
	follower   *packets.Follower
	compressed bool

	// Legacy pings are frameless, so once one is seen the rest of the
	// capture is printed raw.
	handshaken bool
	legacy     bool

	toServer protocol.FrameScanner
	toClient protocol.FrameScanner
}

func newSniffer(writer *bufio.Writer, serverPort uint16) *sniffer {
	s := &sniffer{writer: writer, serverPort: serverPort}
	s.reset()
	return s
}

// reset returns the sniffer to the handshake phase for a fresh connection.
func (s *sniffer) reset() {
	s.follower = packets.NewFollower()
	s.compressed = false
	s.handshaken = false
	s.legacy = false
	s.toServer = protocol.FrameScanner{}
	s.toClient = protocol.FrameScanner{}
}

func (s *sniffer) handleSegment(srcPort, dstPort uint16, data []byte) {
	var clientPacket bool
	switch s.serverPort {
	case dstPort:
		clientPacket = true
	case srcPort:
		clientPacket = false
	default:
		return
	}

	if s.legacy {
		s.print(clientPacket, "LegacyPayload", data)
		return
	}
	if clientPacket && !s.handshaken && s.toServer.Buffered() == 0 &&
		len(data) > 0 && data[0] == protocol.LegacyPingLead {
		s.legacy = true
		s.print(clientPacket, "LegacyServerListPing", data)
		return
	}

	scanner := &s.toClient
	if clientPacket {
		scanner = &s.toServer
	}
	scanner.Append(data)

	for {
		body, ok := scanner.Next()
		if !ok {
			return
		}
		s.emit(clientPacket, body)
	}
}

func (s *sniffer) emit(clientPacket bool, body []byte) {
	payload, err := protocol.UnwrapFrameBody(body, s.compressed)
	if err != nil {
		fmt.Fprintf(s.writer, "dropping undecodable frame: %s\n", err)
		s.writer.Flush()
		return
	}
	raw := payload.Bytes()

	pkt, err := s.follower.Observe(clientPacket, payload)
	if err != nil {
		fmt.Fprintf(s.writer, "dropping undecodable frame: %s\n", err)
		s.writer.Flush()
		return
	}

	switch p := pkt.(type) {
	case *packets.Handshake:
		s.handshaken = true
	case *packets.SetCompression:
		if !clientPacket && p.Threshold >= 0 {
			s.compressed = true
		}
	}

	name := pkt.Name()
	if unknown, ok := pkt.(*packets.Unknown); ok {
		name = fmt.Sprintf("Unknown(%#x)", unknown.PacketID)
	}
	s.print(clientPacket, name, raw)
}

func (s *sniffer) print(clientPacket bool, name string, payload []byte) {
	label := "[S-> ]"
	if clientPacket {
		label = "[ ->S]"
	}
	fmt.Fprintf(s.writer, "%s %s\n%s", label, name, debug.FormatPayload(payload))
	s.writer.Flush()
}
