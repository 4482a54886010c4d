// Package protocol implements the subset of the Minecraft Java Edition wire
// format needed to emulate a server: varint frames, primitive field codecs,
// the optional zlib compression envelope, and the protocol version table for
// releases 1.8 through 1.12.2.
package protocol

import "errors"

// ErrDisconnected indicates that the peer closed its connection at a packet
// boundary, i.e. the socket hit EOF before a full length prefix was read.
// Truncation at any other point is reported as a normal error.
var ErrDisconnected = errors.New("connection closed between packets")

// Context carries the protocol number that packet IDs and field widths are
// resolved against. One is built per server or client and shared read-only.
type Context struct {
	ProtocolVersion int32
}
