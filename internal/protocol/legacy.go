package protocol

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// LegacyPingLead is the first byte of a pre-Netty server list ping. Modern
// handshake frames are far too short for their length prefix to start with
// it, so a server can peek one byte to tell the two protocols apart.
const LegacyPingLead = 0xFE

// LegacyStatus holds the fields of a legacy kick-style status reply.
type LegacyStatus struct {
	ProtocolVersion int32
	VersionName     string
	Motd            string
	OnlinePlayers   int
	MaxPlayers      int
}

// EncodeLegacyKick renders the 0xFF packet a legacy ping is answered with:
// six null-separated fields encoded as a big-endian UTF-16 string, prefixed
// with its length in two-byte units.
func EncodeLegacyKick(status LegacyStatus) ([]byte, error) {
	fields := fmt.Sprintf("§1\x00%d\x00%s\x00%s\x00%d\x00%d",
		status.ProtocolVersion,
		status.VersionName,
		status.Motd,
		status.OnlinePlayers,
		status.MaxPlayers,
	)

	encoder := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	encoded, err := encoder.Bytes([]byte(fields))
	if err != nil {
		return nil, fmt.Errorf("encoding legacy status: %w", err)
	}

	out := &Buffer{}
	out.WriteByte(0xFF)
	if err := WriteUnsignedShort(out, uint16(len(encoded)/2)); err != nil {
		return nil, err
	}
	out.Write(encoded)
	return out.Bytes(), nil
}
