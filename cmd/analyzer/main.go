// Commands:
//     capture: starts an HTTP server waiting for packets to be submitted
//     compact: generates a human-readable version of session data (useful for tools like diff)
//     summarize: similar to compact but only the packet names are included
//
// In order to feed the capture command, there must be a value set for
// debugging.packet_analyzer_address in the server's config.yaml pointing at
// this tool's listen address.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Packet is this tool's representation of a packet received from a server.
type Packet struct {
	Source      string
	Destination string

	Type string
	Size string

	Contents []int

	Timestamp time.Time
}

// SessionFile represents the file format of the persisted session data.
type SessionFile struct {
	SessionID string
	Packets   []Packet
}

var rootCmd = &cobra.Command{
	Use:   "analyzer",
	Short: "Captures and inspects packets exported by the fake server",
	Long: `This utility stands up an HTTP server that receives packet data from a running
fake server, persists it in a common format, and can perform some basic analysis.
Primarily intended for comparing the packets exchanged during different sessions
or by different client versions with tools like diff.

Note that this utility is mostly only useful in the context of local development
due to the overhead incurred by the server having to send every packet over an
HTTP POST.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// packetToBytes converts the packet contents to a slice of bytes since that's
// what the server actually sent.
func packetToBytes(packet []int) []byte {
	bytes := make([]byte, len(packet))
	for i, b := range packet {
		bytes[i] = byte(b)
	}
	return bytes
}
