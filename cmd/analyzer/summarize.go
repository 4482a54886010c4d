package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mimicraft/mimic/internal/packets"
	"github.com/mimicraft/mimic/internal/protocol"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Generates a shortened, human-readable view of the session files",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		summarizeFiles(args)
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}

func summarizeFiles(args []string) {
	for _, sessionFilename := range args {
		sum, err := summarizeSession(sessionFilename)
		if err != nil {
			fmt.Printf("unable to generate summary for session %s: %s\n", sessionFilename, err)
			return
		}
		fmt.Println("wrote", sum)
	}
}

func summarizeSession(sessionFilename string) (string, error) {
	session, err := parseSessionDataFromFile(sessionFilename)
	if err != nil {
		return "", fmt.Errorf("unable to parse session file: %v", err)
	}
	filename := fmt.Sprintf("%s_summary.txt", strings.Replace(sessionFilename, ".session", "", 1))
	if err := generateSummaryFile(filename, session); err != nil {
		return "", fmt.Errorf("unable to generate summary file %s: %v", filename, err)
	}
	return filename, nil
}

func generateSummaryFile(filename string, session *SessionFile) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("unable to create file %s: %v", filename, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	follower := packets.NewFollower()

	for i := range session.Packets {
		p := &session.Packets[i]
		fmt.Fprintf(w, "%s -> %s %s\n", p.Source, p.Destination, packetName(follower, p))
	}
	return w.Flush()
}

// packetName resolves the name of a captured packet by replaying it through a
// follower, which keeps just enough connection state to pick the registry the
// packet was sent under.
func packetName(follower *packets.Follower, p *Packet) string {
	pkt, err := follower.Observe(p.Source == "client", protocol.NewBuffer(packetToBytes(p.Contents)))
	if err != nil {
		return fmt.Sprintf("Undecodable(type %s)", p.Type)
	}
	if unknown, ok := pkt.(*packets.Unknown); ok {
		return fmt.Sprintf("Unknown(%#x)", unknown.PacketID)
	}
	return pkt.Name()
}
