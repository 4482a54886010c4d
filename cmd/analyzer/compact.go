package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mimicraft/mimic/internal/core/debug"
)

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Generates a human-readable view of the session files",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		compactFiles(args)
	},
}

func init() {
	rootCmd.AddCommand(compactCmd)
}

func compactFiles(args []string) {
	for _, sessionFilename := range args {
		compact, err := compactSession(sessionFilename)
		if err != nil {
			fmt.Printf("unable to compact session %s: %s\n", sessionFilename, err)
			return
		}
		fmt.Println("wrote", compact)
	}
}

func compactSession(sessionFilename string) (string, error) {
	session, err := parseSessionDataFromFile(sessionFilename)
	if err != nil {
		return "", fmt.Errorf("unable to read file: %v", err)
	}
	filename := fmt.Sprintf("%s_compact.txt", strings.Replace(sessionFilename, ".session", "", 1))
	if err := generateCompactedFile(filename, session); err != nil {
		return "", fmt.Errorf("unable to generate compact file: %v", err)
	}
	return filename, nil
}

func parseSessionDataFromFile(filename string) (*SessionFile, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var s SessionFile
	if err := json.Unmarshal(bytes, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func generateCompactedFile(filename string, session *SessionFile) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("unable to create file %s: %v", filename, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := range session.Packets {
		writePacketToFile(w, &session.Packets[i])
	}
	return w.Flush()
}

func writePacketToFile(w *bufio.Writer, p *Packet) {
	writePacketHeaderToFile(w, p)
	w.WriteString(debug.FormatPayload(packetToBytes(p.Contents)))
	w.WriteString("\n")
}

func writePacketHeaderToFile(w *bufio.Writer, p *Packet) {
	size, _ := strconv.ParseInt(p.Size, 16, 32)
	fmt.Fprintf(w, "%s -> %s\nType: %s\nSize: %s (%d) bytes\n", p.Source, p.Destination, p.Type, p.Size, size)
}
