package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mimicraft/mimic/internal/protocol"
)

var captureAddr string

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Starts a server that listens for packet submissions and writes them to session files on exit",
	Run: func(cmd *cobra.Command, args []string) {
		startCapturing()
	},
}

func init() {
	captureCmd.Flags().StringVarP(&captureAddr, "addr", "a", "localhost:8081", "Address and port on which to listen")
	rootCmd.AddCommand(captureCmd)
}

// PacketRequest is the JSON document the server submits for each packet it
// sends or receives while the packet analyzer is configured.
type PacketRequest struct {
	ServerName  string
	SessionID   string
	Source      string
	Destination string
	Contents    []int
}

var (
	captureMu sync.Mutex
	// Mapping of session keys to channels of PacketRequests acting as queues.
	packetChannels = make(map[string]chan *PacketRequest)
	// Mapping of session keys to the ordered packets.
	packetQueues = make(map[string][]Packet)
)

// startCapturing spins up an HTTP handler to await packet submissions from one
// or more running servers. On exit it will write the contents of each session
// to a file for you to do what you will.
func startCapturing() {
	// Register a signal handler to dump the packet lists before exiting.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go captureExitHandler(signalChan)

	http.HandleFunc("/", packetHandler)

	fmt.Println("starting capture server on", captureAddr)

	if err := http.ListenAndServe(captureAddr, nil); err != nil {
		fmt.Println(err)
	}
}

// Write all of our current session information to files in the local directory.
func captureExitHandler(c chan os.Signal) {
	<-c
	fmt.Println("flushing session data to files...")

	captureMu.Lock()
	defer captureMu.Unlock()

	for sessionName, packetList := range packetQueues {
		sessionFile := SessionFile{
			SessionID: sessionName,
			Packets:   packetList,
		}

		filename := sessionName + ".session"
		bytes, _ := json.MarshalIndent(sessionFile, "", "\t")

		if err := os.WriteFile(filename, bytes, 0666); err != nil {
			fmt.Printf("failed to save session data: %s\n", err)
			break
		}

		fmt.Println("wrote", filename)
	}

	os.Exit(0)
}

// Request handler responsible only for parsing the packet request and then
// throwing it onto a queue for async processing.
func packetHandler(w http.ResponseWriter, r *http.Request) {
	p := &PacketRequest{}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		fmt.Printf("error reading JSON from request: %s\n", err)
		return
	}

	channelKey := sessionKey(p.ServerName, p.SessionID)

	captureMu.Lock()
	pc, ok := packetChannels[channelKey]
	if !ok {
		fmt.Println("capturing session", channelKey)

		// Create the channel and start a goroutine to process it.
		pc = make(chan *PacketRequest, 50)
		packetChannels[channelKey] = pc
		go processPackets(channelKey, pc)
	}
	captureMu.Unlock()

	pc <- p
}

// Return a key composed of the server name and the optional session ID.
func sessionKey(serverName, sessionID string) string {
	if sessionID == "" {
		return serverName
	}
	return fmt.Sprintf("%s-%s", serverName, sessionID)
}

// Continuously spins on a channel, reading packets and appending them to the
// list of packets for the corresponding session.
func processPackets(channelKey string, pc chan *PacketRequest) {
	for pr := range pc {
		p := Packet{
			Source:      pr.Source,
			Destination: pr.Destination,
			Type:        packetType(pr.Contents),
			Size:        fmt.Sprintf("%04X", len(pr.Contents)),
			Contents:    pr.Contents,
			Timestamp:   time.Now(),
		}

		captureMu.Lock()
		packetQueues[channelKey] = append(packetQueues[channelKey], p)
		captureMu.Unlock()
	}
}

// packetType renders the leading packet ID varint in hex. The ID alone does
// not identify the packet; summarize resolves names by replaying the session.
func packetType(contents []int) string {
	id, err := protocol.ReadVarInt(protocol.NewBuffer(packetToBytes(contents)))
	if err != nil {
		return "????"
	}
	return fmt.Sprintf("%02X", id)
}
