package debug

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type packetAnalyzerRequest struct {
	ServerName  string
	SessionID   string
	Source      string
	Destination string
	Contents    []int
}

var packetAnalyzerChan = make(chan packetAnalyzerRequest, 10)

// StartUtilities spins off the services associated with debug mode.
func StartUtilities(logger *logrus.Logger) {
	if viper.GetBool("debugging.pprof_enabled") {
		startPprofServer(logger)
	}

	if packetAnalyzerEnabled() {
		go startAnalyzerExporter(logger)
	}
}

// PacketLoggingEnabled returns whether decoded packets should be written to
// the logs.
func PacketLoggingEnabled() bool {
	return viper.GetBool("debugging.packet_logging_enabled")
}

func packetAnalyzerEnabled() bool {
	return PacketAnalyzerAddress() != ""
}

func PacketAnalyzerAddress() string {
	return viper.GetString("debugging.packet_analyzer_address")
}

// This function starts the default pprof HTTP server that can be accessed via localhost
// to get runtime information about the server. See https://golang.org/pkg/net/http/pprof/
func startPprofServer(logger *logrus.Logger) {
	listenerAddr := fmt.Sprintf("localhost:%s", viper.GetString("debugging.pprof_port"))
	logger.Infof("starting pprof server on %s", listenerAddr)

	go func() {
		if err := http.ListenAndServe(listenerAddr, nil); err != nil {
			logger.Infof("error starting pprof server: %s", err)
		}
	}()
}

func startAnalyzerExporter(logger *logrus.Logger) {
	for {
		packet := <-packetAnalyzerChan

		reqBytes, _ := json.Marshal(&packet)
		httpClient := http.Client{Timeout: time.Second}

		// We don't care if the packets don't get through.
		r, err := httpClient.Post(
			"http://"+PacketAnalyzerAddress(),
			"application/json",
			bytes.NewBuffer(reqBytes),
		)

		if err != nil {
			logger.Warn("failed to send packet to analyzer: ", err)
		} else if r.StatusCode != 200 {
			logger.Warn("failed to send packet to analyzer: ", r.Body)
		}
	}
}

// TracePacket logs one decoded packet at debug level with a dump of its
// payload, and queues it for the packet analyzer if one is configured.
// Source and destination are "server" and "client" in sending order.
func TracePacket(logger *logrus.Logger, sessionID, source, destination string, packet interface{}, payload []byte) {
	if PacketLoggingEnabled() {
		logger.Debugf("%s -> %s\n%s%s", source, destination, spew.Sdump(packet), FormatPayload(payload))
	}
	sendToPacketAnalyzer(sessionID, source, destination, payload)
}

func sendToPacketAnalyzer(sessionID, source, destination string, payload []byte) {
	if !packetAnalyzerEnabled() {
		return
	}

	cbytes := make([]int, len(payload))
	for i, b := range payload {
		cbytes[i] = int(b)
	}

	select {
	case packetAnalyzerChan <- packetAnalyzerRequest{"mimic", sessionID, source, destination, cbytes}:
	default:
		// Drop the packet rather than stall the session when the exporter
		// falls behind.
	}
}

const displayWidth = 16

// FormatPayload renders the contents of a packet in two columns, one for
// bytes and the other for their ascii representation.
func FormatPayload(data []byte) string {
	var out strings.Builder
	for offset := 0; offset < len(data); offset += displayWidth {
		end := offset + displayWidth
		if end > len(data) {
			end = len(data)
		}
		formatPayloadLine(&out, data[offset:end], offset)
	}
	return out.String()
}

// formatPayloadLine writes one line of data to out.
func formatPayloadLine(out *strings.Builder, line []byte, offset int) {
	fmt.Fprintf(out, "(%04X) ", offset)
	for i := 0; i < displayWidth; i++ {
		if i == 8 {
			// Visual aid - spacing between groups of 8 bytes.
			out.WriteString("  ")
		}
		if i < len(line) {
			fmt.Fprintf(out, "%02x ", line[i])
		} else {
			out.WriteString("   ")
		}
	}
	out.WriteString("    ")
	// Display the print characters as-is, others as periods.
	for _, c := range line {
		if strconv.IsPrint(rune(c)) {
			fmt.Fprintf(out, "%c", c)
		} else {
			out.WriteString(".")
		}
	}
	out.WriteString("\n")
}
