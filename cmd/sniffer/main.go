// The sniffer captures live Minecraft traffic and prints every packet it can
// decode, following the connection through its phase changes and the switch
// to compressed framing.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

var (
	device = flag.String("d", "en0", "Device on which to listen for packets")
	port   = flag.Int("p", 25565, "Port the server is listening on")
)

func main() {
	flag.Parse()

	handle, err := pcap.OpenLive(*device, math.MaxInt32, false, pcap.BlockForever)
	if err != nil {
		exit("error opening handle: %v", err)
	}
	if err := handle.SetBPFFilter(fmt.Sprintf("tcp and port %d", *port)); err != nil {
		exit("error setting filter: %v", err)
	}

	s := newSniffer(bufio.NewWriter(os.Stdout), uint16(*port))

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range packetSource.Packets() {
		tcp, ok := packet.TransportLayer().(*layers.TCP)
		if !ok {
			continue
		}

		// A fresh connection to the server resets the stream state.
		if tcp.SYN && !tcp.ACK && uint16(tcp.DstPort) == uint16(*port) {
			s.reset()
		}

		app := packet.ApplicationLayer()
		if app == nil {
			continue
		}
		s.handleSegment(uint16(tcp.SrcPort), uint16(tcp.DstPort), app.Payload())
	}
}

func exit(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}
