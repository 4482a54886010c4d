// The ping command queries a running server for its status document the way
// the multiplayer server list does.
package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mimicraft/mimic/internal/client"
	"github.com/mimicraft/mimic/internal/core"
)

var pingCmd = &cobra.Command{
	Use:   "ping [host:port]",
	Short: "Queries a server's status and latency",
	Run:   PingCommand,
}

func PingCommand(cmd *cobra.Command, args []string) {
	var address string
	if len(args) > 0 {
		address = args[0]
	} else {
		config := core.LoadConfig(ConfigFlag)
		hostname := config.Hostname
		if hostname == "" {
			hostname = "localhost"
		}
		address = net.JoinHostPort(hostname, strconv.Itoa(config.Server.Port))
	}

	c, err := client.New(client.Options{Address: address})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	status, latency, err := c.Status()
	if err != nil {
		fmt.Println("error querying status:", err)
		os.Exit(1)
	}

	fmt.Printf("%s (protocol %d)\n", status.Version.Name, status.Version.Protocol)
	fmt.Println(status.Description.Text)
	fmt.Printf("players: %d/%d\n", status.Players.Online, status.Players.Max)
	fmt.Println("latency:", latency)
}
