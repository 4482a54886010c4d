// The uuid command prints the offline-mode UUID the server will assign to a
// username, which is handy for seeding test fixtures.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mimicraft/mimic/internal/identity"
)

var uuidCmd = &cobra.Command{
	Use:   "uuid <username> [username ...]",
	Short: "Prints the offline-mode UUID for one or more usernames",
	Args:  cobra.MinimumNArgs(1),
	Run:   UUIDCommand,
}

func UUIDCommand(cmd *cobra.Command, args []string) {
	for _, username := range args {
		fmt.Printf("%s %s\n", identity.OfflineUUID(username), username)
	}
}
