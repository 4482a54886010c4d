// Package identity derives offline-mode player identities. No authentication
// service is involved: a player's UUID is a pure function of their name, so
// both sides of a test can predict it.
package identity

import (
	"crypto/md5"

	"github.com/google/uuid"
)

// Profile pairs a player name with its derived UUID.
type Profile struct {
	Username string
	UUID     string
}

// OfflineUUID returns the offline-mode UUID for a player name: the MD5 digest
// of "OfflinePlayer:" followed by the name, formatted canonically. All digest
// bits are kept as-is.
func OfflineUUID(username string) string {
	sum := md5.Sum([]byte("OfflinePlayer:" + username))
	id, _ := uuid.FromBytes(sum[:])
	return id.String()
}
