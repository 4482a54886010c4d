package identity

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache memoizes derived profiles so repeated logins by the same name skip
// the digest. Entries expire so a long-lived server does not accumulate one
// entry per name it has ever seen.
type Cache struct {
	cacheInstance *gocache.Cache
}

func NewCache() *Cache {
	return &Cache{cacheInstance: gocache.New(time.Hour, 10*time.Minute)}
}

// Lookup returns the profile for username, deriving and caching it on a miss.
func (c *Cache) Lookup(username string) Profile {
	if cached, found := c.cacheInstance.Get(username); found {
		return cached.(Profile)
	}

	profile := Profile{Username: username, UUID: OfflineUUID(username)}
	c.cacheInstance.Set(username, profile, gocache.DefaultExpiration)
	return profile
}
