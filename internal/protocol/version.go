package protocol

import "fmt"

// Version pairs a release name with its protocol number.
type Version struct {
	Name     string
	Protocol int32
}

// Releases lists every supported release in order. Several releases can
// share a protocol number.
var Releases = []Version{
	{"1.8", 47},
	{"1.8.1", 47},
	{"1.8.2", 47},
	{"1.8.3", 47},
	{"1.8.4", 47},
	{"1.8.5", 47},
	{"1.8.6", 47},
	{"1.8.7", 47},
	{"1.8.8", 47},
	{"1.8.9", 47},
	{"1.9", 107},
	{"1.9.1", 108},
	{"1.9.2", 109},
	{"1.9.3", 110},
	{"1.9.4", 110},
	{"1.10", 210},
	{"1.10.1", 210},
	{"1.10.2", 210},
	{"1.11", 315},
	{"1.11.1", 316},
	{"1.11.2", 316},
	{"1.12", 335},
	{"1.12.1", 338},
	{"1.12.2", 340},
}

var releasesByName = make(map[string]Version)

func init() {
	for _, v := range Releases {
		releasesByName[v.Name] = v
	}
}

// Latest returns the newest supported release.
func Latest() Version {
	return Releases[len(Releases)-1]
}

// VersionByName resolves a release name like "1.12.2".
func VersionByName(name string) (Version, error) {
	v, ok := releasesByName[name]
	if !ok {
		return Version{}, fmt.Errorf("unsupported minecraft version %q", name)
	}
	return v, nil
}

// VersionByProtocol returns the earliest release using the given protocol
// number.
func VersionByProtocol(protocol int32) (Version, error) {
	for _, v := range Releases {
		if v.Protocol == protocol {
			return v, nil
		}
	}
	return Version{}, fmt.Errorf("unknown protocol number %d", protocol)
}
