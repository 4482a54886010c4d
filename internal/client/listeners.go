package client

import (
	"reflect"

	"github.com/mimicraft/mimic/internal/packets"
)

type listenerKind int

const (
	// normalListeners observe incoming packets after the connection's own
	// reactions have been applied.
	normalListeners listenerKind = iota
	// earlyListeners observe every incoming packet in any phase, before
	// reactions.
	earlyListeners
	// outgoingListeners observe packets this connection sends.
	outgoingListeners
)

type listener struct {
	fn    func(packets.Packet) error
	kind  listenerKind
	types []reflect.Type
}

func (l *listener) matches(pkt packets.Packet) bool {
	if len(l.types) == 0 {
		return true
	}
	got := reflect.TypeOf(pkt)
	for _, want := range l.types {
		if got == want {
			return true
		}
	}
	return false
}

// RegisterPacketListener calls fn for incoming packets matching any of the
// given prototypes, e.g. &packets.JoinGame{}. With no prototypes fn sees
// every packet. An error returned by fn terminates the networking goroutine
// and is reported through HandleException; that is how a test listener
// signals it is finished.
func (c *Connection) RegisterPacketListener(fn func(packets.Packet) error, prototypes ...packets.Packet) {
	c.register(fn, normalListeners, prototypes)
}

// RegisterEarlyListener is RegisterPacketListener but fn runs before the
// connection reacts to the packet, so it also observes the login exchange.
func (c *Connection) RegisterEarlyListener(fn func(packets.Packet) error, prototypes ...packets.Packet) {
	c.register(fn, earlyListeners, prototypes)
}

// RegisterOutgoingListener calls fn for matching packets this connection
// sends, before they hit the wire.
func (c *Connection) RegisterOutgoingListener(fn func(packets.Packet) error, prototypes ...packets.Packet) {
	c.register(fn, outgoingListeners, prototypes)
}

func (c *Connection) register(fn func(packets.Packet) error, kind listenerKind, prototypes []packets.Packet) {
	types := make([]reflect.Type, 0, len(prototypes))
	for _, prototype := range prototypes {
		types = append(types, reflect.TypeOf(prototype))
	}

	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, listener{fn: fn, kind: kind, types: types})
}

func (c *Connection) runListeners(pkt packets.Packet, kind listenerKind) error {
	c.listenersMu.Lock()
	matched := make([]listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		if l.kind == kind && l.matches(pkt) {
			matched = append(matched, l)
		}
	}
	c.listenersMu.Unlock()

	for _, l := range matched {
		if err := l.fn(pkt); err != nil {
			return err
		}
	}
	return nil
}
