// Package servertest runs one fake server and one client against each other
// and reduces whatever happens on either side to a single verdict: nil when
// the run succeeded, an error naming what went wrong otherwise.
package servertest

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mimicraft/mimic/internal/client"
	"github.com/mimicraft/mimic/internal/packets"
	"github.com/mimicraft/mimic/internal/server"
)

// ErrSuccess is the distinguished signal a listener or script returns to end
// its side of a run successfully. The harness treats it as "done, not a
// failure"; anything else in an outcome slot is a real error.
var ErrSuccess = errors.New("test finished successfully")

// threadTimeout bounds the wait for a verdict and each goroutine join, so a
// wedged run surfaces as a timeout error instead of hanging the test binary.
const threadTimeout = 2 * time.Second

const username = "TestUser"

// Config declares one orchestrated run. The zero value is a complete test:
// latest version on both sides, no compression, join then kick.
type Config struct {
	// ServerVersion is the release label the server speaks. Empty selects
	// the newest supported release.
	ServerVersion string
	// ClientVersion is the release label the client speaks. Empty selects
	// the newest supported release.
	ClientVersion string
	// CompressionThreshold enables the compression envelope when non-nil.
	CompressionThreshold *int
	// NewScript overrides the server's play phase behavior. The default
	// lets the client join, then kicks it so the default listeners reach a
	// verdict.
	NewScript func() server.Script
	// StartClient registers listeners and connects. The default records the
	// JoinGame packet and returns ErrSuccess when the disconnect arrives
	// after it.
	StartClient func(c *client.Connection) error
	// Logger for both sides and the harness itself.
	Logger *logrus.Logger
}

// outcome is a write-once slot for one side's terminal result.
type outcome struct {
	mu  sync.Mutex
	err error
	set bool
}

func (o *outcome) record(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.set {
		o.set = true
		o.err = err
	}
}

func (o *outcome) get() (error, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err, o.set
}

// testError pairs an error with the side it came from, so a lone error can
// be returned as-is while multiple errors are each logged with attribution.
type testError struct {
	label string
	err   error
}

// Connect runs one server and one client to a verdict. The server runs on
// its own goroutine; the client's networking goroutine reports through its
// exception hook. Whichever finishes first wakes the harness, which then
// always stops the server and joins both goroutines within a bounded time.
func Connect(cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}

	newScript := cfg.NewScript
	if newScript == nil {
		newScript = func() server.Script { return joinThenKick{} }
	}
	startClient := cfg.StartClient
	if startClient == nil {
		startClient = defaultStartClient
	}

	srv, err := server.NewServer(server.Config{
		MinecraftVersion:     cfg.ServerVersion,
		CompressionThreshold: cfg.CompressionThreshold,
		NewScript:            newScript,
	}, logger)
	if err != nil {
		return err
	}

	serverOutcome := &outcome{}
	clientOutcome := &outcome{}
	wake := make(chan struct{}, 2)

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		if err := srv.Run(); err != nil {
			serverOutcome.record(err)
		}
		wake <- struct{}{}
	}()

	c, clientErr := client.New(client.Options{
		Address:          srv.Addr().String(),
		Username:         username,
		MinecraftVersion: cfg.ClientVersion,
		HandleException: func(err error) {
			clientOutcome.record(err)
			wake <- struct{}{}
		},
		Logger: logger,
	})

	var mainErr error
	timedOut := false
	if clientErr != nil {
		mainErr = clientErr
	} else {
		c.RegisterEarlyListener(func(pkt packets.Packet) error {
			logger.Debugf("[ ->C] %s", pkt.Name())
			return nil
		})
		c.RegisterOutgoingListener(func(pkt packets.Packet) error {
			logger.Debugf("[C-> ] %s", pkt.Name())
			return nil
		})

		if err := startClient(c); err != nil {
			mainErr = err
		} else {
			select {
			case <-wake:
			case <-time.After(threadTimeout):
				timedOut = true
			}
		}
	}

	// Whatever happened above, stop the server and join both goroutines.
	srv.Stop()
	var joinErrs []testError
	select {
	case <-serverDone:
	case <-time.After(threadTimeout):
		joinErrs = append(joinErrs, testError{err: errors.New("server goroutine timed out")})
	}
	if clientErr == nil && c.Started() {
		select {
		case <-c.Done():
		case <-time.After(threadTimeout):
			joinErrs = append(joinErrs, testError{err: errors.New("client goroutine timed out")})
		}
	}

	var errs []testError
	if mainErr != nil {
		errs = append(errs, testError{err: mainErr})
	} else {
		settled := false
		for _, side := range []struct {
			name string
			slot *outcome
		}{
			{"client", clientOutcome},
			{"server", serverOutcome},
		} {
			err, set := side.slot.get()
			if !set {
				continue
			}
			settled = true
			if !errors.Is(err, ErrSuccess) {
				errs = append(errs, testError{label: fmt.Sprintf("exception in %s goroutine", side.name), err: err})
			}
		}
		if !settled && timedOut {
			errs = append(errs, testError{err: errors.New("test timed out")})
		}
	}
	errs = append(errs, joinErrs...)

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0].err
	default:
		for _, e := range errs {
			if e.label != "" {
				logger.Errorf("%s: %s", e.label, e.err)
			} else {
				logger.Error(e.err)
			}
		}
		return errors.New("multiple errors: see logging output")
	}
}

// defaultStartClient registers the standard pass criteria and connects: the
// run succeeds if a JoinGame packet arrives before the server's disconnect.
func defaultStartClient(c *client.Connection) error {
	joined := false
	c.RegisterPacketListener(func(packets.Packet) error {
		joined = true
		return nil
	}, &packets.JoinGame{})
	c.RegisterPacketListener(func(packets.Packet) error {
		if !joined {
			return errors.New("disconnected before joining the game")
		}
		return ErrSuccess
	}, &packets.PlayDisconnect{})
	return c.Connect()
}

// joinThenKick is the default server script: the stock join behavior
// followed by an immediate kick, so a default run always reaches a verdict.
type joinThenKick struct {
	server.DefaultScript
}

func (s joinThenKick) OnPlayStart(session *server.Session) error {
	if err := s.DefaultScript.OnPlayStart(session); err != nil {
		return err
	}
	return &server.Kick{}
}
