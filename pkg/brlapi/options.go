package brlapi

import (
	"io"
	"log"
	"time"

	"github.com/dbernaca/brltty2/pkg/wire"
)

// ClientOption configures a Client at construction time. The functional-
// options shape follows pkg/devtools.SessionOption in the example this
// package is grounded on.
type ClientOption func(*config)

type config struct {
	host string
	port int

	dialTimeout time.Duration
	gateTimeout time.Duration

	authKeyPath string
	authCallback AuthCallback

	keyCallback   func(Key)
	errorCallback func(error)

	logger *log.Logger
}

func defaultConfig() *config {
	c := &config{
		host:          wire.DefaultHost,
		port:          wire.DefaultPort,
		dialTimeout:   wire.DefaultDialTimeout,
		gateTimeout:   wire.DefaultGateTimeout,
		authKeyPath:   "/etc/brlapi.key",
		errorCallback: func(error) {},
		logger:        log.New(io.Discard, "brlapi: ", log.LstdFlags),
	}
	// Captures c by reference so a later WithAuthKeyPath still takes
	// effect even though the callback itself is installed here, before
	// the rest of the options run.
	c.authCallback = func(method wire.AuthMethod) (bool, []byte) {
		return defaultAuthCallback(method, c.authKeyPath)
	}
	return c
}

// WithAddress overrides the default localhost:4101 BRLTTY address.
func WithAddress(host string, port int) ClientOption {
	return func(c *config) {
		c.host = host
		c.port = port
	}
}

// WithDialTimeout bounds the initial TCP connect.
func WithDialTimeout(d time.Duration) ClientOption {
	return func(c *config) { c.dialTimeout = d }
}

// WithGateTimeout bounds every synchronous round-trip (spec.md ss5's
// suggested 30-second default).
func WithGateTimeout(d time.Duration) ClientOption {
	return func(c *config) { c.gateTimeout = d }
}

// WithAuthKeyPath overrides the path DefaultAuthCallback reads the
// AUTH_KEY shared secret from.
func WithAuthKeyPath(path string) ClientOption {
	return func(c *config) { c.authKeyPath = path }
}

// AuthCallback decides whether to proceed with the authentication method
// the server offered, and supplies the key bytes for AUTH_KEY.
type AuthCallback func(method wire.AuthMethod) (ok bool, key []byte)

// WithAuthCallback overrides DefaultAuthCallback.
func WithAuthCallback(cb AuthCallback) ClientOption {
	return func(c *config) { c.authCallback = cb }
}

// WithKeyCallback registers a callback invoked for every received key
// event. Registering one switches the client into callback delivery
// mode: key packets are never queued (spec.md Invariant 5).
func WithKeyCallback(cb func(Key)) ClientOption {
	return func(c *config) { c.keyCallback = cb }
}

// WithErrorCallback registers a callback invoked for errors the
// background reader meets: parse errors and unrecognized packets that are
// skipped, every ERROR/EXCEPTION from BRLTTY (also injected into the
// pending gates), and the fatal oversized-frame, read and handshake
// errors that close the connection.
func WithErrorCallback(cb func(error)) ClientOption {
	return func(c *config) { c.errorCallback = cb }
}

// WithLogger directs diagnostic logging to l. The default discards it.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *config) { c.logger = l }
}
