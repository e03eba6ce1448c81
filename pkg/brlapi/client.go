// Package brlapi is a client for the BrlAPI wire protocol spoken by the
// BRLTTY daemon: connecting, negotiating authentication, taking control
// of a virtual terminal's braille display, writing to it, and receiving
// key events. See SPEC_FULL.md for the full design.
package brlapi

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/dbernaca/brltty2/pkg/gate"
	"github.com/dbernaca/brltty2/pkg/wire"
)

// Client owns one TCP connection to a BRLTTY daemon: the socket, the
// read buffer, the handshake/mode state, and the request/response
// concurrency primitives. Grounded on pkg/devtools.Session, generalized
// from CDP's many-concurrent-requests subscriber map down to the single
// outstanding request BrlAPI's protocol allows (see SPEC_FULL.md ss9).
type Client struct {
	cfg *config

	conn   net.Conn
	reader *bufio.Reader

	sendMu sync.Mutex // serializes writes to the socket

	processGate *gate.Mutex // at most one get*/enterTTYMode/leaveTTYMode outstanding
	recvGate    *gate.Gate  // released by the reader on the matching reply
	keyWait     *gate.Gate  // released whenever a KEY frame is queued
	handshake   *gate.Gate  // released when the handshake reaches step 3 (or fails)

	stateMu     sync.Mutex
	currentMode Mode

	driverName   string
	modelID      string
	displayCols  uint32
	displayRows  uint32

	replyMu sync.Mutex
	reply   wire.Packet // the frame the reader just handed to a waiting caller

	keyMu    sync.Mutex
	keyQueue []Key

	closeOnce sync.Once
	closed    chan struct{}

	readBuf       []byte // owned exclusively by the reader goroutine
	handshakeStep int    // owned exclusively by the reader goroutine

	log *log.Logger
}

// New constructs a Client with the given options but does not connect
// it. Call Connect to open the socket and run the handshake.
func New(opts ...ClientOption) *Client {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Client{
		cfg:         cfg,
		processGate: gate.NewMutex(),
		recvGate:    gate.New("receive-gate"),
		keyWait:     gate.New("key-wait"),
		handshake:   gate.New("handshake"),
		closed:      make(chan struct{}),
		log:         cfg.logger,
	}
}

// Connect opens a TCP connection to the configured address, performs the
// BrlAPI handshake, and starts the background reader. On success the
// client's mode is ModeNormal.
func (c *Client) Connect(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", c.cfg.host, c.cfg.port)
	dialer := &net.Dialer{Timeout: c.cfg.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &wire.TransportError{Op: "dial " + addr, Err: err}
	}
	return c.connectConn(ctx, conn)
}

// connectConn runs the handshake over an already-established conn. It
// is the shared body of Connect; tests reach it directly (via
// export_test.go) against a net.Pipe instead of a real TCP dial.
func (c *Client) connectConn(ctx context.Context, conn net.Conn) error {
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	c.setMode(Mode{Kind: ModeAuthorization})

	c.handshake.Arm()
	go c.readLoop()

	hctx, cancel := context.WithTimeout(ctx, c.cfg.gateTimeout)
	defer cancel()
	if err := c.handshake.Wait(hctx); err != nil {
		c.Close()
		return err
	}
	c.log.Printf("connected to %s, mode=%s", conn.RemoteAddr(), c.mode())
	return nil
}

// Close releases the socket and wakes every pending waiter with a
// connection-closed error. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.conn != nil {
			err = c.conn.Close()
		}
		closedErr := &wire.ClosedError{}
		c.handshake.Fail(closedErr)
		c.recvGate.Fail(closedErr)
		c.keyWait.Fail(closedErr)
		c.setMode(Mode{Kind: ModeClosed})
	})
	return err
}

func (c *Client) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *Client) mode() Mode {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.currentMode
}

func (c *Client) setMode(m Mode) {
	c.stateMu.Lock()
	c.currentMode = m
	c.stateMu.Unlock()
}
