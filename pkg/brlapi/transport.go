package brlapi

import (
	"io"

	"github.com/dbernaca/brltty2/pkg/wire"
)

// send serializes p and writes it to the socket, serialized against
// other writers by sendMu so that concurrent outbound frames are never
// interleaved at the byte level (spec.md ss5's "send-mutex").
func (c *Client) send(p wire.Packet) error {
	b := wire.Encode(p)
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if _, err := c.conn.Write(b); err != nil {
		return &wire.TransportError{Op: "write " + p.Type().String(), Err: err}
	}
	return nil
}

// readLoop is the single background reader goroutine for this Client,
// started by Connect and run until the socket errors, a framing
// violation occurs, or Close is called. Grounded on
// pkg/devtools/browser.go's "go receiveFromPipe(s)" per-session reader
// goroutine, generalized from JSON messages to BrlAPI's length-prefixed
// binary frames.
func (c *Client) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.readBuf = append(c.readBuf, buf[:n]...)
			if !c.drainFrames() {
				return
			}
		}
		if err != nil {
			if c.isClosed() {
				return
			}
			c.failAll(&wire.TransportError{Op: "read", Err: err})
			if err != io.EOF {
				c.cfg.errorCallback(&wire.TransportError{Op: "read", Err: err})
			}
			c.Close()
			return
		}
	}
}

// drainFrames extracts every complete frame currently buffered and
// dispatches it. It returns false if wire.TakeFrame rejected an oversized
// frame, which closes the connection, signaling readLoop to stop.
func (c *Client) drainFrames() bool {
	for {
		frame, rest, ok, err := wire.TakeFrame(c.readBuf)
		if err != nil {
			c.cfg.errorCallback(err)
			c.failAll(err)
			c.Close()
			return false
		}
		if !ok {
			return true
		}
		c.readBuf = rest
		c.dispatch(frame)
	}
}

// failAll wakes every pending gate with err, the "wake all waiters on
// fatal error" behavior required by spec.md ss7.
func (c *Client) failAll(err error) {
	c.handshake.Fail(err)
	c.recvGate.Fail(err)
	c.keyWait.Fail(err)
}
