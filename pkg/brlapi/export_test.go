package brlapi

import (
	"context"
	"net"
)

// NewForTesting builds a Client around an already-established conn
// (typically one half of a net.Pipe) instead of dialing one. Call
// ConnectPipe to run the handshake over it.
func NewForTesting(conn net.Conn, opts ...ClientOption) *Client {
	c := New(opts...)
	c.conn = conn
	return c
}

// ConnectPipe runs the handshake over the conn passed to NewForTesting,
// exercising the same connectConn path Connect uses for a real dial.
func (c *Client) ConnectPipe(ctx context.Context) error {
	return c.connectConn(ctx, c.conn)
}
