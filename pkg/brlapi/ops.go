package brlapi

import (
	"context"

	"github.com/dbernaca/brltty2/pkg/wire"
)

// request sends p under the process-gate mutex and waits for the
// reader to release the receive-gate, returning whatever packet it
// stashed via setReply. This is the "one outstanding synchronous
// round-trip at a time" serialization from spec.md Invariant 4.
func (c *Client) request(ctx context.Context, p wire.Packet) (wire.Packet, error) {
	if err := c.processGate.Lock(ctx); err != nil {
		return nil, err
	}
	defer c.processGate.Unlock()

	c.recvGate.Arm()
	if err := c.send(p); err != nil {
		c.recvGate.Fail(err)
		return nil, err
	}
	if err := c.recvGate.Wait(ctx); err != nil {
		return nil, err
	}
	c.replyMu.Lock()
	reply := c.reply
	c.replyMu.Unlock()
	return reply, nil
}

func (c *Client) gateContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.cfg.gateTimeout)
}

func (c *Client) requireConnected(op string) error {
	if c.isClosed() {
		return &wire.ClosedError{}
	}
	m := c.mode()
	if m.Kind == ModeClosed || m.Kind == ModeAuthorization {
		return &wire.ModeError{Op: op, Mode: m.String(), Required: "normal or tty"}
	}
	return nil
}

func (c *Client) requireTTY(op string) error {
	if c.isClosed() {
		return &wire.ClosedError{}
	}
	m := c.mode()
	if m.Kind != ModeTTY {
		return &wire.ModeError{Op: op, Mode: m.String(), Required: "tty"}
	}
	return nil
}

// GetDriverName returns the name of the braille driver BRLTTY is using.
func (c *Client) GetDriverName(ctx context.Context) (string, error) {
	if err := c.requireConnected("GetDriverName"); err != nil {
		return "", err
	}
	gctx, cancel := c.gateContext(ctx)
	defer cancel()
	if _, err := c.request(gctx, &wire.Raw{PacketType: wire.TypeGetDriverName}); err != nil {
		return "", err
	}
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.driverName, nil
}

// GetModelIdentifier returns the braille display's model identifier.
func (c *Client) GetModelIdentifier(ctx context.Context) (string, error) {
	if err := c.requireConnected("GetModelIdentifier"); err != nil {
		return "", err
	}
	gctx, cancel := c.gateContext(ctx)
	defer cancel()
	if _, err := c.request(gctx, &wire.Raw{PacketType: wire.TypeGetModelID}); err != nil {
		return "", err
	}
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.modelID, nil
}

// GetDisplaySize returns the braille display's dimensions as (columns,
// rows).
func (c *Client) GetDisplaySize(ctx context.Context) (columns, rows uint32, err error) {
	if err := c.requireConnected("GetDisplaySize"); err != nil {
		return 0, 0, err
	}
	gctx, cancel := c.gateContext(ctx)
	defer cancel()
	if _, err := c.request(gctx, &wire.Raw{PacketType: wire.TypeGetDisplaySize}); err != nil {
		return 0, 0, err
	}
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.displayCols, c.displayRows, nil
}

// EnterTTYMode requests control of a chain of virtual terminals. ttys
// defaults to wire.DefaultTTY (meaning TTY 0) when empty. If driver is
// the empty string, BRLTTY returns universal command codes for key
// events instead of driver-specific ones.
func (c *Client) EnterTTYMode(ctx context.Context, ttys []int, driver string) error {
	if c.isClosed() {
		return &wire.ClosedError{}
	}
	m := c.mode()
	if m.Kind != ModeNormal {
		return &wire.ModeError{Op: "EnterTTYMode", Mode: m.String(), Required: "normal"}
	}
	if len(ttys) == 0 {
		ttys = []int{0}
	}
	wttys := make([]uint32, len(ttys))
	for i, t := range ttys {
		wttys[i] = uint32(t)
	}

	gctx, cancel := c.gateContext(ctx)
	defer cancel()
	_, err := c.request(gctx, &wire.EnterTTYMode{TTYs: wttys, Driver: driver})
	if err != nil {
		return err
	}
	c.setMode(Mode{Kind: ModeTTY, TTY: ttys[len(ttys)-1]})
	return nil
}

// LeaveTTYMode releases control of the current TTY, returning the
// client to normal mode.
func (c *Client) LeaveTTYMode(ctx context.Context) error {
	if err := c.requireTTY("LeaveTTYMode"); err != nil {
		return err
	}
	gctx, cancel := c.gateContext(ctx)
	defer cancel()
	if _, err := c.request(gctx, &wire.LeaveTTYMode{}); err != nil {
		return err
	}
	c.setMode(Mode{Kind: ModeNormal})
	return nil
}

// WriteText writes text to the display starting at cell 1, optionally
// placing the braille cursor at the given (1-based) cell. cursor may be
// wire.CursorOff or wire.CursorLeave. This is a one-shot, non-blocking
// write: it returns as soon as the bytes are handed to the socket, no
// reply is expected (spec.md ss5).
func (c *Client) WriteText(text string, charset string, cursor int) error {
	if err := c.requireTTY("WriteText"); err != nil {
		return err
	}
	if charset == "" {
		charset = "UTF-8"
	}
	flags := wire.WFText | wire.WFCharset
	w := &wire.Write{Flags: flags, Text: []byte(text), Charset: charset}
	if cursor >= 0 {
		w.Flags |= wire.WFCursor
		w.Cursor = uint32(cursor)
	}
	return c.send(w)
}

// WriteDots writes a raw dot pattern (one byte per cell) over the whole
// display. If the display size has not been fetched yet, it is fetched
// first (the way the original implementation's writeDots does).
func (c *Client) WriteDots(ctx context.Context, content []byte) error {
	if err := c.requireTTY("WriteDots"); err != nil {
		return err
	}
	c.stateMu.Lock()
	cols, rows := c.displayCols, c.displayRows
	c.stateMu.Unlock()
	if cols == 0 && rows == 0 {
		var err error
		cols, rows, err = c.GetDisplaySize(ctx)
		if err != nil {
			return err
		}
	}
	size := int(cols) * int(rows)
	if size == 0 {
		// No display attached (driver "NoBraille"): nothing to write.
		return nil
	}
	text := make([]byte, size)
	for i := range text {
		text[i] = ' '
	}
	w := &wire.Write{
		Flags:       wire.WFRegion | wire.WFText | wire.WFCursor | wire.WFAttrOr,
		RegionBegin: 1,
		RegionSize:  uint32(size),
		Text:        text,
		OrMask:      content,
		Cursor:      0,
	}
	return c.send(w)
}

// WriteRegion writes content to a contiguous region of the display
// starting at the 1-based cell start, optionally placing the cursor.
func (c *Client) WriteRegion(content []byte, start int, cursor int) error {
	if err := c.requireTTY("WriteRegion"); err != nil {
		return err
	}
	w := &wire.Write{
		Flags:       wire.WFRegion | wire.WFText,
		RegionBegin: uint32(start),
		RegionSize:  uint32(len(content)),
		Text:        content,
	}
	if cursor >= 0 {
		w.Flags |= wire.WFCursor
		w.Cursor = uint32(cursor)
	}
	return c.send(w)
}

// SetCursor repositions the braille cursor. A negative cell means
// wire.CursorLeave ("do not set"), in which case SetCursor is a no-op
// and nothing is sent on the wire.
func (c *Client) SetCursor(cursor int) error {
	if err := c.requireTTY("SetCursor"); err != nil {
		return err
	}
	if cursor < 0 {
		return nil
	}
	w := &wire.Write{Flags: wire.WFCursor, Cursor: uint32(cursor)}
	return c.send(w)
}

// ReadKey pops the oldest queued key event. If blocking is true and the
// queue is empty, it waits for one to arrive (or ctx to end). If
// blocking is false and the queue is empty, it returns ok=false.
//
// ReadKey is only meaningful when no key callback was registered (see
// WithKeyCallback); when a callback is active, keys are delivered to it
// directly and are never queued (spec.md Invariant 5).
func (c *Client) ReadKey(ctx context.Context, blocking bool) (key Key, ok bool, err error) {
	if c.isClosed() {
		return Key{}, false, &wire.ClosedError{}
	}
	m := c.mode()
	if m.Kind != ModeTTY {
		c.keyMu.Lock()
		c.keyQueue = nil
		c.keyMu.Unlock()
		return Key{}, false, &wire.ModeError{Op: "ReadKey", Mode: m.String(), Required: "tty"}
	}

	// Arming the gate while still holding keyMu closes the race against
	// the reader goroutine: dispatchNormal also mutates keyQueue under
	// keyMu before releasing keyWait, so whichever of the two reaches
	// the lock first determines whether we see the key directly below
	// or get woken by Complete after Wait.
	c.keyMu.Lock()
	empty := len(c.keyQueue) == 0
	if empty && blocking {
		c.keyWait.Arm()
	}
	c.keyMu.Unlock()

	if empty {
		if !blocking {
			return Key{}, false, nil
		}
		if err := c.keyWait.Wait(ctx); err != nil {
			return Key{}, false, err
		}
	}

	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	if len(c.keyQueue) == 0 {
		return Key{}, false, nil
	}
	k := c.keyQueue[0]
	c.keyQueue = c.keyQueue[1:]
	return k, true, nil
}

// Close releases the socket, see Client.Close in client.go.
