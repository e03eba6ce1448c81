package brlapi

import (
	"github.com/dbernaca/brltty2/pkg/wire"
)

// dispatch processes one deframed wire.Frame. It runs exclusively on the
// reader goroutine, so handshakeStep and readBuf need no locking here;
// only the fields callers can observe (mode, cached identity, reply,
// key queue) are guarded.
func (c *Client) dispatch(frame wire.Frame) {
	pkt, err := wire.Parse(frame.Type, frame.Payload)
	if err != nil {
		// A parse error outside the handshake is a soft error: log it
		// and keep reading, hoping for re-sync (spec.md ss4.4's
		// documented best-effort choice). During the handshake it is
		// fatal, handled below.
		c.cfg.errorCallback(err)
		if c.handshakeStep < 3 {
			c.handshake.Fail(err)
			c.Close()
		}
		return
	}

	if c.handshakeStep < 3 {
		c.dispatchHandshake(pkt)
		return
	}
	c.dispatchNormal(pkt)
}

// dispatchHandshake implements the Step0-Step3 handshake state machine
// from spec.md ss4.4, grounded on Client.process_handshake.
func (c *Client) dispatchHandshake(pkt wire.Packet) {
	switch p := pkt.(type) {
	case *wire.Version:
		if p.Version < wire.ProtocolVersion {
			err := &wire.ProtocolError{Code: wire.ErrorProtocolVersion}
			c.cfg.errorCallback(err)
			c.handshake.Fail(err)
			c.Close()
			return
		}
		c.handshakeStep = 1
		if err := c.send(&wire.Version{Version: wire.ProtocolVersion}); err != nil {
			c.handshake.Fail(err)
			c.Close()
		}
	case *wire.ServerAuth:
		c.handshakeStep = 2
		switch p.Method {
		case wire.AuthKey:
			ok, key := c.cfg.authCallback(wire.AuthKey)
			if !ok {
				err := &wire.AuthenticationError{Method: wire.AuthKey, Reason: "auth callback refused"}
				c.handshake.Fail(err)
				c.Close()
				return
			}
			if err := c.send(&wire.ClientAuth{Method: wire.AuthKey, Key: key}); err != nil {
				c.handshake.Fail(err)
				c.Close()
			}
		case wire.AuthNone:
			c.cfg.authCallback(wire.AuthNone) // return value ignored, see DESIGN.md Open Question 1
			c.handshakeStep = 3
			c.setMode(Mode{Kind: ModeNormal})
			c.handshake.Complete()
		default:
			err := &wire.AuthenticationError{Method: p.Method, Reason: "unsupported authentication method"}
			c.handshake.Fail(err)
			c.Close()
		}
	case *wire.Ack:
		c.handshakeStep = 3
		c.setMode(Mode{Kind: ModeNormal})
		c.handshake.Complete()
	case *wire.ProtoError:
		err := &wire.ProtocolError{Code: p.Code}
		c.cfg.errorCallback(err)
		c.handshake.Fail(err)
		c.Close()
	case *wire.Exception:
		err := &wire.ProtocolError{Code: p.Code, PacketType: p.PacketType, Packet: p.Packet}
		c.cfg.errorCallback(err)
		c.handshake.Fail(err)
		c.Close()
	default:
		err := &wire.FramingError{Reason: "unexpected packet during handshake"}
		c.handshake.Fail(err)
		c.Close()
	}
}

// dispatchNormal implements the post-handshake dispatch rules from
// spec.md ss4.4, grounded on Client.process_data.
func (c *Client) dispatchNormal(pkt wire.Packet) {
	switch p := pkt.(type) {
	case *wire.DriverNameInfo:
		c.stateMu.Lock()
		c.driverName = p.Name
		c.stateMu.Unlock()
		c.setReply(pkt)
		c.recvGate.Complete()
	case *wire.ModelIDInfo:
		c.stateMu.Lock()
		c.modelID = p.ID
		c.stateMu.Unlock()
		c.setReply(pkt)
		c.recvGate.Complete()
	case *wire.DisplaySizeInfo:
		c.stateMu.Lock()
		c.displayCols, c.displayRows = p.Columns, p.Rows
		c.stateMu.Unlock()
		c.setReply(pkt)
		c.recvGate.Complete()
	case *wire.Key:
		key := newKey(p.Code)
		if c.cfg.keyCallback != nil {
			c.cfg.keyCallback(key)
		} else {
			c.keyMu.Lock()
			c.keyQueue = append(c.keyQueue, key)
			c.keyMu.Unlock()
			c.keyWait.Complete()
		}
	case *wire.Ack:
		c.setReply(pkt)
		c.recvGate.Complete()
	case *wire.ProtoError:
		err := &wire.ProtocolError{Code: p.Code}
		c.cfg.errorCallback(err)
		c.recvGate.Fail(err)
		c.keyWait.Fail(err)
	case *wire.Exception:
		err := &wire.ProtocolError{Code: p.Code, PacketType: p.PacketType, Packet: p.Packet}
		c.cfg.errorCallback(err)
		c.recvGate.Fail(err)
		c.keyWait.Fail(err)
	default:
		// Unrecognized packet type in normal mode: a soft error, per
		// spec.md ss4.4's documented best-effort re-sync policy.
		c.cfg.errorCallback(&wire.FramingError{Reason: "unrecognized packet type in normal mode"})
	}
}

func (c *Client) setReply(p wire.Packet) {
	c.replyMu.Lock()
	c.reply = p
	c.replyMu.Unlock()
}
