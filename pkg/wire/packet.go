package wire

import (
	"encoding/binary"
	"fmt"
)

// Packet is the tagged-union interface implemented by every typed packet
// record. A sum type with an explicit parser per variant, rather than an
// open class hierarchy, keeps dispatch in the reader exhaustively
// checkable (see SPEC_FULL.md ss9).
type Packet interface {
	Type() Type
	encode() []byte
}

// Raw is the fallback record for a packet type this package does not
// parse into a richer structure. Unknown types are soft errors, handled
// by the caller rather than this package.
type Raw struct {
	PacketType Type
	Payload    []byte
}

func (p *Raw) Type() Type    { return p.PacketType }
func (p *Raw) encode() []byte { return p.Payload }

// Version carries the protocol version advertised by either peer.
type Version struct {
	Version uint32
}

func (p *Version) Type() Type { return TypeVersion }
func (p *Version) encode() []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, p.Version)
	return b
}

// ServerAuth is the server's offer of an authentication method.
type ServerAuth struct {
	Method AuthMethod
}

func (p *ServerAuth) Type() Type { return TypeAuth }
func (p *ServerAuth) encode() []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(p.Method))
	return b
}

// ClientAuth is the client's response during authentication, carrying the
// chosen method and an optional key payload.
type ClientAuth struct {
	Method AuthMethod
	Key    []byte
}

func (p *ClientAuth) Type() Type { return TypeAuth }
func (p *ClientAuth) encode() []byte {
	b := make([]byte, 4, 4+len(p.Key))
	binary.BigEndian.PutUint32(b, uint32(p.Method))
	return append(b, p.Key...)
}

// Ack is an empty acknowledgement.
type Ack struct{}

func (p *Ack) Type() Type      { return TypeAck }
func (p *Ack) encode() []byte { return nil }

// ProtoError is the ERROR packet: a numeric code plus an optional
// human-readable message.
type ProtoError struct {
	Code    ErrorCode
	Message string
}

func (p *ProtoError) Type() Type { return TypeError }
func (p *ProtoError) encode() []byte {
	b := make([]byte, 4, 4+len(p.Message))
	binary.BigEndian.PutUint32(b, uint32(p.Code))
	return append(b, []byte(p.Message)...)
}

// Exception is the EXCEPTION packet: a numeric code, the type of the
// packet that provoked it, and that packet's raw trailing bytes (kept so
// a diagnostic can show exactly what BRLTTY rejected).
type Exception struct {
	Code       ErrorCode
	PacketType Type
	Packet     []byte
}

func (p *Exception) Type() Type { return TypeException }
func (p *Exception) encode() []byte {
	b := make([]byte, 8, 8+len(p.Packet))
	binary.BigEndian.PutUint32(b[0:4], uint32(p.Code))
	binary.BigEndian.PutUint32(b[4:8], uint32(p.PacketType))
	return append(b, p.Packet...)
}

// DriverNameInfo, ModelIDInfo and DisplaySizeInfo are the three INFO
// variants: a NUL-terminated ASCII string for the first two, two 32-bit
// unsigned integers for the third.
type DriverNameInfo struct{ Name string }

func (p *DriverNameInfo) Type() Type      { return TypeGetDriverName }
func (p *DriverNameInfo) encode() []byte { return nulTerminated(p.Name) }

type ModelIDInfo struct{ ID string }

func (p *ModelIDInfo) Type() Type      { return TypeGetModelID }
func (p *ModelIDInfo) encode() []byte { return nulTerminated(p.ID) }

type DisplaySizeInfo struct {
	Columns uint32
	Rows    uint32
}

func (p *DisplaySizeInfo) Type() Type { return TypeGetDisplaySize }
func (p *DisplaySizeInfo) encode() []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint32(b[0:4], p.Columns)
	binary.BigEndian.PutUint32(b[4:8], p.Rows)
	return b
}

func nulTerminated(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	b[len(s)] = 0
	return b
}

// Key is the 64-bit key code reported by BRLTTY.
type Key struct {
	Code uint64
}

func (p *Key) Type() Type { return TypeKey }
func (p *Key) encode() []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, p.Code)
	return b
}

// EnterTTYMode requests control of a chain of virtual terminals,
// optionally naming the driver the caller expects to be in use.
type EnterTTYMode struct {
	TTYs   []uint32
	Driver string
}

func (p *EnterTTYMode) Type() Type { return TypeEnterTTYMode }
func (p *EnterTTYMode) encode() []byte {
	b := make([]byte, 4, 4+4*len(p.TTYs)+1+len(p.Driver))
	binary.BigEndian.PutUint32(b, uint32(len(p.TTYs)))
	for _, tty := range p.TTYs {
		tb := make([]byte, 4)
		binary.BigEndian.PutUint32(tb, tty)
		b = append(b, tb...)
	}
	b = append(b, byte(len(p.Driver)))
	b = append(b, []byte(p.Driver)...)
	return b
}

// LeaveTTYMode is an empty request to release TTY control.
type LeaveTTYMode struct{}

func (p *LeaveTTYMode) Type() Type      { return TypeLeaveTTYMode }
func (p *LeaveTTYMode) encode() []byte { return nil }

// Write is the variable-length WRITE record; its layout is driven by
// Flags, see EncodeWrite in write.go for the field-ordering rules.
type Write struct {
	Flags         uint32
	DisplayNumber uint32
	RegionBegin   uint32
	RegionSize    uint32
	Text          []byte
	AndMask       []byte
	OrMask        []byte
	Cursor        uint32
	Charset       string
}

func (p *Write) Type() Type      { return TypeWrite }
func (p *Write) encode() []byte { return EncodeWrite(p) }

// Encode serializes a typed packet into a full wire frame: the 4-byte
// big-endian payload size, the 4-byte big-endian type, then the payload.
func Encode(p Packet) []byte {
	payload := p.encode()
	b := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint32(b[0:4], uint32(len(payload)))
	binary.BigEndian.PutUint32(b[4:8], uint32(p.Type()))
	copy(b[8:], payload)
	return b
}

// Parse builds a typed Packet out of a type code and its raw payload
// (the part of the frame after the 8-byte header). It never sees a
// partial frame: deframing is TakeFrame's job (codec.go).
func Parse(t Type, payload []byte) (Packet, error) {
	switch t {
	case TypeVersion:
		if len(payload) < 4 {
			return nil, shortPayload(t, 4, len(payload))
		}
		return &Version{Version: binary.BigEndian.Uint32(payload)}, nil
	case TypeAuth:
		if len(payload) < 4 {
			return nil, shortPayload(t, 4, len(payload))
		}
		method := AuthMethod(binary.BigEndian.Uint32(payload))
		if len(payload) == 4 {
			return &ServerAuth{Method: method}, nil
		}
		key := make([]byte, len(payload)-4)
		copy(key, payload[4:])
		return &ClientAuth{Method: method, Key: key}, nil
	case TypeAck:
		return &Ack{}, nil
	case TypeError:
		if len(payload) < 4 {
			return nil, shortPayload(t, 4, len(payload))
		}
		return &ProtoError{
			Code:    ErrorCode(binary.BigEndian.Uint32(payload)),
			Message: string(payload[4:]),
		}, nil
	case TypeException:
		if len(payload) < 8 {
			return nil, shortPayload(t, 8, len(payload))
		}
		pkt := make([]byte, len(payload)-8)
		copy(pkt, payload[8:])
		return &Exception{
			Code:       ErrorCode(binary.BigEndian.Uint32(payload[0:4])),
			PacketType: Type(binary.BigEndian.Uint32(payload[4:8])),
			Packet:     pkt,
		}, nil
	case TypeGetDriverName:
		return &DriverNameInfo{Name: trimNUL(payload)}, nil
	case TypeGetModelID:
		return &ModelIDInfo{ID: trimNUL(payload)}, nil
	case TypeGetDisplaySize:
		if len(payload) == 0 {
			// The client's request form carries no payload.
			return &Raw{PacketType: t}, nil
		}
		if len(payload) < 8 {
			return nil, shortPayload(t, 8, len(payload))
		}
		return &DisplaySizeInfo{
			Columns: binary.BigEndian.Uint32(payload[0:4]),
			Rows:    binary.BigEndian.Uint32(payload[4:8]),
		}, nil
	case TypeKey:
		if len(payload) < 8 {
			return nil, shortPayload(t, 8, len(payload))
		}
		return &Key{Code: binary.BigEndian.Uint64(payload)}, nil
	case TypeEnterTTYMode:
		if len(payload) < 4 {
			return nil, shortPayload(t, 4, len(payload))
		}
		nameAt := 4 + 4*int(binary.BigEndian.Uint32(payload))
		if len(payload) <= nameAt || len(payload) < nameAt+1+int(payload[nameAt]) {
			return nil, shortPayload(t, nameAt+1, len(payload))
		}
		ttys := make([]uint32, 0, (nameAt-4)/4)
		for i := 4; i < nameAt; i += 4 {
			ttys = append(ttys, binary.BigEndian.Uint32(payload[i:]))
		}
		return &EnterTTYMode{TTYs: ttys, Driver: string(payload[nameAt+1 : nameAt+1+int(payload[nameAt])])}, nil
	case TypeLeaveTTYMode:
		return &LeaveTTYMode{}, nil
	default:
		buf := make([]byte, len(payload))
		copy(buf, payload)
		return &Raw{PacketType: t, Payload: buf}, nil
	}
}

func trimNUL(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func shortPayload(t Type, want, got int) error {
	return &FramingError{Reason: fmt.Sprintf("%s payload too short: want at least %d bytes, got %d", t, want, got)}
}
