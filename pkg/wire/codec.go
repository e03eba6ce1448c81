package wire

import "encoding/binary"

// frameHeaderSize is the 4-byte size field plus the 4-byte type field.
const frameHeaderSize = 8

// Frame is one deframed wire frame: its type code and raw payload bytes.
type Frame struct {
	Type    Type
	Payload []byte
}

// TakeFrame slices a single complete frame off the front of buf, mirroring
// the original implementation's process_buffer: read the 4-byte size,
// reject the frame outright if size+8 exceeds MaxPacketSize (the peer is
// not speaking BrlAPI), otherwise wait for the rest to arrive.
//
// It returns (frame, rest, true, nil) when a full frame was available,
// (Frame{}, buf, false, nil) when more bytes are needed, and a non-nil
// error when the declared size is oversized — the caller MUST terminate
// the connection in that case (spec.md Invariant 3).
func TakeFrame(buf []byte) (frame Frame, rest []byte, ok bool, err error) {
	if len(buf) < frameHeaderSize {
		return Frame{}, buf, false, nil
	}
	size := binary.BigEndian.Uint32(buf[0:4])
	total := int(size) + frameHeaderSize
	if total > MaxPacketSize {
		return Frame{}, buf, false, &FramingError{Reason: "oversized frame; peer is not BrlAPI"}
	}
	if len(buf) < total {
		return Frame{}, buf, false, nil
	}
	typ := Type(binary.BigEndian.Uint32(buf[4:8]))
	payload := make([]byte, size)
	copy(payload, buf[frameHeaderSize:total])
	return Frame{Type: typ, Payload: payload}, buf[total:], true, nil
}

// TakeAllFrames repeatedly applies TakeFrame to buf, returning every
// complete frame found and the left-over bytes that still need more data.
// It stops at the first error, returning the frames found so far.
func TakeAllFrames(buf []byte) (frames []Frame, rest []byte, err error) {
	rest = buf
	for {
		var f Frame
		var ok bool
		f, rest, ok, err = TakeFrame(rest)
		if err != nil {
			return frames, rest, err
		}
		if !ok {
			return frames, rest, nil
		}
		frames = append(frames, f)
	}
}
