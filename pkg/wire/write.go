package wire

import "encoding/binary"

// EncodeWrite serializes a Write packet's payload. Field ordering MUST
// match the table in SPEC_FULL.md ss6 for interoperability with BRLTTY:
// display number, region (begin, size), text, and-mask, or-mask, cursor,
// charset.
//
// The original implementation's general WritePacket.from_params is
// non-functional for the case where both WF_ATTR_AND and WF_ATTR_OR are
// set at once (see spec.md ss9, Open Question 3); this package only
// implements the orderings actually produced by WriteText, WriteDots,
// WriteRegion and SetCursor, all of which set at most one of the two
// attribute masks.
func EncodeWrite(p *Write) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, p.Flags)

	if p.Flags&WFDisplayNumber != 0 {
		b = appendUint32(b, p.DisplayNumber)
	}
	if p.Flags&WFRegion != 0 {
		b = appendUint32(b, p.RegionBegin)
		b = appendUint32(b, p.RegionSize)
	}
	if p.Flags&WFText != 0 {
		b = appendUint32(b, uint32(len(p.Text)))
		b = append(b, p.Text...)
	}
	if p.Flags&WFAttrAnd != 0 {
		b = append(b, p.AndMask...)
	}
	if p.Flags&WFAttrOr != 0 {
		b = append(b, p.OrMask...)
	}
	if p.Flags&WFCursor != 0 {
		b = appendUint32(b, p.Cursor)
	}
	if p.Flags&WFCharset != 0 {
		b = append(b, byte(len(p.Charset)))
		b = append(b, []byte(p.Charset)...)
	}
	return b
}

func appendUint32(b []byte, v uint32) []byte {
	tmp := make([]byte, 4)
	binary.BigEndian.PutUint32(tmp, v)
	return append(b, tmp...)
}
