package lzma2

import "io"

// control is the first byte of an LZMA2 chunk header (§4.5): either one of
// the two fixed "copy" values, the single end-of-stream value, or a packed
// value whose top bits select a reset mode and whose low 5 bits are the
// high bits of (unpackedSize-1).
type control byte

const (
	eosCtrl           control = 0x00
	copyResetDictCtrl control = 0x01
	copyCtrl          control = 0x02

	// packedMask isolates the reset-mode bits of a packed control byte.
	packedMask = 0xe0
	// packedCtrl is set on every packed (compressed) chunk.
	packedCtrl = 0x80
	// packedResetStateCtrl chunks reset the LZMA state but keep properties.
	packedResetStateCtrl = 0xa0
	// packedNewPropsCtrl chunks reset state and install new properties.
	packedNewPropsCtrl = 0xc0
	// packedResetDictCtrl chunks reset state, properties and the dictionary.
	packedResetDictCtrl = 0xe0
)

func (c control) eos() bool { return c == eosCtrl }

func (c control) packed() bool { return c&packedCtrl == packedCtrl }

func (c control) resetDict() bool {
	if !c.packed() {
		return c == copyResetDictCtrl
	}
	return c&packedMask == packedResetDictCtrl
}

func (c control) resetState() bool {
	if !c.packed() {
		return false
	}
	return c&packedMask >= packedResetStateCtrl
}

func (c control) newProps() bool {
	if !c.packed() {
		return false
	}
	return c&packedMask >= packedNewPropsCtrl
}

func (c control) unpackedSizeHighBits() int64 {
	if !c.packed() {
		return 0
	}
	return int64(c&^packedMask) << 16
}

const (
	minUnpackedSize = 1
	maxUnpackedSize = 1 << 21
	minPackedSize   = 1
	maxPackedSize   = 1 << 16
)

// MaxUnpackedSize is the most decoded bytes a single compressed LZMA2
// chunk can declare; an uncompressed chunk's 16-bit size field limits it
// to 1<<16 bytes.
const MaxUnpackedSize = maxUnpackedSize

// chunkHeader is the fully decoded form of an LZMA2 chunk header: a control
// byte, the chunk's unpacked and (for packed chunks) packed sizes, and, for
// chunks that install new properties, the properties themselves.
type chunkHeader struct {
	control      control
	unpackedSize int64 // valid sizes are 1..maxUnpackedSize
	packedSize   int64 // only meaningful when control.packed()
	props        Properties
}

func computeControl(h chunkHeader) control {
	c := h.control
	if !c.packed() {
		return c
	}
	u := control((h.unpackedSize-1)>>16) &^ packedMask
	return (c & packedMask) | u
}

func verifyChunkHeader(h chunkHeader) error {
	if !h.control.packed() && h.control&^0x03 != 0 {
		return newError("control has invalid value")
	}
	if !(minUnpackedSize <= h.unpackedSize && h.unpackedSize <= maxUnpackedSize) {
		return newError("unpackedSize out of range")
	}
	if !h.control.packed() {
		return nil
	}
	if !(minPackedSize <= h.packedSize && h.packedSize <= maxPackedSize) {
		return newError("packedSize out of range")
	}
	return verifyProperties(h.props.LC, h.props.LP, h.props.PB)
}

// writeChunkHeader serializes h to w: 1 control byte, a 2-byte
// (unpackedSize-1) low 16 bits, and for packed chunks a 2-byte
// (packedSize-1) plus, when newProps is set, a trailing properties byte.
func writeChunkHeader(w io.Writer, h chunkHeader) (n int, err error) {
	if err = verifyChunkHeader(h); err != nil {
		return 0, err
	}
	buf := make([]byte, 1, 6)
	buf[0] = byte(computeControl(h))
	u := uint16(h.unpackedSize - 1)
	buf = append(buf, byte(u>>8), byte(u))
	if h.control.packed() {
		p := uint16(h.packedSize - 1)
		buf = append(buf, byte(p>>8), byte(p))
		if h.control.newProps() {
			buf = append(buf, h.props.byte())
		}
	}
	return w.Write(buf)
}

// headerLen returns the total number of header bytes (including the
// control byte itself) that a chunk whose control byte is c requires: 1 for
// end-of-stream, 3 for an uncompressed chunk, 5 for a packed chunk that
// keeps the existing properties, or 6 for one that installs new ones. This
// is what lets a resumable decoder know how many bytes to accumulate
// before it can parse a header at all.
func headerLen(c control) int {
	switch {
	case c.eos():
		return 1
	case !c.packed():
		return 3
	case c.newProps():
		return 6
	default:
		return 5
	}
}

// parseChunkHeaderBytes decodes a chunk header from b, which must be
// exactly headerLen(control(b[0])) bytes long.
func parseChunkHeaderBytes(b []byte) (h chunkHeader, err error) {
	c := control(b[0])
	h.control = c
	if c.eos() {
		return h, nil
	}
	if !c.packed() {
		if c != copyCtrl && c != copyResetDictCtrl {
			return chunkHeader{}, newError("invalid uncompressed control byte")
		}
		h.unpackedSize = (int64(b[1])<<8 | int64(b[2])) + 1
		return h, nil
	}
	h.unpackedSize = c.unpackedSizeHighBits() | int64(b[1])<<8 | int64(b[2])
	h.unpackedSize++
	h.packedSize = (int64(b[3])<<8 | int64(b[4])) + 1
	if c.newProps() {
		h.props, err = parseProperties(b[5])
		if err != nil {
			return chunkHeader{}, err
		}
	}
	return h, nil
}

// PeekChunkHeader parses the chunk header at the start of b without
// consuming a reader, returning the header's length in bytes, the number
// of body bytes that follow it before the next header (the chunk's
// packedSize if packed, otherwise its unpackedSize), the chunk's declared
// unpacked size, and whether it is the end-of-stream terminator. This is
// what lets a caller sum declared sizes across a whole frame (the root
// package's FindDecompressedSize) without running the decoder.
func PeekChunkHeader(b []byte) (hdrLen, bodyLen int, unpackedSize int64, isEOS bool, err error) {
	if len(b) == 0 {
		return 0, 0, 0, false, newError("empty input")
	}
	c := control(b[0])
	total := headerLen(c)
	if len(b) < total {
		return 0, 0, 0, false, newError("truncated chunk header")
	}
	h, err := parseChunkHeaderBytes(b[:total])
	if err != nil {
		return 0, 0, 0, false, err
	}
	if h.control.eos() {
		return total, 0, 0, true, nil
	}
	if h.control.packed() {
		return total, int(h.packedSize), h.unpackedSize, false, nil
	}
	return total, int(h.unpackedSize), h.unpackedSize, false, nil
}

// readChunkHeader parses a chunk header from r, reading exactly as many
// bytes as the control byte's class requires (1, 3, 5, or 6).
func readChunkHeader(r io.Reader) (h chunkHeader, n int, err error) {
	var b [6]byte
	if _, err = io.ReadFull(r, b[:1]); err != nil {
		return chunkHeader{}, 0, err
	}
	c := control(b[0])
	total := headerLen(c)
	if total > 1 {
		if _, err = io.ReadFull(r, b[1:total]); err != nil {
			return chunkHeader{}, 1, err
		}
	}
	h, err = parseChunkHeaderBytes(b[:total])
	if err != nil {
		return chunkHeader{}, total, err
	}
	return h, total, nil
}
