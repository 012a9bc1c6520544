package lzma2

import (
	"bytes"
	"io"

	"github.com/shunpeizhang/fast-lzma2/probmodel"
	"github.com/shunpeizhang/fast-lzma2/rc"
)

// DecoderState names the phase a Decoder is in, following the chunk
// grammar's own structure (§4.5): a decoder reads a header, then either
// copies or range-decodes exactly that many bytes of chunk body, then
// returns to reading the next header, until it reads the end-of-stream
// control byte.
type DecoderState int

const (
	StateHeader DecoderState = iota
	StateData
	StateFinished
	StateError
)

// Decoder reconstructs bytes from an LZMA2 chunk sequence, which may span
// several dictionary-reset blocks; one Decoder decodes a whole frame
// (dctx.go), and its output buffer holds the bytes of every block it has
// decoded.
type Decoder struct {
	st    *probmodel.State
	props Properties
	state DecoderState
	err   error

	// out accumulates every decoded byte. Match distances and literal
	// match-byte context both read back into it, so it doubles as the
	// dictionary; it is never trimmed, so it grows with the whole
	// decoded output.
	out []byte

	// blockOrigin is len(d.out) as of the most recent dictionary-reset
	// chunk: the origin a block-relative position is measured from.
	// CCtx.Compress concatenates every block's chunk sequence into one
	// frame and decodes it with a single Decoder (dctx.go), so d.out
	// keeps growing across block boundaries even though each block's
	// LitState/posState context must restart at position 0, matching
	// lzma2.Encoder's own data, which is freshly re-sliced per block.
	blockOrigin uint32
}

// NewDecoder creates a Decoder ready to read the first chunk of a chunk
// sequence.
func NewDecoder() *Decoder {
	return &Decoder{state: StateHeader}
}

// State reports the decoder's current phase.
func (d *Decoder) State() DecoderState { return d.state }

// Err returns the error that moved the decoder into StateError, if any.
func (d *Decoder) Err() error { return d.err }

// Bytes returns the bytes decoded so far.
func (d *Decoder) Bytes() []byte { return d.out }

func (d *Decoder) fail(err error) error {
	d.state = StateError
	d.err = err
	return err
}

// DecodeAll reads chunks from r until it consumes the end-of-stream
// control byte or r runs out, returning every decoded byte.
func (d *Decoder) DecodeAll(r io.Reader) ([]byte, error) {
	for {
		done, err := d.decodeChunk(r)
		if err != nil {
			return d.out, err
		}
		if done {
			return d.out, nil
		}
	}
}

// decodeChunk reads and applies exactly one chunk. done is true once the
// end-of-stream control byte has been consumed.
func (d *Decoder) decodeChunk(r io.Reader) (done bool, err error) {
	if d.state == StateError {
		return false, d.err
	}
	h, _, err := readChunkHeader(r)
	if err != nil {
		return false, d.fail(err)
	}
	if h.control.eos() {
		d.state = StateFinished
		return true, nil
	}
	d.state = StateData
	if h.control.resetDict() {
		d.blockOrigin = uint32(len(d.out))
	}

	if !h.control.packed() {
		buf := make([]byte, h.unpackedSize)
		if _, err = io.ReadFull(r, buf); err != nil {
			return false, d.fail(err)
		}
		d.out = append(d.out, buf...)
		d.state = StateHeader
		return false, nil
	}

	if h.control.newProps() {
		d.props = h.props
		if d.st == nil {
			d.st = probmodel.New(h.props.LC, h.props.LP, h.props.PB)
		} else {
			d.st.ResetProperties(h.props.LC, h.props.LP, h.props.PB)
		}
	} else if d.st == nil {
		return false, d.fail(newError("first chunk must install properties"))
	} else if h.control.resetState() {
		d.st.Reset()
	}

	packed := make([]byte, h.packedSize)
	if _, err = io.ReadFull(r, packed); err != nil {
		return false, d.fail(err)
	}
	if err = d.decodePacked(packed, h.unpackedSize); err != nil {
		return false, d.fail(err)
	}
	d.state = StateHeader
	return false, nil
}

func (d *Decoder) decodePacked(packed []byte, unpackedSize int64) error {
	br := bytes.NewReader(packed)
	rd := rc.NewDecoder(br)
	if err := rd.Init(br); err != nil {
		return err
	}
	target := int64(len(d.out)) + unpackedSize
	for int64(len(d.out)) < target {
		if err := d.decodeOp(rd, target); err != nil {
			return err
		}
	}
	if !rd.IsFinishedOK() {
		return rc.ErrCorrupted
	}
	return nil
}

func (d *Decoder) byteAt(dist uint32) byte {
	i := len(d.out) - int(dist) - 1
	if i < 0 {
		return 0
	}
	return d.out[i]
}

func (d *Decoder) decodeOp(rd *rc.Decoder, target int64) error {
	pos := uint32(len(d.out)) - d.blockOrigin
	state, state2, posState := d.st.Contexts(int64(pos))

	bit, err := rd.DecodeBit(d.st.IsMatch(state2))
	if err != nil {
		return err
	}
	if bit == 0 {
		return d.decodeLiteral(rd, state2, pos)
	}
	return d.decodeMatch(rd, state, state2, posState, target)
}

func (d *Decoder) decodeLiteral(rd *rc.Decoder, state2, pos uint32) error {
	var prev byte
	if pos > 0 {
		prev = d.out[len(d.out)-1]
	}
	litState := d.st.LitState(prev, int64(pos))
	matchByte := d.byteAt(d.st.Rep[0])
	s, err := d.st.Lit().Decode(rd, d.st.St, matchByte, litState)
	if err != nil {
		return err
	}
	d.out = append(d.out, s)
	d.st.UpdateLiteral()
	return nil
}

func (d *Decoder) decodeMatch(rd *rc.Decoder, state, state2, posState uint32, target int64) error {
	isRep, err := rd.DecodeBit(d.st.IsRep(state))
	if err != nil {
		return err
	}
	var dist, length uint32
	if isRep == 0 {
		n, err := d.st.Len().Decode(rd, posState)
		if err != nil {
			return err
		}
		dist, err = d.st.Dist().Decode(rd, n)
		if err != nil {
			return err
		}
		d.st.Rep[3], d.st.Rep[2], d.st.Rep[1], d.st.Rep[0] =
			d.st.Rep[2], d.st.Rep[1], d.st.Rep[0], dist
		d.st.UpdateMatch()
		length = n + probmodel.MinMatchLen
	} else {
		g0, err := rd.DecodeBit(d.st.IsRepG0(state))
		if err != nil {
			return err
		}
		if g0 == 0 {
			long, err := rd.DecodeBit(d.st.IsRepG0Long(state2))
			if err != nil {
				return err
			}
			dist = d.st.Rep[0]
			if long == 0 {
				d.st.UpdateShortRep()
				return d.copyMatch(dist, 1, target)
			}
		} else {
			g1, err := rd.DecodeBit(d.st.IsRepG1(state))
			if err != nil {
				return err
			}
			if g1 == 0 {
				dist = d.st.Rep[1]
				d.st.Rep[1] = d.st.Rep[0]
			} else {
				g2, err := rd.DecodeBit(d.st.IsRepG2(state))
				if err != nil {
					return err
				}
				if g2 == 0 {
					dist = d.st.Rep[2]
				} else {
					dist = d.st.Rep[3]
					d.st.Rep[3] = d.st.Rep[2]
				}
				d.st.Rep[2] = d.st.Rep[1]
				d.st.Rep[1] = d.st.Rep[0]
			}
			d.st.Rep[0] = dist
		}
		n, err := d.st.RepLen().Decode(rd, posState)
		if err != nil {
			return err
		}
		d.st.UpdateRep()
		length = n + probmodel.MinMatchLen
	}
	return d.copyMatch(dist, length, target)
}

// copyMatch appends length bytes read back dist+1 positions from the
// current end of d.out, never reading past what has already been decoded
// and never writing past target (a corrupted length/distance pair that
// would do either is reported as ErrCorrupted rather than panicking).
func (d *Decoder) copyMatch(dist, length uint32, target int64) error {
	src := len(d.out) - int(dist) - 1
	if src < 0 {
		return rc.ErrCorrupted
	}
	if int64(len(d.out))+int64(length) > target {
		return rc.ErrCorrupted
	}
	for i := uint32(0); i < length; i++ {
		d.out = append(d.out, d.out[src+int(i)])
	}
	return nil
}
