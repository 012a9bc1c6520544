// Package probmodel implements the LZMA probability model: the 11-bit
// adaptive counters, the 12-state operation-history state machine, and the
// literal/length/distance bit-tree codecs built on top of package rc. It
// has no notion of chunks or dictionaries; lzma2 drives it one symbol at a
// time.
package probmodel

import (
	"github.com/shunpeizhang/fast-lzma2/rc"
)

// probTree is a flat array of probabilities addressed as a binary tree:
// index 1 is the root, and each level doubles, matching the encoding used
// throughout the reference LZMA bit-tree codecs.
type probTree struct {
	probs []rc.Prob
	bits  byte
}

func makeProbTree(bits int) probTree {
	if !(1 <= bits && bits <= 32) {
		panic("probmodel: tree bits out of range [1,32]")
	}
	t := probTree{probs: make([]rc.Prob, 1<<uint(bits)), bits: byte(bits)}
	t.reset()
	return t
}

func (t *probTree) reset() {
	for i := range t.probs {
		t.probs[i] = rc.ProbInit
	}
}

// treeCodec encodes bits b1 (msb) downto bits-1 (lsb); a value decoded by a
// matching treeDecode forms the same integer with the msb first.
type treeCodec struct{ probTree }

func makeTreeCodec(bits int) treeCodec { return treeCodec{makeProbTree(bits)} }

func (tc *treeCodec) Encode(e *rc.Encoder, v uint32) error {
	m := uint32(1)
	for i := int(tc.bits) - 1; i >= 0; i-- {
		b := rc.Bit((v >> uint(i)) & 1)
		if err := e.EncodeBit(b, &tc.probs[m]); err != nil {
			return err
		}
		m = (m << 1) | uint32(b)
	}
	return nil
}

func (tc *treeCodec) Decode(d *rc.Decoder) (v uint32, err error) {
	m := uint32(1)
	for j := 0; j < int(tc.bits); j++ {
		b, err := d.DecodeBit(&tc.probs[m])
		if err != nil {
			return 0, err
		}
		m = (m << 1) | uint32(b)
	}
	return m - (1 << uint(tc.bits)), nil
}

// Price returns the price of encoding v, without mutating any probability.
func (tc *treeCodec) Price(v uint32) uint32 {
	var price uint32
	m := uint32(1)
	for i := int(tc.bits) - 1; i >= 0; i-- {
		b := rc.Bit((v >> uint(i)) & 1)
		price += rc.BitPrice(tc.probs[m], b)
		m = (m << 1) | uint32(b)
	}
	return price
}

// treeReverseCodec is the same bit-tree but least-significant bit first,
// used for the low bits of mid-range match distances.
type treeReverseCodec struct{ probTree }

func makeTreeReverseCodec(bits int) treeReverseCodec {
	return treeReverseCodec{makeProbTree(bits)}
}

func (tc *treeReverseCodec) Encode(e *rc.Encoder, v uint32) error {
	m := uint32(1)
	for i := uint(0); i < uint(tc.bits); i++ {
		b := rc.Bit((v >> i) & 1)
		if err := e.EncodeBit(b, &tc.probs[m]); err != nil {
			return err
		}
		m = (m << 1) | uint32(b)
	}
	return nil
}

func (tc *treeReverseCodec) Decode(d *rc.Decoder) (v uint32, err error) {
	m := uint32(1)
	for j := uint(0); j < uint(tc.bits); j++ {
		b, err := d.DecodeBit(&tc.probs[m])
		if err != nil {
			return 0, err
		}
		m = (m << 1) | uint32(b)
		v |= uint32(b) << j
	}
	return v, nil
}

func (tc *treeReverseCodec) Price(v uint32) uint32 {
	var price uint32
	m := uint32(1)
	for i := uint(0); i < uint(tc.bits); i++ {
		b := rc.Bit((v >> i) & 1)
		price += rc.BitPrice(tc.probs[m], b)
		m = (m << 1) | uint32(b)
	}
	return price
}

// directCodec encodes a fixed number of bits without any adaptive model.
type directCodec int

func (dc directCodec) Encode(e *rc.Encoder, v uint32) error {
	return e.EncodeDirect(v, int(dc))
}

func (dc directCodec) Decode(d *rc.Decoder) (uint32, error) {
	return d.DecodeDirect(int(dc))
}

func (dc directCodec) Price() uint32 {
	return uint32(dc) * rc.DirectPrice
}
