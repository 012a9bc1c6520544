package probmodel

import (
	"errors"

	"github.com/shunpeizhang/fast-lzma2/rc"
)

// MinMatchLen and MaxMatchLen bound the match lengths this codec can
// represent; MaxMatchLen matches the LZMA SDK's 273-byte cap which the
// spec requires as the implementation constant (§3: "Length is capped at
// an implementation constant (>= 273)").
const (
	MinMatchLen = 2
	MaxMatchLen = MinMatchLen + 16 + 256 - 1 // 273

	maxPosBits = 4
	numPosStates = 1 << maxPosBits
)

// lengthCodec codes a match length offset (length - MinMatchLen) using a
// three-way choice between a low (3-bit), mid (3-bit) and high (8-bit)
// bit-tree, each selected per posState.
type lengthCodec struct {
	choice [2]rc.Prob
	low    [numPosStates]treeCodec
	mid    [numPosStates]treeCodec
	high   treeCodec
}

func newLengthCodec() *lengthCodec {
	lc := &lengthCodec{high: makeTreeCodec(8)}
	for i := range lc.low {
		lc.low[i] = makeTreeCodec(3)
		lc.mid[i] = makeTreeCodec(3)
	}
	lc.reset()
	return lc
}

func (lc *lengthCodec) reset() {
	lc.choice[0], lc.choice[1] = rc.ProbInit, rc.ProbInit
	for i := range lc.low {
		lc.low[i].reset()
		lc.mid[i].reset()
	}
	lc.high.reset()
}

var errLengthOutOfRange = errors.New("probmodel: length offset out of range")

func (lc *lengthCodec) Encode(e *rc.Encoder, l, posState uint32) error {
	if l > MaxMatchLen-MinMatchLen {
		return errLengthOutOfRange
	}
	if l < 8 {
		if err := e.EncodeBit(0, &lc.choice[0]); err != nil {
			return err
		}
		return lc.low[posState].Encode(e, l)
	}
	if err := e.EncodeBit(1, &lc.choice[0]); err != nil {
		return err
	}
	if l < 16 {
		if err := e.EncodeBit(0, &lc.choice[1]); err != nil {
			return err
		}
		return lc.mid[posState].Encode(e, l-8)
	}
	if err := e.EncodeBit(1, &lc.choice[1]); err != nil {
		return err
	}
	return lc.high.Encode(e, l-16)
}

func (lc *lengthCodec) Decode(d *rc.Decoder, posState uint32) (l uint32, err error) {
	b, err := d.DecodeBit(&lc.choice[0])
	if err != nil {
		return 0, err
	}
	if b == 0 {
		return lc.low[posState].Decode(d)
	}
	b, err = d.DecodeBit(&lc.choice[1])
	if err != nil {
		return 0, err
	}
	if b == 0 {
		l, err = lc.mid[posState].Decode(d)
		return l + 8, err
	}
	l, err = lc.high.Decode(d)
	return l + 16, err
}

func (lc *lengthCodec) Price(l, posState uint32) uint32 {
	if l < 8 {
		return rc.BitPrice(lc.choice[0], 0) + lc.low[posState].Price(l)
	}
	if l < 16 {
		return rc.BitPrice(lc.choice[0], 1) + rc.BitPrice(lc.choice[1], 0) +
			lc.mid[posState].Price(l-8)
	}
	return rc.BitPrice(lc.choice[0], 1) + rc.BitPrice(lc.choice[1], 1) +
		lc.high.Price(l-16)
}
