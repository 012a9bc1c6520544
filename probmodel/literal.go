package probmodel

import "github.com/shunpeizhang/fast-lzma2/rc"

// LC/LP range limits, per the LZMA2 header (§6: pb*9*5 + lp*9 + lc).
const (
	MinLC, MaxLC = 0, 4
	MinLP, MaxLP = 0, 4
	MinPB, MaxPB = 0, 4
)

// literalCodec holds 0x300 probabilities per literal-context bucket. The
// upper two thirds of each bucket are only used when coding a literal that
// follows a match (state >= 7), where the model is biased towards the byte
// at the most recent match distance.
type literalCodec struct {
	probs []rc.Prob
	lc, lp int
}

func newLiteralCodec(lc, lp int) *literalCodec {
	c := &literalCodec{lc: lc, lp: lp, probs: make([]rc.Prob, 0x300<<uint(lc+lp))}
	c.reset()
	return c
}

func (c *literalCodec) reset() {
	for i := range c.probs {
		c.probs[i] = rc.ProbInit
	}
}

func (c *literalCodec) bucket(litState uint32) []rc.Prob {
	k := litState * 0x300
	return c.probs[k : k+0x300]
}

// Encode encodes byte s. matchByte is the byte at the current rep[0]
// distance (ignored when state < 7); litState packs the high lc bits of
// the previous byte with the low lp bits of the position.
func (c *literalCodec) Encode(e *rc.Encoder, s byte, state uint32, matchByte byte, litState uint32) error {
	probs := c.bucket(litState)
	symbol := uint32(1)
	r := uint32(s)
	if state >= 7 {
		m := uint32(matchByte)
		for {
			matchBit := (m >> 7) & 1
			m <<= 1
			bit := (r >> 7) & 1
			r <<= 1
			i := ((1 + matchBit) << 8) | symbol
			if err := e.EncodeBit(rc.Bit(bit), &probs[i]); err != nil {
				return err
			}
			symbol = (symbol << 1) | bit
			if matchBit != bit || symbol >= 0x100 {
				break
			}
		}
	}
	for symbol < 0x100 {
		bit := (r >> 7) & 1
		r <<= 1
		if err := e.EncodeBit(rc.Bit(bit), &probs[symbol]); err != nil {
			return err
		}
		symbol = (symbol << 1) | bit
	}
	return nil
}

func (c *literalCodec) Decode(d *rc.Decoder, state uint32, matchByte byte, litState uint32) (byte, error) {
	probs := c.bucket(litState)
	symbol := uint32(1)
	if state >= 7 {
		m := uint32(matchByte)
		for {
			matchBit := (m >> 7) & 1
			m <<= 1
			i := ((1 + matchBit) << 8) | symbol
			bit, err := d.DecodeBit(&probs[i])
			if err != nil {
				return 0, err
			}
			symbol = (symbol << 1) | uint32(bit)
			if matchBit != uint32(bit) || symbol >= 0x100 {
				break
			}
		}
	}
	for symbol < 0x100 {
		bit, err := d.DecodeBit(&probs[symbol])
		if err != nil {
			return 0, err
		}
		symbol = (symbol << 1) | uint32(bit)
	}
	return byte(symbol - 0x100), nil
}

// Price estimates the coding cost of byte s without mutating the model,
// used by the optimal parser to compare literal-vs-match paths.
func (c *literalCodec) Price(s byte, state uint32, matchByte byte, litState uint32) uint32 {
	probs := c.bucket(litState)
	var price uint32
	symbol := uint32(1)
	r := uint32(s)
	if state >= 7 {
		m := uint32(matchByte)
		for {
			matchBit := (m >> 7) & 1
			m <<= 1
			bit := rc.Bit((r >> 7) & 1)
			r <<= 1
			i := ((1 + matchBit) << 8) | symbol
			price += rc.BitPrice(probs[i], bit)
			symbol = (symbol << 1) | uint32(bit)
			if matchBit != uint32(bit) || symbol >= 0x100 {
				break
			}
		}
	}
	for symbol < 0x100 {
		bit := rc.Bit((r >> 7) & 1)
		r <<= 1
		price += rc.BitPrice(probs[symbol], bit)
		symbol = (symbol << 1) | uint32(bit)
	}
	return price
}
