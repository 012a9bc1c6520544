package rc

// priceShiftBits and moveReducingBits follow the usual LZMA SDK encoder
// constants: the probability-to-price table trades moveReducingBits of
// precision in the probability for a table indexed by ProbBits-moveReducingBits
// bits, with prices expressed in priceShiftBits fractional bits of a
// -log2() bit cost.
const (
	priceShiftBits   = 4
	moveReducingBits = 4
	bitPriceTableSize = 1 << (ProbBits - moveReducingBits)
)

// bitPrices holds a precomputed approximation of
//
//	-log2(p/2^ProbBits) * 2^priceShiftBits
//
// for the probability that the bit matching this entry's index occurred,
// indexed by (prob >> moveReducingBits). It is filled once by init and
// never changes; the thing that changes over time is which Prob values the
// encoder looks up in it (see Prob.Price).
var bitPrices [bitPriceTableSize]uint32

func init() {
	for i := 0; i < bitPriceTableSize; i++ {
		w := uint32(i<<moveReducingBits) + (1 << (moveReducingBits - 1))
		bitPrices[i] = bitPrice(w)
	}
}

// bitPrice approximates -log2(w/2^ProbBits) in priceShiftBits fractional
// bits using repeated squaring, the same technique the reference LZMA SDK
// uses to avoid floating point in the encoder's hot path.
func bitPrice(w uint32) uint32 {
	const modelTotalBits = ProbBits
	var bitCount uint32
	for i := 0; i < priceShiftBits; i++ {
		w = w * w
		bitCount <<= 1
		for w >= 1<<16 {
			w >>= 1
			bitCount++
		}
	}
	return uint32(modelTotalBits<<priceShiftBits) - 15 - bitCount
}

// Price returns the bit-price (in 1/16th-bit units) of encoding a 0 bit
// against probability p. The price of a 1 bit is Price() of the
// complementary probability, (1<<ProbBits)-p.
func (p Prob) Price() uint32 {
	return bitPrices[p>>moveReducingBits]
}

// BitPrice returns the price of encoding bit against probability p,
// without mutating p. Encoders use this during optimal parsing to
// evaluate candidate paths before committing to one with EncodeBit.
func BitPrice(p Prob, bit Bit) uint32 {
	if bit.Test() {
		return Prob(1<<ProbBits - uint32(p)).Price()
	}
	return p.Price()
}

// DirectPrice is the fixed price of a direct-coded bit: exactly one bit,
// i.e. 1<<priceShiftBits in the fractional-bit price units used here.
const DirectPrice = 1 << priceShiftBits
