package probmodel

// RefreshInterval is how many emitted operations elapse between
// refreshes of a PriceTable, per §4.2: "refreshed periodically (every
// 4096 operations)".
const RefreshInterval = 4096

// PriceTable caches per-distance-slot and per-length prices so choosing
// between a literal, a rep match and a fresh match at a position doesn't
// walk every probability tree bit-by-bit for each candidate. Every
// strategy builds and consults one: Fast uses it for a single greedy
// comparison per position, Normal and Best additionally use it to compare
// the current position's best choice against a bounded lookahead of
// future positions (§4.4).
type PriceTable struct {
	s *State

	opsSinceRefresh int

	// slotPrice[lenState][slot] is the price of the posSlot tree symbol
	// alone (without the direct/aligned tail, which is cheap to add
	// directly since it rarely changes as fast as the tree probabilities).
	slotPrice [lenStates][1 << posSlotBits]uint32

	// lenPrice[posState][l] for l in [0, MaxMatchLen-MinMatchLen].
	lenPrice    [numPosStates][MaxMatchLen - MinMatchLen + 1]uint32
	repLenPrice [numPosStates][MaxMatchLen - MinMatchLen + 1]uint32
}

// NewPriceTable creates a price table bound to s and performs an initial
// fill.
func NewPriceTable(s *State) *PriceTable {
	pt := &PriceTable{s: s}
	pt.Refresh()
	return pt
}

// Refresh recomputes every cached price from the current probabilities in
// the bound State and resets the operation counter.
func (pt *PriceTable) Refresh() {
	pt.opsSinceRefresh = 0
	for ls := 0; ls < lenStates; ls++ {
		for slot := uint32(0); slot < 1<<posSlotBits; slot++ {
			pt.slotPrice[ls][slot] = pt.s.dist.posSlot[ls].Price(slot)
		}
	}
	for ps := 0; ps < numPosStates; ps++ {
		for l := uint32(0); l <= MaxMatchLen-MinMatchLen; l++ {
			pt.lenPrice[ps][l] = pt.s.len.Price(l, uint32(ps))
			pt.repLenPrice[ps][l] = pt.s.repLen.Price(l, uint32(ps))
		}
	}
}

// Tick accounts for one more emitted operation and refreshes the table
// when RefreshInterval operations have elapsed since the last refresh.
func (pt *PriceTable) Tick() {
	pt.opsSinceRefresh++
	if pt.opsSinceRefresh >= RefreshInterval {
		pt.Refresh()
	}
}

// LengthPrice returns the cached price of a normal-match length offset l
// (length - MinMatchLen) at posState.
func (pt *PriceTable) LengthPrice(l, posState uint32) uint32 {
	return pt.lenPrice[posState][l]
}

// RepLengthPrice returns the cached price of a rep-match length offset l
// at posState.
func (pt *PriceTable) RepLengthPrice(l, posState uint32) uint32 {
	return pt.repLenPrice[posState][l]
}

// DistPrice returns the price of coding distance dist for a match of
// length offset l, combining the cached posSlot price with the live tail
// price (posModel/direct/align bits).
func (pt *PriceTable) DistPrice(dist, l uint32) uint32 {
	slot, n := distSlot(dist)
	price := pt.slotPrice[lenState(l)][slot]
	switch {
	case slot < startPosModel:
		return price
	case slot < endPosModel:
		return price + pt.s.dist.posModel[slot-startPosModel].Price(dist)
	}
	dic := directCodec(n - alignBits)
	return price + dic.Price() + pt.s.dist.align.Price(dist)
}
