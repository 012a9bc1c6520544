package probmodel

import (
	"math/bits"

	"github.com/shunpeizhang/fast-lzma2/rc"
)

// Distance-slot layout, identical to the classic LZMA distance codec: the
// first 4 slots are literal distances 0..3, slots 4..13 add a small
// per-slot context-modeled tail, and slots 14..63 add direct bits plus 4
// aligned bits (§4.2: "selects a distance slot (6 bits), direct bits for
// mid-range, and 4 aligned bits at the tail").
const (
	lenStates     = 4
	startPosModel = 4
	endPosModel   = 14
	posSlotBits   = 6
	alignBits     = 4
)

type distCodec struct {
	posSlot  [lenStates]treeCodec
	posModel [endPosModel - startPosModel]treeReverseCodec
	align    treeReverseCodec
}

func newDistCodec() *distCodec {
	dc := &distCodec{align: makeTreeReverseCodec(alignBits)}
	for i := range dc.posSlot {
		dc.posSlot[i] = makeTreeCodec(posSlotBits)
	}
	for i := range dc.posModel {
		slot := startPosModel + i
		nbits := (slot >> 1) - 1
		dc.posModel[i] = makeTreeReverseCodec(nbits)
	}
	dc.reset()
	return dc
}

func (dc *distCodec) reset() {
	for i := range dc.posSlot {
		dc.posSlot[i].reset()
	}
	for i := range dc.posModel {
		dc.posModel[i].reset()
	}
	dc.align.reset()
}

// lenState clamps a length offset into the 4 length-state buckets used to
// pick the posSlot tree.
func lenState(l uint32) uint32 {
	if l >= lenStates {
		return lenStates - 1
	}
	return l
}

func distSlot(dist uint32) (slot, footerBits uint32) {
	if dist < startPosModel {
		return dist, 0
	}
	n := uint32(31 - bits.LeadingZeros32(dist))
	slot = (n << 1) + ((dist >> (n - 1)) & 1)
	return slot, n - 1
}

func (dc *distCodec) Encode(e *rc.Encoder, dist, l uint32) error {
	slot, n := distSlot(dist)
	if err := dc.posSlot[lenState(l)].Encode(e, slot); err != nil {
		return err
	}
	switch {
	case slot < startPosModel:
		return nil
	case slot < endPosModel:
		return dc.posModel[slot-startPosModel].Encode(e, dist)
	}
	dic := directCodec(n - alignBits)
	if err := dic.Encode(e, dist>>alignBits); err != nil {
		return err
	}
	return dc.align.Encode(e, dist)
}

func (dc *distCodec) Decode(d *rc.Decoder, l uint32) (dist uint32, err error) {
	slot, err := dc.posSlot[lenState(l)].Decode(d)
	if err != nil {
		return 0, err
	}
	if slot < startPosModel {
		return slot, nil
	}
	n := (slot >> 1) - 1
	dist = (2 | (slot & 1)) << n
	if slot < endPosModel {
		u, err := dc.posModel[slot-startPosModel].Decode(d)
		if err != nil {
			return 0, err
		}
		return dist + u, nil
	}
	dic := directCodec(n - alignBits)
	u, err := dic.Decode(d)
	if err != nil {
		return 0, err
	}
	dist += u << alignBits
	u, err = dc.align.Decode(d)
	if err != nil {
		return 0, err
	}
	return dist + u, nil
}

func (dc *distCodec) Price(dist, l uint32) uint32 {
	slot, n := distSlot(dist)
	price := dc.posSlot[lenState(l)].Price(slot)
	switch {
	case slot < startPosModel:
		return price
	case slot < endPosModel:
		return price + dc.posModel[slot-startPosModel].Price(dist)
	}
	dic := directCodec(n - alignBits)
	return price + dic.Price() + dc.align.Price(dist)
}
