package probmodel

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/shunpeizhang/fast-lzma2/rc"
)

func TestLiteralCodecRoundTrip(t *testing.T) {
	const lc, lp = 3, 1
	const count = 1000

	rng := rand.New(rand.NewSource(1))
	type rec struct {
		s, match byte
		state, litState uint32
	}
	recs := make([]rec, count)
	for i := range recs {
		recs[i] = rec{
			s:        byte(rng.Intn(256)),
			state:    uint32(rng.Intn(NumStates)),
			match:    byte(rng.Intn(256)),
			litState: uint32(rng.Intn(1<<lp)<<lc | rng.Intn(1<<lc)),
		}
	}

	var buf bytes.Buffer
	enc := newLiteralCodec(lc, lp)
	e := rc.NewEncoder(&buf)
	for _, r := range recs {
		if err := enc.Encode(e, r.s, r.state, r.match, r.litState); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	dec := newLiteralCodec(lc, lp)
	d := rc.NewDecoder(nil)
	if err := d.Init(&buf); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for i, r := range recs {
		got, err := dec.Decode(d, r.state, r.match, r.litState)
		if err != nil {
			t.Fatalf("Decode(%d): %v", i, err)
		}
		if got != r.s {
			t.Fatalf("Decode(%d): got %#02x want %#02x", i, got, r.s)
		}
	}
}

func TestLengthCodecRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	const count = 500
	ls := make([]uint32, count)
	ps := make([]uint32, count)
	for i := range ls {
		ls[i] = uint32(rng.Intn(MaxMatchLen - MinMatchLen + 1))
		ps[i] = uint32(rng.Intn(numPosStates))
	}

	var buf bytes.Buffer
	enc := newLengthCodec()
	e := rc.NewEncoder(&buf)
	for i := range ls {
		if err := enc.Encode(e, ls[i], ps[i]); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	dec := newLengthCodec()
	d := rc.NewDecoder(nil)
	if err := d.Init(&buf); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for i := range ls {
		got, err := dec.Decode(d, ps[i])
		if err != nil {
			t.Fatalf("Decode(%d): %v", i, err)
		}
		if got != ls[i] {
			t.Fatalf("Decode(%d): got %d want %d", i, got, ls[i])
		}
	}
}

func TestDistCodecRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const count = 500
	dists := make([]uint32, count)
	ls := make([]uint32, count)
	for i := range dists {
		dists[i] = uint32(rng.Intn(1 << 24))
		ls[i] = uint32(rng.Intn(8))
	}

	var buf bytes.Buffer
	enc := newDistCodec()
	e := rc.NewEncoder(&buf)
	for i := range dists {
		if err := enc.Encode(e, dists[i], ls[i]); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	dec := newDistCodec()
	d := rc.NewDecoder(nil)
	if err := d.Init(&buf); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for i := range dists {
		got, err := dec.Decode(d, ls[i])
		if err != nil {
			t.Fatalf("Decode(%d): %v", i, err)
		}
		if got != dists[i] {
			t.Fatalf("Decode(%d): got %d want %d", i, got, dists[i])
		}
	}
}

func TestStateTransitions(t *testing.T) {
	s := New(3, 0, 2)
	if s.St != 0 {
		t.Fatalf("initial state = %d, want 0", s.St)
	}
	s.UpdateMatch()
	if s.St != 7 {
		t.Fatalf("after UpdateMatch from 0: got %d want 7", s.St)
	}
	s.UpdateRep()
	if s.St != 11 {
		t.Fatalf("after UpdateRep from 7: got %d want 11", s.St)
	}
	s.UpdateLiteral()
	if s.St != 5 {
		t.Fatalf("after UpdateLiteral from 11: got %d want 5", s.St)
	}
}

func TestPriceTableRefresh(t *testing.T) {
	s := New(3, 0, 2)
	pt := NewPriceTable(s)
	p1 := pt.DistPrice(100, 0)
	// Drive the model so probabilities move, then force a refresh and
	// make sure the cached price actually changes.
	var buf bytes.Buffer
	e := rc.NewEncoder(&buf)
	for i := 0; i < RefreshInterval; i++ {
		_ = s.dist.Encode(e, 100, 0)
		pt.Tick()
	}
	p2 := pt.DistPrice(100, 0)
	if p1 == p2 {
		t.Fatalf("expected DistPrice to change after refresh: %d == %d", p1, p2)
	}
}
