package rc

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestBitRoundTrip(t *testing.T) {
	bits := make([]Bit, 0, 4096)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 4096; i++ {
		bits = append(bits, Bit(rng.Intn(2)))
	}

	var buf bytes.Buffer
	probsEnc := make([]Prob, 8)
	for i := range probsEnc {
		probsEnc[i] = ProbInit
	}
	enc := NewEncoder(&buf)
	for i, b := range bits {
		if err := enc.EncodeBit(b, &probsEnc[i%len(probsEnc)]); err != nil {
			t.Fatalf("EncodeBit: %v", err)
		}
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	probsDec := make([]Prob, 8)
	for i := range probsDec {
		probsDec[i] = ProbInit
	}
	dec := NewDecoder(nil)
	if err := dec.Init(&buf); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for i, want := range bits {
		got, err := dec.DecodeBit(&probsDec[i%len(probsDec)])
		if err != nil {
			t.Fatalf("DecodeBit(%d): %v", i, err)
		}
		if got != want {
			t.Fatalf("bit %d: got %v want %v", i, got, want)
		}
	}
}

func TestDirectRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 2, 17, 255, 1<<20 - 1}
	nBits := 20

	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, v := range values {
		if err := enc.EncodeDirect(v, nBits); err != nil {
			t.Fatalf("EncodeDirect: %v", err)
		}
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	dec := NewDecoder(nil)
	if err := dec.Init(&buf); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for i, want := range values {
		got, err := dec.DecodeDirect(nBits)
		if err != nil {
			t.Fatalf("DecodeDirect(%d): %v", i, err)
		}
		if got != want {
			t.Fatalf("value %d: got %d want %d", i, got, want)
		}
	}
}

func TestPriceMonotonic(t *testing.T) {
	// Higher probability of a 0 bit must yield a lower price for encoding
	// a 0 bit, and a higher price for encoding a 1 bit.
	lo := Prob(1 << (ProbBits - 2))
	hi := Prob((1 << ProbBits) - (1 << (ProbBits - 2)))
	if lo.Price() <= hi.Price() {
		t.Fatalf("expected low-probability Price to exceed high-probability Price: %d vs %d", lo.Price(), hi.Price())
	}
	if BitPrice(lo, 1) >= BitPrice(hi, 1) {
		t.Fatalf("expected high-probability 1-bit price to exceed low-probability 1-bit price: %d vs %d", BitPrice(hi, 1), BitPrice(lo, 1))
	}
}
