// Package xxh provides the streaming XXH64 checksum used as the optional
// frame integrity trailer (§4.7, §6).
package xxh

import "github.com/cespare/xxhash/v2"

// Digest is a streaming XXH64 accumulator. The zero value is ready to use
// with seed 0.
type Digest struct {
	d *xxhash.Digest
}

// New creates a Digest seeded with 0, matching the seed the frame trailer
// is defined against.
func New() *Digest {
	return &Digest{d: xxhash.New()}
}

// Write adds p to the running checksum. It never returns an error.
func (h *Digest) Write(p []byte) (n int, err error) {
	if h.d == nil {
		h.d = xxhash.New()
	}
	return h.d.Write(p)
}

// Sum64 returns the current 64-bit checksum without resetting state.
func (h *Digest) Sum64() uint64 {
	if h.d == nil {
		return xxhash.New().Sum64()
	}
	return h.d.Sum64()
}

// Reset clears the accumulator back to its initial state.
func (h *Digest) Reset() {
	if h.d == nil {
		h.d = xxhash.New()
		return
	}
	h.d.Reset()
}

// Checksum computes the XXH64 digest of data in one call, for the common
// case of hashing a full in-memory frame.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// AppendTrailer appends the little-endian 8-byte encoding of sum to dst, as
// required by the frame's optional integrity trailer.
func AppendTrailer(dst []byte, sum uint64) []byte {
	return append(dst,
		byte(sum), byte(sum>>8), byte(sum>>16), byte(sum>>24),
		byte(sum>>32), byte(sum>>40), byte(sum>>48), byte(sum>>56))
}
