// Package radix implements the dictionary match finder: a per-block index
// of 2- and 3-byte prefixes chained by position, and a query operation
// that walks those chains to enumerate matches.
//
// The design follows the "arena-indexed chains rather than pointer
// graphs" note: every position is addressed by its 32-bit offset into the
// block, and all chain links live in one flat []int32 sized by the block
// length, so the structure has no pointers and no per-node allocation
// (grounded on the bucketHash/backward-hash-chain design in
// bhs.go/bucket_hash.go and hashsequencer.go of the ulikunitz-lz package).
package radix

import (
	"golang.org/x/sync/errgroup"
)

// sentinel marks "no earlier position shares this prefix".
const sentinel = -1

// Match is a single (distance, length) candidate discovered at a query
// position. Distance is always > 0 and <= the query position; Length is
// always >= MinMatchLen.
type Match struct {
	Distance uint32
	Length   uint32
}

// MinMatchLen and MaxMatchLen bound the lengths the table will report.
// MaxMatchLen matches the LZMA length-codec cap used by package probmodel.
const (
	MinMatchLen = 2
	MaxMatchLen = 273
)

// defaultHashBits sizes the coarser 3-byte hash table when Config.HashBits
// is left zero; 2^20 buckets keeps collision chains short for
// multi-megabyte blocks without the memory cost of a direct 24-bit table.
const defaultHashBits = 20

// minHashBits/maxHashBits bound Config.HashBits, which is driven directly
// by the chainLog tunable named in §4.4: too few buckets collapses every
// chain into one (table degrades to a linear scan), too many wastes
// memory on a block too small to fill it.
const (
	minHashBits = 14
	maxHashBits = 27
)

// Config carries the tunables named in §4.4 that affect match-finder
// behavior: SearchDepth caps how many chain links a query walks before
// giving up (the spec's "max-depth" parameter, default 254), HashBits
// sizes the 3-byte hash table (the spec's chainLog), and DivideAndConquer
// selects how the link-refinement pass is parallelized.
type Config struct {
	SearchDepth      int
	HashBits         int
	DivideAndConquer bool
}

// DefaultSearchDepth is the default max-depth used when Config.SearchDepth
// is zero.
const DefaultSearchDepth = 254

// ApplyDefaults fills zero-valued fields with their defaults and clamps
// HashBits into [minHashBits, maxHashBits].
func (c *Config) ApplyDefaults() {
	if c.SearchDepth <= 0 {
		c.SearchDepth = DefaultSearchDepth
	}
	if c.HashBits <= 0 {
		c.HashBits = defaultHashBits
	}
	if c.HashBits < minHashBits {
		c.HashBits = minHashBits
	}
	if c.HashBits > maxHashBits {
		c.HashBits = maxHashBits
	}
}

// Table is the per-block radix match index. It is built once per block by
// Build and is read-only for the lifetime of the block's encoding (§4.3,
// §5: "the RMF index is read-only during encoding and is the only shared
// structure between workers"): Build (and Reset, which only drops the
// data reference) are the only methods that write any field, so once
// Build returns, concurrent FindMatches calls from multiple
// goroutines - e.g. one per slice of a block split for parallel encoding
// (§4.4) - are safe as long as each caller supplies its own scratch slice.
type Table struct {
	cfg  Config
	data []byte

	head2 [1 << 16]int32
	head3 []int32

	// chain2/chain3 are arena-indexed: chain2[p] is the next older
	// position sharing data[p:p+2]'s prefix, as observed when p was
	// inserted. Because insertion runs in increasing position order,
	// chain2[p] is always < p, which is what lets FindMatches start a
	// query directly from chain2[pos] without reconsulting head2 (head2
	// may since have been overwritten by positions > pos).
	chain2 []int32
	chain3 []int32

	// lenHint[p] caches the common-prefix length between position p and
	// chain2[p], computed during the link-refinement pass, so a query
	// walking the chain can skip re-comparing bytes it already knows
	// matched during the build.
	lenHint []uint8
}

// New creates an empty Table with the given configuration. Call Build
// before querying.
func New(cfg Config) *Table {
	cfg.ApplyDefaults()
	return &Table{cfg: cfg, head3: make([]int32, 1<<cfg.HashBits)}
}

func hash3(data []byte, p int, bits uint) uint32 {
	x := uint32(data[p]) | uint32(data[p+1])<<8 | uint32(data[p+2])<<16
	// A cheap multiplicative hash, same family as the prime-multiply hash
	// used by HashSequencer.hash in the lz package.
	return (x * 2654435761) >> (32 - bits)
}

// Build indexes data (one dictionary block) for later queries. It must
// complete before any FindMatches call and must not be called again for
// the same Table until Reset.
func (t *Table) Build(data []byte) error {
	t.data = data
	n := len(data)
	for i := range t.head2 {
		t.head2[i] = sentinel
	}
	for i := range t.head3 {
		t.head3[i] = sentinel
	}
	if cap(t.chain2) < n {
		t.chain2 = make([]int32, n)
		t.chain3 = make([]int32, n)
		t.lenHint = make([]uint8, n)
	} else {
		t.chain2 = t.chain2[:n]
		t.chain3 = t.chain3[:n]
		t.lenHint = t.lenHint[:n]
	}

	// Bucketing pass: insert every position into its 2-byte and 3-byte
	// buckets. This pass is inherently sequential in position order
	// (each insertion depends on the previous head for the same prefix),
	// but the two hash tables are fully independent of each other, so
	// they build concurrently with no cross-worker writes.
	var g errgroup.Group
	g.Go(func() error {
		t.buildChain2(data, n)
		return nil
	})
	g.Go(func() error {
		t.buildChain3(data, n)
		return nil
	})
	_ = g.Wait()

	// Link-refinement pass: annotate each chain link with its common
	// prefix length, so queries can short-circuit. Positions are
	// independent of each other here (each only reads/writes its own
	// lenHint[p] and the immutable chain2), so this parallelizes cleanly.
	t.refine(0, n)
	return nil
}

func (t *Table) buildChain2(data []byte, n int) {
	limit := n - 1
	for p := 0; p < limit; p++ {
		h := uint32(data[p])<<8 | uint32(data[p+1])
		t.chain2[p] = t.head2[h]
		t.head2[h] = int32(p)
	}
}

func (t *Table) buildChain3(data []byte, n int) {
	limit := n - 2
	bits := uint(t.cfg.HashBits)
	for p := 0; p < limit; p++ {
		h := hash3(data, p, bits)
		t.chain3[p] = t.head3[h]
		t.head3[h] = int32(p)
	}
}

// refine fills lenHint for positions in [lo, hi), recursively halving the
// range across goroutines when DivideAndConquer is set, or processing it
// in one pass otherwise. Both modes write disjoint slices of lenHint, so
// they are equivalent modulo scheduling (§4.3: "Both modes must yield
// query results satisfying the same guarantees").
func (t *Table) refine(lo, hi int) {
	if !t.cfg.DivideAndConquer || hi-lo < (1<<16) {
		t.refineRange(lo, hi)
		return
	}
	mid := lo + (hi-lo)/2
	var g errgroup.Group
	g.Go(func() error { t.refine(lo, mid); return nil })
	g.Go(func() error { t.refine(mid, hi); return nil })
	_ = g.Wait()
}

func (t *Table) refineRange(lo, hi int) {
	data := t.data
	n := len(data)
	for p := lo; p < hi; p++ {
		q := t.chain2[p]
		if q < 0 {
			continue
		}
		l := commonPrefixLen(data, int(q), p, n)
		if l > 255 {
			l = 255
		}
		t.lenHint[p] = uint8(l)
	}
}

func commonPrefixLen(data []byte, a, b, n int) int {
	max := n - b
	if cap := n - a; cap < max {
		max = cap
	}
	i := 0
	for i < max && data[a+i] == data[b+i] {
		i++
	}
	return i
}

// Reset clears the table so it can be reused for a new block without
// reallocating the backing arrays.
func (t *Table) Reset() {
	t.data = nil
}
