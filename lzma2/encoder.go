package lzma2

import (
	"bytes"
	"io"

	"github.com/shunpeizhang/fast-lzma2/probmodel"
	"github.com/shunpeizhang/fast-lzma2/radix"
	"github.com/shunpeizhang/fast-lzma2/rc"
)

// iverson returns 1 if f holds, 0 otherwise; used the way the reference
// LZMA bit grammar picks context selectors from booleans.
func iverson(f bool) uint32 {
	if f {
		return 1
	}
	return 0
}

// Encoder turns one slice of a dictionary block into a sequence of LZMA2
// chunks. Its State starts fresh and it only ever reads data in [0, end),
// which (together with state-reset-only chunks) is what lets several
// Encoders share one block's data and RMF table and run concurrently,
// each owning a disjoint [start, end) range (§4.4 "Parallel block
// encoding").
type Encoder struct {
	data []byte
	rmf  *radix.Table
	st   *probmodel.State
	prob *probmodel.PriceTable

	pos              int
	end              int
	first            bool
	resetDictOnFirst bool
	forceStateReset  bool
	wroteProps       bool // a packed chunk carrying properties has been written

	// lookahead bounds how many consecutive positions encodeOp may defer
	// a match at before forcing a commit, implementing the bounded
	// K-position lookahead parser Strategy Normal/Best select (§4.4).
	// Zero (Strategy Fast) disables lookahead: every position commits the
	// single best choice found at that position alone.
	lookahead int
	deferred  int

	matches []radix.Match
	scratch []uint32
}

// NewEncoder creates an Encoder for the whole of data: its first chunk
// resets the dictionary and its first compressed chunk installs fresh
// state and properties, so the returned chunk sequence is independently
// decodable. Use NewBlockEncoder/BlockEncoder.Slice
// instead to split one block across several Encoders that share a single
// RMF table.
func NewEncoder(data []byte, props Properties, rmfCfg radix.Config) (*Encoder, error) {
	if err := verifyProperties(props.LC, props.LP, props.PB); err != nil {
		return nil, err
	}
	rmf := radix.New(rmfCfg)
	if err := rmf.Build(data); err != nil {
		return nil, err
	}
	return newEncoder(data, rmf, props, 0, len(data), true), nil
}

func newEncoder(data []byte, rmf *radix.Table, props Properties, start, end int, resetDictOnFirst bool) *Encoder {
	st := probmodel.New(props.LC, props.LP, props.PB)
	return &Encoder{
		data:             data,
		rmf:              rmf,
		st:               st,
		prob:             probmodel.NewPriceTable(st),
		pos:              start,
		end:              end,
		first:            true,
		resetDictOnFirst: resetDictOnFirst,
	}
}

// SetLookahead enables the bounded K-position lazy-matching lookahead
// Strategy Normal/Best use (§4.4's FastLength-sized horizon); k == 0
// reverts to Strategy Fast's single-position greedy choice.
func (e *Encoder) SetLookahead(k int) { e.lookahead = k }

// BlockEncoder builds one block's RMF index once and hands out Encoders
// over disjoint slices of it, so that the slices can be encoded
// concurrently against the same read-only table (§2 "Parallelism: one
// dictionary block is split into N worker slices; each slice computes
// matches within the same RMF index (read-only)", §5 "the RMF index is
// read-only during encoding and is the only shared structure between
// workers"). Table.Build never runs again after NewBlockEncoder returns,
// and radix.Table.FindMatches takes no Table-owned mutable state, so any
// number of Slice-returned Encoders may run on separate goroutines.
type BlockEncoder struct {
	data  []byte
	rmf   *radix.Table
	props Properties
}

// NewBlockEncoder builds the RMF index for data once.
func NewBlockEncoder(data []byte, props Properties, rmfCfg radix.Config) (*BlockEncoder, error) {
	if err := verifyProperties(props.LC, props.LP, props.PB); err != nil {
		return nil, err
	}
	rmf := radix.New(rmfCfg)
	if err := rmf.Build(data); err != nil {
		return nil, err
	}
	return &BlockEncoder{data: data, rmf: rmf, props: props}, nil
}

// Slice returns an Encoder covering data[start:end). Only the slice
// starting at 0 resets the dictionary on its first chunk; every slice's
// first chunk still resets LZMA state, because each Encoder starts from a
// fresh probmodel.State (§4.3: dictionary-reset and state-reset are
// independent, which is exactly what lets later slices keep coding match
// distances into bytes an earlier slice already placed in the dictionary
// while still decoding with their own clean probability model).
func (b *BlockEncoder) Slice(start, end, lookahead int) *Encoder {
	e := newEncoder(b.data, b.rmf, b.props, start, end, start == 0)
	e.lookahead = lookahead
	return e
}

// EncodeAll writes the full chunk sequence for the Encoder's range to w.
// It does not write the final end-of-stream control byte; callers
// composing several blocks or slices into one frame write that once,
// after the last one.
func (e *Encoder) EncodeAll(w io.Writer) error {
	for e.pos < e.end {
		if err := e.encodeChunk(w); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) byteAt(dist uint32) byte {
	i := e.pos - int(dist) - 1
	if i < 0 {
		return 0
	}
	return e.data[i]
}

// encodeChunk emits one chunk starting at e.pos: either a packed
// (compressed) chunk or, when compression would not shrink the data, an
// uncompressed copy chunk (§4.5).
func (e *Encoder) encodeChunk(w io.Writer) error {
	start := e.pos
	limit := start + maxUnpackedSize
	if limit > e.end {
		limit = e.end
	}

	resetState := e.forceStateReset
	if resetState {
		e.st.Reset()
		e.forceStateReset = false
	}

	// Snapshot the model before attempting compression, so a rejected
	// attempt (because it expanded the data) can be undone without
	// disturbing e.pos or any probability the real chunk that replaces it
	// will go on to use.
	snapshot := e.st.Clone()

	var buf bytes.Buffer
	re := rc.NewEncoder(&buf)

	// Packed chunks are capped at maxPackedSize bytes; stop appending
	// operations once the running compressed size gets close enough to
	// that cap that one more operation could overflow it, and let the
	// remaining bytes of this unpacked range start a fresh chunk.
	const packedSafety = 32
	for e.pos < limit && buf.Len() < maxPackedSize-packedSafety {
		if err := e.encodeOp(re, limit); err != nil {
			return err
		}
	}
	if err := re.Flush(); err != nil {
		return err
	}

	unpackedSize := int64(e.pos - start)
	packed := buf.Bytes()

	if int64(len(packed)) >= unpackedSize {
		// Compression did not pay off for this stretch: undo the attempt
		// and emit the bytes verbatim instead. An uncompressed chunk's
		// header has a 16-bit size field, so it carries at most 1<<16
		// bytes; the next call starts a new attempt after them.
		const maxCopySize = 1 << 16
		end := e.pos
		if end-start > maxCopySize {
			end = start + maxCopySize
		}
		e.pos = start
		*e.st = *snapshot
		return e.writeUncompressedChunk(w, e.data[start:end])
	}

	ctrl := control(packedCtrl)
	switch {
	case e.first && e.resetDictOnFirst:
		ctrl = packedResetDictCtrl
	case !e.wroteProps:
		// No earlier chunk of this Encoder installed properties (any
		// before this one were uncompressed), so this one must.
		ctrl = packedNewPropsCtrl
	case e.first, resetState:
		ctrl = packedResetStateCtrl
	}
	h := chunkHeader{
		control:      ctrl,
		unpackedSize: unpackedSize,
		packedSize:   int64(len(packed)),
		props:        Properties{LC: e.st.LC, LP: e.st.LP, PB: e.st.PB},
	}
	if _, err := writeChunkHeader(w, h); err != nil {
		return err
	}
	if _, err := w.Write(packed); err != nil {
		return err
	}
	e.first = false
	e.wroteProps = true
	return nil
}

func (e *Encoder) writeUncompressedChunk(w io.Writer, p []byte) error {
	ctrl := copyCtrl
	if e.first && e.resetDictOnFirst {
		ctrl = copyResetDictCtrl
	}
	h := chunkHeader{control: ctrl, unpackedSize: int64(len(p))}
	if _, err := writeChunkHeader(w, h); err != nil {
		return err
	}
	_, err := w.Write(p)
	e.first = false
	e.pos += len(p)
	// The LZMA operation-history state is undefined across an
	// uncompressed chunk, so the next packed chunk must reset it; the
	// dictionary content is untouched since the block's bytes are already
	// all present in e.data regardless of how they were chunked.
	e.forceStateReset = true
	return err
}

// encodeOp chooses and emits a single literal or match operation at e.pos,
// never reading past limit.
//
// With e.lookahead == 0 (Strategy Fast) it always commits the single best
// choice found at pos. With e.lookahead > 0 (Strategy Normal/Best) it
// implements bounded K-position lazy matching, generalizing zlib's
// deflate_slow one-step lookahead to K steps (§4.4 "a multi-step optimal
// parser [that] explores up to K future positions"): if pos has a match
// but pos+1 has a strictly longer one, defer by coding a literal at pos
// instead and letting the next call re-evaluate from pos+1, up to
// e.lookahead consecutive deferrals before forcing a commit so encoding
// always makes progress.
func (e *Encoder) encodeOp(re *rc.Encoder, limit int) error {
	e.prob.Tick()
	pos := e.pos
	state, state2, posState := e.st.Contexts(int64(pos))

	best := e.bestMatch(pos, limit, state, state2, posState)
	if best.length == 0 {
		e.deferred = 0
		return e.writeLiteral(re, state2, pos)
	}
	if e.lookahead > 0 && e.deferred < e.lookahead && pos+1 < limit {
		nextState, nextState2, nextPosState := e.st.Contexts(int64(pos + 1))
		next := e.bestMatch(pos+1, limit, nextState, nextState2, nextPosState)
		if next.length > best.length {
			e.deferred++
			return e.writeLiteral(re, state2, pos)
		}
	}
	e.deferred = 0
	return e.writeMatch(re, state, state2, posState, best.dist, best.length)
}

type candidate struct {
	dist   uint32 // coded distance, i.e. (byte offset - 1)
	length uint32
	price  uint32
	repIdx int // -1 for a fresh distance
}

// bestMatch evaluates the rep distances and the RMF's fresh-distance
// candidates and returns the cheapest one, or a zero-length candidate if
// none beats coding a literal. This is a single-position greedy choice
// rather than a full forward-looking optimal parse.
func (e *Encoder) bestMatch(pos, limit int, state, state2, posState uint32) candidate {
	data := e.data
	maxLen := uint32(limit - pos)
	if maxLen > radix.MaxMatchLen {
		maxLen = radix.MaxMatchLen
	}
	var best candidate
	best.repIdx = -1
	have := false
	consider := func(c candidate) {
		if !have || c.price < best.price {
			best, have = c, true
		}
	}

	for i, repDist := range e.st.Rep {
		l := matchLenAt(data, pos, int(repDist)+1, int(maxLen))
		if l == 0 {
			continue
		}
		if i == 0 {
			// rep[0] also supports a 1-byte short-rep, which a fresh
			// match or other rep distance cannot represent.
			consider(candidate{dist: repDist, length: 1, price: e.priceRep(0, 1, state, state2, posState), repIdx: 0})
		}
		if l < probmodel.MinMatchLen {
			continue
		}
		consider(candidate{dist: repDist, length: l, price: e.priceRep(i, l, state, state2, posState), repIdx: i})
	}

	e.matches, e.scratch = e.rmf.FindMatches(pos, e.matches, e.scratch)
	for _, m := range e.matches {
		l := m.Length
		if l > maxLen {
			l = maxLen
		}
		if l < probmodel.MinMatchLen {
			continue
		}
		dist := m.Distance - 1
		consider(candidate{dist: dist, length: l, price: e.priceFresh(dist, l, state, state2, posState), repIdx: -1})
	}

	if !have {
		return candidate{}
	}
	if e.priceLiteral(uint32(pos), state2) <= best.price {
		return candidate{}
	}
	return best
}

func matchLenAt(data []byte, pos, dist, maxLen int) uint32 {
	src := pos - dist
	if src < 0 {
		return 0
	}
	var l uint32
	for int(l) < maxLen && data[src+int(l)] == data[pos+int(l)] {
		l++
	}
	return l
}

func (e *Encoder) priceLiteral(pos, state2 uint32) uint32 {
	var prev byte
	if pos > 0 {
		prev = e.data[pos-1]
	}
	litState := e.st.LitState(prev, int64(pos))
	matchByte := e.byteAt(e.st.Rep[0])
	price := rc.BitPrice(*e.st.IsMatch(state2), 0)
	return price + e.st.Lit().Price(e.data[pos], e.st.St, matchByte, litState)
}

func (e *Encoder) priceFresh(dist, l, state, state2, posState uint32) uint32 {
	n := l - probmodel.MinMatchLen
	price := rc.BitPrice(*e.st.IsMatch(state2), 1)
	price += rc.BitPrice(*e.st.IsRep(state), 0)
	price += e.st.Len().Price(n, posState)
	price += e.prob.DistPrice(dist, n)
	return price
}

// priceRep mirrors the isRep/isRepG0/isRepG1/isRepG2/isRepG0Long bit
// sequence writeMatch actually emits for rep distance index repIdx, so the
// two must be kept in sync.
func (e *Encoder) priceRep(repIdx int, l, state, state2, posState uint32) uint32 {
	price := rc.BitPrice(*e.st.IsMatch(state2), 1)
	price += rc.BitPrice(*e.st.IsRep(state), 1)
	if repIdx == 0 {
		price += rc.BitPrice(*e.st.IsRepG0(state), 0)
		if l == 1 {
			return price + rc.BitPrice(*e.st.IsRepG0Long(state2), 0)
		}
		price += rc.BitPrice(*e.st.IsRepG0Long(state2), 1)
		return price + e.st.RepLen().Price(l-probmodel.MinMatchLen, posState)
	}
	price += rc.BitPrice(*e.st.IsRepG0(state), 1)
	if repIdx == 1 {
		price += rc.BitPrice(*e.st.IsRepG1(state), 0)
	} else {
		price += rc.BitPrice(*e.st.IsRepG1(state), 1)
		if repIdx == 2 {
			price += rc.BitPrice(*e.st.IsRepG2(state), 0)
		} else {
			price += rc.BitPrice(*e.st.IsRepG2(state), 1)
		}
	}
	return price + e.st.RepLen().Price(l-probmodel.MinMatchLen, posState)
}

func (e *Encoder) writeLiteral(re *rc.Encoder, state2 uint32, pos int) error {
	if err := re.EncodeBit(0, e.st.IsMatch(state2)); err != nil {
		return err
	}
	var prev byte
	if pos > 0 {
		prev = e.data[pos-1]
	}
	litState := e.st.LitState(prev, int64(pos))
	matchByte := e.byteAt(e.st.Rep[0])
	if err := e.st.Lit().Encode(re, e.data[pos], e.st.St, matchByte, litState); err != nil {
		return err
	}
	e.st.UpdateLiteral()
	e.pos++
	return nil
}

func (e *Encoder) writeMatch(re *rc.Encoder, state, state2, posState, dist, length uint32) error {
	if err := re.EncodeBit(1, e.st.IsMatch(state2)); err != nil {
		return err
	}
	g := 4
	for i, r := range e.st.Rep {
		if r == dist {
			g = i
			break
		}
	}
	if err := re.EncodeBit(rc.Bit(iverson(g < 4)), e.st.IsRep(state)); err != nil {
		return err
	}
	n := length - probmodel.MinMatchLen
	if g == 4 {
		e.st.Rep[3], e.st.Rep[2], e.st.Rep[1], e.st.Rep[0] =
			e.st.Rep[2], e.st.Rep[1], e.st.Rep[0], dist
		e.st.UpdateMatch()
		if err := e.st.Len().Encode(re, n, posState); err != nil {
			return err
		}
		if err := e.st.Dist().Encode(re, dist, n); err != nil {
			return err
		}
		e.pos += int(length)
		return nil
	}

	if err := re.EncodeBit(rc.Bit(iverson(g != 0)), e.st.IsRepG0(state)); err != nil {
		return err
	}
	if g == 0 {
		shortRep := rc.Bit(iverson(length != 1))
		if err := re.EncodeBit(shortRep, e.st.IsRepG0Long(state2)); err != nil {
			return err
		}
		if shortRep == 0 {
			e.st.UpdateShortRep()
			e.pos++
			return nil
		}
	} else {
		b1 := rc.Bit(iverson(g != 1))
		if err := re.EncodeBit(b1, e.st.IsRepG1(state)); err != nil {
			return err
		}
		if b1 == 1 {
			b2 := rc.Bit(iverson(g != 2))
			if err := re.EncodeBit(b2, e.st.IsRepG2(state)); err != nil {
				return err
			}
			if b2 == 1 {
				e.st.Rep[3] = e.st.Rep[2]
			}
			e.st.Rep[2] = e.st.Rep[1]
		}
		e.st.Rep[1] = e.st.Rep[0]
		e.st.Rep[0] = dist
	}
	e.st.UpdateRep()
	if err := e.st.RepLen().Encode(re, n, posState); err != nil {
		return err
	}
	e.pos += int(length)
	return nil
}
