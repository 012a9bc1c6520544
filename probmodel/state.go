package probmodel

import "github.com/shunpeizhang/fast-lzma2/rc"

// NumStates is the number of values the LZMA operation-history state can
// take (§4.2: "The state is one of 12").
const NumStates = 12

// repProbs holds the per-state probabilities that gate whether an
// emitted match is a fresh distance or one of the four "rep" distances,
// and which of those it is.
type repProbs struct {
	isRep   rc.Prob
	isRepG0 rc.Prob
	isRepG1 rc.Prob
	isRepG2 rc.Prob
}

// matchProbs holds the per-(state,posState) probabilities gating whether
// the next operation is a literal or a match, and whether a rep-g0 match
// is a short-rep (length 1).
type matchProbs struct {
	isMatch     rc.Prob
	isRepG0Long rc.Prob
}

// State is the complete adaptive probability model for one LZMA2
// compressed chunk lineage: the 12-value operation-history state, the
// four most recent match distances ("rep distances"), and every
// probability counter used by the literal/length/distance codecs.
//
// A fresh State is produced on a chunk that resets state (and properties);
// a State surviving across chunks is what the "keep state" continuation
// flag in the LZMA2 chunk header (§6) refers to.
type State struct {
	LC, LP, PB int

	s1 [NumStates]repProbs
	s2 [NumStates << maxPosBits]matchProbs

	lit    *literalCodec
	len    *lengthCodec
	repLen *lengthCodec
	dist   *distCodec

	Rep   [4]uint32
	St    uint32
	posMask uint32
}

// New creates a State with the given literal-context/literal-position/
// position-bit counts, already reset to its initial probabilities.
func New(lc, lp, pb int) *State {
	s := &State{LC: lc, LP: lp, PB: pb}
	s.lit = newLiteralCodec(lc, lp)
	s.len = newLengthCodec()
	s.repLen = newLengthCodec()
	s.dist = newDistCodec()
	s.Reset()
	return s
}

// Reset reinitializes every probability counter to ProbInit, the
// operation-history state to 0, and the rep-distance history to zero.
// This is what a "reset everything" or "reset state" LZMA2 chunk header
// triggers.
func (s *State) Reset() {
	for i := range s.s1 {
		s.s1[i] = repProbs{rc.ProbInit, rc.ProbInit, rc.ProbInit, rc.ProbInit}
	}
	for i := range s.s2 {
		s.s2[i] = matchProbs{rc.ProbInit, rc.ProbInit}
	}
	s.lit.reset()
	s.len.reset()
	s.repLen.reset()
	s.dist.reset()
	s.Rep = [4]uint32{}
	s.St = 0
	s.posMask = (1 << uint(s.PB)) - 1
}

// ResetProperties recreates the literal codec (whose table is sized by
// LC+LP) for new lc/lp/pb values and then fully resets the state. This is
// what a "new properties" LZMA2 chunk header triggers.
func (s *State) ResetProperties(lc, lp, pb int) {
	s.LC, s.LP, s.PB = lc, lp, pb
	s.lit = newLiteralCodec(lc, lp)
	s.Reset()
}

// Clone returns a copy of s with its own state, Rep distances, isMatch/isRep
// tables and literal table. The length and distance codecs are copied by
// value, so the tree probability slices inside them stay shared with s.
// lzma2.Encoder uses it to snapshot the model before each chunk attempt.
func (s *State) Clone() *State {
	c := *s
	c.lit = newLiteralCodec(s.LC, s.LP)
	copy(c.lit.probs, s.lit.probs)
	cl := *s.len
	c.len = &cl
	crl := *s.repLen
	c.repLen = &crl
	cd := *s.dist
	c.dist = &cd
	return &c
}

// Contexts computes the three context selectors the codecs need at
// dictionary position pos: the raw operation-history state, the
// (state,posState) pair used to select isMatch/isRepG0Long, and the
// posState alone used by the length codecs.
func (s *State) Contexts(pos int64) (state, state2, posState uint32) {
	state = s.St
	posState = uint32(pos) & s.posMask
	state2 = (s.St << maxPosBits) | posState
	return
}

// LitState computes the literal-context index from the high LC bits of
// the previous byte and the low LP bits of the current position.
func (s *State) LitState(prev byte, pos int64) uint32 {
	return ((uint32(pos) & ((1 << uint(s.LP)) - 1)) << uint(s.LC)) |
		(uint32(prev) >> uint(8-s.LC))
}

// IsMatch returns the probability slot gating literal-vs-match at state2.
func (s *State) IsMatch(state2 uint32) *rc.Prob { return &s.s2[state2].isMatch }

// IsRep returns the probability slot gating fresh-distance-vs-rep at state.
func (s *State) IsRep(state uint32) *rc.Prob { return &s.s1[state].isRep }

// IsRepG0 returns the probability slot gating rep[0]-vs-other at state.
func (s *State) IsRepG0(state uint32) *rc.Prob { return &s.s1[state].isRepG0 }

// IsRepG1 returns the probability slot gating rep[1]-vs-{2,3} at state.
func (s *State) IsRepG1(state uint32) *rc.Prob { return &s.s1[state].isRepG1 }

// IsRepG2 returns the probability slot gating rep[2]-vs-rep[3] at state.
func (s *State) IsRepG2(state uint32) *rc.Prob { return &s.s1[state].isRepG2 }

// IsRepG0Long returns the probability slot gating short-rep-vs-longer-rep
// at state2.
func (s *State) IsRepG0Long(state2 uint32) *rc.Prob { return &s.s2[state2].isRepG0Long }

// Lit, Len, RepLen and Dist expose the sub-codecs for literal, normal
// match length, rep match length, and distance coding respectively.
func (s *State) Lit() *literalCodec { return s.lit }
func (s *State) Len() *lengthCodec     { return s.len }
func (s *State) RepLen() *lengthCodec  { return s.repLen }
func (s *State) Dist() *distCodec      { return s.dist }

// UpdateLiteral transitions the state after emitting a literal.
func (s *State) UpdateLiteral() {
	switch {
	case s.St < 4:
		s.St = 0
	case s.St < 10:
		s.St -= 3
	default:
		s.St -= 6
	}
}

// UpdateMatch transitions the state after emitting a fresh-distance match.
func (s *State) UpdateMatch() {
	if s.St < 7 {
		s.St = 7
	} else {
		s.St = 10
	}
}

// UpdateRep transitions the state after emitting a rep match (length > 1).
func (s *State) UpdateRep() {
	if s.St < 7 {
		s.St = 8
	} else {
		s.St = 11
	}
}

// UpdateShortRep transitions the state after emitting a short-rep
// (length-1 rep[0] match).
func (s *State) UpdateShortRep() {
	if s.St < 7 {
		s.St = 9
	} else {
		s.St = 11
	}
}

// IsLiteralState reports whether the state indicates the previous
// operation was a literal (state < 7), which gates whether the literal
// codec needs the match-byte context.
func (s *State) IsLiteralState() bool { return s.St < 7 }
