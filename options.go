package fastlzma2

import "github.com/shunpeizhang/fast-lzma2/radix"

// Strategy selects how aggressively the encoder searches for matches
// (§4.4).
type Strategy int

const (
	StrategyFast Strategy = iota
	StrategyNormal
	StrategyBest
)

// minBufferLog is the floor bufferLog may never be decremented below
// (§9 Open Questions: "a conservative implementation should refuse with
// parameter_outOfBound" rather than silently clamping).
const minBufferLog = 16

// Options is the flat, validated configuration record every CCtx and
// CStream is built from, following WriterConfig's shape in the teacher's
// writer.go: zero-value fields mean "use the default for CompressionLevel",
// and Verify always calls ApplyDefaults first.
type Options struct {
	// CompressionLevel selects the 1..12 defaults table (§4.4); 0 means
	// "use DefaultCompressionLevel".
	CompressionLevel int

	DictionarySizeLog int // log2(D), 20..30
	OverlapFraction   int // 0..15, sixteenths of D retained between blocks

	ChainLog    int
	SearchDepth int
	FastLength  int

	LiteralCtxBits int // 0..4
	LiteralPosBits int // 0..4
	PosBits        int // 0..4

	Strategy         Strategy
	HighCompression  bool
	DivideAndConquer bool

	DoXXHash    bool
	BlockSizeLog int // log2 of the one-shot block size; defaults to DictionarySizeLog
	NbThreads   int // 0 means GOMAXPROCS

	BufferLog int // log2 of a worker's per-slice output buffer
}

// DefaultCompressionLevel matches the reference library's default (its
// level 6, the midpoint of the 1..12 scale).
const DefaultCompressionLevel = 6

const (
	minCompressionLevel = 1
	maxCompressionLevel = 12
)

type levelDefaults struct {
	dictSizeLog int
	searchDepth int
	chainLog    int
	fastLength  int
	strategy    Strategy
	high        bool
}

// levelTable mirrors "defaults come from a table indexed by compression
// level" (§9): dictionary size and search effort both grow with level,
// and the top three levels opt into the slower, more thorough strategy.
var levelTable = [maxCompressionLevel + 1]levelDefaults{
	1:  {dictSizeLog: 20, searchDepth: 16, chainLog: 16, fastLength: 64, strategy: StrategyFast},
	2:  {dictSizeLog: 21, searchDepth: 24, chainLog: 17, fastLength: 64, strategy: StrategyFast},
	3:  {dictSizeLog: 22, searchDepth: 32, chainLog: 18, fastLength: 96, strategy: StrategyFast},
	4:  {dictSizeLog: 22, searchDepth: 48, chainLog: 19, fastLength: 96, strategy: StrategyNormal},
	5:  {dictSizeLog: 23, searchDepth: 64, chainLog: 20, fastLength: 128, strategy: StrategyNormal},
	6:  {dictSizeLog: 23, searchDepth: 90, chainLog: 20, fastLength: 128, strategy: StrategyNormal},
	7:  {dictSizeLog: 24, searchDepth: 110, chainLog: 21, fastLength: 160, strategy: StrategyNormal},
	8:  {dictSizeLog: 24, searchDepth: 130, chainLog: 22, fastLength: 192, strategy: StrategyNormal},
	9:  {dictSizeLog: 25, searchDepth: 160, chainLog: 23, fastLength: 224, strategy: StrategyNormal},
	10: {dictSizeLog: 26, searchDepth: 190, chainLog: 24, fastLength: 256, strategy: StrategyBest, high: true},
	11: {dictSizeLog: 27, searchDepth: 224, chainLog: 25, fastLength: 273, strategy: StrategyBest, high: true},
	12: {dictSizeLog: 28, searchDepth: radix.DefaultSearchDepth, chainLog: 26, fastLength: 273, strategy: StrategyBest, high: true},
}

// ApplyDefaults fills every zero-valued field from the CompressionLevel's
// row in levelTable, the way WriterConfig.ApplyDefaults resolves
// Workers/BlockSize/CheckSum before Verify checks them.
func (o *Options) ApplyDefaults() {
	if o.CompressionLevel == 0 {
		o.CompressionLevel = DefaultCompressionLevel
	}
	if o.CompressionLevel < minCompressionLevel {
		o.CompressionLevel = minCompressionLevel
	}
	if o.CompressionLevel > maxCompressionLevel {
		o.CompressionLevel = maxCompressionLevel
	}
	d := levelTable[o.CompressionLevel]

	if o.DictionarySizeLog == 0 {
		o.DictionarySizeLog = d.dictSizeLog
	}
	if o.SearchDepth == 0 {
		o.SearchDepth = d.searchDepth
	}
	if o.ChainLog == 0 {
		o.ChainLog = d.chainLog
	}
	if o.FastLength == 0 {
		o.FastLength = d.fastLength
	}
	if o.LiteralCtxBits == 0 && o.LiteralPosBits == 0 {
		o.LiteralCtxBits = 3
	}
	if o.PosBits == 0 {
		o.PosBits = 2
	}
	// Strategy's zero value is StrategyFast, so a level whose default is
	// higher only takes effect when the caller left Strategy unset.
	if o.Strategy == StrategyFast {
		o.Strategy = d.strategy
	}
	if o.BlockSizeLog == 0 {
		o.BlockSizeLog = o.DictionarySizeLog
	}
	if o.BufferLog == 0 {
		o.BufferLog = minBufferLog
	}
	o.HighCompression = o.HighCompression || d.high
}

// Verify checks the configuration for errors, applying defaults first the
// way WriterConfig.Verify does.
func (o *Options) Verify() error {
	if o == nil {
		return newError(ErrGeneric, "options is nil")
	}
	o.ApplyDefaults()
	if !(20 <= o.DictionarySizeLog && o.DictionarySizeLog <= 30) {
		return newError(ErrParameterOutOfBound, "dictionarySizeLog %d out of range 20..30", o.DictionarySizeLog)
	}
	if !(0 <= o.OverlapFraction && o.OverlapFraction <= 15) {
		return newError(ErrParameterOutOfBound, "overlapFraction %d out of range 0..15", o.OverlapFraction)
	}
	if !(0 <= o.LiteralCtxBits && o.LiteralCtxBits <= 4) {
		return newError(ErrParameterOutOfBound, "literalCtxBits %d out of range 0..4", o.LiteralCtxBits)
	}
	if !(0 <= o.LiteralPosBits && o.LiteralPosBits <= 4) {
		return newError(ErrParameterOutOfBound, "literalPosBits %d out of range 0..4", o.LiteralPosBits)
	}
	if o.LiteralCtxBits+o.LiteralPosBits > 4 {
		return newError(ErrLCLPMaxExceeded, "lc(%d)+lp(%d) > 4", o.LiteralCtxBits, o.LiteralPosBits)
	}
	if !(0 <= o.PosBits && o.PosBits <= 4) {
		return newError(ErrParameterOutOfBound, "posBits %d out of range 0..4", o.PosBits)
	}
	if o.NbThreads < 0 {
		return newError(ErrParameterOutOfBound, "nbThreads must be >= 0")
	}
	if o.BufferLog < minBufferLog {
		return newError(ErrParameterOutOfBound, "bufferLog %d below minimum %d", o.BufferLog, minBufferLog)
	}
	if o.BlockSizeLog <= 0 || o.BlockSizeLog > 31 {
		return newError(ErrParameterOutOfBound, "blockSizeLog %d out of range", o.BlockSizeLog)
	}
	return nil
}

// dictionarySize returns the dictionary window size in bytes.
func (o *Options) dictionarySize() int64 { return int64(1) << uint(o.DictionarySizeLog) }

// blockSize returns the one-shot partitioning block size in bytes.
func (o *Options) blockSize() int64 { return int64(1) << uint(o.BlockSizeLog) }

// radixConfig projects the options relevant to the match finder, including
// ChainLog (the spec's name for the 3-byte hash table's bit width).
func (o *Options) radixConfig() radix.Config {
	return radix.Config{SearchDepth: o.SearchDepth, HashBits: o.ChainLog, DivideAndConquer: o.DivideAndConquer}
}

// lookahead projects Strategy/FastLength into the bounded K-position
// lookahead lzma2.Encoder.SetLookahead takes: StrategyFast never defers a
// match, Normal and Best defer up to FastLength consecutive positions
// (§4.4 lists FastLength itself as the horizon for "Normal/Best").
func (o *Options) lookahead() int {
	if o.Strategy == StrategyFast {
		return 0
	}
	return o.FastLength
}
