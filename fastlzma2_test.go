package fastlzma2

import (
	"bytes"
	"math/rand"
	"testing"
)

func roundTrip(t *testing.T, data []byte, opts Options) {
	t.Helper()
	c, err := NewCCtx(opts)
	if err != nil {
		t.Fatalf("NewCCtx error %s", err)
	}
	frame, err := c.Compress(data)
	if err != nil {
		t.Fatalf("Compress error %s", err)
	}
	if int64(len(frame)) > c.CompressBound(int64(len(data))) {
		t.Fatalf("frame length %d exceeds CompressBound %d", len(frame), c.CompressBound(int64(len(data))))
	}

	d := NewDCtx(opts.DoXXHash)
	got, err := d.Decompress(frame)
	if err != nil {
		t.Fatalf("Decompress error %s", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d bytes", len(got), len(data))
	}

	if size, ok := FindDecompressedSize(frame); !ok || size != int64(len(data)) {
		t.Fatalf("FindDecompressedSize = %d, %v; want %d, true", size, ok, len(data))
	}
}

func TestRoundTripEmpty(t *testing.T) {
	roundTrip(t, nil, Options{CompressionLevel: 1})
}

func TestRoundTripSmall(t *testing.T) {
	roundTrip(t, []byte("The quick brown fox jumps over the lazy dog."), Options{CompressionLevel: 3, DoXXHash: true})
}

func TestRoundTripMultipleBlocks(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	data := make([]byte, 3*(1<<16)+4096)
	for i := range data {
		// Full byte range, not a narrow low-entropy alphabet: with the
		// default lc=3, a block-boundary context bug only shows up once
		// byte>>5 actually varies across the boundary.
		data[i] = byte(r.Intn(256))
	}
	roundTrip(t, data, Options{DictionarySizeLog: 20, BlockSizeLog: 16, DoXXHash: true})
}

func TestRoundTripSingleBlockMultiThreaded(t *testing.T) {
	// A single block large enough to split into several slices, forced
	// through more than one worker, exercises the within-block slice
	// parallelism (§2, §4.4): NbThreads must have an effect even though
	// the input never crosses a block boundary.
	r := rand.New(rand.NewSource(13))
	data := make([]byte, 6*(1<<16))
	for i := range data {
		data[i] = byte(r.Intn(8))
	}
	roundTrip(t, data, Options{DictionarySizeLog: 20, NbThreads: 4})
}

func TestDecompressRejectsBadProperties(t *testing.T) {
	d := NewDCtx(false)
	if _, err := d.Decompress([]byte{0xff, 0x00}); err == nil {
		t.Fatalf("expected error for out-of-range frame properties byte")
	}
}

func TestDecompressDetectsHashMismatch(t *testing.T) {
	c, err := NewCCtx(Options{CompressionLevel: 1, DoXXHash: true})
	if err != nil {
		t.Fatalf("NewCCtx error %s", err)
	}
	frame, err := c.Compress([]byte("hash me"))
	if err != nil {
		t.Fatalf("Compress error %s", err)
	}
	frame[len(frame)-1] ^= 0xff

	d := NewDCtx(true)
	if _, err := d.Decompress(frame); err == nil {
		t.Fatalf("expected checksum error")
	} else if e, ok := err.(*Error); !ok || e.Code != ErrChecksumWrong {
		t.Fatalf("got error %v, want ErrChecksumWrong", err)
	}
}

func TestDecompressIntoRejectsSmallBuffer(t *testing.T) {
	c, err := NewCCtx(Options{CompressionLevel: 1})
	if err != nil {
		t.Fatalf("NewCCtx error %s", err)
	}
	data := []byte("needs a bigger buffer than this")
	frame, err := c.Compress(data)
	if err != nil {
		t.Fatalf("Compress error %s", err)
	}
	d := NewDCtx(false)
	dst := make([]byte, 2)
	if _, err := d.DecompressInto(dst, frame); err == nil {
		t.Fatalf("expected ErrDstSizeTooSmall")
	}
}

func TestOptionsVerifyRejectsBadLCLP(t *testing.T) {
	opts := Options{LiteralCtxBits: 4, LiteralPosBits: 4}
	if err := opts.Verify(); err == nil {
		t.Fatalf("expected lc+lp overflow to be rejected")
	}
}

func TestOptionsLookaheadFollowsStrategy(t *testing.T) {
	fast := Options{Strategy: StrategyFast, FastLength: 128}
	if got := fast.lookahead(); got != 0 {
		t.Fatalf("StrategyFast lookahead = %d, want 0", got)
	}
	normal := Options{Strategy: StrategyNormal, FastLength: 96}
	if got := normal.lookahead(); got != 96 {
		t.Fatalf("StrategyNormal lookahead = %d, want 96", got)
	}
	best := Options{Strategy: StrategyBest, FastLength: 273}
	if got := best.lookahead(); got != 273 {
		t.Fatalf("StrategyBest lookahead = %d, want 273", got)
	}
}

func TestOptionsRadixConfigCarriesChainLog(t *testing.T) {
	opts := Options{ChainLog: 19, SearchDepth: 40, DivideAndConquer: true}
	cfg := opts.radixConfig()
	if cfg.HashBits != 19 || cfg.SearchDepth != 40 || !cfg.DivideAndConquer {
		t.Fatalf("radixConfig() = %+v, want HashBits=19 SearchDepth=40 DivideAndConquer=true", cfg)
	}
}

func TestOptionsApplyDefaultsClampsLevel(t *testing.T) {
	opts := Options{CompressionLevel: 99}
	opts.ApplyDefaults()
	if opts.CompressionLevel != maxCompressionLevel {
		t.Fatalf("CompressionLevel = %d, want %d", opts.CompressionLevel, maxCompressionLevel)
	}
}

func TestCStreamRoundTripAcrossSmallOutBuffer(t *testing.T) {
	opts := Options{DictionarySizeLog: 20, BlockSizeLog: 16, DoXXHash: true}
	cs, err := NewCStream(opts)
	if err != nil {
		t.Fatalf("NewCStream error %s", err)
	}

	r := rand.New(rand.NewSource(11))
	data := make([]byte, (1<<16)+777)
	for i := range data {
		data[i] = byte(r.Intn(256))
	}

	var frame bytes.Buffer
	scratch := make([]byte, 37) // deliberately small to force multiple drains
	in := &InBuffer{Src: data}
	for in.Pos < len(in.Src) {
		out := &OutBuffer{Dst: scratch}
		if err := cs.Compress(out, in); err != nil {
			t.Fatalf("Compress error %s", err)
		}
		frame.Write(scratch[:out.Pos])
	}
	for {
		out := &OutBuffer{Dst: scratch}
		remaining, err := cs.End(out)
		if err != nil {
			t.Fatalf("End error %s", err)
		}
		frame.Write(scratch[:out.Pos])
		if remaining == 0 {
			break
		}
	}

	d := NewDCtx(true)
	got, err := d.Decompress(frame.Bytes())
	if err != nil {
		t.Fatalf("Decompress error %s", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("streaming round trip mismatch: got %d bytes, want %d bytes", len(got), len(data))
	}
}

func TestDStreamFinish(t *testing.T) {
	c, err := NewCCtx(Options{CompressionLevel: 2})
	if err != nil {
		t.Fatalf("NewCCtx error %s", err)
	}
	data := []byte("streamed through a DStream")
	frame, err := c.Compress(data)
	if err != nil {
		t.Fatalf("Compress error %s", err)
	}

	ds := NewDStream(false)
	if _, err := ds.Write(frame[:5]); err != nil {
		t.Fatalf("Write error %s", err)
	}
	if _, err := ds.Write(frame[5:]); err != nil {
		t.Fatalf("Write error %s", err)
	}
	got, err := ds.Finish()
	if err != nil {
		t.Fatalf("Finish error %s", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("DStream mismatch: got %d bytes, want %d bytes", len(got), len(data))
	}
}

func TestCompressBlockToFnAndEndFrameToFn(t *testing.T) {
	var frame bytes.Buffer
	sink := func(_ any, p []byte) error {
		frame.Write(p)
		return nil
	}
	data := []byte("callback mode payload")
	opts := Options{CompressionLevel: 2}
	opts.ApplyDefaults()
	propByte, err := frameProperties(opts.DictionarySizeLog)
	if err != nil {
		t.Fatalf("frameProperties error %s", err)
	}
	frame.WriteByte(propByte)
	if err := CompressBlockToFn(sink, nil, data, opts); err != nil {
		t.Fatalf("CompressBlockToFn error %s", err)
	}
	if err := EndFrameToFn(sink, nil, nil); err != nil {
		t.Fatalf("EndFrameToFn error %s", err)
	}

	d := NewDCtx(false)
	got, err := d.Decompress(frame.Bytes())
	if err != nil {
		t.Fatalf("Decompress error %s", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("callback mode mismatch: got %d bytes, want %d bytes", len(got), len(data))
	}
}
