package fastlzma2

import (
	"bytes"
	"context"
	"runtime"

	"github.com/shunpeizhang/fast-lzma2/lzma2"
	"github.com/shunpeizhang/fast-lzma2/pool"
	"github.com/shunpeizhang/fast-lzma2/xlog"
)

// CCtx is the compression context (§3 "Encoder context (CCtx)"): it owns
// the validated configuration a block is encoded with and is reused
// across many one-shot Compress calls. A CCtx is not re-entrant;
// concurrent calls on one CCtx are undefined (§5).
type CCtx struct {
	opts Options
	log  xlog.Logger
	err  error
}

// NewCCtx validates opts (applying defaults for zero-valued fields) and
// returns a CCtx ready for Compress.
func NewCCtx(opts Options) (*CCtx, error) {
	if err := opts.Verify(); err != nil {
		return nil, err
	}
	return &CCtx{opts: opts}, nil
}

// SetLogger attaches a logger for debug output; a nil logger (the
// default) disables it entirely, matching xlog's no-op-on-nil contract.
func (c *CCtx) SetLogger(l xlog.Logger) { c.log = l }

// lzma2Properties projects the options relevant to the LZMA2 probability
// model.
func (c *CCtx) lzma2Properties() lzma2.Properties {
	return lzma2.Properties{LC: c.opts.LiteralCtxBits, LP: c.opts.LiteralPosBits, PB: c.opts.PosBits}
}

// CompressBound returns the maximum number of bytes Compress could write
// for an input of the given size: the input size, the frame properties
// byte, the single terminator byte, the optional 8-byte hash trailer, and
// at most 6 bytes of overhead per chunk (a chunk header, less the at
// least one byte a compressed chunk saves). Every chunk except the last
// of a block covers at least 4 KiB of input, so a frame holds at most
// srcLen/4096 + 2 chunks per block.
func (c *CCtx) CompressBound(srcLen int64) int64 {
	const chunkOverhead = 6
	const minChunkSpan = 1 << 12
	blocks := int64(1)
	if bs := c.opts.blockSize(); srcLen > bs {
		blocks = (srcLen + bs - 1) / bs
	}
	chunks := srcLen/minChunkSpan + 2*blocks
	bound := srcLen + chunks*chunkOverhead + 2
	if c.opts.DoXXHash {
		bound += xxhTrailerLen
	}
	return bound
}

// minSliceSize is the smallest dictionary-block slice worth handing to its
// own worker goroutine: below this, per-slice chunk-header overhead and
// goroutine scheduling cost outweigh the parallelism gained from
// splitting further (§4.4's slice split happens "at clean boundaries",
// which this treats as a minimum useful slice width rather than a fixed
// count).
const minSliceSize = 1 << 16

// sliceBounds divides a block of length blockLen into up to workers
// equal-width slices, never narrower than minSliceSize, returning their
// boundaries as len(bounds)-1 ranges [bounds[i], bounds[i+1]).
func sliceBounds(blockLen, workers int) []int {
	if workers < 1 {
		workers = 1
	}
	n := workers
	if max := blockLen / minSliceSize; n > max {
		n = max
	}
	if n < 1 {
		n = 1
	}
	bounds := make([]int, n+1)
	for i := range bounds {
		bounds[i] = i * blockLen / n
	}
	return bounds
}

// Compress encodes all of src into one frame and returns it. It
// partitions src into Options.BlockSizeLog-sized blocks (§4.7), encodes
// independent blocks concurrently on a worker pool sized by
// Options.NbThreads (0 meaning GOMAXPROCS), and concatenates their chunk
// sequences in input order before the single terminator byte and optional
// hash trailer. Within a block that is large enough to split, the same
// worker pool also encodes the block's slices concurrently against one
// shared, read-only RMF table (§2, §4.4, §5) so NbThreads has an effect
// even on a single-block input.
func (c *CCtx) Compress(src []byte) ([]byte, error) {
	if c.err != nil {
		return nil, newError(ErrStageWrong, "context has a pending error: %v", c.err)
	}

	propByte, err := frameProperties(c.opts.DictionarySizeLog)
	if err != nil {
		c.err = err
		return nil, err
	}

	blocks := partitionBlocks(src, c.opts.blockSize())

	workers := c.opts.NbThreads
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	xlog.Printf(c.log, "fastlzma2: compressing %d bytes in %d block(s) with %d worker(s)", len(src), len(blocks), workers)

	ctx := context.Background()
	p := pool.New(ctx, workers)
	asm := pool.NewAssembler(len(blocks))
	for i, blk := range blocks {
		i, blk := i, blk
		p.Submit(func(ctx context.Context) error {
			out, err := c.encodeBlock(ctx, blk, workers)
			if err != nil {
				return err
			}
			asm.Put(i, out)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		c.err = err
		return nil, newError(ErrGeneric, "block encode failed: %v", err)
	}
	asm.Close()

	out := make([]byte, 0, c.CompressBound(int64(len(src))))
	defer func() { xlog.Printf(c.log, "fastlzma2: wrote frame of %d bytes", len(out)) }()
	out = append(out, propByte)
	for r := range asm.Results() {
		out = append(out, r.([]byte)...)
	}
	out = append(out, frameTerminator)
	if c.opts.DoXXHash {
		out = appendXXHTrailer(out, src)
	}
	return out, nil
}

// encodeBlock encodes one dictionary block, splitting it into slices and
// running them concurrently when it is wide enough for more than one
// (§4.4 "Parallel block encoding"). Every slice queries the same
// *radix.Table, built once by lzma2.NewBlockEncoder and never mutated
// afterward, and is assembled back into the block's chunk sequence in
// slice order via pool.Assembler.
func (c *CCtx) encodeBlock(ctx context.Context, blk []byte, workers int) ([]byte, error) {
	be, err := lzma2.NewBlockEncoder(blk, c.lzma2Properties(), c.opts.radixConfig())
	if err != nil {
		return nil, err
	}
	lookahead := c.opts.lookahead()
	bounds := sliceBounds(len(blk), workers)
	if len(bounds) <= 2 {
		var buf bytes.Buffer
		enc := be.Slice(0, len(blk), lookahead)
		if err := enc.EncodeAll(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	sp := pool.New(ctx, workers)
	asm := pool.NewAssembler(len(bounds) - 1)
	for i := 0; i < len(bounds)-1; i++ {
		i, start, end := i, bounds[i], bounds[i+1]
		sp.Submit(func(ctx context.Context) error {
			var buf bytes.Buffer
			enc := be.Slice(start, end, lookahead)
			if err := enc.EncodeAll(&buf); err != nil {
				return err
			}
			asm.Put(i, buf.Bytes())
			return nil
		})
	}
	if err := sp.Wait(); err != nil {
		return nil, err
	}
	asm.Close()

	var out []byte
	for r := range asm.Results() {
		out = append(out, r.([]byte)...)
	}
	return out, nil
}

// partitionBlocks splits src into blockSize-sized slices, the last one
// possibly shorter (§4.7: "Partitions input into blocks of dictionarySize
// bytes (last block shorter)"). Overlap carry-over is validated by
// Options.Verify but not yet threaded into the match search; see
// DESIGN.md for why each block's RMF build stays confined to its own
// bytes rather than a previous block's tail.
func partitionBlocks(src []byte, blockSize int64) [][]byte {
	if len(src) == 0 {
		return [][]byte{src}
	}
	var blocks [][]byte
	bs := int(blockSize)
	for off := 0; off < len(src); off += bs {
		end := off + bs
		if end > len(src) {
			end = len(src)
		}
		blocks = append(blocks, src[off:end])
	}
	return blocks
}
