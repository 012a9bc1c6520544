package fastlzma2

import (
	"bytes"

	"github.com/shunpeizhang/fast-lzma2/lzma2"
	"github.com/shunpeizhang/fast-lzma2/xxh"
)

// InBuffer and OutBuffer are the half-open cursors the streaming API
// reads from and writes into (§3 "Streaming buffers"): the caller
// advances Pos past whatever bytes the call consumed or produced: the
// core never writes past len(Dst).
type InBuffer struct {
	Src []byte
	Pos int
}

type OutBuffer struct {
	Dst []byte
	Pos int
}

func (b *InBuffer) remaining() []byte { return b.Src[b.Pos:] }

// CStream is the cursor-driven push-model compressor (§4.7): create with
// NewCStream, call Compress any number of times, optionally Flush to
// force a chunk boundary, then call End repeatedly until it reports no
// bytes pending.
type CStream struct {
	opts    Options
	hashAcc *xxh.Digest

	block []byte // unflushed bytes of the block being accumulated

	pendingOut []byte // compressed bytes produced but not yet drained to a caller

	wroteProps bool
	closed     bool // End has written the terminator and (if any) hash trailer
	err        error
}

// NewCStream creates a CStream ready to accept input for one frame.
func NewCStream(opts Options) (*CStream, error) {
	if err := opts.Verify(); err != nil {
		return nil, err
	}
	s := &CStream{opts: opts}
	if opts.DoXXHash {
		s.hashAcc = xxh.New()
	}
	return s, nil
}

func (s *CStream) lzma2Properties() lzma2.Properties {
	return lzma2.Properties{LC: s.opts.LiteralCtxBits, LP: s.opts.LiteralPosBits, PB: s.opts.PosBits}
}

// Compress consumes as much of in as is available, accumulating it into
// the open block and closing (encoding) any block that reaches
// Options.BlockSizeLog bytes, then drains as much pending compressed
// output as out can hold. It never blocks (§5): a full out buffer simply
// means bytes stay buffered in s.pendingOut for the next call.
func (s *CStream) Compress(out *OutBuffer, in *InBuffer) error {
	if s.err != nil {
		return s.err
	}
	if s.closed {
		return newError(ErrStageWrong, "stream already ended")
	}
	chunk := in.remaining()
	in.Pos = len(in.Src)
	if s.hashAcc != nil {
		s.hashAcc.Write(chunk)
	}
	s.block = append(s.block, chunk...)

	bs := int(s.opts.blockSize())
	for len(s.block) >= bs {
		if err := s.closeBlock(s.block[:bs]); err != nil {
			s.err = err
			return err
		}
		s.block = s.block[bs:]
	}
	s.drain(out)
	return nil
}

// Flush forces emission of a chunk boundary: any bytes accumulated so
// far become a (possibly short) block, encoded and appended to
// s.pendingOut, which is then drained into out.
func (s *CStream) Flush(out *OutBuffer) error {
	if s.err != nil {
		return s.err
	}
	if len(s.block) > 0 {
		if err := s.closeBlock(s.block); err != nil {
			s.err = err
			return err
		}
		s.block = nil
	}
	s.drain(out)
	return nil
}

// End closes any remaining block, appends the frame terminator and
// optional hash trailer, and drains as much of that as out can hold.
// remaining reports how many bytes are still buffered; the caller must
// call End again (with more room in out) until remaining is 0, and must
// not begin a new frame before then (§4.7 "split output invariant").
func (s *CStream) End(out *OutBuffer) (remaining int, err error) {
	if s.err != nil {
		return 0, s.err
	}
	if !s.closed {
		if len(s.block) > 0 {
			if err := s.closeBlock(s.block); err != nil {
				s.err = err
				return 0, err
			}
			s.block = nil
		} else if !s.wroteProps {
			if err := s.writeProps(); err != nil {
				s.err = err
				return 0, err
			}
		}
		s.pendingOut = append(s.pendingOut, frameTerminator)
		if s.hashAcc != nil {
			s.pendingOut = xxh.AppendTrailer(s.pendingOut, s.hashAcc.Sum64())
		}
		s.closed = true
	}
	s.drain(out)
	return len(s.pendingOut), nil
}

func (s *CStream) writeProps() error {
	propByte, err := frameProperties(s.opts.DictionarySizeLog)
	if err != nil {
		return err
	}
	s.pendingOut = append(s.pendingOut, propByte)
	s.wroteProps = true
	return nil
}

func (s *CStream) closeBlock(b []byte) error {
	if !s.wroteProps {
		if err := s.writeProps(); err != nil {
			return err
		}
	}
	enc, err := lzma2.NewEncoder(b, s.lzma2Properties(), s.opts.radixConfig())
	if err != nil {
		return err
	}
	enc.SetLookahead(s.opts.lookahead())
	var buf bytes.Buffer
	if err := enc.EncodeAll(&buf); err != nil {
		return err
	}
	s.pendingOut = append(s.pendingOut, buf.Bytes()...)
	return nil
}

func (s *CStream) drain(out *OutBuffer) {
	n := copy(out.Dst[out.Pos:], s.pendingOut)
	out.Pos += n
	s.pendingOut = s.pendingOut[n:]
}

// BlockSinkFunc is the callback-mode sink (§4.7 "Callback mode"): it is
// invoked once per output segment a block or the frame trailer produces,
// bypassing CStream's internal pending buffer entirely.
type BlockSinkFunc func(opaque any, p []byte) error

// CompressBlockToFn encodes one block and invokes fn with its encoded
// chunk sequence. Unlike Compress/Flush/End it writes nothing into an
// internal buffer: fn is responsible for whatever the caller wants done
// with the bytes (write to a socket, hash them, etc).
func CompressBlockToFn(fn BlockSinkFunc, opaque any, block []byte, opts Options) error {
	if err := opts.Verify(); err != nil {
		return err
	}
	enc, err := lzma2.NewEncoder(block, lzma2.Properties{LC: opts.LiteralCtxBits, LP: opts.LiteralPosBits, PB: opts.PosBits}, opts.radixConfig())
	if err != nil {
		return err
	}
	enc.SetLookahead(opts.lookahead())
	var buf bytes.Buffer
	if err := enc.EncodeAll(&buf); err != nil {
		return err
	}
	return fn(opaque, buf.Bytes())
}

// EndFrameToFn invokes fn with the frame terminator and, if hash is
// non-nil, the XXH64 trailer computed over the frame's payload.
func EndFrameToFn(fn BlockSinkFunc, opaque any, hash *xxh.Digest) error {
	if err := fn(opaque, []byte{frameTerminator}); err != nil {
		return err
	}
	if hash == nil {
		return nil
	}
	return fn(opaque, xxh.AppendTrailer(nil, hash.Sum64()))
}

// DStream is the pull-model decompressor. Unlike CStream it does not
// implement the decoder's byte-level suspension (§4.5): it buffers
// compressed input across Write calls and only decodes once Finish is
// called, trading the ability to bound memory on a partially-delivered
// frame for a much simpler implementation. DCtx.Decompress is the
// equivalent one-shot entry point when the whole frame is already
// in memory.
type DStream struct {
	checkHash bool
	buf       bytes.Buffer
	err       error
}

// NewDStream creates a DStream. checkHash must match the Options.DoXXHash
// the producing CStream/CCtx used.
func NewDStream(checkHash bool) *DStream {
	return &DStream{checkHash: checkHash}
}

// Write appends p to the buffered compressed input.
func (d *DStream) Write(p []byte) (int, error) {
	if d.err != nil {
		return 0, d.err
	}
	return d.buf.Write(p)
}

// Finish decodes everything written so far as one complete frame.
func (d *DStream) Finish() ([]byte, error) {
	if d.err != nil {
		return nil, d.err
	}
	dctx := NewDCtx(d.checkHash)
	out, err := dctx.Decompress(d.buf.Bytes())
	if err != nil {
		d.err = err
	}
	return out, err
}
