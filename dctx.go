package fastlzma2

import (
	"bytes"
	"io"

	"github.com/shunpeizhang/fast-lzma2/lzma2"
	"github.com/shunpeizhang/fast-lzma2/xlog"
)

// DCtx is the decompression context (§3 "Decoder context (DCtx)"): it
// owns the probability model, range-coder state and hash accumulator for
// one frame at a time, and like CCtx is reused across many Decompress
// calls but is not re-entrant.
type DCtx struct {
	checkHash bool
	log       xlog.Logger
	err       error
}

// NewDCtx creates a DCtx. checkHash controls whether Decompress requires
// and verifies a trailing XXH64 hash; it must match whatever the
// producing CCtx's Options.DoXXHash was.
func NewDCtx(checkHash bool) *DCtx {
	return &DCtx{checkHash: checkHash}
}

// SetLogger attaches a logger for debug output; a nil logger (the
// default) disables it entirely.
func (d *DCtx) SetLogger(l xlog.Logger) { d.log = l }

// Decompress reconstructs the original bytes from one complete frame.
// Every block a CCtx wrote is independently decodable (its first chunk
// resets the dictionary and its first compressed chunk installs fresh
// state and properties), so a single Decoder can walk
// the whole frame's chunk sequence start to finish without any notion of
// block boundaries.
func (d *DCtx) Decompress(frame []byte) ([]byte, error) {
	if d.err != nil {
		return nil, newError(ErrStageWrong, "context has a pending error: %v", d.err)
	}
	if len(frame) == 0 {
		return nil, newError(ErrSrcSizeWrong, "empty frame")
	}
	if _, err := parseFrameProperties(frame[0]); err != nil {
		d.err = err
		return nil, newError(ErrCorruptionDetected, "%v", err)
	}

	xlog.Printf(d.log, "fastlzma2: decompressing frame of %d bytes", len(frame))
	r := bytes.NewReader(frame[1:])
	dec := lzma2.NewDecoder()
	out, err := dec.DecodeAll(r)
	if err != nil {
		d.err = err
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, newError(ErrSrcSizeWrong, "%v", err)
		}
		return nil, newError(ErrCorruptionDetected, "%v", err)
	}

	trailer, err := io.ReadAll(r)
	if err != nil {
		return nil, newError(ErrSrcSizeWrong, "%v", err)
	}
	if d.checkHash {
		if len(trailer) != xxhTrailerLen {
			return nil, newError(ErrSrcSizeWrong, "missing XXH64 trailer")
		}
		if !verifyXXHTrailer(trailer, out) {
			return nil, newError(ErrChecksumWrong, "XXH64 mismatch")
		}
	}
	return out, nil
}

// DecompressInto is like Decompress but fails with ErrDstSizeTooSmall
// instead of growing dst, the way the reference library distinguishes a
// too-small caller buffer from any other error.
func (d *DCtx) DecompressInto(dst, frame []byte) (int, error) {
	out, err := d.Decompress(frame)
	if err != nil {
		return 0, err
	}
	if len(dst) < len(out) {
		return 0, newError(ErrDstSizeTooSmall, "need %d bytes, got %d", len(out), len(dst))
	}
	copy(dst, out)
	return len(out), nil
}
