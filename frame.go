package fastlzma2

import (
	"encoding/binary"

	"github.com/shunpeizhang/fast-lzma2/lzma2"
	"github.com/shunpeizhang/fast-lzma2/xxh"
)

// Frame byte layout (§6, normative):
//
//	byte 0     : properties = log2(D) - 11, valid range 0..19
//	bytes 1..  : sequence of LZMA2 chunks
//	...        : chunk 0x00 terminator
//	tail bytes : if hash enabled, 8 bytes XXH64 little-endian
const (
	minDictSizeLog = 11
	maxDictSizeLog = 30

	frameTerminator = 0x00
	xxhTrailerLen   = 8
)

// frameProperties encodes the dictionary size class into the frame's
// single leading properties byte.
func frameProperties(dictSizeLog int) (byte, error) {
	if !(minDictSizeLog <= dictSizeLog && dictSizeLog <= maxDictSizeLog) {
		return 0, newError(ErrParameterOutOfBound, "dictionarySizeLog %d out of range", dictSizeLog)
	}
	return byte(dictSizeLog - minDictSizeLog), nil
}

// parseFrameProperties decodes the frame properties byte back into a
// dictionary size, in bytes.
func parseFrameProperties(b byte) (dictSize int64, err error) {
	if b > maxDictSizeLog-minDictSizeLog {
		return 0, newError(ErrCorruptionDetected, "invalid frame properties byte 0x%02x", b)
	}
	return int64(1) << uint(int(b)+minDictSizeLog), nil
}

// FindDecompressedSize parses a frame's header and chunk headers (without
// running the decoder) and sums their declared unpacked sizes (§4.7). It
// returns ok=false on malformed input, mirroring the reference library's
// "returns unknown on malformed input" contract instead of a sentinel
// error value.
func FindDecompressedSize(frame []byte) (size int64, ok bool) {
	if len(frame) == 0 {
		return 0, false
	}
	if _, err := parseFrameProperties(frame[0]); err != nil {
		return 0, false
	}
	p := 1
	for {
		if p >= len(frame) {
			return 0, false
		}
		hdrLen, bodyLen, unpacked, isEOS, err := lzma2.PeekChunkHeader(frame[p:])
		if err != nil {
			return 0, false
		}
		if isEOS {
			return size, true
		}
		size += unpacked
		p += hdrLen + bodyLen
	}
}

// appendXXHTrailer appends the little-endian XXH64 digest of payload to
// dst, used when Options.DoXXHash is set.
func appendXXHTrailer(dst []byte, payload []byte) []byte {
	return xxh.AppendTrailer(dst, xxh.Checksum(payload))
}

// verifyXXHTrailer reports whether the last 8 bytes of frame match the
// XXH64 digest of payload.
func verifyXXHTrailer(trailer []byte, payload []byte) bool {
	if len(trailer) != xxhTrailerLen {
		return false
	}
	return binary.LittleEndian.Uint64(trailer) == xxh.Checksum(payload)
}
