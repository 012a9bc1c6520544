package rc

import (
	"errors"
	"io"
)

// ErrFirstByte is returned when the first byte of a range-coded stream is
// not zero, which means the stream cannot be a valid LZMA2 chunk payload.
var ErrFirstByte = errors.New("rc: first byte of range-coded stream is not zero")

// ErrCorrupted is returned by Decoder.Init when the initial code is not
// less than the initial range, which only corrupted input produces;
// callers such as package lzma2 also report it for streams whose decoded
// content is inconsistent.
var ErrCorrupted = errors.New("rc: corrupted range-coded stream")

// Decoder is the range-decoder half of the codec. It reads single bytes
// from any io.ByteReader; callers bound the number of bytes it may consume
// by giving it a reader over exactly the chunk's declared compressed bytes
// (package lzma2 uses a bytes.Reader).
type Decoder struct {
	r   io.ByteReader
	rng uint32
	code uint32
}

// NewDecoder creates a range decoder reading from r. Init must be called
// before the first DecodeBit/DecodeDirect call.
func NewDecoder(r io.ByteReader) *Decoder {
	return &Decoder{r: r}
}

// Init consumes the 5 leading bytes of a range-coded chunk (one zero byte
// followed by the 4-byte initial code) and primes the decoder.
func (d *Decoder) Init(r io.ByteReader) error {
	d.r = r
	d.rng = 0xffffffff
	d.code = 0

	b, err := d.r.ReadByte()
	if err != nil {
		return err
	}
	if b != 0 {
		return ErrFirstByte
	}
	for i := 0; i < 4; i++ {
		if err = d.updateCode(); err != nil {
			return err
		}
	}
	if d.code >= d.rng {
		return ErrCorrupted
	}
	return nil
}

// IsFinishedOK reports whether the decoder has consumed input up to a
// point consistent with a clean end of stream. LZMA leaves code == 0 when
// the encoder's Flush has been fully consumed.
func (d *Decoder) IsFinishedOK() bool {
	return d.code == 0
}

func (d *Decoder) updateCode() error {
	b, err := d.r.ReadByte()
	if err != nil {
		return err
	}
	d.code = (d.code << 8) | uint32(b)
	return nil
}

func (d *Decoder) normalize() error {
	const top = 1 << 24
	if d.rng < top {
		d.rng <<= 8
		if err := d.updateCode(); err != nil {
			return err
		}
	}
	return nil
}

// DecodeDirect decodes nBits that were written with EncodeDirect,
// most-significant bit first.
func (d *Decoder) DecodeDirect(nBits int) (value uint32, err error) {
	for i := 0; i < nBits; i++ {
		d.rng >>= 1
		d.code -= d.rng
		t := 0 - (d.code >> 31)
		d.code += d.rng & t
		value = (value << 1) | uint32((t+1)&1)
		if err = d.normalize(); err != nil {
			return 0, err
		}
	}
	return value, nil
}

// DecodeBit decodes a single bit against the adaptive probability p,
// updating p afterwards.
func (d *Decoder) DecodeBit(p *Prob) (b Bit, err error) {
	bound := p.Bound(d.rng)
	if d.code < bound {
		d.rng = bound
		p.Inc()
		b = 0
	} else {
		d.code -= bound
		d.rng -= bound
		p.Dec()
		b = 1
	}
	if err = d.normalize(); err != nil {
		return 0, err
	}
	return b, nil
}
