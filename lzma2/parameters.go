package lzma2

// Properties are the three LZMA coder parameters carried in the LZMA2
// properties byte: LC literal context bits, LP literal position bits, and
// PB position bits (§4.4: "literalCtxBits (0..4), literalPosBits (0..4),
// posBits (0..4)").
type Properties struct {
	LC, LP, PB int
}

const (
	minLC, maxLC = 0, 4
	minLP, maxLP = 0, 4
	minPB, maxPB = 0, 4
)

func verifyProperties(lc, lp, pb int) error {
	if !(minLC <= lc && lc <= maxLC) {
		return newError("lc out of range")
	}
	if !(minLP <= lp && lp <= maxLP) {
		return newError("lp out of range")
	}
	if !(minPB <= pb && pb <= maxPB) {
		return newError("pb out of range")
	}
	return nil
}

// byte packs Properties into the single properties byte that follows a
// "new properties" chunk control byte: (pb*5+lp)*9+lc.
func (p Properties) byte() byte {
	return byte((p.PB*5+p.LP)*9 + p.LC)
}

// parseProperties unpacks a properties byte into Properties, rejecting
// out-of-range encodings (props >= 225 is never valid).
func parseProperties(b byte) (Properties, error) {
	if b >= 225 {
		return Properties{}, newError("invalid properties byte")
	}
	lc := int(b) % 9
	rest := int(b) / 9
	lp := rest % 5
	pb := rest / 5
	return Properties{LC: lc, LP: lp, PB: pb}, nil
}
