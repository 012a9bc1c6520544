package fastlzma2

import "fmt"

// ErrCode is the exported error taxonomy (§6/§7): every failure a public
// operation can report is one of these codes, distinguishable from a
// normal size the way the reference library distinguishes a negative
// return from a byte count.
type ErrCode int

const (
	NoError ErrCode = iota
	ErrGeneric
	ErrInitMissing
	ErrMemoryAllocation
	ErrParameterUnsupported
	ErrParameterOutOfBound
	ErrLCLPMaxExceeded
	ErrStageWrong
	ErrSrcSizeWrong
	ErrDstSizeTooSmall
	ErrCorruptionDetected
	ErrChecksumWrong
	ErrCanceled
	ErrBuffer
	errMaxCode
)

var errorNames = [...]string{
	NoError:                 "No error detected",
	ErrGeneric:              "Error (generic)",
	ErrInitMissing:          "Context should be init first",
	ErrMemoryAllocation:     "Allocation error : not enough memory",
	ErrParameterUnsupported: "Unsupported parameter",
	ErrParameterOutOfBound:  "Parameter is out of bound",
	ErrLCLPMaxExceeded:      "lc+lp is too large",
	ErrStageWrong:           "Operation not authorized at current processing stage",
	ErrSrcSizeWrong:         "Src size is incorrect",
	ErrDstSizeTooSmall:      "Destination buffer is too small",
	ErrCorruptionDetected:   "Corrupted block detected",
	ErrChecksumWrong:        "Checksum error",
	ErrCanceled:             "Operation canceled by user",
	ErrBuffer:               "Buffer mode error",
}

// errorName mirrors the reference library's lookup-by-code helper (§8
// scenario 6): known codes return their fixed message, everything else
// (including negative codes and codes past errMaxCode) returns the
// sentinel "Unspecified error code".
func errorName(code ErrCode) string {
	if code >= NoError && int(code) < len(errorNames) && errorNames[code] != "" {
		return errorNames[code]
	}
	return "Unspecified error code"
}

// Error wraps an ErrCode with the operation-specific detail that produced
// it.
type Error struct {
	Code ErrCode
	msg  string
}

func newError(code ErrCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.msg == "" {
		return errorName(e.Code)
	}
	return fmt.Sprintf("fast-lzma2: %s: %s", errorName(e.Code), e.msg)
}
