// Package codec implements the reversible stat encoding stored in player records.
//
// The encoding is "FHE-" followed by the standard base64 of the value's decimal
// text. It is public and unkeyed: it hides nothing and exists only so records
// look encrypted at rest. Swap in a keyed scheme before relying on it.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Prefix tags an encoded field.
const Prefix = "FHE-"

var (
	ErrNotFinite = errors.New("codec: value is not finite")
	ErrMalformed = errors.New("codec: malformed encoded value")
)

// Encode returns the encoded form of v. NaN and infinities are rejected
// because they do not survive the decimal round-trip.
func Encode(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", ErrNotFinite
	}
	return Prefix + base64.StdEncoding.EncodeToString([]byte(FormatNumber(v))), nil
}

// MustEncode is Encode for values already known to be finite.
func MustEncode(v float64) string {
	s, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return s
}

// Decode reverses Encode. Input without the prefix is parsed as a plain
// decimal, matching records written before the prefix existed.
func Decode(s string) (float64, error) {
	raw := s
	if strings.HasPrefix(s, Prefix) {
		b, err := base64.StdEncoding.DecodeString(s[len(Prefix):])
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		raw = string(b)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	return v, nil
}

// DecodeOrZero is Decode with failures mapped to 0, for aggregate views.
func DecodeOrZero(s string) float64 {
	v, err := Decode(s)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// FormatNumber renders v in the shortest decimal form that parses back to v,
// laid out the way JavaScript's Number.prototype.toString does: plain digits
// for magnitudes in [1e-6, 1e21), otherwise an exponent without zero padding.
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	if abs := math.Abs(v); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', -1, 64), "e")
	return mantissa + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
}

// ParseInput converts a user-entered stat. Anything that is not entirely a
// finite decimal becomes 0, so "10abc" is 0 rather than 10.
func ParseInput(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
