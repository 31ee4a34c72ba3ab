package usecase

import (
	"strconv"
	"strings"
)

// ToMinorUnits converts a display amount to minor units (cents/fils) with
// round-half-up semantics on the decimal value: 25.005 -> 2501, 25.00 -> 2500.
//
// Naive math.Round(x*100) gets this wrong because 25.005 is stored as
// 25.004999... in binary. We round on the shortest decimal representation of
// the float instead, which recovers the value the caller actually typed.
func ToMinorUnits(amount float64) int64 {
	s := strconv.FormatFloat(amount, 'f', -1, 64)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	// Two digits of fraction make up the minor units; the third decides rounding.
	frac += "000"

	w, _ := strconv.ParseInt(whole, 10, 64)
	f, _ := strconv.ParseInt(frac[:2], 10, 64)
	minor := w*100 + f
	if frac[2] >= '5' {
		minor++
	}
	if neg {
		minor = -minor
	}
	return minor
}
