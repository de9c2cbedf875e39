package lval

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/sarchlab/rohdgo/rohderr"
)

// ToInt converts v to a machine integer. Fails InvalidValueOperation if
// any bit is X/Z, and InvalidTruncation if the width exceeds WInt.
func (v LV) ToInt() (uint64, error) {
	if v.HasUnknown() {
		return 0, rohderr.New(rohderr.KindInvalidValueOperation, "value has unknown bits")
	}
	if v.Width() > WInt {
		return 0, rohderr.New(rohderr.KindInvalidTruncation, "width %d exceeds %d bits", v.Width(), WInt)
	}
	return toBigUnsigned(v).Uint64(), nil
}

// ToBigInt converts v to an arbitrary-precision unsigned integer. Fails
// InvalidValueOperation if any bit is X/Z.
func (v LV) ToBigInt() (*big.Int, error) {
	if v.HasUnknown() {
		return nil, rohderr.New(rohderr.KindInvalidValueOperation, "value has unknown bits")
	}
	return toBigUnsigned(v), nil
}

// String renders the value as "<width>'h<hex>" when every bit is valid,
// or "<width>'b<mixed>" (binary, with x/z digits) otherwise.
func (v LV) String() string {
	if !v.HasUnknown() {
		n := toBigUnsigned(v)
		hex := strings.ToUpper(n.Text(16))
		return strconv.Itoa(v.Width()) + "'h" + hex
	}
	return strconv.Itoa(v.Width()) + "'b" + v.BinaryDigits()
}

// BinaryDigits renders just the MSB-first bit digits ('0'/'1'/'x'/'z'),
// with no width prefix.
func (v LV) BinaryDigits() string {
	w := v.Width()
	sb := strings.Builder{}
	sb.Grow(w)
	for i := w - 1; i >= 0; i-- {
		sb.WriteString(v.BitAt(i).String())
	}
	return sb.String()
}

// Bin parses a base-2 literal, ignoring underscore separators (e.g.
// "01_10"), into a width-len(digits) unsigned LV.
func Bin(s string) (LV, error) {
	clean := strings.ReplaceAll(s, "_", "")
	return FromString(clean)
}
