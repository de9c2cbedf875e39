// Package lval implements LV, the immutable arbitrary-width 4-valued
// logic value at the numerical foundation of the framework. Every bit is
// one of 0, 1, X (contention/unknown) or Z (floating/high-impedance).
//
// An LV picks one of three storage strategies depending on its width:
// Filled (every bit identical), Small (width <= WInt, packed into two
// machine words), or Big (width > WInt, packed into two big.Int pairs).
// Construction always canonicalizes to the most compact of these that is
// not expressible as Filled; this keeps equality a cheap structural
// comparison and keeps memory bounded for the common case of small
// buses.
package lval

import (
	"math/big"

	"github.com/sarchlab/rohdgo/rohderr"
)

// WInt is the width threshold above which LV switches from the Small
// (machine-word) representation to the Big (big.Int) representation.
const WInt = 64

// Bit is a single 4-valued logic bit.
type Bit uint8

// The four logic levels.
const (
	Zero Bit = iota
	One
	InvalidX
	HighZ
)

// String renders a single bit in the '0'/'1'/'x'/'z' alphabet.
func (b Bit) String() string {
	switch b {
	case Zero:
		return "0"
	case One:
		return "1"
	case InvalidX:
		return "x"
	case HighZ:
		return "z"
	default:
		return "?"
	}
}

// valid reports whether the bit is a concrete 0/1 (not X or Z).
func (b Bit) valid() bool {
	return b == Zero || b == One
}

type repKind uint8

const (
	repFilled repKind = iota
	repSmall
	repBig
)

// LV is an immutable width-tagged 4-valued bit-vector. The zero value is
// not meaningful; use one of the constructors or Empty().
type LV struct {
	width uint32
	rep   repKind

	// repFilled
	fillBit Bit

	// repSmall: bit i is derived from (value>>i)&1, (invalid>>i)&1.
	value   uint64
	invalid uint64

	// repBig: same encoding, arbitrary width. Never nil when rep==repBig.
	bigValue   *big.Int
	bigInvalid *big.Int
}

var empty = LV{width: 0, rep: repFilled, fillBit: Zero}

// Empty returns the canonical zero-width value.
func Empty() LV { return empty }

// Width returns the number of bits in the value.
func (v LV) Width() int { return int(v.width) }

func maskFor(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	if width <= 0 {
		return 0
	}
	return (uint64(1) << uint(width)) - 1
}

// BitAt returns the logic level of bit i (0 = LSB). Panics if i is out of
// range, mirroring slice out-of-bounds panics elsewhere in the module.
func (v LV) BitAt(i int) Bit {
	if i < 0 || i >= int(v.width) {
		panic("lval: bit index out of range")
	}
	switch v.rep {
	case repFilled:
		return v.fillBit
	case repSmall:
		return bitFromPair(uint((v.value>>uint(i))&1), uint((v.invalid>>uint(i))&1))
	default:
		return bitFromPair(v.bigValue.Bit(i), v.bigInvalid.Bit(i))
	}
}

func bitFromPair(value, invalid uint) Bit {
	switch {
	case invalid == 0 && value == 0:
		return Zero
	case invalid == 0 && value == 1:
		return One
	case invalid == 1 && value == 0:
		return InvalidX
	default:
		return HighZ
	}
}

func pairFromBit(b Bit) (value, invalid uint64) {
	switch b {
	case Zero:
		return 0, 0
	case One:
		return 1, 0
	case InvalidX:
		return 0, 1
	default: // HighZ
		return 1, 1
	}
}

// allBitsEqualSmall reports whether every one of the low `width` bits of value/
// invalid are identical, returning that common bit when true.
func allBitsEqualSmall(width int, value, invalid uint64) (Bit, bool) {
	if width == 0 {
		return Zero, true
	}
	first := bitFromPair(uint(value&1), uint(invalid&1))
	fv, fi := pairFromBit(first)
	for i := 1; i < width; i++ {
		bv := (value >> uint(i)) & 1
		bi := (invalid >> uint(i)) & 1
		if bv != fv || bi != fi {
			return 0, false
		}
	}
	return first, true
}

func allBitsEqualBig(width int, value, invalid *big.Int) (Bit, bool) {
	if width == 0 {
		return Zero, true
	}
	first := bitFromPair(value.Bit(0), invalid.Bit(0))
	fv, fi := pairFromBit(first)
	for i := 1; i < width; i++ {
		if value.Bit(i) != uint(fv) || invalid.Bit(i) != uint(fi) {
			return 0, false
		}
	}
	return first, true
}

// makeSmall canonicalizes a (width<=WInt) small-rep construction: Filled
// if all bits are identical, else Small.
func makeSmall(width int, value, invalid uint64) LV {
	mask := maskFor(width)
	value &= mask
	invalid &= mask
	if bit, ok := allBitsEqualSmall(width, value, invalid); ok {
		return LV{width: uint32(width), rep: repFilled, fillBit: bit}
	}
	return LV{width: uint32(width), rep: repSmall, value: value, invalid: invalid}
}

// makeBig canonicalizes a (width>WInt, in principle) construction,
// downgrading to Small/Filled whenever the content allows it.
func makeBig(width int, value, invalid *big.Int) LV {
	mask := new(big.Int).Lsh(big.NewInt(1), uint(width))
	mask.Sub(mask, big.NewInt(1))
	value = new(big.Int).And(value, mask)
	invalid = new(big.Int).And(invalid, mask)

	if bit, ok := allBitsEqualBig(width, value, invalid); ok {
		return LV{width: uint32(width), rep: repFilled, fillBit: bit}
	}
	if width <= WInt {
		return makeSmall(width, value.Uint64(), invalid.Uint64())
	}
	return LV{width: uint32(width), rep: repBig, bigValue: value, bigInvalid: invalid}
}

// fill builds a width-N fill of a single 1-bit logic level.
func fill(width int, b Bit) LV {
	if width < 0 {
		panic("lval: negative width")
	}
	return LV{width: uint32(width), rep: repFilled, fillBit: b}
}

// FromBool constructs a 1-bit value from a boolean.
func FromBool(b bool) LV {
	if b {
		return fill(1, One)
	}
	return fill(1, Zero)
}

// FromUint constructs an unsigned width-bit value from v, truncating to
// the low `width` bits. Fails with InvalidValueConstruction if width < 0.
func FromUint(v uint64, width int) (LV, error) {
	if width < 0 {
		return LV{}, rohderr.New(rohderr.KindInvalidValueConstruction, "negative width %d", width)
	}
	if width <= WInt {
		return makeSmall(width, v, 0), nil
	}
	bv := new(big.Int).SetUint64(v)
	return makeBig(width, bv, new(big.Int)), nil
}

// FromInt constructs a width-bit value from the two's-complement encoding
// of a signed integer, truncated/sign-extended to `width` bits.
func FromInt(v int64, width int) (LV, error) {
	if width < 0 {
		return LV{}, rohderr.New(rohderr.KindInvalidValueConstruction, "negative width %d", width)
	}
	if width <= WInt {
		return makeSmall(width, uint64(v), 0), nil
	}
	bv := big.NewInt(v)
	if v < 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
		bv.Add(bv, mod)
	}
	return makeBig(width, bv, new(big.Int)), nil
}

// FromBigInt constructs a width-bit value from an arbitrary-precision
// unsigned integer, truncated to `width` bits.
func FromBigInt(v *big.Int, width int) (LV, error) {
	if width < 0 {
		return LV{}, rohderr.New(rohderr.KindInvalidValueConstruction, "negative width %d", width)
	}
	if v.Sign() < 0 {
		return LV{}, rohderr.New(rohderr.KindInvalidValueConstruction, "negative big.Int %s", v.String())
	}
	if width <= WInt {
		return makeSmall(width, v.Uint64(), 0), nil
	}
	return makeBig(width, new(big.Int).Set(v), new(big.Int)), nil
}

// FromString parses an MSB-first string of '0'/'1'/'x'/'z' characters
// into an LV of len(s) bits. Fails with InvalidValueConstruction on any
// other character.
func FromString(s string) (LV, error) {
	width := len(s)
	if width == 0 {
		return Empty(), nil
	}
	bits := make([]Bit, width)
	for i, c := range s {
		switch c {
		case '0':
			bits[i] = Zero
		case '1':
			bits[i] = One
		case 'x', 'X':
			bits[i] = InvalidX
		case 'z', 'Z':
			bits[i] = HighZ
		default:
			return LV{}, rohderr.New(rohderr.KindInvalidValueConstruction, "invalid character %q in value string", c)
		}
	}
	// bits is MSB-first; build LSB-first internal encoding.
	if width <= WInt {
		var value, invalid uint64
		for i := 0; i < width; i++ {
			b := bits[width-1-i]
			bv, bi := pairFromBit(b)
			value |= bv << uint(i)
			invalid |= bi << uint(i)
		}
		return makeSmall(width, value, invalid), nil
	}
	value := new(big.Int)
	invalid := new(big.Int)
	for i := 0; i < width; i++ {
		b := bits[width-1-i]
		bv, bi := pairFromBit(b)
		if bv == 1 {
			value.SetBit(value, i, 1)
		}
		if bi == 1 {
			invalid.SetBit(invalid, i, 1)
		}
	}
	return makeBig(width, value, invalid), nil
}

// Fill returns a width-N repetition of the single bit carried by seed,
// which must itself be exactly 1 bit wide.
func Fill(width int, seed LV) (LV, error) {
	if seed.Width() != 1 {
		return LV{}, rohderr.New(rohderr.KindInvalidValueConstruction, "fill seed must be 1 bit wide, got %d", seed.Width())
	}
	if width < 0 {
		return LV{}, rohderr.New(rohderr.KindInvalidValueConstruction, "negative width %d", width)
	}
	return fill(width, seed.BitAt(0)), nil
}

// FromBits concatenates a slice of 1-bit values, LSB first (bits[0] is
// the result's least-significant bit), into one LV.
func FromBits(bits []LV) (LV, error) {
	for i, b := range bits {
		if b.Width() != 1 {
			return LV{}, rohderr.New(rohderr.KindInvalidValueConstruction, "bit %d is not 1 bit wide", i)
		}
	}
	width := len(bits)
	if width <= WInt {
		var value, invalid uint64
		for i, b := range bits {
			bv, bi := pairFromBit(b.BitAt(0))
			value |= bv << uint(i)
			invalid |= bi << uint(i)
		}
		return makeSmall(width, value, invalid), nil
	}
	value := new(big.Int)
	invalid := new(big.Int)
	for i, b := range bits {
		bv, bi := pairFromBit(b.BitAt(0))
		if bv == 1 {
			value.SetBit(value, i, 1)
		}
		if bi == 1 {
			invalid.SetBit(invalid, i, 1)
		}
	}
	return makeBig(width, value, invalid), nil
}

// IsFilled, IsSmall, IsBig report the chosen storage representation; they
// exist primarily so tests can assert the canonicality invariant.
func (v LV) IsFilled() bool { return v.rep == repFilled }
func (v LV) IsSmall() bool  { return v.rep == repSmall }
func (v LV) IsBig() bool    { return v.rep == repBig }

// HasUnknown reports whether any bit is X or Z.
func (v LV) HasUnknown() bool {
	switch v.rep {
	case repFilled:
		return !v.fillBit.valid()
	case repSmall:
		return v.invalid&maskFor(int(v.width)) != 0
	default:
		for i := 0; i < int(v.width); i++ {
			if v.bigInvalid.Bit(i) == 1 {
				return true
			}
		}
		return false
	}
}

// Equals reports whether two values have the same width and the same
// bits (X and Z included).
func (v LV) Equals(o LV) bool {
	if v.width != o.width {
		return false
	}
	if v.rep != o.rep {
		// Canonical forms must match given construction discipline, but
		// compare bit-by-bit defensively rather than assume.
		for i := 0; i < int(v.width); i++ {
			if v.BitAt(i) != o.BitAt(i) {
				return false
			}
		}
		return true
	}
	switch v.rep {
	case repFilled:
		return v.fillBit == o.fillBit
	case repSmall:
		return v.value == o.value && v.invalid == o.invalid
	default:
		return v.bigValue.Cmp(o.bigValue) == 0 && v.bigInvalid.Cmp(o.bigInvalid) == 0
	}
}

func requireSameWidth(a, b LV) error {
	if a.width != b.width {
		return rohderr.New(rohderr.KindWidthMismatch, "width %d vs %d", a.width, b.width)
	}
	return nil
}
