package lval

import (
	"math/big"

	"github.com/sarchlab/rohdgo/rohderr"
)

// buildFromBits constructs a canonical LV of the given width whose bit i
// (LSB first) is produced by f. Every structural operation below funnels
// through here (or through the big.Int fast paths) so canonicalization
// stays in one place.
func buildFromBits(width int, f func(i int) Bit) LV {
	if width <= WInt {
		var value, invalid uint64
		for i := 0; i < width; i++ {
			bv, bi := pairFromBit(f(i))
			value |= bv << uint(i)
			invalid |= bi << uint(i)
		}
		return makeSmall(width, value, invalid)
	}
	value := new(big.Int)
	invalid := new(big.Int)
	for i := 0; i < width; i++ {
		bv, bi := pairFromBit(f(i))
		if bv == 1 {
			value.SetBit(value, i, 1)
		}
		if bi == 1 {
			invalid.SetBit(invalid, i, 1)
		}
	}
	return makeBig(width, value, invalid)
}

// Not is bitwise NOT. Any X/Z bit becomes X.
func (v LV) Not() LV {
	return buildFromBits(v.Width(), func(i int) Bit {
		b := v.BitAt(i)
		if !b.valid() {
			return InvalidX
		}
		if b == Zero {
			return One
		}
		return Zero
	})
}

func andBit(a, b Bit) Bit {
	if a == Zero || b == Zero {
		return Zero
	}
	if a == One && b == One {
		return One
	}
	return InvalidX
}

func orBit(a, b Bit) Bit {
	if a == One || b == One {
		return One
	}
	if a == Zero && b == Zero {
		return Zero
	}
	return InvalidX
}

func xorBit(a, b Bit) Bit {
	if !a.valid() || !b.valid() {
		return InvalidX
	}
	if a == b {
		return Zero
	}
	return One
}

// And is bitwise AND: 0 & * = 0; 1 & 1 = 1; else X.
func (v LV) And(o LV) (LV, error) {
	if err := requireSameWidth(v, o); err != nil {
		return LV{}, err
	}
	return buildFromBits(v.Width(), func(i int) Bit { return andBit(v.BitAt(i), o.BitAt(i)) }), nil
}

// Or is bitwise OR: 1 | * = 1; 0 | 0 = 0; else X.
func (v LV) Or(o LV) (LV, error) {
	if err := requireSameWidth(v, o); err != nil {
		return LV{}, err
	}
	return buildFromBits(v.Width(), func(i int) Bit { return orBit(v.BitAt(i), o.BitAt(i)) }), nil
}

// Xor is bitwise XOR: X if either bit invalid, else XOR.
func (v LV) Xor(o LV) (LV, error) {
	if err := requireSameWidth(v, o); err != nil {
		return LV{}, err
	}
	return buildFromBits(v.Width(), func(i int) Bit { return xorBit(v.BitAt(i), o.BitAt(i)) }), nil
}

// UnaryAnd folds AND across every bit: 0 dominates, else X unless all 1.
func (v LV) UnaryAnd() LV {
	allOne := true
	for i := 0; i < v.Width(); i++ {
		b := v.BitAt(i)
		if b == Zero {
			return fill(1, Zero)
		}
		if b != One {
			allOne = false
		}
	}
	if allOne {
		return fill(1, One)
	}
	return fill(1, InvalidX)
}

// UnaryOr folds OR across every bit: 1 dominates, else X unless all 0.
func (v LV) UnaryOr() LV {
	allZero := true
	for i := 0; i < v.Width(); i++ {
		b := v.BitAt(i)
		if b == One {
			return fill(1, One)
		}
		if b != Zero {
			allZero = false
		}
	}
	if allZero {
		return fill(1, Zero)
	}
	return fill(1, InvalidX)
}

// UnaryXor folds XOR across every bit: X if any bit is invalid.
func (v LV) UnaryXor() LV {
	parity := Zero
	for i := 0; i < v.Width(); i++ {
		b := v.BitAt(i)
		if !b.valid() {
			return fill(1, InvalidX)
		}
		if b == One {
			if parity == One {
				parity = Zero
			} else {
				parity = One
			}
		}
	}
	return fill(1, parity)
}

// toBigUnsigned reconstructs the unsigned numeric value of v. Caller must
// ensure v has no unknown bits.
func toBigUnsigned(v LV) *big.Int {
	switch v.rep {
	case repSmall:
		return new(big.Int).SetUint64(v.value & maskFor(v.Width()))
	case repBig:
		return new(big.Int).Set(v.bigValue)
	default:
		if v.fillBit == Zero {
			return big.NewInt(0)
		}
		ones := new(big.Int).Lsh(big.NewInt(1), uint(v.Width()))
		return ones.Sub(ones, big.NewInt(1))
	}
}

func allX(width int) LV { return fill(width, InvalidX) }

func arith(a, b LV, f func(x, y *big.Int) (*big.Int, error)) (LV, error) {
	if err := requireSameWidth(a, b); err != nil {
		return LV{}, err
	}
	if a.HasUnknown() || b.HasUnknown() {
		return allX(a.Width()), nil
	}
	result, err := f(toBigUnsigned(a), toBigUnsigned(b))
	if err != nil {
		return LV{}, err
	}
	return FromBigInt(maskToWidth(result, a.Width()), a.Width())
}

func maskToWidth(v *big.Int, width int) *big.Int {
	mask := new(big.Int).Lsh(big.NewInt(1), uint(width))
	mask.Sub(mask, big.NewInt(1))
	return new(big.Int).And(v, mask)
}

// Add is unsigned addition, modulo 2^width.
func (v LV) Add(o LV) (LV, error) {
	return arith(v, o, func(x, y *big.Int) (*big.Int, error) { return new(big.Int).Add(x, y), nil })
}

// Sub is unsigned subtraction, modulo 2^width.
func (v LV) Sub(o LV) (LV, error) {
	return arith(v, o, func(x, y *big.Int) (*big.Int, error) { return new(big.Int).Sub(x, y), nil })
}

// Mul is unsigned multiplication, modulo 2^width.
func (v LV) Mul(o LV) (LV, error) {
	return arith(v, o, func(x, y *big.Int) (*big.Int, error) { return new(big.Int).Mul(x, y), nil })
}

// Div is unsigned integer division. Fails DivisionByZero if o is zero.
func (v LV) Div(o LV) (LV, error) {
	return arith(v, o, func(x, y *big.Int) (*big.Int, error) {
		if y.Sign() == 0 {
			return nil, rohderr.New(rohderr.KindDivisionByZero, "division by zero")
		}
		return new(big.Int).Div(x, y), nil
	})
}

// Mod is unsigned remainder. Fails DivisionByZero if o is zero.
func (v LV) Mod(o LV) (LV, error) {
	return arith(v, o, func(x, y *big.Int) (*big.Int, error) {
		if y.Sign() == 0 {
			return nil, rohderr.New(rohderr.KindDivisionByZero, "division by zero")
		}
		return new(big.Int).Mod(x, y), nil
	})
}

func compare(a, b LV, f func(c int) bool) (LV, error) {
	if err := requireSameWidth(a, b); err != nil {
		return LV{}, err
	}
	if a.HasUnknown() || b.HasUnknown() {
		return fill(1, InvalidX), nil
	}
	c := toBigUnsigned(a).Cmp(toBigUnsigned(b))
	return FromBool(f(c)), nil
}

// Eq, Neq, Lt, Le, Gt, Ge all return a 1-bit LV: X if either operand has
// any invalid bit, else an unsigned comparison.
func (v LV) Eq(o LV) (LV, error)  { return compare(v, o, func(c int) bool { return c == 0 }) }
func (v LV) Neq(o LV) (LV, error) { return compare(v, o, func(c int) bool { return c != 0 }) }
func (v LV) Lt(o LV) (LV, error)  { return compare(v, o, func(c int) bool { return c < 0 }) }
func (v LV) Le(o LV) (LV, error)  { return compare(v, o, func(c int) bool { return c <= 0 }) }
func (v LV) Gt(o LV) (LV, error)  { return compare(v, o, func(c int) bool { return c > 0 }) }
func (v LV) Ge(o LV) (LV, error)  { return compare(v, o, func(c int) bool { return c >= 0 }) }

// ShiftLeft is a logical left shift, filling vacated low bits with 0.
func (v LV) ShiftLeft(n int) (LV, error) {
	if n < 0 {
		return LV{}, rohderr.New(rohderr.KindInvalidShamt, "negative shift amount %d", n)
	}
	return buildFromBits(v.Width(), func(i int) Bit {
		if i < n {
			return Zero
		}
		return v.BitAt(i - n)
	}), nil
}

// LogicalShiftRight fills vacated high bits with 0.
func (v LV) LogicalShiftRight(n int) (LV, error) {
	if n < 0 {
		return LV{}, rohderr.New(rohderr.KindInvalidShamt, "negative shift amount %d", n)
	}
	w := v.Width()
	return buildFromBits(w, func(i int) Bit {
		j := i + n
		if j >= w {
			return Zero
		}
		return v.BitAt(j)
	}), nil
}

// ArithmeticShiftRight fills vacated high bits with the MSB (X if the MSB
// is invalid).
func (v LV) ArithmeticShiftRight(n int) (LV, error) {
	if n < 0 {
		return LV{}, rohderr.New(rohderr.KindInvalidShamt, "negative shift amount %d", n)
	}
	w := v.Width()
	if w == 0 {
		return v, nil
	}
	msb := v.BitAt(w - 1)
	fillB := msb
	if !msb.valid() {
		fillB = InvalidX
	}
	return buildFromBits(w, func(i int) Bit {
		j := i + n
		if j >= w {
			return fillB
		}
		return v.BitAt(j)
	}), nil
}

// Replicate concatenates n copies of v. Fails InvalidMultiplier if n < 1.
func (v LV) Replicate(n int) (LV, error) {
	if n < 1 {
		return LV{}, rohderr.New(rohderr.KindInvalidMultiplier, "replicate count %d < 1", n)
	}
	aw := v.Width()
	width := aw * n
	if aw == 0 {
		return Empty(), nil
	}
	return buildFromBits(width, func(i int) Bit { return v.BitAt(i % aw) }), nil
}

// Extend prepends MSBs with the given 1-bit fill up to width w, which
// must be >= the current width.
func (v LV) Extend(w int, fillVal LV) (LV, error) {
	if fillVal.Width() != 1 {
		return LV{}, rohderr.New(rohderr.KindInvalidValueConstruction, "extend fill must be 1 bit wide")
	}
	if w < v.Width() {
		return LV{}, rohderr.New(rohderr.KindWidthMismatch, "extend target width %d < current width %d", w, v.Width())
	}
	fb := fillVal.BitAt(0)
	return buildFromBits(w, func(i int) Bit {
		if i < v.Width() {
			return v.BitAt(i)
		}
		return fb
	}), nil
}

// ZeroExtend extends with 0 in the new high bits.
func (v LV) ZeroExtend(w int) (LV, error) { return v.Extend(w, fill(1, Zero)) }

// SignExtend extends by duplicating the current MSB (X if the MSB is
// invalid) into the new high bits.
func (v LV) SignExtend(w int) (LV, error) {
	if v.Width() == 0 {
		return v.Extend(w, fill(1, Zero))
	}
	msb := v.BitAt(v.Width() - 1)
	fb := msb
	if !msb.valid() {
		fb = InvalidX
	}
	return v.Extend(w, fill(1, fb))
}

// Slice returns the inclusive [lo, hi] bit range. If hi < lo the result
// bit order is reversed.
func (v LV) Slice(hi, lo int) LV {
	if hi >= lo {
		width := hi - lo + 1
		return buildFromBits(width, func(i int) Bit { return v.BitAt(lo + i) })
	}
	width := lo - hi + 1
	return buildFromBits(width, func(i int) Bit { return v.BitAt(lo - i) })
}

// GetRange returns the half-open [start, end) bit range. Negative indices
// count from the end (as in Python slicing). Out-of-bounds ranges fail
// with InvalidValueOperation.
func (v LV) GetRange(start int, end int) (LV, error) {
	w := v.Width()
	if start < 0 {
		start += w
	}
	if end < 0 {
		end += w
	}
	if start < 0 || end > w || start > end {
		return LV{}, rohderr.New(rohderr.KindInvalidValueOperation, "getRange(%d,%d) out of bounds for width %d", start, end, w)
	}
	width := end - start
	return buildFromBits(width, func(i int) Bit { return v.BitAt(start + i) }), nil
}

// WithSet returns a copy of v with bits [start, start+update.Width())
// replaced by update. Fails InvalidValueOperation on overrun.
func (v LV) WithSet(start int, update LV) (LV, error) {
	if start < 0 || start+update.Width() > v.Width() {
		return LV{}, rohderr.New(rohderr.KindInvalidValueOperation, "withSet(%d, width %d) overruns width %d", start, update.Width(), v.Width())
	}
	return buildFromBits(v.Width(), func(i int) Bit {
		if i >= start && i < start+update.Width() {
			return update.BitAt(i - start)
		}
		return v.BitAt(i)
	}), nil
}

// Clog2 computes the ceiling of log2 of the unsigned value. Returns X
// (at the same width) if any bit is invalid. Values whose MSB is 1 (i.e.
// negative under a signed interpretation) return the width itself, by
// convention.
func (v LV) Clog2() (LV, error) {
	w := v.Width()
	if v.HasUnknown() {
		return allX(w), nil
	}
	if w > 0 && v.BitAt(w-1) == One {
		return FromUint(uint64(w), w)
	}
	n := toBigUnsigned(v)
	if n.Cmp(big.NewInt(1)) <= 0 {
		return FromUint(0, w)
	}
	nMinus1 := new(big.Int).Sub(n, big.NewInt(1))
	bits := nMinus1.BitLen()
	return FromUint(uint64(bits), w)
}

// Pow raises v to the unsigned power exp, modulo 2^width. X on invalid
// inputs.
func (v LV) Pow(exp LV) (LV, error) {
	if err := requireSameWidth(v, exp); err != nil {
		return LV{}, err
	}
	if v.HasUnknown() || exp.HasUnknown() {
		return allX(v.Width()), nil
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(v.Width()))
	result := new(big.Int).Exp(toBigUnsigned(v), toBigUnsigned(exp), mod)
	return FromBigInt(result, v.Width())
}

// EqualsWithDontCare reports whether v and o share a width and every pair
// of bits that are both valid (non-X/Z) are equal; invalid bits never
// cause a mismatch.
func (v LV) EqualsWithDontCare(o LV) bool {
	if v.Width() != o.Width() {
		return false
	}
	for i := 0; i < v.Width(); i++ {
		a, b := v.BitAt(i), o.BitAt(i)
		if a.valid() && b.valid() && a != b {
			return false
		}
	}
	return true
}

func mergeBit(a, b Bit) Bit {
	if a == InvalidX || b == InvalidX {
		return InvalidX
	}
	if a == HighZ {
		return b
	}
	if b == HighZ {
		return a
	}
	if a == b {
		return a
	}
	return InvalidX
}

// Merge performs the tri-state merge of a set of driver values, used to
// resolve the current value of a multi-driver net. All values must share
// a width.
func Merge(vals ...LV) (LV, error) {
	if len(vals) == 0 {
		return Empty(), nil
	}
	width := vals[0].Width()
	for _, v := range vals[1:] {
		if v.Width() != width {
			return LV{}, rohderr.New(rohderr.KindWidthMismatch, "merge width %d vs %d", width, v.Width())
		}
	}
	return buildFromBits(width, func(i int) Bit {
		acc := HighZ
		for _, v := range vals {
			acc = mergeBit(acc, v.BitAt(i))
		}
		return acc
	}), nil
}

// Concat concatenates parts most-significant-first (as in a Verilog
// {a, b, c} literal): parts[0] occupies the highest bits, the last part
// the lowest.
func Concat(parts ...LV) LV {
	width := 0
	for _, p := range parts {
		width += p.Width()
	}
	return buildFromBits(width, func(i int) Bit {
		idx := i
		for k := len(parts) - 1; k >= 0; k-- {
			pw := parts[k].Width()
			if idx < pw {
				return parts[k].BitAt(idx)
			}
			idx -= pw
		}
		panic("lval: concat index out of range")
	})
}
