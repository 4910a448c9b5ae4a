package field

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// ErrFieldMismatch is returned when a binary operation combines elements that
// belong to fields with different moduli.
var ErrFieldMismatch = errors.New("field element moduli differ")

// ErrNotInvertible is returned when an element has no multiplicative inverse,
// which for a prime modulus means the element is zero.
var ErrNotInvertible = errors.New("field element is not invertible")

// StarkPrime is the reference 251-bit prime modulus 2^251 + 17*2^192 + 1.
var StarkPrime = func() *big.Int {
	p, ok := new(big.Int).SetString("800000000000011000000000000000000000000000000000000000000000001", 16)
	if !ok {
		panic("field: invalid stark prime literal")
	}
	return p
}()

// Element is a value in the range [0, modulus). Elements are immutable: every
// operation returns a new Element and never mutates its receiver or operands.
type Element struct {
	value   *big.Int
	modulus *big.Int
}

// NewElement creates an element from value, normalized into [0, modulus).
func NewElement(value, modulus *big.Int) Element {
	v := new(big.Int).Mod(value, modulus)
	return Element{value: v, modulus: new(big.Int).Set(modulus)}
}

// NewElementFromUint64 creates an element from a uint64 value.
func NewElementFromUint64(value uint64, modulus *big.Int) Element {
	return NewElement(new(big.Int).SetUint64(value), modulus)
}

// Zero returns the additive identity of the field with the given modulus.
func Zero(modulus *big.Int) Element {
	return NewElement(big.NewInt(0), modulus)
}

// One returns the multiplicative identity of the field with the given modulus.
func One(modulus *big.Int) Element {
	return NewElement(big.NewInt(1), modulus)
}

// Random draws a uniformly distributed element from the CSPRNG. The underlying
// sampler rejects out-of-range candidates, so the result carries no modulo bias.
func Random(modulus *big.Int) (Element, error) {
	v, err := rand.Int(rand.Reader, modulus)
	if err != nil {
		return Element{}, fmt.Errorf("failed to sample random field element: %w", err)
	}
	return NewElement(v, modulus), nil
}

// FromBytes interprets b as a big-endian unsigned integer and reduces it into
// the field. It is the inverse of Bytes for in-range values.
func FromBytes(b []byte, modulus *big.Int) Element {
	return NewElement(new(big.Int).SetBytes(b), modulus)
}

// Big returns a copy of the element's value.
func (e Element) Big() *big.Int {
	return new(big.Int).Set(e.value)
}

// Modulus returns a copy of the element's field modulus.
func (e Element) Modulus() *big.Int {
	return new(big.Int).Set(e.modulus)
}

// Bytes serializes the element to exactly 32 bytes, big-endian, left-padded
// with zeros. The modulus must fit in 32 bytes.
func (e Element) Bytes() [32]byte {
	var out [32]byte
	e.value.FillBytes(out[:])
	return out
}

// Add returns e + other mod modulus.
func (e Element) Add(other Element) (Element, error) {
	if err := e.checkField(other); err != nil {
		return Element{}, err
	}
	return NewElement(new(big.Int).Add(e.value, other.value), e.modulus), nil
}

// Sub returns e - other mod modulus.
func (e Element) Sub(other Element) (Element, error) {
	if err := e.checkField(other); err != nil {
		return Element{}, err
	}
	return NewElement(new(big.Int).Sub(e.value, other.value), e.modulus), nil
}

// Mul returns e * other mod modulus.
func (e Element) Mul(other Element) (Element, error) {
	if err := e.checkField(other); err != nil {
		return Element{}, err
	}
	return NewElement(new(big.Int).Mul(e.value, other.value), e.modulus), nil
}

// Div returns e * other^-1. It fails with ErrNotInvertible when other is zero.
func (e Element) Div(other Element) (Element, error) {
	if err := e.checkField(other); err != nil {
		return Element{}, err
	}
	inv, err := other.Inverse()
	if err != nil {
		return Element{}, err
	}
	return e.Mul(inv)
}

// Neg returns the additive inverse of e.
func (e Element) Neg() Element {
	return NewElement(new(big.Int).Neg(e.value), e.modulus)
}

// Inverse returns the multiplicative inverse via the extended Euclidean
// algorithm. A zero element (gcd > 1) fails with ErrNotInvertible.
func (e Element) Inverse() (Element, error) {
	if e.value.Sign() == 0 {
		return Element{}, ErrNotInvertible
	}

	gcd := new(big.Int)
	x := new(big.Int)
	gcd.GCD(x, nil, e.value, e.modulus)
	if gcd.Cmp(big.NewInt(1)) != 0 {
		return Element{}, ErrNotInvertible
	}

	return NewElement(x, e.modulus), nil
}

// Pow raises e to the given exponent by square-and-multiply, using
// O(log exponent) field multiplications. Negative exponents are computed as
// the inverse raised to the absolute value.
func (e Element) Pow(exponent *big.Int) (Element, error) {
	if exponent.Sign() < 0 {
		inv, err := e.Inverse()
		if err != nil {
			return Element{}, err
		}
		return inv.Pow(new(big.Int).Neg(exponent))
	}

	result := One(e.modulus)
	base := e
	exp := new(big.Int).Set(exponent)

	var err error
	for exp.Sign() > 0 {
		if exp.Bit(0) == 1 {
			if result, err = result.Mul(base); err != nil {
				return Element{}, err
			}
		}
		if base, err = base.Mul(base); err != nil {
			return Element{}, err
		}
		exp.Rsh(exp, 1)
	}

	return result, nil
}

// Equal reports whether both elements have the same value and modulus.
func (e Element) Equal(other Element) bool {
	if e.value == nil || other.value == nil {
		return e.value == other.value
	}
	return e.modulus.Cmp(other.modulus) == 0 && e.value.Cmp(other.value) == 0
}

// IsZero reports whether the element is the additive identity.
func (e Element) IsZero() bool {
	return e.value.Sign() == 0
}

// IsOne reports whether the element is the multiplicative identity.
func (e Element) IsOne() bool {
	return e.value.Cmp(big.NewInt(1)) == 0
}

// String returns the decimal representation of the value.
func (e Element) String() string {
	if e.value == nil {
		return "<nil>"
	}
	return e.value.String()
}

func (e Element) checkField(other Element) error {
	if e.modulus.Cmp(other.modulus) != 0 {
		return fmt.Errorf("%w: %s vs %s", ErrFieldMismatch, e.modulus, other.modulus)
	}
	return nil
}
