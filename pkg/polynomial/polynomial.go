package polynomial

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/x402labs/stealth-ledger-go/pkg/field"
)

// ErrEmptyInterpolationSet is returned when interpolation is requested over
// zero points.
var ErrEmptyInterpolationSet = errors.New("cannot interpolate through an empty point set")

// Polynomial is an ordered sequence of coefficients over a single prime field,
// lowest degree first. Trailing zero coefficients are trimmed on construction,
// so the zero polynomial is the single coefficient [0] and Degree is always
// len(coefficients)-1.
type Polynomial struct {
	coeffs  []field.Element
	modulus *big.Int
}

// Point is an (x, y) pair for interpolation.
type Point struct {
	X field.Element
	Y field.Element
}

// New builds a polynomial from coefficients, lowest degree first. All
// coefficients must share one modulus; trailing zeros are trimmed.
func New(coeffs []field.Element) (Polynomial, error) {
	if len(coeffs) == 0 {
		return Polynomial{}, fmt.Errorf("polynomial requires at least one coefficient")
	}

	modulus := coeffs[0].Modulus()
	for i, c := range coeffs {
		if c.Modulus().Cmp(modulus) != 0 {
			return Polynomial{}, fmt.Errorf("coefficient %d: %w", i, field.ErrFieldMismatch)
		}
	}

	last := len(coeffs) - 1
	for last > 0 && coeffs[last].IsZero() {
		last--
	}

	trimmed := make([]field.Element, last+1)
	copy(trimmed, coeffs[:last+1])

	return Polynomial{coeffs: trimmed, modulus: modulus}, nil
}

// Zero returns the zero polynomial over the given modulus.
func Zero(modulus *big.Int) Polynomial {
	return Polynomial{coeffs: []field.Element{field.Zero(modulus)}, modulus: new(big.Int).Set(modulus)}
}

// One returns the constant polynomial 1 over the given modulus.
func One(modulus *big.Int) Polynomial {
	return Polynomial{coeffs: []field.Element{field.One(modulus)}, modulus: new(big.Int).Set(modulus)}
}

// Degree returns the polynomial degree. The zero polynomial reports degree 0
// by the single-coefficient representation.
func (p Polynomial) Degree() int {
	return len(p.coeffs) - 1
}

// Modulus returns a copy of the shared coefficient modulus.
func (p Polynomial) Modulus() *big.Int {
	return new(big.Int).Set(p.modulus)
}

// Coefficient returns the coefficient of the given degree, zero beyond the
// stored length.
func (p Polynomial) Coefficient(degree int) field.Element {
	if degree < 0 || degree >= len(p.coeffs) {
		return field.Zero(p.modulus)
	}
	return p.coeffs[degree]
}

// Coefficients returns a copy of the coefficient slice.
func (p Polynomial) Coefficients() []field.Element {
	out := make([]field.Element, len(p.coeffs))
	copy(out, p.coeffs)
	return out
}

// IsZero reports whether p is the zero polynomial.
func (p Polynomial) IsZero() bool {
	return len(p.coeffs) == 1 && p.coeffs[0].IsZero()
}

// Evaluate computes p(x) by Horner's rule in O(degree) field operations.
func (p Polynomial) Evaluate(x field.Element) (field.Element, error) {
	if x.Modulus().Cmp(p.modulus) != 0 {
		return field.Element{}, field.ErrFieldMismatch
	}

	result := p.coeffs[len(p.coeffs)-1]
	var err error
	for i := len(p.coeffs) - 2; i >= 0; i-- {
		if result, err = result.Mul(x); err != nil {
			return field.Element{}, err
		}
		if result, err = result.Add(p.coeffs[i]); err != nil {
			return field.Element{}, err
		}
	}
	return result, nil
}

// Add returns p + other.
func (p Polynomial) Add(other Polynomial) (Polynomial, error) {
	n := len(p.coeffs)
	if len(other.coeffs) > n {
		n = len(other.coeffs)
	}

	coeffs := make([]field.Element, n)
	for i := 0; i < n; i++ {
		sum, err := p.Coefficient(i).Add(other.Coefficient(i))
		if err != nil {
			return Polynomial{}, err
		}
		coeffs[i] = sum
	}
	return New(coeffs)
}

// Sub returns p - other.
func (p Polynomial) Sub(other Polynomial) (Polynomial, error) {
	n := len(p.coeffs)
	if len(other.coeffs) > n {
		n = len(other.coeffs)
	}

	coeffs := make([]field.Element, n)
	for i := 0; i < n; i++ {
		diff, err := p.Coefficient(i).Sub(other.Coefficient(i))
		if err != nil {
			return Polynomial{}, err
		}
		coeffs[i] = diff
	}
	return New(coeffs)
}

// Mul returns p * other by naive convolution, O(n*m) field multiplications.
func (p Polynomial) Mul(other Polynomial) (Polynomial, error) {
	coeffs := make([]field.Element, len(p.coeffs)+len(other.coeffs)-1)
	for i := range coeffs {
		coeffs[i] = field.Zero(p.modulus)
	}

	for i, a := range p.coeffs {
		for j, b := range other.coeffs {
			product, err := a.Mul(b)
			if err != nil {
				return Polynomial{}, err
			}
			sum, err := coeffs[i+j].Add(product)
			if err != nil {
				return Polynomial{}, err
			}
			coeffs[i+j] = sum
		}
	}
	return New(coeffs)
}

// MulScalar returns p scaled by a single field element.
func (p Polynomial) MulScalar(scalar field.Element) (Polynomial, error) {
	coeffs := make([]field.Element, len(p.coeffs))
	for i, c := range p.coeffs {
		product, err := c.Mul(scalar)
		if err != nil {
			return Polynomial{}, err
		}
		coeffs[i] = product
	}
	return New(coeffs)
}

// Interpolate constructs the unique polynomial of degree < n through n points
// via Lagrange basis construction, O(n^2) field operations. Duplicate x
// coordinates surface field.ErrNotInvertible from the zero basis denominator.
func Interpolate(points []Point) (Polynomial, error) {
	if len(points) == 0 {
		return Polynomial{}, ErrEmptyInterpolationSet
	}

	modulus := points[0].X.Modulus()
	result := Zero(modulus)

	for i, pt := range points {
		// Basis polynomial L_i(x) = prod_{j != i} (x - x_j) / (x_i - x_j)
		basis := One(modulus)

		for j, other := range points {
			if i == j {
				continue
			}

			negXj := other.X.Neg()
			factor, err := New([]field.Element{negXj, field.One(modulus)})
			if err != nil {
				return Polynomial{}, err
			}

			diff, err := pt.X.Sub(other.X)
			if err != nil {
				return Polynomial{}, err
			}
			invDiff, err := diff.Inverse()
			if err != nil {
				return Polynomial{}, err
			}

			if factor, err = factor.MulScalar(invDiff); err != nil {
				return Polynomial{}, err
			}
			if basis, err = basis.Mul(factor); err != nil {
				return Polynomial{}, err
			}
		}

		term, err := basis.MulScalar(pt.Y)
		if err != nil {
			return Polynomial{}, err
		}
		if result, err = result.Add(term); err != nil {
			return Polynomial{}, err
		}
	}

	return result, nil
}
