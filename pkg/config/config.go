package config

import (
	"fmt"
	"math/big"
	"strings"

	k8sfield "k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/x402labs/stealth-ledger-go/pkg/field"
	"github.com/x402labs/stealth-ledger-go/pkg/hashing"
	"github.com/x402labs/stealth-ledger-go/pkg/ledger"
)

// Environment variable names for ledger tooling configuration
const (
	EnvLedgerHash    = "X402_LEDGER_HASH"
	EnvLedgerModulus = "X402_LEDGER_MODULUS"
	EnvVerbose       = "X402_VERBOSE"
)

// LedgerConfig carries the tunable parameters of a ledger instance: the hash
// algorithm behind commitments and tree nodes, and the prime field modulus.
type LedgerConfig struct {
	// HashAlgorithm is one of the hashing.Algorithm* names
	HashAlgorithm string `json:"hash_algorithm"`

	// Modulus is the field modulus as a decimal or 0x-prefixed hex string.
	// Empty selects the reference 251-bit prime.
	Modulus string `json:"modulus,omitempty"`

	// Verbose enables debug logging
	Verbose bool `json:"verbose"`
}

// DefaultLedgerConfig returns the reference configuration: keccak256 hashing
// over the 251-bit prime 2^251 + 17*2^192 + 1.
func DefaultLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		HashAlgorithm: hashing.AlgorithmKeccak256,
	}
}

// Validate checks the configuration and aggregates all problems into one
// error.
func (c *LedgerConfig) Validate() error {
	var allErrors k8sfield.ErrorList

	if _, err := hashing.FromName(c.HashAlgorithm); err != nil {
		allErrors = append(allErrors, k8sfield.NotSupported(
			k8sfield.NewPath("hashAlgorithm"), c.HashAlgorithm, hashing.SupportedAlgorithms()))
	}

	if c.Modulus != "" {
		modulus, err := parseModulus(c.Modulus)
		if err != nil {
			allErrors = append(allErrors, k8sfield.Invalid(
				k8sfield.NewPath("modulus"), c.Modulus, err.Error()))
		} else if modulus.BitLen() > 256 {
			allErrors = append(allErrors, k8sfield.Invalid(
				k8sfield.NewPath("modulus"), c.Modulus,
				"must fit in 256 bits so field elements serialize into 32 bytes"))
		}
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// HashFunc resolves the configured hash algorithm.
func (c *LedgerConfig) HashFunc() (hashing.Func, error) {
	return hashing.FromName(c.HashAlgorithm)
}

// FieldModulus resolves the configured modulus.
func (c *LedgerConfig) FieldModulus() (*big.Int, error) {
	if c.Modulus == "" {
		return new(big.Int).Set(field.StarkPrime), nil
	}
	return parseModulus(c.Modulus)
}

// LedgerOptions converts the configuration into ledger constructor options.
// Validate must have passed first.
func (c *LedgerConfig) LedgerOptions() ([]ledger.Option, error) {
	h, err := c.HashFunc()
	if err != nil {
		return nil, err
	}
	modulus, err := c.FieldModulus()
	if err != nil {
		return nil, err
	}
	return []ledger.Option{ledger.WithHashFunc(h), ledger.WithModulus(modulus)}, nil
}

func parseModulus(s string) (*big.Int, error) {
	base := 10
	digits := s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		digits = s[2:]
	}

	modulus, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, fmt.Errorf("not a valid integer: %s", s)
	}
	if modulus.Cmp(big.NewInt(2)) <= 0 {
		return nil, fmt.Errorf("modulus must be greater than 2")
	}
	return modulus, nil
}
