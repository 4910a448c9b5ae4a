package hashing

import (
	"crypto/sha256"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// Func is a 256-bit collision-resistant hash over the concatenation of its inputs.
// Every hash in the payment scheme (commitments, tree nodes, challenges) goes
// through one of these, so swapping the algorithm swaps it everywhere at once.
type Func func(data ...[]byte) [32]byte

// Algorithm names accepted by FromName.
const (
	AlgorithmKeccak256 = "keccak256"
	AlgorithmSHA256    = "sha256"
	AlgorithmSHA3      = "sha3-256"
)

// Keccak256 hashes with the Ethereum keccak256 variant. This is the default so
// that payment tree roots stay verifiable by Solidity contracts.
func Keccak256(data ...[]byte) [32]byte {
	return [32]byte(crypto.Keccak256Hash(data...))
}

// SHA256 hashes with FIPS 180-4 SHA-256.
func SHA256(data ...[]byte) [32]byte {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// SHA3 hashes with FIPS 202 SHA3-256.
func SHA3(data ...[]byte) [32]byte {
	h := sha3.New256()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// FromName resolves an algorithm name to its hash function.
func FromName(name string) (Func, error) {
	switch name {
	case AlgorithmKeccak256:
		return Keccak256, nil
	case AlgorithmSHA256:
		return SHA256, nil
	case AlgorithmSHA3:
		return SHA3, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", name)
	}
}

// SupportedAlgorithms lists the accepted algorithm names for CLI help text.
func SupportedAlgorithms() []string {
	return []string{AlgorithmKeccak256, AlgorithmSHA256, AlgorithmSHA3}
}
