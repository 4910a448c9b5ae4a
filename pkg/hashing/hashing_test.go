package hashing

import (
	"crypto/sha256"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

// TestKeccak256MatchesGoEthereum tests the keccak variant against the
// go-ethereum primitive directly
func TestKeccak256MatchesGoEthereum(t *testing.T) {
	data := []byte("x402 stealth payment")
	require.Equal(t, [32]byte(crypto.Keccak256Hash(data)), Keccak256(data))
}

// TestSHA256MatchesStdlib tests the sha256 variant against crypto/sha256
func TestSHA256MatchesStdlib(t *testing.T) {
	data := []byte("x402 stealth payment")
	require.Equal(t, [32]byte(sha256.Sum256(data)), SHA256(data))
}

// TestMultiInputConcatenation tests that variadic inputs hash like their
// concatenation
func TestMultiInputConcatenation(t *testing.T) {
	left := []byte("left")
	right := []byte("right")

	for _, name := range SupportedAlgorithms() {
		h, err := FromName(name)
		require.NoError(t, err)
		require.Equal(t, h(append(append([]byte{}, left...), right...)), h(left, right),
			"algorithm %s should hash concatenated inputs identically", name)
	}
}

// TestAlgorithmsDiffer tests that the three algorithms disagree on the same
// input
func TestAlgorithmsDiffer(t *testing.T) {
	data := []byte("input")
	require.NotEqual(t, Keccak256(data), SHA256(data))
	require.NotEqual(t, Keccak256(data), SHA3(data))
	require.NotEqual(t, SHA256(data), SHA3(data))
}

// TestFromNameUnknown tests rejection of unknown algorithm names
func TestFromNameUnknown(t *testing.T) {
	_, err := FromName("md5")
	require.Error(t, err)
}
