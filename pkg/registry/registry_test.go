package registry

import (
	"crypto/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/x402labs/stealth-ledger-go/pkg/ledger"
)

// TestOpenGetClose tests the handle lifecycle
func TestOpenGetClose(t *testing.T) {
	r := New(nil)

	handle, l := r.Open()
	require.NotNil(t, l)
	require.Equal(t, 1, r.Count())

	got, ok := r.Get(handle)
	require.True(t, ok)
	require.Same(t, l, got)

	require.True(t, r.Close(handle))
	require.Equal(t, 0, r.Count())
	_, ok = r.Get(handle)
	require.False(t, ok)

	// Closing twice is a no-op
	require.False(t, r.Close(handle))
}

// TestLedgersAreIsolated tests that each tenant's ledger owns its own state
func TestLedgersAreIsolated(t *testing.T) {
	r := New(nil)

	_, a := r.Open()
	_, b := r.Open()

	destination := make([]byte, ledger.DestinationSize)
	_, err := rand.Read(destination)
	require.NoError(t, err)

	_, err = a.CreatePayment(destination, 100, 1700000000)
	require.NoError(t, err)

	require.Equal(t, 1, a.GetPaymentCount())
	require.Equal(t, 0, b.GetPaymentCount())
}

// TestResolve tests textual handle resolution
func TestResolve(t *testing.T) {
	r := New(nil)
	handle, l := r.Open()

	got, err := r.Resolve(handle.String())
	require.NoError(t, err)
	require.Same(t, l, got)

	_, err = r.Resolve("not-a-uuid")
	require.Error(t, err)

	_, err = r.Resolve(uuid.NewString())
	require.ErrorIs(t, err, ErrUnknownHandle)
}

// TestOpenAppliesOptions tests that registry-level ledger options propagate
func TestOpenAppliesOptions(t *testing.T) {
	r := New(nil)

	_, l := r.Open()
	destination := make([]byte, ledger.DestinationSize)
	_, err := rand.Read(destination)
	require.NoError(t, err)

	record, err := l.CreatePayment(destination, 42, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(42), record.Amount.Big().Uint64())
}
