package ledger

import (
	"crypto/rand"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/x402labs/stealth-ledger-go/pkg/hashing"
)

// testDestination creates a random 32-byte destination identifier
func testDestination(t *testing.T) []byte {
	t.Helper()
	destination := make([]byte, DestinationSize)
	_, err := rand.Read(destination)
	require.NoError(t, err)
	return destination
}

// TestCreatePayment tests the append+rebuild flow for a valid payment
func TestCreatePayment(t *testing.T) {
	l := New()
	destination := testDestination(t)

	record, err := l.CreatePayment(destination, 100, 1700000000)
	require.NoError(t, err)
	require.Equal(t, destination, record.Destination[:])
	require.Equal(t, uint64(1700000000), record.Timestamp)
	require.Equal(t, uint64(100), record.Amount.Big().Uint64())
	require.NotEqual(t, [32]byte{}, record.Commitment)

	require.Equal(t, 1, l.GetPaymentCount())
	_, ok := l.GetRoot()
	require.True(t, ok)
}

// TestCreatePaymentValidation tests rejection of malformed inputs
func TestCreatePaymentValidation(t *testing.T) {
	l := New()

	testCases := []struct {
		name        string
		destination []byte
		amount      uint64
	}{
		{"Empty destination", []byte{}, 100},
		{"Short destination", make([]byte, 31), 100},
		{"Long destination", make([]byte, 33), 100},
		{"Zero amount", make([]byte, 32), 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.CreatePayment(tc.destination, tc.amount, 1700000000)
			require.Error(t, err)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
		})
	}

	// Nothing was appended
	require.Equal(t, 0, l.GetPaymentCount())
	_, ok := l.GetRoot()
	require.False(t, ok)
}

// TestCommitmentPreimageLayout tests the exact 72-byte commitment preimage:
// destination(32) || amount-bytes(32) || timestamp-BE(8)
func TestCommitmentPreimageLayout(t *testing.T) {
	l := New()
	destination := testDestination(t)

	record, err := l.CreatePayment(destination, 5000, 1234567890)
	require.NoError(t, err)

	preimage := make([]byte, 0, 72)
	preimage = append(preimage, destination...)
	amountBytes := record.Amount.Bytes()
	preimage = append(preimage, amountBytes[:]...)
	var tsBytes [8]byte
	binary.BigEndian.PutUint64(tsBytes[:], 1234567890)
	preimage = append(preimage, tsBytes[:]...)

	require.Len(t, preimage, 72)
	require.Equal(t, hashing.Keccak256(preimage), record.Commitment)
}

// TestCommitmentDeterminism tests that identical inputs commit identically
// and differing inputs do not
func TestCommitmentDeterminism(t *testing.T) {
	destination := testDestination(t)

	a, err := New().CreatePayment(destination, 100, 1700000000)
	require.NoError(t, err)
	b, err := New().CreatePayment(destination, 100, 1700000000)
	require.NoError(t, err)
	require.Equal(t, a.Commitment, b.Commitment)

	c, err := New().CreatePayment(destination, 101, 1700000000)
	require.NoError(t, err)
	require.NotEqual(t, a.Commitment, c.Commitment)
}

// TestCreateBatchPayments tests batch insertion with a single tree rebuild
func TestCreateBatchPayments(t *testing.T) {
	l := New()

	requests := make([]PaymentRequest, 5)
	for i := range requests {
		requests[i] = PaymentRequest{
			Destination: testDestination(t),
			Amount:      uint64(100 + i),
			Timestamp:   uint64(1700000000 + i),
		}
	}

	created, err := l.CreateBatchPayments(requests)
	require.NoError(t, err)
	require.Len(t, created, 5)
	require.Equal(t, 5, l.GetPaymentCount())

	// One rebuild for the whole batch
	require.Equal(t, uint64(1), l.TreeRebuilds())

	// Sequential single inserts rebuild once per call
	single := New()
	for _, req := range requests {
		_, err := single.CreatePayment(req.Destination, req.Amount, req.Timestamp)
		require.NoError(t, err)
	}
	require.Equal(t, uint64(5), single.TreeRebuilds())

	// Batched and sequential insertion agree on the root
	batchRoot, _ := l.GetRoot()
	singleRoot, _ := single.GetRoot()
	require.Equal(t, batchRoot, singleRoot)
}

// TestCreateBatchPaymentsEmpty tests the empty batch rejection
func TestCreateBatchPaymentsEmpty(t *testing.T) {
	_, err := New().CreateBatchPayments(nil)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

// TestCreateBatchPaymentsFailFast tests that the first invalid item aborts
// the batch while earlier items remain appended
func TestCreateBatchPaymentsFailFast(t *testing.T) {
	l := New()

	requests := []PaymentRequest{
		{Destination: testDestination(t), Amount: 1, Timestamp: 1},
		{Destination: testDestination(t), Amount: 2, Timestamp: 2},
		{Destination: []byte("short"), Amount: 3, Timestamp: 3},
		{Destination: testDestination(t), Amount: 4, Timestamp: 4},
	}

	_, err := l.CreateBatchPayments(requests)
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	// The two valid items before the failure stay appended and the tree
	// covers them
	require.Equal(t, 2, l.GetPaymentCount())
	root, ok := l.GetRoot()
	require.True(t, ok)
	require.NotEqual(t, [32]byte{}, root)
}

// TestGetPayment tests index lookups including out-of-range absence
func TestGetPayment(t *testing.T) {
	l := New()
	record, err := l.CreatePayment(testDestination(t), 100, 1700000000)
	require.NoError(t, err)

	got, ok := l.GetPayment(0)
	require.True(t, ok)
	require.Equal(t, record.Commitment, got.Commitment)

	_, ok = l.GetPayment(-1)
	require.False(t, ok)
	_, ok = l.GetPayment(1)
	require.False(t, ok)
}

// TestGetPaymentByCommitment tests commitment-keyed lookup
func TestGetPaymentByCommitment(t *testing.T) {
	l := New()
	record, err := l.CreatePayment(testDestination(t), 100, 1700000000)
	require.NoError(t, err)

	got, ok := l.GetPaymentByCommitment(record.Commitment)
	require.True(t, ok)
	require.Equal(t, record.Destination, got.Destination)

	_, ok = l.GetPaymentByCommitment([32]byte{1, 2, 3})
	require.False(t, ok)
}

// TestEmptyLedgerState tests the empty state: no root, no payments
func TestEmptyLedgerState(t *testing.T) {
	l := New()

	require.Equal(t, 0, l.GetPaymentCount())
	_, ok := l.GetRoot()
	require.False(t, ok)
	_, ok = l.GetPayment(0)
	require.False(t, ok)
}

// TestCreatePaymentNow tests the wall-clock convenience constructor
func TestCreatePaymentNow(t *testing.T) {
	l := New()
	l.now = func() uint64 { return 4242 }

	record, err := l.CreatePaymentNow(testDestination(t), 9)
	require.NoError(t, err)
	require.Equal(t, uint64(4242), record.Timestamp)
}

// TestRootChangesOnAppend tests that every append moves the root
func TestRootChangesOnAppend(t *testing.T) {
	l := New()

	_, err := l.CreatePayment(testDestination(t), 1, 1)
	require.NoError(t, err)
	first, _ := l.GetRoot()

	_, err = l.CreatePayment(testDestination(t), 2, 2)
	require.NoError(t, err)
	second, _ := l.GetRoot()

	require.NotEqual(t, first, second)
}

// TestAlternativeHash tests a ledger configured with sha256
func TestAlternativeHash(t *testing.T) {
	keccak := New()
	sha := New(WithHashFunc(hashing.SHA256))
	destination := testDestination(t)

	a, err := keccak.CreatePayment(destination, 100, 1700000000)
	require.NoError(t, err)
	b, err := sha.CreatePayment(destination, 100, 1700000000)
	require.NoError(t, err)

	require.NotEqual(t, a.Commitment, b.Commitment)
}
