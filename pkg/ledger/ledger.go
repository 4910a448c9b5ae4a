package ledger

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/x402labs/stealth-ledger-go/pkg/field"
	"github.com/x402labs/stealth-ledger-go/pkg/hashing"
	"github.com/x402labs/stealth-ledger-go/pkg/merkle"
	"github.com/x402labs/stealth-ledger-go/pkg/polynomial"
)

const (
	// evaluationSamples is the number of pseudo-random points the trace
	// polynomial is evaluated at before committing to the evaluations.
	evaluationSamples = 8
)

// queryIndices are the fixed evaluation-tree positions opened in every proof.
var queryIndices = []int{0, 2, 4, 6}

// Ledger is an append-only stealth payment ledger. It owns an ordered
// sequence of payment records and a merkle tree over their commitments,
// rebuilt after every mutation.
//
// A single mutex guards the append+rebuild+read sequence, so one Ledger is
// safe for concurrent use. All operations are bounded CPU-only computations;
// there is no cancellation concept.
type Ledger struct {
	mu      lockedState
	hash    hashing.Func
	modulus *big.Int
	logger  *zap.Logger
	now     func() uint64
}

// lockedState bundles the mutable state under the ledger's lock.
type lockedState struct {
	sync.Mutex
	payments     []StealthPayment
	byCommitment map[[32]byte]int
	tree         *merkle.Tree
	rebuilds     uint64
}

// Option customizes ledger construction.
type Option func(*Ledger)

// WithLogger attaches a logger; the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithHashFunc selects the 256-bit hash used for commitments, tree nodes and
// challenge derivation. The default is keccak256.
func WithHashFunc(h hashing.Func) Option {
	return func(l *Ledger) {
		l.hash = h
	}
}

// WithModulus selects the prime field modulus for amounts, traces and
// challenges. The default is field.StarkPrime. The modulus must fit in 32
// bytes so field elements serialize without truncation.
func WithModulus(modulus *big.Int) Option {
	return func(l *Ledger) {
		l.modulus = new(big.Int).Set(modulus)
	}
}

// New constructs an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		hash:    hashing.Keccak256,
		modulus: new(big.Int).Set(field.StarkPrime),
		logger:  zap.NewNop(),
		now:     func() uint64 { return uint64(time.Now().Unix()) },
	}
	for _, opt := range opts {
		opt(l)
	}
	l.mu.byCommitment = make(map[[32]byte]int)
	return l
}

// CreatePayment validates the inputs, builds the commitment, appends the
// record and rebuilds the payment tree. The destination must be exactly 32
// bytes and the amount at least 1.
func (l *Ledger) CreatePayment(destination []byte, amount uint64, timestamp uint64) (StealthPayment, error) {
	record, err := l.buildRecord(destination, amount, timestamp)
	if err != nil {
		return StealthPayment{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.append(record)
	l.rebuildTree()

	l.logger.Debug("created stealth payment",
		zap.Int("index", len(l.mu.payments)-1),
		zap.Uint64("amount", amount),
		zap.Uint64("timestamp", timestamp))

	return record, nil
}

// CreatePaymentNow is CreatePayment with the timestamp taken from the wall
// clock.
func (l *Ledger) CreatePaymentNow(destination []byte, amount uint64) (StealthPayment, error) {
	return l.CreatePayment(destination, amount, l.now())
}

// CreateBatchPayments validates and appends each request in order, then
// rebuilds the tree exactly once. Validation fails fast: the first invalid
// item aborts the batch, but items appended before it remain appended (the
// batch is not atomic). An empty batch is a ValidationError.
func (l *Ledger) CreateBatchPayments(requests []PaymentRequest) ([]StealthPayment, error) {
	if len(requests) == 0 {
		return nil, &ValidationError{Field: "batch", Reason: "batch must contain at least one payment"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	created := make([]StealthPayment, 0, len(requests))
	var firstErr error
	for i, req := range requests {
		record, err := l.buildRecord(req.Destination, req.Amount, req.Timestamp)
		if err != nil {
			firstErr = fmt.Errorf("batch item %d: %w", i, err)
			break
		}
		l.append(record)
		created = append(created, record)
	}

	// One rebuild covers the whole batch, also on the failure path so the
	// tree never lags behind appended records.
	if len(created) > 0 {
		l.rebuildTree()
	}
	if firstErr != nil {
		return nil, firstErr
	}

	l.logger.Debug("created payment batch", zap.Int("count", len(created)))
	return created, nil
}

// GenerateProof builds a proof bundle for the payment at the given index.
//
// The trace [amount, timestamp, publicInputs...] is interpolated through the
// points (0, trace[0]), (1, trace[1]), ... and the resulting polynomial is
// evaluated at 8 independently drawn random field elements. A second merkle
// tree over those evaluations yields the polynomial commitment; the challenge
// is H(polynomialCommitment || publicInputs-bytes) reduced into the field.
// The responses are the raw evaluations at the fixed query indices {0,2,4,6}
// together with their inclusion sub-proofs.
func (l *Ledger) GenerateProof(index int, publicInputs []field.Element) (*ProofBundle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mu.tree == nil {
		return nil, &ProofError{Reason: "ledger has no payments"}
	}
	if index < 0 || index >= len(l.mu.payments) {
		return nil, &ProofError{Reason: fmt.Sprintf("payment index %d out of range [0, %d)", index, len(l.mu.payments))}
	}

	payment := l.mu.payments[index]

	inclusionProof, err := l.mu.tree.Proof(index)
	if err != nil {
		return nil, errors.Wrap(err, "generating inclusion proof")
	}

	trace := make([]polynomial.Point, 0, 2+len(publicInputs))
	trace = append(trace,
		polynomial.Point{X: field.Zero(l.modulus), Y: payment.Amount},
		polynomial.Point{X: field.One(l.modulus), Y: field.NewElementFromUint64(payment.Timestamp, l.modulus)},
	)
	for i, input := range publicInputs {
		trace = append(trace, polynomial.Point{
			X: field.NewElementFromUint64(uint64(2+i), l.modulus),
			Y: input,
		})
	}

	poly, err := polynomial.Interpolate(trace)
	if err != nil {
		return nil, errors.Wrap(err, "interpolating trace polynomial")
	}

	evaluations := make([]field.Element, evaluationSamples)
	evalLeaves := make([][]byte, evaluationSamples)
	for i := 0; i < evaluationSamples; i++ {
		x, err := field.Random(l.modulus)
		if err != nil {
			return nil, errors.Wrap(err, "sampling evaluation point")
		}
		y, err := poly.Evaluate(x)
		if err != nil {
			return nil, errors.Wrap(err, "evaluating trace polynomial")
		}
		evaluations[i] = y
		leaf := y.Bytes()
		evalLeaves[i] = leaf[:]
	}

	evalTree := merkle.NewTree(evalLeaves, merkle.WithHashFunc(l.hash))
	polyCommitment, _ := evalTree.Root()

	challenge := l.deriveChallenge(polyCommitment, publicInputs)

	evalProofs := make([]*merkle.Proof, 0, len(queryIndices))
	responses := make([]field.Element, 0, len(queryIndices))
	for _, qi := range queryIndices {
		proof, err := evalTree.Proof(qi)
		if err != nil {
			return nil, errors.Wrap(err, "generating evaluation sub-proof")
		}
		evalProofs = append(evalProofs, proof)
		responses = append(responses, evaluations[qi])
	}

	l.logger.Debug("generated payment proof",
		zap.Int("index", index),
		zap.Int("public_inputs", len(publicInputs)))

	return &ProofBundle{
		Commitment:           payment.Commitment,
		InclusionProof:       inclusionProof,
		PolynomialCommitment: polyCommitment,
		EvaluationProofs:     evalProofs,
		Challenge:            challenge,
		Responses:            responses,
		PublicInputs:         publicInputs,
	}, nil
}

// VerifyProof checks a proof bundle against an expected payment tree root.
// It reruns the inclusion check, the root-equality check, every evaluation
// sub-proof with its stated response value, and the challenge recomputation.
// Any failure, including a malformed bundle, yields false; verification never
// errors.
func (l *Ledger) VerifyProof(proof *ProofBundle, expectedRoot [32]byte) bool {
	if proof == nil || proof.InclusionProof == nil {
		return false
	}

	// The inclusion proof must open the bundle's own commitment
	if !bytes.Equal(proof.InclusionProof.Leaf, proof.Commitment[:]) {
		return false
	}
	if !proof.InclusionProof.Verify() {
		return false
	}
	if proof.InclusionProof.Root != expectedRoot {
		return false
	}

	if len(proof.EvaluationProofs) != len(queryIndices) ||
		len(proof.Responses) != len(queryIndices) {
		return false
	}
	for i, sub := range proof.EvaluationProofs {
		// Each sub-proof must open the stated response value
		response := proof.Responses[i].Bytes()
		if sub == nil || !bytes.Equal(sub.Leaf, response[:]) {
			return false
		}
		if !sub.Verify() {
			return false
		}
	}

	expected := l.deriveChallenge(proof.PolynomialCommitment, proof.PublicInputs)
	return expected.Equal(proof.Challenge)
}

// GetRoot returns the current payment tree root, or false for an empty
// ledger.
func (l *Ledger) GetRoot() ([32]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mu.tree == nil {
		return [32]byte{}, false
	}
	return l.mu.tree.Root()
}

// GetPaymentCount returns the number of payments appended so far.
func (l *Ledger) GetPaymentCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.mu.payments)
}

// GetPayment returns the payment at the given index. An out-of-range index,
// negative included, reports absence rather than an error.
func (l *Ledger) GetPayment(index int) (StealthPayment, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.mu.payments) {
		return StealthPayment{}, false
	}
	return l.mu.payments[index], true
}

// GetPaymentByCommitment looks a payment up by its commitment hash. When the
// same commitment was appended more than once the most recent record wins.
func (l *Ledger) GetPaymentByCommitment(commitment [32]byte) (StealthPayment, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	index, ok := l.mu.byCommitment[commitment]
	if !ok {
		return StealthPayment{}, false
	}
	return l.mu.payments[index], true
}

// TreeRebuilds returns how many times the payment tree was rebuilt. Batch
// insertion rebuilds once per batch, single insertion once per call.
func (l *Ledger) TreeRebuilds() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mu.rebuilds
}

// buildRecord validates the inputs and assembles a record without touching
// ledger state.
func (l *Ledger) buildRecord(destination []byte, amount uint64, timestamp uint64) (StealthPayment, error) {
	if len(destination) != DestinationSize {
		return StealthPayment{}, &ValidationError{
			Field:  "destination",
			Reason: fmt.Sprintf("must be exactly %d bytes, got %d", DestinationSize, len(destination)),
		}
	}
	if amount < 1 {
		return StealthPayment{}, &ValidationError{Field: "amount", Reason: "must be at least 1"}
	}

	var dest [32]byte
	copy(dest[:], destination)

	amountElem := field.NewElementFromUint64(amount, l.modulus)

	return StealthPayment{
		Commitment:  l.commitmentHash(dest, amountElem, timestamp),
		Destination: dest,
		Amount:      amountElem,
		Timestamp:   timestamp,
	}, nil
}

// commitmentHash computes H over the 72-byte preimage
// destination(32) || amount-bytes(32) || timestamp-BE(8).
func (l *Ledger) commitmentHash(destination [32]byte, amount field.Element, timestamp uint64) [32]byte {
	preimage := make([]byte, 0, 72)
	preimage = append(preimage, destination[:]...)
	amountBytes := amount.Bytes()
	preimage = append(preimage, amountBytes[:]...)
	var tsBytes [8]byte
	binary.BigEndian.PutUint64(tsBytes[:], timestamp)
	preimage = append(preimage, tsBytes[:]...)

	return l.hash(preimage)
}

// deriveChallenge hashes the polynomial commitment together with the public
// input encodings and reduces the digest into the field.
func (l *Ledger) deriveChallenge(polyCommitment [32]byte, publicInputs []field.Element) field.Element {
	preimage := make([]byte, 0, 32+32*len(publicInputs))
	preimage = append(preimage, polyCommitment[:]...)
	for _, input := range publicInputs {
		b := input.Bytes()
		preimage = append(preimage, b[:]...)
	}

	digest := l.hash(preimage)
	return field.FromBytes(digest[:], l.modulus)
}

// append adds a record to the payment list and the commitment index. Callers
// must hold the lock.
func (l *Ledger) append(record StealthPayment) {
	l.mu.payments = append(l.mu.payments, record)
	l.mu.byCommitment[record.Commitment] = len(l.mu.payments) - 1
}

// rebuildTree rebuilds the commitment tree from scratch, O(total payments).
// Callers must hold the lock.
func (l *Ledger) rebuildTree() {
	leaves := make([][]byte, len(l.mu.payments))
	for i, p := range l.mu.payments {
		leaves[i] = p.Commitment[:]
	}
	l.mu.tree = merkle.NewTree(leaves, merkle.WithHashFunc(l.hash))
	l.mu.rebuilds++
}
