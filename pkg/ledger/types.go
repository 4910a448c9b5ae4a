package ledger

import (
	"github.com/x402labs/stealth-ledger-go/pkg/field"
	"github.com/x402labs/stealth-ledger-go/pkg/merkle"
)

// DestinationSize is the required byte length of a destination identifier.
const DestinationSize = 32

// StealthPayment is a committed payment record. Records are created only
// through the ledger and are immutable once created.
type StealthPayment struct {
	// Commitment = H(destination || amount-bytes(32) || timestamp-BE(8))
	Commitment [32]byte

	// Destination is the 32-byte destination identifier hidden by the commitment
	Destination [32]byte

	// Amount is the payment amount as a field element
	Amount field.Element

	// Timestamp is the payment time as an unsigned 64-bit integer
	Timestamp uint64
}

// PaymentRequest is one item of a batch insertion.
type PaymentRequest struct {
	Destination []byte
	Amount      uint64
	Timestamp   uint64
}

// ProofBundle carries everything a verifier needs: the payment commitment and
// its inclusion proof in the payment tree, the polynomial commitment with its
// evaluation sub-proofs, the Fiat-Shamir challenge, and the responses (the raw
// sampled evaluations at the fixed query indices).
//
// The bundle is produced per request and not retained by the ledger.
type ProofBundle struct {
	Commitment           [32]byte
	InclusionProof       *merkle.Proof
	PolynomialCommitment [32]byte
	EvaluationProofs     []*merkle.Proof
	Challenge            field.Element
	Responses            []field.Element
	PublicInputs         []field.Element
}
