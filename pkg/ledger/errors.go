package ledger

import "fmt"

// ValidationError reports malformed or out-of-policy input to a ledger
// mutation: wrong-length destination, non-positive amount, empty batch.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProofError reports a proof request against an index outside the current
// payment range or against an empty ledger. Tampered or forged proofs are not
// errors; VerifyProof reports them as false.
type ProofError struct {
	Reason string
}

func (e *ProofError) Error() string {
	return "proof error: " + e.Reason
}
