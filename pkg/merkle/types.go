package merkle

import "github.com/x402labs/stealth-ledger-go/pkg/hashing"

// Tree is a binary merkle tree built once over an ordered sequence of
// byte-string leaves. It is immutable after construction; changing a leaf
// requires rebuilding the whole tree.
type Tree struct {
	// leaves holds a defensive copy of the original leaf values
	leaves [][]byte

	// levels stores all tree levels for proof generation.
	// levels[0] = hashed leaves, levels[len-1] = root
	levels [][][32]byte

	hash hashing.Func
}

// Proof shows that a leaf is included in a tree with a given root. It is
// self-contained: Verify needs nothing beyond the proof itself.
type Proof struct {
	// Leaf is the raw leaf value being proven
	Leaf []byte

	// Siblings contains the sibling hashes bottom-up.
	// Siblings[0] is the sibling of the leaf hash, Siblings[len-1] is near the root
	Siblings [][32]byte

	// Index is the position of the leaf in the tree
	Index int

	// Root is the tree root the proof commits to
	Root [32]byte

	hash hashing.Func
}

// NewProof reassembles a proof received from elsewhere so it can be verified
// locally with the given hash function.
func NewProof(leaf []byte, siblings [][32]byte, index int, root [32]byte, hash hashing.Func) *Proof {
	return &Proof{Leaf: leaf, Siblings: siblings, Index: index, Root: root, hash: hash}
}
