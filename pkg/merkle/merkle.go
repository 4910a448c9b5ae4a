package merkle

import (
	"errors"
	"fmt"

	"github.com/x402labs/stealth-ledger-go/pkg/hashing"
)

// ErrIndexOutOfRange is returned when a proof is requested for a leaf index
// outside [0, leaf count).
var ErrIndexOutOfRange = errors.New("leaf index out of range")

// Option customizes tree construction.
type Option func(*Tree)

// WithHashFunc selects the hash function used for leaves and internal nodes.
// The default is keccak256.
func WithHashFunc(h hashing.Func) Option {
	return func(t *Tree) {
		t.hash = h
	}
}

// NewTree builds all tree levels eagerly from the given leaves: level 0 is the
// hash of each leaf, and each subsequent level hashes ordered sibling pairs.
// An unpaired last node at an odd-length level is paired with itself. A tree
// over zero leaves is valid but has no root.
//
// The leaves are copied, so callers may reuse their buffers afterwards.
func NewTree(leaves [][]byte, opts ...Option) *Tree {
	t := &Tree{hash: hashing.Keccak256}
	for _, opt := range opts {
		opt(t)
	}

	t.leaves = make([][]byte, len(leaves))
	for i, leaf := range leaves {
		t.leaves[i] = make([]byte, len(leaf))
		copy(t.leaves[i], leaf)
	}

	if len(leaves) == 0 {
		return t
	}

	hashed := make([][32]byte, len(t.leaves))
	for i, leaf := range t.leaves {
		hashed[i] = t.hash(leaf)
	}

	levels := [][][32]byte{hashed}
	currentLevel := hashed
	for len(currentLevel) > 1 {
		nextLevel := make([][32]byte, 0, (len(currentLevel)+1)/2)

		for i := 0; i < len(currentLevel); i += 2 {
			left := currentLevel[i]
			right := left
			if i+1 < len(currentLevel) {
				right = currentLevel[i+1]
			}
			nextLevel = append(nextLevel, t.hash(left[:], right[:]))
		}

		levels = append(levels, nextLevel)
		currentLevel = nextLevel
	}

	t.levels = levels
	return t
}

// Root returns the tree root. The second return value is false for a tree
// built over zero leaves, which has no root by construction.
func (t *Tree) Root() ([32]byte, bool) {
	if len(t.levels) == 0 {
		return [32]byte{}, false
	}
	top := t.levels[len(t.levels)-1]
	return top[0], true
}

// LeafCount returns the number of leaves the tree was built from.
func (t *Tree) LeafCount() int {
	return len(t.leaves)
}

// Leaf returns a copy of the leaf at the given index, or false when the index
// is out of range.
func (t *Tree) Leaf(index int) ([]byte, bool) {
	if index < 0 || index >= len(t.leaves) {
		return nil, false
	}
	out := make([]byte, len(t.leaves[index]))
	copy(out, t.leaves[index])
	return out, true
}

// Proof generates an inclusion proof for the leaf at the given index by
// walking the levels bottom-up and collecting sibling hashes. An unpaired
// node contributes itself as its own sibling.
func (t *Tree) Proof(index int) (*Proof, error) {
	if index < 0 || index >= len(t.leaves) {
		return nil, fmt.Errorf("%w: %d (tree has %d leaves)", ErrIndexOutOfRange, index, len(t.leaves))
	}

	siblings := make([][32]byte, 0, len(t.levels)-1)
	current := index

	for level := 0; level < len(t.levels)-1; level++ {
		currentLevel := t.levels[level]

		siblingIndex := current + 1
		if current%2 == 1 {
			siblingIndex = current - 1
		}
		// Unpaired last node: its sibling is itself
		if siblingIndex >= len(currentLevel) {
			siblingIndex = current
		}

		siblings = append(siblings, currentLevel[siblingIndex])
		current /= 2
	}

	root, _ := t.Root()
	return &Proof{
		Leaf:     t.leaves[index],
		Siblings: siblings,
		Index:    index,
		Root:     root,
		hash:     t.hash,
	}, nil
}

// Verify recomputes the path hash from the leaf and siblings and compares it
// to the proof's root. At each level the index's low bit decides the
// concatenation order, then the index halves. Any mismatch returns false;
// verification never errors.
func (p *Proof) Verify() bool {
	if p == nil {
		return false
	}

	hash := p.hash
	if hash == nil {
		hash = hashing.Keccak256
	}

	current := hash(p.Leaf)
	index := p.Index

	for _, sibling := range p.Siblings {
		if index%2 == 0 {
			current = hash(current[:], sibling[:])
		} else {
			current = hash(sibling[:], current[:])
		}
		index /= 2
	}

	return current == p.Root
}
