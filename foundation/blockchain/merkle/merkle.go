// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.
// This code has been cleaned up, refactored, and turned into generics.

// Package merkle provides a binary hash tree over an ordered set of values
// with support for generating and folding inclusion proofs. The tree pairs
// nodes left to right; when a level holds an odd number of nodes (and more
// than one) the last node is duplicated to complete the pair. A tree over a
// single value has a root equal to that value's hash and an empty proof.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrNoValues is returned when a tree is requested over an empty value set.
var ErrNoValues = errors.New("cannot construct tree with no content")

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable[T any] interface {
	Hash() ([]byte, error)
	Equals(other T) bool
}

// =============================================================================

// ProofStep represents one sibling hash on the path from a leaf to the root.
// Left records the side the sibling takes when the two hashes are
// concatenated for the parent hash.
type ProofStep struct {
	Hash []byte
	Left bool
}

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits
// the behavior defined by the Hashable constraint.
type Tree[T Hashable[T]] struct {
	Root         *Node[T]
	Leafs        []*Node[T]
	MerkleRoot   []byte
	hashStrategy func() hash.Hash
}

// WithHashStrategy is used to change the default hash strategy of using
// sha256 when constructing a new tree.
func WithHashStrategy[T Hashable[T]](hashStrategy func() hash.Hash) func(t *Tree[T]) {
	return func(t *Tree[T]) {
		t.hashStrategy = hashStrategy
	}
}

// NewTree constructs a new merkle tree from the ordered set of values.
func NewTree[T Hashable[T]](values []T, options ...func(t *Tree[T])) (*Tree[T], error) {
	t := Tree[T]{
		hashStrategy: sha256.New,
	}

	for _, option := range options {
		option(&t)
	}

	if err := t.Generate(values); err != nil {
		return nil, err
	}

	return &t, nil
}

// Generate constructs the leafs and nodes of the tree from the specified
// data. If the tree has been generated previously, the tree is re-generated
// from scratch.
func (t *Tree[T]) Generate(values []T) error {
	if len(values) == 0 {
		return ErrNoValues
	}

	leafs := make([]*Node[T], 0, len(values))
	for _, value := range values {
		hash, err := value.Hash()
		if err != nil {
			return err
		}

		leafs = append(leafs, &Node[T]{
			Hash:  hash,
			Value: value,
			leaf:  true,
			Tree:  t,
		})
	}

	// A single value is its own root. No pairing takes place and the
	// inclusion proof for that value is empty.
	if len(leafs) == 1 {
		t.Root = leafs[0]
		t.Leafs = leafs
		t.MerkleRoot = leafs[0].Hash
		return nil
	}

	root, err := t.buildLevels(leafs)
	if err != nil {
		return err
	}

	t.Root = root
	t.Leafs = leafs
	t.MerkleRoot = root.Hash

	return nil
}

// buildLevels pairs nodes left to right, level by level, until a single root
// node remains. An odd level is completed by duplicating its last node.
func (t *Tree[T]) buildLevels(leafs []*Node[T]) (*Node[T], error) {
	level := leafs

	for len(level) > 1 {
		if len(level)%2 == 1 {
			last := level[len(level)-1]
			level = append(level, &Node[T]{
				Hash:  last.Hash,
				Value: last.Value,
				leaf:  last.leaf,
				dup:   true,
				Tree:  t,
			})
		}

		next := make([]*Node[T], 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			left, right := level[i], level[i+1]

			h := t.hashStrategy()
			if _, err := h.Write(left.Hash); err != nil {
				return nil, err
			}
			if _, err := h.Write(right.Hash); err != nil {
				return nil, err
			}

			n := Node[T]{
				Left:  left,
				Right: right,
				Hash:  h.Sum(nil),
				Tree:  t,
			}

			left.Parent = &n
			right.Parent = &n
			next = append(next, &n)
		}

		level = next
	}

	return level[0], nil
}

// Proof returns the ordered sibling path for the first leaf whose value
// equals the specified data. Each step carries the side the sibling hash
// takes in the concatenation so a verifier can fold the steps back to the
// root with FoldProof.
func (t *Tree[T]) Proof(data T) ([]ProofStep, error) {
	for _, leaf := range t.Leafs {
		if !leaf.Value.Equals(data) {
			continue
		}

		var steps []ProofStep

		node := leaf
		for node.Parent != nil {
			parent := node.Parent
			if parent.Left == node {
				steps = append(steps, ProofStep{Hash: parent.Right.Hash, Left: false})
			} else {
				steps = append(steps, ProofStep{Hash: parent.Left.Hash, Left: true})
			}
			node = parent
		}

		return steps, nil
	}

	return nil, errors.New("unable to find data in tree")
}

// Verify rehashes every level of the tree and reports whether the stored
// merkle root still matches the data.
func (t *Tree[T]) Verify() error {
	calculatedRoot, err := t.Root.verify()
	if err != nil {
		return err
	}

	if !bytes.Equal(t.MerkleRoot, calculatedRoot) {
		return errors.New("merkle root invalid")
	}

	return nil
}

// Values returns the ordered set of values stored in the tree.
func (t *Tree[T]) Values() []T {
	values := make([]T, len(t.Leafs))
	for i, leaf := range t.Leafs {
		values[i] = leaf.Value
	}

	return values
}

// RootHex converts the merkle root byte hash to a hex encoded string.
func (t *Tree[T]) RootHex() string {
	return hexutil.Encode(t.MerkleRoot)
}

// MarshalText implements the TextMarshaler interface and produces a panic
// if anyone tries to marshal the merkle tree. Use the Values function to
// return a slice that can be marshaled.
func (t *Tree[T]) MarshalText() (text []byte, err error) {
	panic("do not marshal the merkle tree, use Values")
}

// =============================================================================

// Node represents a node, root, or leaf in the tree. It stores pointers to
// its immediate relationships, a hash, and the data if it is a leaf.
type Node[T Hashable[T]] struct {
	Tree   *Tree[T]
	Parent *Node[T]
	Left   *Node[T]
	Right  *Node[T]
	Hash   []byte
	Value  T
	leaf   bool
	dup    bool
}

// verify walks down the tree until hitting a leaf, calculating the hash at
// each level and returning the resulting hash of the node.
func (n *Node[T]) verify() ([]byte, error) {
	if n.leaf {
		return n.Value.Hash()
	}

	leftBytes, err := n.Left.verify()
	if err != nil {
		return nil, err
	}

	rightBytes, err := n.Right.verify()
	if err != nil {
		return nil, err
	}

	h := n.Tree.hashStrategy()
	if _, err := h.Write(append(leftBytes, rightBytes...)); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

// String returns a string representation of the node.
func (n *Node[T]) String() string {
	return fmt.Sprintf("%t %t %v %v", n.leaf, n.dup, n.Hash, n.Value)
}

// =============================================================================

// FoldProof recomputes a candidate root by folding the leaf hash through the
// proof steps in order, placing the sibling hash on the side each step
// records. The result must be compared against a trusted root.
func FoldProof(leafHash []byte, steps []ProofStep, hashStrategy func() hash.Hash) ([]byte, error) {
	if len(leafHash) == 0 {
		return nil, errors.New("proof is missing the leaf hash")
	}

	current := leafHash
	for _, step := range steps {
		if len(step.Hash) != len(leafHash) {
			return nil, errors.New("proof step hash is malformed")
		}

		h := hashStrategy()
		if step.Left {
			if _, err := h.Write(step.Hash); err != nil {
				return nil, err
			}
			if _, err := h.Write(current); err != nil {
				return nil, err
			}
		} else {
			if _, err := h.Write(current); err != nil {
				return nil, err
			}
			if _, err := h.Write(step.Hash); err != nil {
				return nil, err
			}
		}

		current = h.Sum(nil)
	}

	return current, nil
}
