package merkle_test

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"testing"

	"github.com/chainlabs/minersim/foundation/blockchain/merkle"
)

// Data uses the sha256 hashing algorithm for the merkle tree.
type Data struct {
	x string
}

// Hash hashes the value using sha256.
func (d Data) Hash() ([]byte, error) {
	h := sha256.Sum256([]byte(d.x))
	return h[:], nil
}

// Equals tests for equality of two pieces of data.
func (d Data) Equals(other Data) bool {
	return d.x == other.x
}

func values(ss ...string) []Data {
	data := make([]Data, len(ss))
	for i, s := range ss {
		data[i] = Data{x: s}
	}
	return data
}

// =============================================================================

func Test_RootHashes(t *testing.T) {
	table := []struct {
		name string
		data []Data
		root string
	}{
		// A single value is its own root.
		{"single", values("a"), "0xca978112ca1bbdcafac231b39a23dc4da786eff8147c4e72b9807785afee48bb"},

		// Two values: H(H(a) || H(b)).
		{"pair", values("a", "b"), "0xe5a01fee14e0ed5c48714f22180f25ad8365b53f9779f79dc4a3d7e93963f94a"},

		// Three values: the odd level is completed by duplicating the last
		// node, so the root is H(H(H(a)||H(b)) || H(H(c)||H(c))).
		{"odd", values("a", "b", "c"), "0xd31a37ef6ac14a2db1470c4316beb5592e6afd4465022339adafda76a18ffabe"},
	}

	for _, tst := range table {
		tree, err := merkle.NewTree(tst.data)
		if err != nil {
			t.Fatalf("[%s] unexpected error: %v", tst.name, err)
		}

		if got := tree.RootHex(); got != tst.root {
			t.Errorf("[%s] wrong root, got %s, exp %s", tst.name, got, tst.root)
		}
	}
}

func Test_EmptyTreeRejected(t *testing.T) {
	if _, err := merkle.NewTree([]Data{}); !errors.Is(err, merkle.ErrNoValues) {
		t.Fatalf("expected ErrNoValues for an empty value set, got %v", err)
	}
}

func Test_SingleLeafProofIsEmpty(t *testing.T) {
	tree, err := merkle.NewTree(values("a"))
	if err != nil {
		t.Fatal(err)
	}

	steps, err := tree.Proof(Data{x: "a"})
	if err != nil {
		t.Fatal(err)
	}

	if len(steps) != 0 {
		t.Fatalf("expected an empty proof for a single leaf tree, got %d steps", len(steps))
	}

	leafHash, _ := Data{x: "a"}.Hash()
	if !bytes.Equal(tree.MerkleRoot, leafHash) {
		t.Fatal("expected the root of a single leaf tree to equal the leaf hash")
	}
}

func Test_ProofsFoldToRoot(t *testing.T) {

	// Every leaf of every tree size must fold back to the root through
	// its sibling path.
	for size := 1; size <= 8; size++ {
		var data []Data
		for i := 0; i < size; i++ {
			data = append(data, Data{x: fmt.Sprintf("value-%d", i)})
		}

		tree, err := merkle.NewTree(data)
		if err != nil {
			t.Fatalf("[size:%d] unexpected error: %v", size, err)
		}

		for i, d := range data {
			steps, err := tree.Proof(d)
			if err != nil {
				t.Fatalf("[size:%d leaf:%d] unexpected error: %v", size, i, err)
			}

			leafHash, _ := d.Hash()
			root, err := merkle.FoldProof(leafHash, steps, sha256.New)
			if err != nil {
				t.Fatalf("[size:%d leaf:%d] unexpected error: %v", size, i, err)
			}

			if !bytes.Equal(root, tree.MerkleRoot) {
				t.Errorf("[size:%d leaf:%d] proof does not fold to the root", size, i)
			}
		}
	}
}

func Test_TamperedProofDoesNotFold(t *testing.T) {
	tree, err := merkle.NewTree(values("a", "b", "c", "d", "e"))
	if err != nil {
		t.Fatal(err)
	}

	target := Data{x: "c"}
	steps, err := tree.Proof(target)
	if err != nil {
		t.Fatal(err)
	}

	leafHash, _ := target.Hash()

	// Flip one byte of one sibling hash.
	steps[1].Hash[0] ^= 0x01

	root, err := merkle.FoldProof(leafHash, steps, sha256.New)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Equal(root, tree.MerkleRoot) {
		t.Fatal("expected a tampered proof to fold to a different root")
	}
}

func Test_FoldProofMalformed(t *testing.T) {
	if _, err := merkle.FoldProof(nil, nil, sha256.New); err == nil {
		t.Fatal("expected an error for a proof missing the leaf hash")
	}

	leafHash, _ := Data{x: "a"}.Hash()
	steps := []merkle.ProofStep{{Hash: []byte{0x01}, Left: true}}
	if _, err := merkle.FoldProof(leafHash, steps, sha256.New); err == nil {
		t.Fatal("expected an error for a truncated step hash")
	}
}

func Test_VerifyTree(t *testing.T) {
	tree, err := merkle.NewTree(values("a", "b", "c", "d"))
	if err != nil {
		t.Fatal(err)
	}

	if err := tree.Verify(); err != nil {
		t.Fatalf("expected the tree to verify: %v", err)
	}

	tree.MerkleRoot = []byte{0x01}
	if err := tree.Verify(); err == nil {
		t.Fatal("expected a tampered root to fail verification")
	}
}

func Test_ValuesPreserveOrder(t *testing.T) {
	data := values("a", "b", "c")

	tree, err := merkle.NewTree(data)
	if err != nil {
		t.Fatal(err)
	}

	vals := tree.Values()
	if len(vals) != len(data) {
		t.Fatalf("expected %d values, got %d", len(data), len(vals))
	}

	for i := range data {
		if !vals[i].Equals(data[i]) {
			t.Fatalf("value %d out of order", i)
		}
	}
}
