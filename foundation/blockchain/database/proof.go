package database

import (
	"crypto/sha256"
	"fmt"

	"github.com/chainlabs/minersim/foundation/blockchain/merkle"
	"github.com/chainlabs/minersim/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Proof step positions record the side the sibling hash takes in the
// concatenation when folding the proof back to the root.
const (
	ProofStepLeft  = "left"
	ProofStepRight = "right"
)

// ProofStep is one sibling hash on the path from the leaf to the root.
type ProofStep struct {
	Hash     string `json:"hash"`
	Position string `json:"position"`
}

// Proof is the standalone inclusion proof artifact for one transaction in one
// block. It carries enough context to be verified against a recorded merkle
// root without the chain file being present.
type Proof struct {
	BlockNumber uint64      `json:"block_number"`
	TxHash      string      `json:"transaction_hash"`
	Steps       []ProofStep `json:"steps"`
}

// NewProof converts the merkle sibling path for the specified transaction
// into the persisted proof form.
func NewProof(blockNumber uint64, txHash string, steps []merkle.ProofStep) Proof {
	proof := Proof{
		BlockNumber: blockNumber,
		TxHash:      txHash,
		Steps:       make([]ProofStep, len(steps)),
	}

	for i, step := range steps {
		position := ProofStepRight
		if step.Left {
			position = ProofStepLeft
		}
		proof.Steps[i] = ProofStep{
			Hash:     hexutil.Encode(step.Hash),
			Position: position,
		}
	}

	return proof
}

// Verify recomputes a candidate root from the proof's leaf hash and sibling
// steps and compares it against the specified merkle root. A structurally
// malformed proof is reported as an error; a well formed proof that does not
// fold to the root reports false.
func (p Proof) Verify(merkleRoot string) (bool, error) {
	leafHash, err := signature.ToBytes(p.TxHash)
	if err != nil {
		return false, fmt.Errorf("malformed proof leaf hash: %w", err)
	}

	steps := make([]merkle.ProofStep, len(p.Steps))
	for i, step := range p.Steps {
		hash, err := signature.ToBytes(step.Hash)
		if err != nil {
			return false, fmt.Errorf("malformed proof step %d: %w", i, err)
		}

		switch step.Position {
		case ProofStepLeft, ProofStepRight:
		default:
			return false, fmt.Errorf("malformed proof step %d: unknown position %q", i, step.Position)
		}

		steps[i] = merkle.ProofStep{
			Hash: hash,
			Left: step.Position == ProofStepLeft,
		}
	}

	candidateRoot, err := merkle.FoldProof(leafHash, steps, sha256.New)
	if err != nil {
		return false, err
	}

	return hexutil.Encode(candidateRoot) == merkleRoot, nil
}
