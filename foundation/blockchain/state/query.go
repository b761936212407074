package state

import (
	"github.com/chainlabs/minersim/foundation/blockchain/database"
)

// RetrieveBlock returns the block with the specified 1-based block number.
func (s *State) RetrieveBlock(blockNumber uint64) (database.Block, error) {
	return s.db.GetBlock(blockNumber)
}

// TransactionHash resolves a 1-based block number and a 1-based transaction
// index to the transaction's hash. The hash is recomputed from the canonical
// encoding of the located transaction, never read from a cache.
func (s *State) TransactionHash(blockNumber uint64, txNumber uint64) (string, error) {
	block, err := s.db.GetBlock(blockNumber)
	if err != nil {
		return "", err
	}

	trans := block.Trans.Values()
	if txNumber < 1 || txNumber > uint64(len(trans)) {
		return "", &database.OutOfRangeError{What: "transaction index", Value: txNumber, Min: 1, Max: uint64(len(trans))}
	}

	return trans[txNumber-1].HashHex(), nil
}

// GenerateProof emits the inclusion proof for the transaction with the
// specified hash within the specified block. The block's transaction list is
// scanned in order and the first transaction whose hash matches is proven;
// hashes are expected unique within a well formed block, but first match is
// the rule when they are not. A hash present in no transaction reports
// ErrTxNotFound.
func (s *State) GenerateProof(blockNumber uint64, txHash string) (database.Proof, error) {
	block, err := s.db.GetBlock(blockNumber)
	if err != nil {
		return database.Proof{}, err
	}

	for _, tx := range block.Trans.Values() {
		if tx.HashHex() != txHash {
			continue
		}

		steps, err := block.Trans.Proof(tx)
		if err != nil {
			return database.Proof{}, err
		}

		proof := database.NewProof(blockNumber, txHash, steps)
		s.evHandler("state: GenerateProof: block[%d] tx[%s] steps[%d]", blockNumber, txHash, len(proof.Steps))

		return proof, nil
	}

	return database.Proof{}, database.ErrTxNotFound
}

// VerifyProof folds the proof back to a candidate merkle root and compares
// it against the root recorded in the chain for the specified block. The
// result is false for a proof that does not fold to the recorded root and
// for a proof bound to a different block than the one specified.
func (s *State) VerifyProof(blockNumber uint64, proof database.Proof) (bool, error) {
	block, err := s.db.GetBlock(blockNumber)
	if err != nil {
		return false, err
	}

	if proof.BlockNumber != blockNumber {
		s.evHandler("state: VerifyProof: proof is bound to block[%d], not block[%d]", proof.BlockNumber, blockNumber)
		return false, nil
	}

	valid, err := proof.Verify(block.Header.TransRoot)
	if err != nil {
		return false, err
	}

	s.evHandler("state: VerifyProof: block[%d] tx[%s] valid[%t]", blockNumber, proof.TxHash, valid)

	return valid, nil
}
