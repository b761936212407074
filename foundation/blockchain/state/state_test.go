package state_test

import (
	"context"
	"errors"
	"testing"

	"github.com/chainlabs/minersim/foundation/blockchain/database"
	"github.com/chainlabs/minersim/foundation/blockchain/database/storage"
	"github.com/chainlabs/minersim/foundation/blockchain/genesis"
	"github.com/chainlabs/minersim/foundation/blockchain/signature"
	"github.com/chainlabs/minersim/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func testGenesis() genesis.Genesis {
	return genesis.Genesis{
		Time:          1577836800,
		Difficulty:    1,
		Miner:         "miner1",
		TransPerBlock: 3,
	}
}

func makeTx(amount uint64) database.Tx {
	return database.Tx{
		Amount:    amount,
		LockTime:  0,
		Receiver:  "bob",
		Sender:    "alice",
		Signature: "sig",
		Fee:       1,
	}
}

// newTestState constructs a state over an empty in-memory chain and submits
// the specified transactions.
func newTestState(t *testing.T, txs ...database.Tx) *state.State {
	st, err := state.New(state.Config{
		Genesis: testGenesis(),
		Storage: storage.NewMemory(),
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	for _, tx := range txs {
		if err := st.SubmitTransaction(tx); err != nil {
			t.Fatalf("\t%s\tShould be able to submit transaction: %v", failed, err)
		}
	}

	return st
}

// =============================================================================

func Test_ProduceBlocks(t *testing.T) {
	t.Log("Given the need to drain a mempool into blocks in arrival order.")
	{
		t.Logf("\tTest 0:\tWhen handling 5 transactions, 2 blocks, capacity 3.")
		{
			txs := []database.Tx{makeTx(100), makeTx(200), makeTx(300), makeTx(400), makeTx(500)}
			st := newTestState(t, txs...)

			produced, err := st.ProduceBlocks(context.Background(), 2)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to produce blocks: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to produce blocks.", success)

			if produced != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould produce 2 blocks, got %d.", failed, produced)
			}
			t.Logf("\t%s\tTest 0:\tShould produce 2 blocks.", success)

			if st.Height() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould have a chain height of 2, got %d.", failed, st.Height())
			}
			t.Logf("\t%s\tTest 0:\tShould have a chain height of 2.", success)

			if n := len(st.RetrieveMempool()); n != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould have an empty mempool, got %d.", failed, n)
			}
			t.Logf("\t%s\tTest 0:\tShould have an empty mempool.", success)

			block1, err := st.RetrieveBlock(1)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to retrieve block 1: %v", failed, err)
			}

			block2, err := st.RetrieveBlock(2)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to retrieve block 2: %v", failed, err)
			}

			trans1 := block1.Trans.Values()
			trans2 := block2.Trans.Values()
			if len(trans1) != 3 || len(trans2) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould split the transactions 3 and 2, got %d and %d.", failed, len(trans1), len(trans2))
			}
			t.Logf("\t%s\tTest 0:\tShould split the transactions 3 and 2.", success)

			for i, tx := range append(trans1, trans2...) {
				if !tx.Equals(txs[i]) {
					t.Fatalf("\t%s\tTest 0:\tShould keep arrival order, tx %d differs.", failed, i)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould keep arrival order.", success)

			if block1.Header.PrevBlockHash != signature.ZeroHash {
				t.Fatalf("\t%s\tTest 0:\tShould link block 1 to the zero hash, got %s.", failed, block1.Header.PrevBlockHash)
			}
			t.Logf("\t%s\tTest 0:\tShould link block 1 to the zero hash.", success)

			if block2.Header.PrevBlockHash != block1.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould link block 2 to block 1.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould link block 2 to block 1.", success)
		}

		t.Logf("\tTest 1:\tWhen the mempool drains before the requested count.")
		{
			st := newTestState(t, makeTx(100), makeTx(200), makeTx(300), makeTx(400))

			produced, err := st.ProduceBlocks(context.Background(), 5)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould not report running dry as an error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould not report running dry as an error.", success)

			if produced != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould produce only 2 blocks, got %d.", failed, produced)
			}
			t.Logf("\t%s\tTest 1:\tShould produce only 2 blocks.", success)
		}

		t.Logf("\tTest 2:\tWhen the mempool is empty.")
		{
			st := newTestState(t)

			produced, err := st.ProduceBlocks(context.Background(), 3)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould not report an empty mempool as an error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould not report an empty mempool as an error.", success)

			if produced != 0 || st.Height() != 0 {
				t.Fatalf("\t%s\tTest 2:\tShould produce no blocks, got %d at height %d.", failed, produced, st.Height())
			}
			t.Logf("\t%s\tTest 2:\tShould produce no blocks.", success)
		}
	}
}

func Test_Determinism(t *testing.T) {
	t.Log("Given the need for identical inputs to produce identical chains.")
	{
		txs := []database.Tx{makeTx(100), makeTx(200), makeTx(300), makeTx(400)}

		run := func() []database.BlockData {
			st := newTestState(t, txs...)
			if _, err := st.ProduceBlocks(context.Background(), 2); err != nil {
				t.Fatalf("\t%s\tShould be able to produce blocks: %v", failed, err)
			}
			return st.ExportChain()
		}

		chain1 := run()
		chain2 := run()

		if len(chain1) != len(chain2) {
			t.Fatalf("\t%s\tShould produce the same number of blocks, got %d and %d.", failed, len(chain1), len(chain2))
		}

		for i := range chain1 {
			if chain1[i].Hash != chain2[i].Hash {
				t.Fatalf("\t%s\tShould produce identical block hashes, block %d differs.", failed, i+1)
			}
		}
		t.Logf("\t%s\tShould produce identical chains.", success)
	}
}

func Test_TransactionHash(t *testing.T) {
	t.Log("Given the need to locate a transaction by block number and index.")
	{
		txs := []database.Tx{makeTx(100), makeTx(200), makeTx(300), makeTx(400), makeTx(500)}

		gen := testGenesis()
		gen.TransPerBlock = 5
		st, err := produceSingleBlock(gen, txs)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to produce a block: %v", failed, err)
		}

		t.Logf("\tTest 0:\tWhen the coordinates are valid.")
		{
			for i, tx := range txs {
				hash, err := st.TransactionHash(1, uint64(i+1))
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to locate transaction %d: %v", failed, i+1, err)
				}

				if hash != tx.HashHex() {
					t.Fatalf("\t%s\tTest 0:\tShould return the recomputed hash for transaction %d.", failed, i+1)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould return the recomputed hash for every transaction.", success)
		}

		t.Logf("\tTest 1:\tWhen the transaction index is out of range.")
		{
			for _, index := range []uint64{0, 6} {
				_, err := st.TransactionHash(1, index)
				if !database.IsOutOfRange(err) {
					t.Fatalf("\t%s\tTest 1:\tShould report index %d out of range, got %v.", failed, index, err)
				}
			}
			t.Logf("\t%s\tTest 1:\tShould report indexes outside [1,5] out of range.", success)
		}

		t.Logf("\tTest 2:\tWhen the block number is out of range.")
		{
			for _, number := range []uint64{0, 2} {
				_, err := st.TransactionHash(number, 1)
				if !database.IsOutOfRange(err) {
					t.Fatalf("\t%s\tTest 2:\tShould report block %d out of range, got %v.", failed, number, err)
				}
			}
			t.Logf("\t%s\tTest 2:\tShould report blocks outside [1,1] out of range.", success)
		}
	}
}

func Test_Proofs(t *testing.T) {
	t.Log("Given the need to generate and verify inclusion proofs.")
	{
		txs := []database.Tx{makeTx(100), makeTx(200), makeTx(300), makeTx(400), makeTx(500)}
		st := newTestState(t, txs...)

		if _, err := st.ProduceBlocks(context.Background(), 2); err != nil {
			t.Fatalf("\t%s\tShould be able to produce blocks: %v", failed, err)
		}

		t.Logf("\tTest 0:\tWhen proving every committed transaction.")
		{
			coords := []struct {
				block uint64
				tx    database.Tx
			}{
				{1, txs[0]}, {1, txs[1]}, {1, txs[2]},
				{2, txs[3]}, {2, txs[4]},
			}

			for _, c := range coords {
				proof, err := st.GenerateProof(c.block, c.tx.HashHex())
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to generate a proof: %v", failed, err)
				}

				valid, err := st.VerifyProof(c.block, proof)
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to verify the proof: %v", failed, err)
				}

				if !valid {
					t.Fatalf("\t%s\tTest 0:\tShould verify the proof for tx %s in block %d.", failed, c.tx.HashHex(), c.block)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould prove and verify every committed transaction.", success)
		}

		t.Logf("\tTest 1:\tWhen the proof is tampered with.")
		{
			proof, err := st.GenerateProof(1, txs[0].HashHex())
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to generate a proof: %v", failed, err)
			}

			// Flip one hex digit of one sibling hash, keeping it well formed.
			step := proof.Steps[0].Hash
			flip := byte('0')
			if step[2] == '0' {
				flip = '1'
			}
			proof.Steps[0].Hash = step[:2] + string(flip) + step[3:]

			valid, err := st.VerifyProof(1, proof)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould not report a well formed proof as an error: %v", failed, err)
			}

			if valid {
				t.Fatalf("\t%s\tTest 1:\tShould report a tampered proof as invalid.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould report a tampered proof as invalid.", success)
		}

		t.Logf("\tTest 2:\tWhen the proof's leaf hash is tampered with.")
		{
			proof, err := st.GenerateProof(1, txs[0].HashHex())
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to generate a proof: %v", failed, err)
			}

			// Swap the leaf for a different well formed hash. The sibling
			// steps no longer fold to the recorded root.
			proof.TxHash = txs[3].HashHex()

			valid, err := st.VerifyProof(1, proof)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould not report a well formed proof as an error: %v", failed, err)
			}

			if valid {
				t.Fatalf("\t%s\tTest 2:\tShould report a tampered leaf hash as invalid.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould report a tampered leaf hash as invalid.", success)
		}

		t.Logf("\tTest 3:\tWhen the proof is bound to a different block.")
		{
			proof, err := st.GenerateProof(1, txs[0].HashHex())
			if err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to generate a proof: %v", failed, err)
			}

			valid, err := st.VerifyProof(2, proof)
			if err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould not report the mismatch as an error: %v", failed, err)
			}

			if valid {
				t.Fatalf("\t%s\tTest 3:\tShould report a proof bound to another block as invalid.", failed)
			}
			t.Logf("\t%s\tTest 3:\tShould report a proof bound to another block as invalid.", success)
		}

		t.Logf("\tTest 4:\tWhen the transaction hash is unknown.")
		{
			_, err := st.GenerateProof(1, signature.Hash("no such transaction"))
			if !errors.Is(err, database.ErrTxNotFound) {
				t.Fatalf("\t%s\tTest 4:\tShould report ErrTxNotFound, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 4:\tShould report ErrTxNotFound.", success)
		}
	}
}

func Test_SingleTransactionBlock(t *testing.T) {
	t.Log("Given the need to prove inclusion in a single transaction block.")
	{
		tx := makeTx(100)
		st := newTestState(t, tx)

		if _, err := st.ProduceBlocks(context.Background(), 1); err != nil {
			t.Fatalf("\t%s\tShould be able to produce a block: %v", failed, err)
		}

		block, err := st.RetrieveBlock(1)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to retrieve the block: %v", failed, err)
		}

		if block.Header.TransRoot != tx.HashHex() {
			t.Fatalf("\t%s\tShould have the transaction hash as the merkle root, got %s.", failed, block.Header.TransRoot)
		}
		t.Logf("\t%s\tShould have the transaction hash as the merkle root.", success)

		proof, err := st.GenerateProof(1, tx.HashHex())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a proof: %v", failed, err)
		}

		if len(proof.Steps) != 0 {
			t.Fatalf("\t%s\tShould generate an empty proof, got %d steps.", failed, len(proof.Steps))
		}
		t.Logf("\t%s\tShould generate an empty proof.", success)

		valid, err := st.VerifyProof(1, proof)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to verify the proof: %v", failed, err)
		}

		if !valid {
			t.Fatalf("\t%s\tShould verify the empty proof.", failed)
		}
		t.Logf("\t%s\tShould verify the empty proof.", success)
	}
}

func Test_SubmitTransactionValidation(t *testing.T) {
	t.Log("Given the need to reject incomplete transactions at submission.")
	{
		st := newTestState(t)

		tx := makeTx(100)
		tx.Signature = ""

		if err := st.SubmitTransaction(tx); err == nil {
			t.Fatalf("\t%s\tShould reject a transaction without a signature.", failed)
		}
		t.Logf("\t%s\tShould reject a transaction without a signature.", success)

		if n := len(st.RetrieveMempool()); n != 0 {
			t.Fatalf("\t%s\tShould keep the rejected transaction out of the mempool, got %d.", failed, n)
		}
		t.Logf("\t%s\tShould keep the rejected transaction out of the mempool.", success)
	}
}

func Test_PersistAndReload(t *testing.T) {
	t.Log("Given the need to persist a chain and reload it unchanged.")
	{
		txs := []database.Tx{makeTx(100), makeTx(200), makeTx(300), makeTx(400)}
		st := newTestState(t, txs...)

		if _, err := st.ProduceBlocks(context.Background(), 2); err != nil {
			t.Fatalf("\t%s\tShould be able to produce blocks: %v", failed, err)
		}

		mem := storage.NewMemory()
		if err := st.Persist(mem); err != nil {
			t.Fatalf("\t%s\tShould be able to persist the chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to persist the chain.", success)

		reloaded, err := state.New(state.Config{
			Genesis: testGenesis(),
			Storage: mem,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to reload and validate the chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to reload and validate the chain.", success)

		if reloaded.Height() != st.Height() {
			t.Fatalf("\t%s\tShould reload the same height, got %d, exp %d.", failed, reloaded.Height(), st.Height())
		}

		if reloaded.RetrieveLatestBlock().Hash() != st.RetrieveLatestBlock().Hash() {
			t.Fatalf("\t%s\tShould reload the same head block.", failed)
		}
		t.Logf("\t%s\tShould reload the same head block.", success)
	}
}

// produceSingleBlock builds a state with the specified genesis and drains all
// the transactions into one block.
func produceSingleBlock(gen genesis.Genesis, txs []database.Tx) (*state.State, error) {
	st, err := state.New(state.Config{
		Genesis: gen,
		Storage: storage.NewMemory(),
	})
	if err != nil {
		return nil, err
	}

	for _, tx := range txs {
		if err := st.SubmitTransaction(tx); err != nil {
			return nil, err
		}
	}

	if _, err := st.ProduceBlocks(context.Background(), 1); err != nil {
		return nil, err
	}

	return st, nil
}
