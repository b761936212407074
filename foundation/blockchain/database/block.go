package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/chainlabs/minersim/foundation/blockchain/genesis"
	"github.com/chainlabs/minersim/foundation/blockchain/merkle"
	"github.com/chainlabs/minersim/foundation/blockchain/signature"
)

// timeStep is the number of seconds between a block's timestamp and its
// parent's. Block production is a simulation and must be reproducible, so
// timestamps derive from the parent block instead of the wall clock.
const timeStep = 10

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Difficulty    uint32 `json:"difficulty"`                 // Number of leading 0 hex digits the header hash must carry.
	Height        uint64 `json:"height"`                     // Block number in the chain, starting at 1.
	Miner         string `json:"miner"`                      // Name of the miner that produced the block.
	Nonce         uint64 `json:"nonce"`                      // Value identified to solve the hash solution.
	PrevBlockHash string `json:"previous_block_header_hash"` // Hash of the previous block header in the chain.
	TimeStamp     uint64 `json:"timestamp"`                  // Simulated time the block was mined.
	TransCount    uint32 `json:"transactions_count"`         // Number of transactions in the block.
	TransRoot     string `json:"transactions_merkle_root"`   // Merkle tree root hash for the transactions in this block.
}

// CanonicalString produces the fixed byte representation of the header used
// as hashing input: the field values comma joined in alphabetical order of
// their key, numbers as plain decimal, hashes 0x-prefixed hex, no spaces.
// The header hash itself is never part of its own encoding.
func (h BlockHeader) CanonicalString() string {
	return fmt.Sprintf("%d,%d,%s,%d,%s,%d,%d,%s",
		h.Difficulty,
		h.Height,
		h.Miner,
		h.Nonce,
		h.PrevBlockHash,
		h.TimeStamp,
		h.TransCount,
		h.TransRoot,
	)
}

// Block represents a group of transactions batched together with the header
// that commits to them.
type Block struct {
	Header BlockHeader
	Trans  *merkle.Tree[Tx]
}

// Hash returns the unique hash for the block. Only the header is hashed so
// the chain link can be checked from headers alone. The zero value block acts
// as the parent of the first block and hashes to the genesis sentinel.
func (b Block) Hash() string {
	if b.Header.Height == 0 {
		return signature.ZeroHash
	}

	return signature.Hash(b.Header.CanonicalString())
}

// =============================================================================

// POW constructs the next block from the ordered set of transactions and
// performs the work to find a nonce that solves the difficulty puzzle. The
// nonce search always starts at zero so identical inputs produce an
// identical block.
func POW(ctx context.Context, gen genesis.Genesis, prevBlock Block, trans []Tx, evHandler func(v string, args ...any)) (Block, error) {
	tree, err := merkle.NewTree(trans)
	if err != nil {
		return Block{}, err
	}

	// The first block in the chain takes its difficulty, miner, and base
	// timestamp from the genesis values. Every later block steps forward
	// from its parent.
	difficulty := gen.Difficulty
	miner := gen.Miner
	parentTime := gen.Time
	if prevBlock.Header.Height > 0 {
		difficulty = prevBlock.Header.Difficulty
		miner = prevBlock.Header.Miner
		parentTime = prevBlock.Header.TimeStamp
	}

	nb := Block{
		Header: BlockHeader{
			Difficulty:    difficulty,
			Height:        prevBlock.Header.Height + 1,
			Miner:         miner,
			Nonce:         0,
			PrevBlockHash: prevBlock.Hash(),
			TimeStamp:     parentTime + timeStep,
			TransCount:    uint32(len(trans)),
			TransRoot:     tree.RootHex(),
		},
		Trans: tree,
	}

	if err := nb.performPOW(ctx, evHandler); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, ev func(v string, args ...any)) error {
	ev("database: performPOW: mining: block[%d] started", b.Header.Height)
	defer ev("database: performPOW: mining: block[%d] completed", b.Header.Height)

	for {
		if ctx.Err() != nil {
			ev("database: performPOW: mining: block[%d] cancelled", b.Header.Height)
			return ctx.Err()
		}

		hash := b.Hash()
		if isHashSolved(b.Header.Difficulty, hash) {
			ev("database: performPOW: mining: block[%d] solved: nonce[%d] hash[%s]", b.Header.Height, b.Header.Nonce, hash)
			return nil
		}

		b.Header.Nonce++
		if b.Header.Nonce%100_000 == 0 {
			ev("database: performPOW: mining: block[%d] attempts[%d]", b.Header.Height, b.Header.Nonce)
		}
	}
}

// ValidateBlock takes a block and validates it to be the next block in
// the chain.
func (b Block) ValidateBlock(previousBlock Block, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: blk[%d]: check: block height is the next height", b.Header.Height)

	nextHeight := previousBlock.Header.Height + 1
	if b.Header.Height != nextHeight {
		return fmt.Errorf("this block is not the next height, got %d, exp %d", b.Header.Height, nextHeight)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: block hash has been solved", b.Header.Height)

	if !isHashSolved(b.Header.Difficulty, b.Hash()) {
		return fmt.Errorf("%s invalid block hash", b.Hash())
	}

	evHandler("database: ValidateBlock: blk[%d]: check: parent hash does match parent block", b.Header.Height)

	if b.Header.PrevBlockHash != previousBlock.Hash() {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.Header.PrevBlockHash, previousBlock.Hash())
	}

	if previousBlock.Header.TimeStamp > 0 {
		evHandler("database: ValidateBlock: blk[%d]: check: block's timestamp is greater than parent block's timestamp", b.Header.Height)

		if b.Header.TimeStamp <= previousBlock.Header.TimeStamp {
			return fmt.Errorf("block timestamp is before parent block, parent %d, block %d", previousBlock.Header.TimeStamp, b.Header.TimeStamp)
		}
	}

	evHandler("database: ValidateBlock: blk[%d]: check: merkle root does match transactions", b.Header.Height)

	if b.Header.TransRoot != b.Trans.RootHex() {
		return fmt.Errorf("merkle root does not match transactions, got %s, exp %s", b.Trans.RootHex(), b.Header.TransRoot)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: transaction count does match transactions", b.Header.Height)

	if int(b.Header.TransCount) != len(b.Trans.Values()) {
		return fmt.Errorf("transaction count does not match transactions, got %d, exp %d", len(b.Trans.Values()), b.Header.TransCount)
	}

	return nil
}

// isHashSolved checks the hash to make sure it complies with the difficulty
// rules. The hash must carry a difficulty number of leading 0 hex digits
// after the 0x prefix. The difficulty can come from an untrusted chain file,
// so it must not be assumed to fit any bound.
func isHashSolved(difficulty uint32, hash string) bool {
	if len(hash) != signature.HashLen {
		return false
	}

	return strings.HasPrefix(hash[2:], strings.Repeat("0", int(difficulty)))
}

// =============================================================================

// BlockData represents what is written to the chain file for one block.
type BlockData struct {
	Hash   string      `json:"hash"`
	Header BlockHeader `json:"header"`
	Trans  []Tx        `json:"transactions"`
}

// NewBlockData constructs the value to serialize to disk.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Hash:   block.Hash(),
		Header: block.Header,
		Trans:  block.Trans.Values(),
	}
}

// ToBlock converts a BlockData into a Block by rebuilding the merkle tree
// from the stored transactions.
func ToBlock(blockData BlockData) (Block, error) {
	tree, err := merkle.NewTree(blockData.Trans)
	if err != nil {
		return Block{}, err
	}

	nb := Block{
		Header: blockData.Header,
		Trans:  tree,
	}

	return nb, nil
}
