// Package database maintains the blockchain ledger state for one process
// invocation: the ordered sequence of blocks, loaded wholesale from storage,
// appended to in memory, and exported back to storage at the boundary.
package database

import (
	"fmt"
	"sync"
)

// Storage interface represents the behavior required to be implemented by
// any package providing support for reading and writing the chain as a
// whole. Loading and storing happen once per invocation; the chain is never
// partially persisted.
type Storage interface {
	ReadAll() ([]BlockData, error)
	WriteAll(blocks []BlockData) error
}

// =============================================================================

// Database manages the in-memory chain of blocks.
type Database struct {
	mu sync.RWMutex

	blocks      []Block
	latestBlock Block
}

// New constructs a new database by reading the chain from storage and
// validating every block: the recorded header hash and merkle root are
// recomputed and each block must link to its predecessor. A chain that fails
// any check is rejected wholesale, never partially trusted.
func New(storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	var db Database

	blocksData, err := storage.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chain: %w", err)
	}

	var latestBlock Block
	for _, blockData := range blocksData {
		block, err := ToBlock(blockData)
		if err != nil {
			return nil, fmt.Errorf("block[%d]: %w", blockData.Header.Height, err)
		}

		// The hash recorded in the chain file must match the hash
		// recomputed from the header encoding.
		if blockData.Hash != block.Hash() {
			return nil, fmt.Errorf("block[%d]: recorded hash does not match header, got %s, exp %s", blockData.Header.Height, blockData.Hash, block.Hash())
		}

		if err := block.ValidateBlock(latestBlock, evHandler); err != nil {
			return nil, fmt.Errorf("block[%d]: %w", blockData.Header.Height, err)
		}

		db.blocks = append(db.blocks, block)
		latestBlock = block
	}

	db.latestBlock = latestBlock

	return &db, nil
}

// Write validates the block against the current head and appends it to the
// in-memory chain. Nothing is persisted until Persist is called.
func (db *Database) Write(block Block, evHandler func(v string, args ...any)) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := block.ValidateBlock(db.latestBlock, evHandler); err != nil {
		return err
	}

	db.blocks = append(db.blocks, block)
	db.latestBlock = block

	return nil
}

// LatestBlock returns the current head of the chain. The zero value block is
// returned for an empty chain; its hash is the genesis sentinel.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// Height returns the number of blocks in the chain.
func (db *Database) Height() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return uint64(len(db.blocks))
}

// GetBlock returns the block with the specified 1-based block number. The
// block number doubles as the header height, so the lookup is direct
// indexing, no search.
func (db *Database) GetBlock(num uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if num < 1 || num > uint64(len(db.blocks)) {
		return Block{}, &OutOfRangeError{What: "block number", Value: num, Min: 1, Max: uint64(len(db.blocks))}
	}

	return db.blocks[num-1], nil
}

// Export returns the chain in its persisted form.
func (db *Database) Export() []BlockData {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blocksData := make([]BlockData, len(db.blocks))
	for i, block := range db.blocks {
		blocksData[i] = NewBlockData(block)
	}

	return blocksData
}

// Persist writes the whole chain to the specified storage. The output
// storage may differ from the storage the chain was loaded from.
func (db *Database) Persist(storage Storage) error {
	return storage.WriteAll(db.Export())
}
