// Package state is the core API for the blockchain simulator. One State
// value owns one load, transform, store cycle: it loads and validates the
// chain, holds the mempool, and exposes the produce, locate, prove, and
// verify operations.
package state

import (
	"github.com/chainlabs/minersim/foundation/blockchain/database"
	"github.com/chainlabs/minersim/foundation/blockchain/genesis"
	"github.com/chainlabs/minersim/foundation/blockchain/mempool"
	"github.com/chainlabs/minersim/foundation/validate"
)

// EvHandler defines a function that is called to emit events happening
// during operations.
type EvHandler func(v string, args ...any)

// =============================================================================

// Config represents the configuration required to start the state.
type Config struct {
	Genesis   genesis.Genesis
	Storage   database.Storage
	EvHandler EvHandler
}

// State manages the blockchain database and mempool.
type State struct {
	genesis   genesis.Genesis
	db        *database.Database
	mempool   *mempool.Mempool
	evHandler EvHandler
}

// New constructs a new blockchain state by loading and validating the chain
// from the configured storage.
func New(cfg Config) (*State, error) {
	ev := cfg.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	db, err := database.New(cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	state := State{
		genesis:   cfg.Genesis,
		db:        db,
		mempool:   mempool.New(),
		evHandler: ev,
	}

	return &state, nil
}

// SubmitTransaction validates the specified transaction and adds it to the
// back of the mempool.
func (s *State) SubmitTransaction(tx database.Tx) error {
	if err := validate.Check(tx); err != nil {
		return err
	}

	n := s.mempool.Add(tx)
	s.evHandler("state: SubmitTransaction: tx[%s] added: mempool[%d]", tx, n)

	return nil
}

// RetrieveMempool returns the pending transactions in arrival order.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// RetrieveLatestBlock returns the current head of the chain.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// Height returns the number of blocks in the chain.
func (s *State) Height() uint64 {
	return s.db.Height()
}

// ExportChain returns the chain in its persisted form.
func (s *State) ExportChain() []database.BlockData {
	return s.db.Export()
}

// Persist writes the whole chain to the specified storage.
func (s *State) Persist(storage database.Storage) error {
	return s.db.Persist(storage)
}
