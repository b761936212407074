// Package mempool maintains the pool of transactions submitted but not yet
// included in any block. The pool is ordered: transactions are selected for
// block production in arrival order, front to back. There is no fee based
// reordering.
package mempool

import (
	"sync"

	"github.com/chainlabs/minersim/foundation/blockchain/database"
)

// Mempool represents the ordered collection of pending transactions.
type Mempool struct {
	mu   sync.RWMutex
	pool []database.Tx
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Add appends a transaction to the back of the pool.
func (mp *Mempool) Add(tx database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx)

	return len(mp.pool)
}

// PickBest returns up to howMany transactions from the front of the pool in
// arrival order. The transactions stay in the pool until they are committed
// into a block and removed with Delete.
func (mp *Mempool) PickBest(howMany int) []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if howMany > len(mp.pool) {
		howMany = len(mp.pool)
	}

	txs := make([]database.Tx, howMany)
	copy(txs, mp.pool[:howMany])

	return txs
}

// Delete removes the first transaction in the pool that equals the specified
// transaction. A transaction is removed exactly when it is committed into a
// produced block.
func (mp *Mempool) Delete(tx database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for i, ptx := range mp.pool {
		if ptx.Equals(tx) {
			mp.pool = append(mp.pool[:i], mp.pool[i+1:]...)
			return
		}
	}
}

// Copy returns a copy of the pool in arrival order.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	txs := make([]database.Tx, len(mp.pool))
	copy(txs, mp.pool)

	return txs
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
}
