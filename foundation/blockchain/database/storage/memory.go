package storage

import (
	"sync"

	"github.com/chainlabs/minersim/foundation/blockchain/database"
)

// Memory represents the serialization implementation for reading and storing
// the chain in memory. This implements the database.Storage interface and
// exists for tests.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.BlockData
}

// NewMemory constructs a Memory value for use.
func NewMemory() *Memory {
	return &Memory{}
}

// ReadAll returns every block held in memory in order.
func (m *Memory) ReadAll() ([]database.BlockData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blocksData := make([]database.BlockData, len(m.blocks))
	copy(blocksData, m.blocks)

	return blocksData, nil
}

// WriteAll replaces the blocks held in memory.
func (m *Memory) WriteAll(blocksData []database.BlockData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = make([]database.BlockData, len(blocksData))
	copy(m.blocks, blocksData)

	return nil
}
