// Package storage implements the persisted form of the chain, mempool, and
// proof artifacts: human readable JSON files read and written whole.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/chainlabs/minersim/foundation/blockchain/database"
)

// Disk represents the serialization implementation for reading and storing
// the chain in a single JSON file on disk. This implements the
// database.Storage interface.
type Disk struct {
	path string
}

// NewDisk constructs a Disk value for use with the specified chain file.
func NewDisk(path string) *Disk {
	return &Disk{path: path}
}

// ReadAll returns every block recorded in the chain file in order. A missing
// file is an empty chain; a file that exists but cannot be parsed is an
// error the caller must treat as fatal.
func (d *Disk) ReadAll() ([]database.BlockData, error) {
	f, err := os.Open(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var blocksData []database.BlockData
	if err := json.NewDecoder(f).Decode(&blocksData); err != nil {
		return nil, fmt.Errorf("decoding chain file %q: %w", d.path, err)
	}

	return blocksData, nil
}

// WriteAll stores the whole chain to the chain file, replacing any previous
// contents.
func (d *Disk) WriteAll(blocksData []database.BlockData) error {
	if blocksData == nil {
		blocksData = []database.BlockData{}
	}

	data, err := json.MarshalIndent(blocksData, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(d.path, data, 0644)
}

// =============================================================================

// ReadTransactions returns the ordered set of pending transactions recorded
// in the specified mempool file. Array order is arrival order.
func ReadTransactions(path string) ([]database.Tx, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var txs []database.Tx
	if err := json.NewDecoder(f).Decode(&txs); err != nil {
		return nil, fmt.Errorf("decoding mempool file %q: %w", path, err)
	}

	return txs, nil
}

// WriteTransactions stores the ordered set of pending transactions to the
// specified mempool file.
func WriteTransactions(path string, txs []database.Tx) error {
	if txs == nil {
		txs = []database.Tx{}
	}

	data, err := json.MarshalIndent(txs, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// =============================================================================

// ReadProof returns the inclusion proof recorded in the specified file.
func ReadProof(path string) (database.Proof, error) {
	f, err := os.Open(path)
	if err != nil {
		return database.Proof{}, err
	}
	defer f.Close()

	var proof database.Proof
	if err := json.NewDecoder(f).Decode(&proof); err != nil {
		return database.Proof{}, fmt.Errorf("decoding proof file %q: %w", path, err)
	}

	return proof, nil
}

// WriteProof stores the inclusion proof to the specified file.
func WriteProof(path string, proof database.Proof) error {
	data, err := json.MarshalIndent(proof, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
