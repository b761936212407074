// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"

	"github.com/chainlabs/minersim/foundation/validate"
)

// Genesis represents the genesis file. These values seed the first block and
// bound block production.
type Genesis struct {
	Time          uint64 `json:"time"`                                      // Base timestamp for the chain. Block timestamps step forward from here.
	Difficulty    uint32 `json:"difficulty" validate:"lte=8"`               // Number of leading 0 hex digits required of a block header hash.
	Miner         string `json:"miner" validate:"required"`                 // Name recorded as the miner of every produced block.
	TransPerBlock uint32 `json:"trans_per_block" validate:"required,gte=1"` // Maximum number of transactions drained into one block.
}

// Default returns the genesis values used when no genesis file is provided.
func Default() Genesis {
	return Genesis{
		Time:          1577836800, // 2020-01-01T00:00:00Z
		Difficulty:    1,
		Miner:         "miner1",
		TransPerBlock: 10,
	}
}

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := validate.Check(genesis); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}
