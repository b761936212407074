package state

import (
	"context"

	"github.com/chainlabs/minersim/foundation/blockchain/database"
)

// ProduceBlocks drains the mempool front to back into up to howMany new
// blocks, each holding at most the genesis trans_per_block transactions.
// When the mempool runs dry before every requested block is produced, the
// production stops early and the number of blocks actually produced is
// returned. Running dry is an expected terminal condition, not an error.
func (s *State) ProduceBlocks(ctx context.Context, howMany uint32) (uint32, error) {
	s.evHandler("state: ProduceBlocks: requested[%d] mempool[%d]", howMany, s.mempool.Count())

	var produced uint32
	for produced < howMany {
		trans := s.mempool.PickBest(int(s.genesis.TransPerBlock))
		if len(trans) == 0 {
			s.evHandler("state: ProduceBlocks: mempool drained: produced[%d] requested[%d]", produced, howMany)
			break
		}

		block, err := database.POW(ctx, s.genesis, s.db.LatestBlock(), trans, s.evHandler)
		if err != nil {
			return produced, err
		}

		if err := s.db.Write(block, s.evHandler); err != nil {
			return produced, err
		}

		// The committed transactions leave the mempool exactly now.
		for _, tx := range trans {
			s.mempool.Delete(tx)
		}

		produced++
		s.evHandler("state: ProduceBlocks: block[%d] produced: hash[%s] trans[%d]", block.Header.Height, block.Hash(), len(trans))
	}

	return produced, nil
}
