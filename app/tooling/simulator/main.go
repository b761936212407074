// The simulator is a single writer blockchain simulator: it mines pending
// mempool transactions into blocks and generates and verifies merkle
// inclusion proofs against the resulting chain.
package main

import (
	"github.com/chainlabs/minersim/app/tooling/simulator/commands"
)

func main() {
	commands.Execute()
}
