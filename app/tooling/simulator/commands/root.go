// Package commands contains the simulator CLI operations.
package commands

import (
	"fmt"
	"os"

	"github.com/chainlabs/minersim/foundation/blockchain/database/storage"
	"github.com/chainlabs/minersim/foundation/blockchain/genesis"
	"github.com/chainlabs/minersim/foundation/blockchain/state"
	"github.com/chainlabs/minersim/foundation/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	chainPath   string
	genesisPath string
)

// log and traceID are shared by every command for the duration of one
// invocation.
var (
	log     *zap.SugaredLogger
	traceID string
)

var rootCmd = &cobra.Command{
	Use:           "simulator",
	Short:         "Single chain blockchain miner simulator",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if log, err = logger.New("SIMULATOR"); err != nil {
			return err
		}
		traceID = uuid.NewString()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&chainPath, "blockchain-state", "zblock/blockchain.json", "File storing the initial state of the blockchain.")
	rootCmd.PersistentFlags().StringVar(&genesisPath, "genesis", "", "Optional genesis file. Built in defaults apply when omitted.")
}

// Execute runs the selected command and exits non zero when the operation
// fails.
func Execute() {
	err := rootCmd.Execute()

	if log != nil {
		if err != nil {
			log.Errorw("simulator", "traceid", traceID, "ERROR", err)
		}
		log.Sync()
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ev emits operation events to the log under this invocation's trace id.
// The core packages accept this callback so they stay free of any logger
// dependency.
func ev(v string, args ...any) {
	log.Infow(fmt.Sprintf(v, args...), "traceid", traceID)
}

// loadGenesis returns the configured genesis values or the defaults when no
// genesis file was specified.
func loadGenesis() (genesis.Genesis, error) {
	if genesisPath == "" {
		return genesis.Default(), nil
	}
	return genesis.Load(genesisPath)
}

// newState loads and validates the chain from the configured chain file.
func newState() (*state.State, error) {
	gen, err := loadGenesis()
	if err != nil {
		return nil, fmt.Errorf("loading genesis: %w", err)
	}

	st, err := state.New(state.Config{
		Genesis:   gen,
		Storage:   storage.NewDisk(chainPath),
		EvHandler: ev,
	})
	if err != nil {
		return nil, fmt.Errorf("loading blockchain state: %w", err)
	}

	return st, nil
}
