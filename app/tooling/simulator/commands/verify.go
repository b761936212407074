package commands

import (
	"errors"
	"fmt"

	"github.com/chainlabs/minersim/foundation/blockchain/database/storage"
	"github.com/spf13/cobra"
)

var (
	verifyBlockNumber uint64
	verifyProofPath   string
)

var verifyCmd = &cobra.Command{
	Use:   "verify-inclusion-proof",
	Short: "Verify a merkle inclusion proof against the chain's recorded root",
	RunE:  runVerifyInclusionProof,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().Uint64Var(&verifyBlockNumber, "block-number", 0, "1-based number of the block the proof is verified against.")
	verifyCmd.Flags().StringVar(&verifyProofPath, "proof", "", "File storing the inclusion proof.")
	verifyCmd.MarkFlagRequired("block-number")
	verifyCmd.MarkFlagRequired("proof")
}

func runVerifyInclusionProof(cmd *cobra.Command, args []string) error {
	st, err := newState()
	if err != nil {
		return err
	}

	proof, err := storage.ReadProof(verifyProofPath)
	if err != nil {
		return fmt.Errorf("loading proof: %w", err)
	}

	valid, err := st.VerifyProof(verifyBlockNumber, proof)
	if err != nil {
		return err
	}

	fmt.Println(valid)

	if !valid {
		return errors.New("proof verification failed")
	}

	return nil
}
