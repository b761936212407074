package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	txHashBlockNumber uint64
	txHashTxNumber    uint64
)

var txHashCmd = &cobra.Command{
	Use:   "get-transaction-hash",
	Short: "Print the hash of a transaction addressed by block number and index",
	RunE:  runGetTransactionHash,
}

func init() {
	rootCmd.AddCommand(txHashCmd)
	txHashCmd.Flags().Uint64Var(&txHashBlockNumber, "block-number", 0, "1-based number of the block holding the transaction.")
	txHashCmd.Flags().Uint64Var(&txHashTxNumber, "transaction-number", 0, "1-based index of the transaction in the block.")
	txHashCmd.MarkFlagRequired("block-number")
	txHashCmd.MarkFlagRequired("transaction-number")
}

func runGetTransactionHash(cmd *cobra.Command, args []string) error {
	st, err := newState()
	if err != nil {
		return err
	}

	hash, err := st.TransactionHash(txHashBlockNumber, txHashTxNumber)
	if err != nil {
		return err
	}

	fmt.Println(hash)

	return nil
}
