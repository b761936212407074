package commands

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/chainlabs/minersim/foundation/blockchain/database"
	"github.com/chainlabs/minersim/foundation/blockchain/database/storage"
	"github.com/chainlabs/minersim/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	genTxCount      uint32
	genTxMempoolOut string
	genTxKeyHex     string
	genTxReceiver   string
)

var genTxCmd = &cobra.Command{
	Use:   "generate-transactions",
	Short: "Generate a mempool of signed transactions",
	RunE:  runGenerateTransactions,
}

func init() {
	rootCmd.AddCommand(genTxCmd)
	genTxCmd.Flags().Uint32Var(&genTxCount, "count", 10, "Number of transactions to generate.")
	genTxCmd.Flags().StringVar(&genTxMempoolOut, "mempool-output", "", "File to store the generated mempool.")
	genTxCmd.Flags().StringVar(&genTxKeyHex, "key", "", "Hex encoded private key of the sender. A fresh key is generated when omitted.")
	genTxCmd.Flags().StringVar(&genTxReceiver, "receiver", "", "Receiver address. A fresh address is generated when omitted.")
	genTxCmd.MarkFlagRequired("mempool-output")
}

func runGenerateTransactions(cmd *cobra.Command, args []string) error {
	if genTxCount < 1 {
		return fmt.Errorf("count must be a positive integer, got %d", genTxCount)
	}

	var key *ecdsa.PrivateKey
	var err error
	switch genTxKeyHex {
	case "":
		if key, err = crypto.GenerateKey(); err != nil {
			return fmt.Errorf("generating sender key: %w", err)
		}
	default:
		if key, err = crypto.HexToECDSA(genTxKeyHex); err != nil {
			return fmt.Errorf("parsing sender key: %w", err)
		}
	}
	sender := crypto.PubkeyToAddress(key.PublicKey).String()

	receiver := genTxReceiver
	if receiver == "" {
		receiverKey, err := crypto.GenerateKey()
		if err != nil {
			return fmt.Errorf("generating receiver key: %w", err)
		}
		receiver = crypto.PubkeyToAddress(receiverKey.PublicKey).String()
	}

	txs := make([]database.Tx, genTxCount)
	for i := range txs {
		tx := database.Tx{
			Amount:   uint64(100 + i*10),
			LockTime: 0,
			Receiver: receiver,
			Sender:   sender,
			Fee:      uint64(1 + i%5),
		}

		sig, err := signature.Sign(tx.SigningString(), key)
		if err != nil {
			return fmt.Errorf("signing transaction %d: %w", i, err)
		}
		tx.Signature = sig

		txs[i] = tx
	}

	if err := storage.WriteTransactions(genTxMempoolOut, txs); err != nil {
		return fmt.Errorf("writing mempool: %w", err)
	}

	fmt.Printf("generated %d transactions from %s to %s in %s\n", genTxCount, sender, receiver, genTxMempoolOut)

	return nil
}
