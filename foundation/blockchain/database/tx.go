package database

import (
	"fmt"

	"github.com/chainlabs/minersim/foundation/blockchain/signature"
)

// Tx is the transactional information between two parties. Transactions are
// immutable once created; their identity is the hash of their canonical
// string.
type Tx struct {
	Amount    uint64 `json:"amount"`
	LockTime  uint32 `json:"lock_time"`
	Receiver  string `json:"receiver" validate:"required"`
	Sender    string `json:"sender" validate:"required"`
	Signature string `json:"signature" validate:"required"`
	Fee       uint64 `json:"transaction_fee"`
}

// CanonicalString produces the fixed byte representation of the transaction
// used as hashing input: the field values comma joined in alphabetical order
// of their key (amount, lock_time, receiver, sender, signature,
// transaction_fee), numbers as plain decimal, no spaces. Any change to the
// transaction schema changes this encoding and breaks every recorded hash,
// so the field set here is frozen.
func (tx Tx) CanonicalString() string {
	return format(tx.Amount, tx.LockTime, tx.Receiver, tx.Sender, tx.Signature, tx.Fee)
}

// SigningString is the canonical string with the signature field left empty.
// It is the payload a sender signs before the signature is attached.
func (tx Tx) SigningString() string {
	return format(tx.Amount, tx.LockTime, tx.Receiver, tx.Sender, "", tx.Fee)
}

// Hash implements the merkle Hashable interface, providing the raw SHA-256
// digest of the canonical string.
func (tx Tx) Hash() ([]byte, error) {
	return signature.HashBytes(tx.CanonicalString()), nil
}

// HashHex returns the hex encoded transaction hash with the 0x prefix.
func (tx Tx) HashHex() string {
	return signature.Hash(tx.CanonicalString())
}

// Equals implements the merkle Hashable interface, comparing the canonical
// strings of two transactions.
func (tx Tx) Equals(otherTx Tx) bool {
	return tx.CanonicalString() == otherTx.CanonicalString()
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return tx.HashHex()
}

// format joins the field values in alphabetical order of their key.
func format(amount uint64, lockTime uint32, receiver string, sender string, sig string, fee uint64) string {
	return fmt.Sprintf("%d,%d,%s,%s,%s,%d", amount, lockTime, receiver, sender, sig, fee)
}
