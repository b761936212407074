// Package signature provides the hashing and signing support for the
// simulator. One hash function (SHA-256) is used for transaction hashes,
// merkle node hashes, and block header hashes so inclusion proofs stay
// consistent with the chain.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros. It is recorded as the previous
// block header hash of the first block in the chain.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// HashLen is the expected length of a hex encoded hash, "0x" included.
const HashLen = 66

// =============================================================================

// Hash returns the hex encoded SHA-256 digest of the specified canonical
// string, prefixed with 0x.
func Hash(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hexutil.Encode(hash[:])
}

// HashBytes returns the raw SHA-256 digest of the specified canonical string.
func HashBytes(value string) []byte {
	hash := sha256.Sum256([]byte(value))
	return hash[:]
}

// ToBytes converts a hex encoded hash into its raw 32 byte digest form.
func ToBytes(hash string) ([]byte, error) {
	if len(hash) != HashLen {
		return nil, errors.New("hash is not of the proper length")
	}

	return hexutil.Decode(hash)
}

// =============================================================================

// Sign uses the specified private key to sign the canonical string of a
// transaction. The signature is returned hex encoded.
func Sign(value string, privateKey *ecdsa.PrivateKey) (string, error) {

	// Prepare the data for signing.
	data := stamp(value)

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return "", err
	}

	// Extract the public key from the data and the signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	// Check the public key extracted from the data and signature.
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return "", errors.New("invalid signature produced")
	}

	return hexutil.Encode(sig), nil
}

// FromAddress extracts the address for the account that signed the
// canonical string.
func FromAddress(value string, sigStr string) (string, error) {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return "", err
	}

	// Prepare the data for public key extraction.
	data := stamp(value)

	// Capture the public key associated with this data and signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	// Extract the account address from the public key.
	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents the canonical string with
// a salt embedded into the final hash. Signatures produced for the simulator
// can never be valid for anything else.
func stamp(value string) []byte {
	valueHash := crypto.Keccak256([]byte(value))

	stamp := []byte("\x19Minersim Signed Message:\n32")

	return crypto.Keccak256(stamp, valueHash)
}
