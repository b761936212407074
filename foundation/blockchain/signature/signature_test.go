package signature_test

import (
	"strings"
	"testing"

	"github.com/chainlabs/minersim/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

func Test_Hash(t *testing.T) {
	table := []struct {
		name  string
		value string
		hash  string
	}{
		{"empty", "", "0xe3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"basic", "a", "0xca978112ca1bbdcafac231b39a23dc4da786eff8147c4e72b9807785afee48bb"},
	}

	for _, tst := range table {
		if got := signature.Hash(tst.value); got != tst.hash {
			t.Errorf("[%s] wrong hash, got %s, exp %s", tst.name, got, tst.hash)
		}
	}
}

func Test_HashShape(t *testing.T) {
	hash := signature.Hash("anything at all")

	if !strings.HasPrefix(hash, "0x") {
		t.Errorf("hash is missing the 0x prefix: %s", hash)
	}

	if len(hash) != signature.HashLen {
		t.Errorf("wrong hash length, got %d, exp %d", len(hash), signature.HashLen)
	}
}

func Test_ToBytes(t *testing.T) {
	value := "round trip"

	raw, err := signature.ToBytes(signature.Hash(value))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exp := signature.HashBytes(value)
	for i := range exp {
		if raw[i] != exp[i] {
			t.Fatal("decoded hash does not match the raw digest")
		}
	}

	if _, err := signature.ToBytes("0xdeadbeef"); err == nil {
		t.Fatal("expected an error for a short hash")
	}

	if _, err := signature.ToBytes(strings.Repeat("z", signature.HashLen)); err == nil {
		t.Fatal("expected an error for a non hex hash")
	}
}

func Test_SignFromAddress(t *testing.T) {
	pk, err := crypto.HexToECDSA("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	addr := crypto.PubkeyToAddress(pk.PublicKey).String()

	value := "100,0,bob,alice,,1"

	sig, err := signature.Sign(value, pk)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	from, err := signature.FromAddress(value, sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if from != addr {
		t.Errorf("wrong signer, got %s, exp %s", from, addr)
	}

	// The same signature over a different payload must not recover the
	// signer's address.
	from, err = signature.FromAddress("200,0,bob,alice,,1", sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if from == addr {
		t.Error("expected a tampered payload to recover a different address")
	}
}
