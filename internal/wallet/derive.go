package wallet

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"errors"
	"io"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/hkdf"
)

const hkdfInfoAccount = "homeseeker/wallet/account/v1"

// DeriveKey maps a mnemonic deterministically onto a secp256k1 account key.
// The counter byte retries derivation on the negligible chance the expanded
// material falls outside the curve order.
func DeriveKey(mnemonic string) (*ecdsa.PrivateKey, error) {
	seed := bip39.NewSeed(mnemonic, "")
	info := []byte(hkdfInfoAccount)
	for counter := 0; counter < 256; counter++ {
		material, err := hkdfExpand(seed, append(info, byte(counter)), 32)
		if err != nil {
			return nil, err
		}
		key, err := crypto.ToECDSA(material)
		if err == nil {
			return key, nil
		}
	}
	return nil, errors.New("account key derivation failed")
}

func hkdfExpand(seed, info []byte, outLen int) ([]byte, error) {
	reader := hkdf.New(sha256.New, seed, nil, info)
	out := make([]byte, outLen)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, err
	}
	return out, nil
}
