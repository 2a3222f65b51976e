package ledger

import (
	"fmt"

	"github.com/Peersyst/xrpl-go/pkg/crypto"
	"github.com/Peersyst/xrpl-go/xrpl/wallet"
)

// KeyType selects the signing algorithm for generated accounts.
type KeyType string

const (
	KeyTypeED25519   KeyType = "ed25519"
	KeyTypeSECP256K1 KeyType = "secp256k1"
)

// GenerateAccount creates a fresh keypair. The account does not exist on the
// ledger until it is funded.
func GenerateAccount(keyType KeyType) (Account, error) {
	var (
		w   wallet.Wallet
		err error
	)
	switch keyType {
	case KeyTypeED25519, "":
		w, err = wallet.New(crypto.ED25519())
	case KeyTypeSECP256K1:
		w, err = wallet.New(crypto.SECP256K1())
	default:
		return Account{}, fmt.Errorf("unsupported key type %q", keyType)
	}
	if err != nil {
		return Account{}, fmt.Errorf("failed to generate wallet: %w", err)
	}
	return Account{Address: string(w.ClassicAddress), Seed: w.Seed}, nil
}

// AccountFromSeed restores an account from its seed.
func AccountFromSeed(seed string) (Account, error) {
	w, err := wallet.FromSeed(seed, "")
	if err != nil {
		return Account{}, fmt.Errorf("invalid seed: %w", err)
	}
	return Account{Address: string(w.ClassicAddress), Seed: seed}, nil
}

// Sign signs a fully autofilled transaction and returns the hex blob and hash.
func Sign(tx Tx, signer Account) (blob string, hash string, err error) {
	if signer.Seed == "" {
		return "", "", ErrMissingSeed
	}
	w, err := wallet.FromSeed(signer.Seed, "")
	if err != nil {
		return "", "", fmt.Errorf("invalid seed: %w", err)
	}
	if string(w.ClassicAddress) != signer.Address {
		return "", "", ErrSignerMismatch
	}
	flat := make(map[string]interface{}, len(tx)+1)
	for k, v := range tx {
		flat[k] = v
	}
	if _, ok := flat["SigningPubKey"]; !ok {
		flat["SigningPubKey"] = w.PublicKey
	}
	return w.Sign(flat)
}
