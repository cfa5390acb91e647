// internal/identity/identity.go
package identity

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// ErrCrypto indicates key generation or signing failed. This is the only
// unrecoverable error family in the library; everything downstream of it is
// retried or dropped.
var ErrCrypto = errors.New("crypto failure")

// Identity is a local secp256k1 keypair. The x-only public key (hex) is the
// peer's durable identifier for the lifetime of the session.
type Identity struct {
	priv   *secp256k1.PrivateKey
	pubHex string
}

// Generate creates a fresh keypair. It fails only if the entropy source does.
func Generate() (*Identity, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: generate key: %v", ErrCrypto, err)
	}
	return fromPrivate(priv), nil
}

// FromSecretHex restores an identity from a hex-encoded 32-byte secret key.
// Used to keep the same pubkey across reconnects.
func FromSecretHex(s string) (*Identity, error) {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 32 {
		return nil, fmt.Errorf("%w: invalid secret key", ErrCrypto)
	}
	return fromPrivate(secp256k1.PrivKeyFromBytes(raw)), nil
}

func fromPrivate(priv *secp256k1.PrivateKey) *Identity {
	return &Identity{
		priv:   priv,
		pubHex: hex.EncodeToString(schnorr.SerializePubKey(priv.PubKey())),
	}
}

// PublicKeyHex returns the 32-byte x-only public key as lowercase hex.
func (id *Identity) PublicKeyHex() string {
	return id.pubHex
}

// SecretKeyHex returns the hex-encoded secret key for persistence by the host
// application. Never transmitted.
func (id *Identity) SecretKeyHex() string {
	return hex.EncodeToString(id.priv.Serialize())
}

// Sign produces a 64-byte schnorr signature over a 32-byte digest.
func (id *Identity) Sign(digest [32]byte) ([]byte, error) {
	sig, err := schnorr.Sign(id.priv, digest[:])
	if err != nil {
		return nil, fmt.Errorf("%w: sign: %v", ErrCrypto, err)
	}
	return sig.Serialize(), nil
}

// Verify reports whether sig is a valid schnorr signature over digest by the
// x-only pubkey given as hex. Any parse failure is treated as a bad signature.
func Verify(pubHex string, digest [32]byte, sig []byte) bool {
	pubRaw, err := hex.DecodeString(pubHex)
	if err != nil {
		return false
	}
	pub, err := schnorr.ParsePubKey(pubRaw)
	if err != nil {
		return false
	}
	parsed, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false
	}
	return parsed.Verify(digest[:], pub)
}
