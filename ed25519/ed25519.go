package ed25519

import (
	stded25519 "crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/colorfulnotion/treeprogram/common"
	consensus "github.com/hdevalence/ed25519consensus"
)

const (
	SeedSize       = stded25519.SeedSize
	PublicKeySize  = stded25519.PublicKeySize
	PrivateKeySize = stded25519.PrivateKeySize
	SignatureSize  = stded25519.SignatureSize
)

// Aliases keep the stdlib concrete types so callers can mix both packages.
type (
	PublicKey  = stded25519.PublicKey
	PrivateKey = stded25519.PrivateKey
)

// Sign uses the standard library; only verification rules differ.
func Sign(privateKey PrivateKey, message []byte) []byte {
	return stded25519.Sign(privateKey, message)
}

// Verify applies ZIP-215 rules so every node accepts the same signatures.
func Verify(publicKey PublicKey, message, sig []byte) bool {
	if len(publicKey) != PublicKeySize || len(sig) != SignatureSize {
		return false
	}
	return consensus.Verify(publicKey, message, sig)
}

// VerifyAddress checks sig against an address that is a raw public key.
func VerifyAddress(addr common.Address, message, sig []byte) bool {
	return Verify(PublicKey(addr.Bytes()), message, sig)
}

// Keypair is a signing identity. Its address is the 32-byte public key.
type Keypair struct {
	seed []byte
	priv PrivateKey
}

func NewKeypair(seed []byte) (*Keypair, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	return &Keypair{seed: append([]byte{}, seed...), priv: stded25519.NewKeyFromSeed(seed)}, nil
}

// GenerateKeypair draws a seed from r, or crypto/rand when r is nil.
func GenerateKeypair(r io.Reader) (*Keypair, error) {
	if r == nil {
		r = rand.Reader
	}
	seed := make([]byte, SeedSize)
	if _, err := io.ReadFull(r, seed); err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return NewKeypair(seed)
}

func (k *Keypair) PublicKey() PublicKey {
	return k.priv.Public().(PublicKey)
}

func (k *Keypair) Address() common.Address {
	return common.BytesToAddress(k.PublicKey())
}

func (k *Keypair) Sign(message []byte) []byte {
	return Sign(k.priv, message)
}

type keyFile struct {
	Address common.Address `json:"address"`
	Seed    string         `json:"seed"`
}

func (k *Keypair) MarshalJSON() ([]byte, error) {
	return json.Marshal(keyFile{Address: k.Address(), Seed: common.Bytes2Hex(k.seed)})
}

func (k *Keypair) UnmarshalJSON(data []byte) error {
	var f keyFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	parsed, err := NewKeypair(common.FromHex(f.Seed))
	if err != nil {
		return err
	}
	if f.Address != (common.Address{}) && f.Address != parsed.Address() {
		return fmt.Errorf("key file address %s does not match seed", f.Address)
	}
	*k = *parsed
	return nil
}

// Save writes the keypair as JSON readable only by the owner.
func (k *Keypair) Save(path string) error {
	data, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func LoadKeypair(path string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	k := new(Keypair)
	if err := json.Unmarshal(data, k); err != nil {
		return nil, fmt.Errorf("key file %s: %w", path, err)
	}
	return k, nil
}
