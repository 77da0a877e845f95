package sui

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ed25519Flag is the Sui signature scheme flag for Ed25519.
const ed25519Flag byte = 0x00

// transactionIntent prefixes transaction bytes before hashing: scope TransactionData, version V0, app Sui.
var transactionIntent = []byte{0x00, 0x00, 0x00}

var ErrInvalidPrivateKey = errors.New("invalid private key")

// Signer holds the process-wide Ed25519 key used for every mint. It is immutable and safe for concurrent use.
type Signer struct {
	priv    ed25519.PrivateKey
	pub     ed25519.PublicKey
	address string
}

// NewSigner builds a signer from a 32-byte Ed25519 seed.
func NewSigner(seed []byte) (*Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed must be %d bytes, got %d", ErrInvalidPrivateKey, ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &Signer{priv: priv, pub: pub, address: AddressFromPublicKey(pub)}, nil
}

// ParsePrivateKey accepts a Sui keystore entry (base64 of flag||seed), a base64 seed, or a hex seed.
func ParsePrivateKey(raw string) (*Signer, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPrivateKey)
	}

	if h := strings.TrimPrefix(raw, "0x"); len(h) == 2*ed25519.SeedSize {
		if seed, err := hex.DecodeString(h); err == nil {
			return NewSigner(seed)
		}
	}

	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: not hex or base64", ErrInvalidPrivateKey)
	}
	switch len(decoded) {
	case ed25519.SeedSize:
		return NewSigner(decoded)
	case ed25519.SeedSize + 1:
		if decoded[0] != ed25519Flag {
			return nil, fmt.Errorf("%w: unsupported key scheme flag 0x%02x", ErrInvalidPrivateKey, decoded[0])
		}
		return NewSigner(decoded[1:])
	default:
		return nil, fmt.Errorf("%w: unexpected length %d", ErrInvalidPrivateKey, len(decoded))
	}
}

func (s *Signer) Address() string { return s.address }

func (s *Signer) PublicKey() ed25519.PublicKey { return s.pub }

// SignTransaction returns the serialized signature (flag || sig || pubkey, base64) for raw transaction bytes.
func (s *Signer) SignTransaction(txBytes []byte) string {
	digest := TransactionSigningDigest(txBytes)
	sig := ed25519.Sign(s.priv, digest[:])

	serialized := make([]byte, 0, 1+ed25519.SignatureSize+ed25519.PublicKeySize)
	serialized = append(serialized, ed25519Flag)
	serialized = append(serialized, sig...)
	serialized = append(serialized, s.pub...)
	return base64.StdEncoding.EncodeToString(serialized)
}

// TransactionSigningDigest is blake2b-256 over the intent message.
func TransactionSigningDigest(txBytes []byte) [32]byte {
	msg := make([]byte, 0, len(transactionIntent)+len(txBytes))
	msg = append(msg, transactionIntent...)
	msg = append(msg, txBytes...)
	return blake2b.Sum256(msg)
}

// AddressFromPublicKey derives the Sui address: blake2b-256(flag || pubkey).
func AddressFromPublicKey(pub ed25519.PublicKey) string {
	buf := make([]byte, 0, 1+len(pub))
	buf = append(buf, ed25519Flag)
	buf = append(buf, pub...)
	sum := blake2b.Sum256(buf)
	return "0x" + hex.EncodeToString(sum[:])
}

var ErrInvalidAddress = errors.New("invalid sui address")

// NormalizeAddress lowercases and left-pads a 0x-prefixed hex address to 32 bytes.
func NormalizeAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if !strings.HasPrefix(addr, "0x") && !strings.HasPrefix(addr, "0X") {
		return "", ErrInvalidAddress
	}
	h := strings.ToLower(addr[2:])
	if h == "" || len(h) > 64 {
		return "", ErrInvalidAddress
	}
	for _, r := range h {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", ErrInvalidAddress
		}
	}
	return "0x" + strings.Repeat("0", 64-len(h)) + h, nil
}
