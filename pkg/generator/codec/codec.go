// Package codec derives addresses and encoded private keys from secp256k1
// scalars for every supported currency.
package codec

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/base58"

	"github.com/Amr-9/VanityHunter/pkg/generator"
	"github.com/Amr-9/VanityHunter/pkg/generator/bitcoin"
	"github.com/Amr-9/VanityHunter/pkg/generator/ethereum"
	"github.com/Amr-9/VanityHunter/pkg/generator/tron"
)

var (
	ErrScalarOutOfRange = errors.New("scalar outside [1, N-1]")
	ErrMalformedKey     = errors.New("malformed private key encoding")
	ErrAddressMismatch  = errors.New("address does not match private key")
)

// Key is one derived key pair.
type Key struct {
	Raw        [32]byte // Big-endian scalar
	Address    string
	EncodedKey string // WIF for Base58Check chains, lowercase hex otherwise
}

// Option configures a Codec.
type Option func(*Codec)

// WithPolicy selects how random scalars are mapped into range.
func WithPolicy(p ScalarPolicy) Option {
	return func(c *Codec) { c.policy = p }
}

// WithEntropy replaces crypto/rand as the source of scalar bytes.
func WithEntropy(r io.Reader) Option {
	return func(c *Codec) { c.entropy = r }
}

// Codec generates keys for a single currency. A Codec is not safe for
// concurrent use; each worker owns its own.
type Codec struct {
	currency generator.Currency
	family   generator.Family
	versions bitcoin.Versions
	entropy  io.Reader
	policy   ScalarPolicy
	buf      [32]byte
}

// New returns a Codec for currency.
func New(currency generator.Currency, opts ...Option) (*Codec, error) {
	if !currency.Valid() {
		return nil, &generator.ConfigurationError{
			Field: "currency",
			Value: currency.String(),
			Err:   generator.ErrUnknownCurrency,
		}
	}

	c := &Codec{
		currency: currency,
		family:   currency.Family(),
		entropy:  rand.Reader,
		policy:   Rejection,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.family == generator.FamilyBase58Check {
		v, err := bitcoin.VersionsFor(currency)
		if err != nil {
			return nil, &generator.ConfigurationError{Field: "currency", Value: currency.String(), Err: err}
		}
		c.versions = v
	}
	return c, nil
}

// Currency returns the currency the codec derives for.
func (c *Codec) Currency() generator.Currency { return c.currency }

// Policy returns the scalar sampling policy.
func (c *Codec) Policy() ScalarPolicy { return c.policy }

// Generate samples a fresh scalar and derives its address.
func (c *Codec) Generate() (Key, error) {
	raw, err := c.sample()
	if err != nil {
		return Key{}, err
	}
	return c.derive(raw), nil
}

// FromScalar derives the key for a given 32-byte big-endian scalar.
func (c *Codec) FromScalar(raw []byte) (Key, error) {
	if len(raw) != 32 || !inRange(raw) {
		return Key{}, ErrScalarOutOfRange
	}
	var k [32]byte
	copy(k[:], raw)
	return c.derive(k), nil
}

func (c *Codec) derive(raw [32]byte) Key {
	_, pub := btcec.PrivKeyFromBytes(raw[:])

	key := Key{Raw: raw}
	switch c.family {
	case generator.FamilyBase58Check:
		key.Address = bitcoin.P2PKHAddress(pub, c.versions.PubKeyHash)
		key.EncodedKey = bitcoin.EncodeWIF(raw, c.versions.WIF)
	case generator.FamilyTron:
		key.Address = tron.DeriveAddress(pub)
		key.EncodedKey = tron.PrivateKeyToHex(raw)
	default:
		key.Address = ethereum.DeriveAddress(pub)
		key.EncodedKey = ethereum.PrivateKeyToHex(raw)
	}
	return key
}

// Verify decodes encodedKey, re-derives the address for currency and
// compares it with address. EVM addresses compare case-insensitively so
// checksummed input is accepted.
func Verify(currency generator.Currency, address, encodedKey string) error {
	c, err := New(currency)
	if err != nil {
		return err
	}

	raw, err := c.decodeKey(encodedKey)
	if err != nil {
		return err
	}

	key, err := c.FromScalar(raw)
	if err != nil {
		return err
	}

	match := key.Address == address
	if currency.IsEVM() {
		match = strings.EqualFold(key.Address, address)
	}
	if !match {
		return fmt.Errorf("%w: derived %s, got %s", ErrAddressMismatch, key.Address, address)
	}
	return nil
}

func (c *Codec) decodeKey(encoded string) ([]byte, error) {
	if c.family != generator.FamilyBase58Check {
		raw, err := hex.DecodeString(strings.TrimPrefix(encoded, "0x"))
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("%w: want 64 hex characters", ErrMalformedKey)
		}
		return raw, nil
	}

	payload, version, err := base58.CheckDecode(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	if version != c.versions.WIF {
		return nil, fmt.Errorf("%w: WIF version 0x%02x, want 0x%02x", ErrMalformedKey, version, c.versions.WIF)
	}
	if len(payload) != 33 || payload[32] != 0x01 {
		return nil, fmt.Errorf("%w: not a compressed WIF", ErrMalformedKey)
	}
	return payload[:32], nil
}
