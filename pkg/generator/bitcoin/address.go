// Package bitcoin implements P2PKH address and WIF encoding for the
// Base58Check chains (Bitcoin, Litecoin, Dogecoin).
package bitcoin

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/minio/sha256-simd"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160"

	"github.com/Amr-9/VanityHunter/pkg/generator"
)

// Versions holds the mainnet version bytes of one chain.
type Versions struct {
	PubKeyHash byte // P2PKH address version
	WIF        byte // Wallet Import Format version
}

var versions = map[generator.Currency]Versions{
	generator.BTC:  {PubKeyHash: 0x00, WIF: 0x80},
	generator.LTC:  {PubKeyHash: 0x30, WIF: 0xB0},
	generator.DOGE: {PubKeyHash: 0x1E, WIF: 0x9E},
}

// VersionsFor returns the version bytes of a Base58Check currency.
func VersionsFor(c generator.Currency) (Versions, error) {
	v, ok := versions[c]
	if !ok {
		return Versions{}, fmt.Errorf("%w: %s has no P2PKH version", generator.ErrUnknownCurrency, c)
	}
	return v, nil
}

// P2PKHAddress creates a legacy pay-to-pubkey-hash address.
// Address = Base58Check(version + HASH160(compressed pubkey))
func P2PKHAddress(pubKey *btcec.PublicKey, version byte) string {
	var payload [21]byte
	payload[0] = version
	h := Hash160(pubKey.SerializeCompressed())
	copy(payload[1:], h[:])
	return Base58CheckEncode(payload[:])
}

// EncodeWIF encodes a raw 32-byte private key in compressed WIF.
// WIF = Base58Check(version + key + 0x01)
func EncodeWIF(privKey [32]byte, version byte) string {
	var payload [34]byte
	payload[0] = version
	copy(payload[1:33], privKey[:])
	payload[33] = 0x01 // Compressed public key flag
	return Base58CheckEncode(payload[:])
}

// Hash160 computes RIPEMD160(SHA256(data)).
func Hash160(data []byte) [20]byte {
	sha := sha256.Sum256(data)
	r := ripemd160.New()
	r.Write(sha[:])
	var out [20]byte
	copy(out[:], r.Sum(nil))
	return out
}

// Checksum returns the first 4 bytes of SHA256(SHA256(data)).
func Checksum(data []byte) [4]byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	var out [4]byte
	copy(out[:], second[:4])
	return out
}

// Base58CheckEncode encodes data with a 4-byte checksum in Base58.
func Base58CheckEncode(data []byte) string {
	sum := Checksum(data)
	full := make([]byte, 0, len(data)+4)
	full = append(full, data...)
	full = append(full, sum[:]...)
	return base58.Encode(full)
}
