// Package ethereum implements address derivation for Ethereum and the EVM
// chains that share its address format.
package ethereum

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/crypto"
)

// DeriveAddress returns "0x" followed by the lowercase hex of the last 20
// bytes of Keccak256(pubKey[1:]). No EIP-55 checksum casing is applied.
func DeriveAddress(pubKey *btcec.PublicKey) string {
	hash := crypto.Keccak256(pubKey.SerializeUncompressed()[1:])

	var out [42]byte
	out[0], out[1] = '0', 'x'
	hex.Encode(out[2:], hash[12:])
	return string(out[:])
}

// PrivateKeyToHex converts a raw private key to lowercase hex.
func PrivateKeyToHex(privKey [32]byte) string {
	return hex.EncodeToString(privKey[:])
}
