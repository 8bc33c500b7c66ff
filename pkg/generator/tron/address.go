// Package tron implements Tron address derivation.
package tron

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Amr-9/VanityHunter/pkg/generator/bitcoin"
)

// MainnetPrefix is the address prefix for Tron mainnet (0x41)
const MainnetPrefix = 0x41

// DeriveAddress derives a Tron address from a public key.
// Tron address = Base58Check(0x41 + last 20 bytes of Keccak256(pubKey[1:]))
// All Tron addresses start with 'T'.
func DeriveAddress(pubKey *btcec.PublicKey) string {
	// Skip the 0x04 prefix of the uncompressed key
	hash := crypto.Keccak256(pubKey.SerializeUncompressed()[1:])

	var payload [21]byte
	payload[0] = MainnetPrefix
	copy(payload[1:], hash[len(hash)-20:])

	return bitcoin.Base58CheckEncode(payload[:])
}

// PrivateKeyToHex converts a raw private key to lowercase hex.
func PrivateKeyToHex(privKey [32]byte) string {
	return hex.EncodeToString(privKey[:])
}
