package codec

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math/big"
	"math/rand"
	"strings"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/Amr-9/VanityHunter/pkg/generator"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestFromScalarKnownVectors(t *testing.T) {
	one := mustHex(t, "0000000000000000000000000000000000000000000000000000000000000001")

	tests := []struct {
		currency generator.Currency
		address  string
		key      string
	}{
		{generator.BTC, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", "KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn"},
		{generator.ETH, "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf", "0000000000000000000000000000000000000000000000000000000000000001"},
		{generator.OP, "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf", "0000000000000000000000000000000000000000000000000000000000000001"},
	}

	for _, tt := range tests {
		c, err := New(tt.currency)
		if err != nil {
			t.Fatal(err)
		}
		key, err := c.FromScalar(one)
		if err != nil {
			t.Fatalf("%v: FromScalar() error = %v", tt.currency, err)
		}
		if key.Address != tt.address || key.EncodedKey != tt.key {
			t.Errorf("%v: got (%s, %s), want (%s, %s)", tt.currency, key.Address, key.EncodedKey, tt.address, tt.key)
		}
	}
}

func TestDeterminism(t *testing.T) {
	raw := mustHex(t, "e9873d79c6d87dc0fb6a5778633389f4453213303da61f20bd67fc233aa33262")

	for _, cur := range generator.Currencies() {
		a, _ := New(cur)
		b, _ := New(cur)
		k1, err := a.FromScalar(raw)
		if err != nil {
			t.Fatal(err)
		}
		k2, _ := b.FromScalar(raw)
		if k1 != k2 {
			t.Errorf("%v: derivation not deterministic: %+v vs %+v", cur, k1, k2)
		}
	}
}

func TestSeededEntropyIsReproducible(t *testing.T) {
	gen := func() []Key {
		c, err := New(generator.LTC, WithEntropy(rand.New(rand.NewSource(7))))
		if err != nil {
			t.Fatal(err)
		}
		keys := make([]Key, 5)
		for i := range keys {
			if keys[i], err = c.Generate(); err != nil {
				t.Fatal(err)
			}
		}
		return keys
	}

	a, b := gen(), gen()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("key %d differs between identical seeds", i)
		}
		if !strings.HasPrefix(a[i].Address, "L") {
			t.Errorf("LTC address %s does not start with L", a[i].Address)
		}
	}
}

func TestGeneratedKeysVerify(t *testing.T) {
	for _, cur := range generator.Currencies() {
		c, err := New(cur)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 8; i++ {
			key, err := c.Generate()
			if err != nil {
				t.Fatal(err)
			}
			if err := Verify(cur, key.Address, key.EncodedKey); err != nil {
				t.Errorf("%v: Verify(%s) error = %v", cur, key.Address, err)
			}
		}
	}
}

func TestVerifyRejects(t *testing.T) {
	c, _ := New(generator.BTC)
	key, err := c.Generate()
	if err != nil {
		t.Fatal(err)
	}
	other, _ := c.Generate()

	if err := Verify(generator.BTC, other.Address, key.EncodedKey); !errors.Is(err, ErrAddressMismatch) {
		t.Errorf("mismatched address: error = %v", err)
	}

	// Flip one character of the WIF; the checksum must catch it.
	b := []byte(key.EncodedKey)
	if b[10] == 'a' {
		b[10] = 'b'
	} else {
		b[10] = 'a'
	}
	if err := Verify(generator.BTC, key.Address, string(b)); !errors.Is(err, ErrMalformedKey) {
		t.Errorf("corrupted WIF: error = %v", err)
	}

	// A Bitcoin WIF is not a Dogecoin WIF.
	if err := Verify(generator.DOGE, key.Address, key.EncodedKey); !errors.Is(err, ErrMalformedKey) {
		t.Errorf("wrong WIF version: error = %v", err)
	}

	if err := Verify(generator.ETH, "0x00", "zz"); !errors.Is(err, ErrMalformedKey) {
		t.Errorf("bad hex: error = %v", err)
	}
}

func TestVerifyAcceptsChecksummedEVM(t *testing.T) {
	one := mustHex(t, "0000000000000000000000000000000000000000000000000000000000000001")
	if err := Verify(generator.ETH, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", hex.EncodeToString(one)); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestFromScalarRange(t *testing.T) {
	c, _ := New(generator.ETH)
	n := secp256k1.Params().N

	nBytes := make([]byte, 32)
	n.FillBytes(nBytes)
	nMinus1 := make([]byte, 32)
	new(big.Int).Sub(n, big.NewInt(1)).FillBytes(nMinus1)

	tests := []struct {
		name string
		raw  []byte
		ok   bool
	}{
		{"zero", make([]byte, 32), false},
		{"order", nBytes, false},
		{"all ones", bytes.Repeat([]byte{0xFF}, 32), false},
		{"short", []byte{1}, false},
		{"order minus one", nMinus1, true},
	}
	for _, tt := range tests {
		_, err := c.FromScalar(tt.raw)
		if tt.ok && err != nil {
			t.Errorf("%s: FromScalar() error = %v", tt.name, err)
		}
		if !tt.ok && !errors.Is(err, ErrScalarOutOfRange) {
			t.Errorf("%s: FromScalar() error = %v, want ErrScalarOutOfRange", tt.name, err)
		}
	}
}

// constReader returns the same bytes forever.
type constReader []byte

func (r constReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r[i%len(r)]
	}
	return len(p), nil
}

func TestRejectionPolicy(t *testing.T) {
	c, _ := New(generator.BTC, WithEntropy(constReader{0xFF}))
	if _, err := c.Generate(); !errors.Is(err, ErrScalarOutOfRange) {
		t.Errorf("Generate() error = %v, want ErrScalarOutOfRange", err)
	}

	c, _ = New(generator.BTC, WithEntropy(constReader{0x00}))
	if _, err := c.Generate(); !errors.Is(err, ErrScalarOutOfRange) {
		t.Errorf("Generate() on zero source error = %v, want ErrScalarOutOfRange", err)
	}
}

func TestModReducePolicy(t *testing.T) {
	n := secp256k1.Params().N

	for _, fill := range []byte{0x00, 0xFF, 0x7A} {
		c, _ := New(generator.TRX, WithPolicy(ModReduce), WithEntropy(constReader{fill}))
		key, err := c.Generate()
		if err != nil {
			t.Fatalf("fill %x: Generate() error = %v", fill, err)
		}
		v := new(big.Int).SetBytes(key.Raw[:])
		if v.Sign() <= 0 || v.Cmp(n) >= 0 {
			t.Errorf("fill %x: scalar %x out of range", fill, key.Raw)
		}
	}

	// Zero maps to one.
	c, _ := New(generator.ETH, WithPolicy(ModReduce), WithEntropy(constReader{0x00}))
	key, _ := c.Generate()
	if key.Address != "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf" {
		t.Errorf("zero input mapped to %x", key.Raw)
	}
}

func TestParseScalarPolicy(t *testing.T) {
	for in, want := range map[string]ScalarPolicy{"": Rejection, "Rejection": Rejection, "modreduce": ModReduce} {
		got, err := ParseScalarPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseScalarPolicy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseScalarPolicy("biased"); err == nil {
		t.Error("ParseScalarPolicy(biased) should fail")
	}
}

func TestNewUnknownCurrency(t *testing.T) {
	_, err := New(generator.CurrencyUnknown)
	var cfgErr *generator.ConfigurationError
	if !errors.As(err, &cfgErr) || !errors.Is(err, generator.ErrUnknownCurrency) {
		t.Errorf("New() error = %v", err)
	}
}
