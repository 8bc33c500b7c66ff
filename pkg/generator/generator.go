// Package generator defines the shared types of the vanity search: the closed
// set of supported currencies and their address families, search tasks, found
// key records and the telemetry exchanged between workers and the engine.
package generator

import (
	"fmt"
	"strings"
	"time"
)

// Family is the address-encoding family a currency belongs to. It is a closed
// variant tag: codec selection is a static lookup on it.
type Family int

const (
	FamilyBase58Check Family = iota // P2PKH chains (secp256k1, SHA-256+RIPEMD-160, Base58Check)
	FamilyTron                      // Tron (secp256k1, Keccak-256, Base58Check with 0x41 prefix)
	FamilyEVM                       // Ethereum and EVM chains (secp256k1, Keccak-256, Hex)
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyBase58Check:
		return "Base58Check"
	case FamilyTron:
		return "Tron"
	case FamilyEVM:
		return "EVM"
	default:
		return "Unknown"
	}
}

// AlphabetSize returns the number of symbols an address character is drawn from.
func (f Family) AlphabetSize() int {
	if f == FamilyEVM {
		return 16
	}
	return 58
}

// Currency identifies a supported chain.
type Currency int

const (
	CurrencyUnknown Currency = iota
	BTC                      // Bitcoin
	LTC                      // Litecoin
	DOGE                     // Dogecoin
	TRX                      // Tron
	ETH                      // Ethereum
	BSC                      // BNB Smart Chain
	MATIC                    // Polygon
	ARB                      // Arbitrum
	OP                       // Optimism
)

type currencyInfo struct {
	symbol string
	name   string
	family Family
	lead   string // First character every address of the chain starts with
}

var currencies = [...]currencyInfo{
	CurrencyUnknown: {"", "Unknown", FamilyBase58Check, ""},
	BTC:             {"BTC", "Bitcoin", FamilyBase58Check, "1"},
	LTC:             {"LTC", "Litecoin", FamilyBase58Check, "L"},
	DOGE:            {"DOGE", "Dogecoin", FamilyBase58Check, "D"},
	TRX:             {"TRX", "Tron", FamilyTron, "T"},
	ETH:             {"ETH", "Ethereum", FamilyEVM, ""},
	BSC:             {"BSC", "BNB Smart Chain", FamilyEVM, ""},
	MATIC:           {"MATIC", "Polygon", FamilyEVM, ""},
	ARB:             {"ARB", "Arbitrum", FamilyEVM, ""},
	OP:              {"OP", "Optimism", FamilyEVM, ""},
}

// Currencies lists every supported currency in display order.
func Currencies() []Currency {
	return []Currency{BTC, LTC, DOGE, TRX, ETH, BSC, MATIC, ARB, OP}
}

// ParseCurrency resolves a ticker symbol (case-insensitive).
func ParseCurrency(s string) (Currency, error) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	for _, c := range Currencies() {
		if currencies[c].symbol == sym {
			return c, nil
		}
	}
	return CurrencyUnknown, configErr("currency", s, ErrUnknownCurrency)
}

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	return c > CurrencyUnknown && int(c) < len(currencies)
}

// String returns the ticker symbol.
func (c Currency) String() string {
	if !c.Valid() {
		return "UNKNOWN"
	}
	return currencies[c].symbol
}

// Name returns the human-readable chain name.
func (c Currency) Name() string {
	if !c.Valid() {
		return "Unknown"
	}
	return currencies[c].name
}

// Family returns the address family of the currency.
func (c Currency) Family() Family {
	if !c.Valid() {
		return FamilyBase58Check
	}
	return currencies[c].family
}

// LeadingChar returns the character every address of c starts with, or ""
// when the first character varies.
func (c Currency) LeadingChar() string {
	if !c.Valid() {
		return ""
	}
	return currencies[c].lead
}

// IsEVM reports whether addresses of c are 0x-prefixed hex.
func (c Currency) IsEVM() bool {
	return c.Valid() && c.Family() == FamilyEVM
}

// PatternType selects where in the address the pattern must appear.
type PatternType string

const (
	Prefix PatternType = "prefix"
	Suffix PatternType = "suffix"
)

// ParsePatternType resolves "prefix" or "suffix" (case-insensitive).
func ParsePatternType(s string) (PatternType, error) {
	switch pt := PatternType(strings.ToLower(strings.TrimSpace(s))); pt {
	case Prefix, Suffix:
		return pt, nil
	default:
		return "", configErr("pattern_type", s, ErrInvalidPatternType)
	}
}

// Task is one vanity search request. A zero TargetCount means the search runs
// until cancelled. Priority orders tasks within a batch only (1 runs first).
type Task struct {
	Currency    Currency
	PatternType PatternType
	Pattern     string
	TargetCount int
	IgnoreCase  bool
	Priority    int
}

// String returns a short description such as "BTC prefix=1A".
func (t Task) String() string {
	return fmt.Sprintf("%s %s=%s", t.Currency, t.PatternType, t.Pattern)
}

// Validate checks every field. The returned error is a *ConfigurationError.
func (t Task) Validate() error {
	if !t.Currency.Valid() {
		return configErr("currency", t.Currency.String(), ErrUnknownCurrency)
	}
	if t.PatternType != Prefix && t.PatternType != Suffix {
		return configErr("pattern_type", string(t.PatternType), ErrInvalidPatternType)
	}
	if t.Priority < 1 || t.Priority > 5 {
		return configErr("priority", fmt.Sprint(t.Priority), ErrInvalidPriority)
	}
	if t.TargetCount < 0 {
		return configErr("target_count", fmt.Sprint(t.TargetCount), ErrInvalidTarget)
	}
	return ValidatePattern(t.Currency, t.PatternType, t.Pattern, t.IgnoreCase)
}

// KeyRecord is a confirmed match. It is created once by the worker that found
// it and never modified afterwards.
type KeyRecord struct {
	Address    string    // Address as produced by the codec
	PrivateKey string    // WIF for Base58Check chains, hex otherwise
	Currency   Currency  // Chain of the address
	FoundTime  time.Time // When the worker confirmed the match
	WorkerID   int       // Worker that found it
	Attempts   uint64    // Worker attempt counter at the time of the match
}

// WorkerStats is a snapshot of one worker's counters. Attempts and Found
// never decrease for a given worker ID.
type WorkerStats struct {
	WorkerID int
	Attempts uint64
	Found    uint64
	Dropped  uint64 // Matches the worker could not enqueue
	Speed    float64
	Uptime   time.Duration
}

// Stats holds aggregate search statistics.
type Stats struct {
	Attempts       uint64  // Total number of addresses generated
	Found          int     // Matches accepted by the engine (persisted or buffered)
	Persisted      int     // Matches written through the result sink
	Matches        uint64  // Sum of per-worker found counters
	HashRate       float64 // Current addresses per second
	ElapsedSecs    float64 // Time elapsed since start
	Workers        int     // Workers currently running
	DroppedResults uint64  // Matches lost to a saturated result channel
	DroppedStats   uint64  // Stat snapshots lost to a saturated stat channel
	Discarded      uint64  // Matches arriving after the target was met
}
