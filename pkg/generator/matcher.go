package generator

import (
	"fmt"
	"strings"
	"unicode"
)

// Base58 alphabet (excludes 0, O, I, l)
const Base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

const hexAlphabet = "0123456789abcdef"

// Longest address body a pattern can be compared against.
const (
	maxBase58Len = 34
	maxHexLen    = 40
)

// Matcher tests addresses against one pattern. The pattern is normalized once
// so the worker hot loop does no allocation.
type Matcher struct {
	pattern  string
	kind     PatternType
	fold     bool
	stripHex bool
}

// NewMatcher compiles the pattern of task. Only the pattern type is checked
// here; use Task.Validate for full validation.
func NewMatcher(task Task) (*Matcher, error) {
	return newMatcher(task.Currency, task.Pattern, task.PatternType, task.IgnoreCase)
}

func newMatcher(currency Currency, pattern string, kind PatternType, ignoreCase bool) (*Matcher, error) {
	if kind != Prefix && kind != Suffix {
		return nil, configErr("pattern_type", string(kind), ErrInvalidPatternType)
	}
	return &Matcher{
		pattern:  pattern,
		kind:     kind,
		fold:     ignoreCase,
		stripHex: currency.IsEVM(),
	}, nil
}

// Matches reports whether address satisfies the pattern.
func (m *Matcher) Matches(address string) bool {
	if m.stripHex {
		address = strings.TrimPrefix(address, "0x")
	}

	n := len(m.pattern)
	if len(address) < n {
		return false
	}

	var part string
	if m.kind == Prefix {
		part = address[:n]
	} else {
		part = address[len(address)-n:]
	}

	if m.fold {
		return strings.EqualFold(part, m.pattern)
	}
	return part == m.pattern
}

// Match is the one-shot form of Matcher.Matches. An unknown pattern type is a
// configuration error, never a silent mismatch.
func Match(address string, currency Currency, pattern string, kind PatternType, ignoreCase bool) (bool, error) {
	m, err := newMatcher(currency, pattern, kind, ignoreCase)
	if err != nil {
		return false, err
	}
	return m.Matches(address), nil
}

// ValidatePattern rejects patterns that can never match an address of the
// currency: characters outside its alphabet, a prefix that contradicts the
// chain's fixed leading character, or a pattern longer than an address.
func ValidatePattern(currency Currency, kind PatternType, pattern string, ignoreCase bool) error {
	if pattern == "" {
		return configErr("pattern", pattern, fmt.Errorf("%w: empty", ErrInvalidPattern))
	}

	if currency.IsEVM() {
		if len(pattern) > maxHexLen {
			return configErr("pattern", pattern, fmt.Errorf("%w: longer than %d hex characters", ErrInvalidPattern, maxHexLen))
		}
		if bad := InvalidHexChars(pattern, ignoreCase); len(bad) > 0 {
			return configErr("pattern", pattern, fmt.Errorf("%w: %q not allowed (addresses are lowercase hex)", ErrInvalidPattern, string(bad)))
		}
		return nil
	}

	if len(pattern) > maxBase58Len {
		return configErr("pattern", pattern, fmt.Errorf("%w: longer than %d characters", ErrInvalidPattern, maxBase58Len))
	}
	if bad := InvalidBase58Chars(pattern, ignoreCase); len(bad) > 0 {
		return configErr("pattern", pattern, fmt.Errorf("%w: %q not in Base58 (0, O, I, l excluded)", ErrInvalidPattern, string(bad)))
	}

	lead := currency.LeadingChar()
	if kind == Prefix && lead != "" {
		first := pattern[:1]
		if first != lead && !(ignoreCase && strings.EqualFold(first, lead)) {
			return configErr("pattern", pattern, fmt.Errorf("%w: %s addresses always start with %q", ErrInvalidPattern, currency, lead))
		}
	}
	return nil
}

// InvalidBase58Chars returns the characters of s outside the Base58 alphabet.
// With ignoreCase a character is accepted if either of its cases is valid.
func InvalidBase58Chars(s string, ignoreCase bool) []rune {
	var invalid []rune
	for _, c := range s {
		if strings.ContainsRune(Base58Alphabet, c) {
			continue
		}
		if ignoreCase && (strings.ContainsRune(Base58Alphabet, unicode.ToLower(c)) ||
			strings.ContainsRune(Base58Alphabet, unicode.ToUpper(c))) {
			continue
		}
		invalid = append(invalid, c)
	}
	return invalid
}

// InvalidHexChars returns the characters of s that cannot appear in a
// lowercase hex address. Uppercase digits are accepted only with ignoreCase.
func InvalidHexChars(s string, ignoreCase bool) []rune {
	var invalid []rune
	for _, c := range s {
		lc := c
		if ignoreCase {
			lc = unicode.ToLower(c)
		}
		if !strings.ContainsRune(hexAlphabet, lc) {
			invalid = append(invalid, c)
		}
	}
	return invalid
}
