package generator

import (
	"math"
	"time"
)

// Tier is a discrete difficulty bucket. It sizes concurrency and projects
// runtime; it never affects what counts as a match.
type Tier int

const (
	TierTrivial Tier = iota
	TierEasy
	TierMedium
	TierHard
	TierVeryHard
	TierExtreme
)

type tierInfo struct {
	name       string
	ceiling    float64 // Largest probability in the tier
	throughput float64 // Assumed addresses per second, projection only
	multiplier float64 // Fraction of CPUs to run as workers
}

var tiers = [...]tierInfo{
	TierTrivial:  {"trivial", 1e2, 200_000, 1.0},
	TierEasy:     {"easy", 1e4, 150_000, 1.0},
	TierMedium:   {"medium", 1e6, 100_000, 0.9},
	TierHard:     {"hard", 1e8, 80_000, 0.8},
	TierVeryHard: {"very_hard", 1e10, 50_000, 0.7},
	TierExtreme:  {"extreme", math.Inf(1), 30_000, 0.6},
}

// String returns the tier name.
func (t Tier) String() string {
	if t < TierTrivial || t > TierExtreme {
		return "unknown"
	}
	return tiers[t].name
}

// BaselineThroughput is the assumed single-machine rate used for projections.
// It decreases as the tier increases.
func (t Tier) BaselineThroughput() float64 {
	return tiers[t].throughput
}

// Multiplier scales the CPU count into a worker count.
func (t Tier) Multiplier() float64 {
	return tiers[t].multiplier
}

// TierFor buckets a match probability (expected attempts per hit).
func TierFor(probability float64) Tier {
	for t := TierTrivial; t < TierExtreme; t++ {
		if probability <= tiers[t].ceiling {
			return t
		}
	}
	return TierExtreme
}

// Difficulty is the estimate for one pattern.
type Difficulty struct {
	Tier         Tier
	AlphabetSize int
	Probability  float64       // alphabet_size ^ len(pattern): expected attempts per match
	Projected    time.Duration // Probability / Tier.BaselineThroughput()
}

// LongRunningThreshold is the projection above which callers should ask for
// confirmation before starting.
const LongRunningThreshold = time.Hour

// LongRunning reports whether the projected time exceeds LongRunningThreshold.
func (d Difficulty) LongRunning() bool {
	return d.Projected > LongRunningThreshold
}

// EstimateDifficulty estimates how hard pattern is to find for currency.
// The pattern type does not change the estimate but must be valid.
func EstimateDifficulty(pattern string, kind PatternType, currency Currency) (Difficulty, error) {
	if kind != Prefix && kind != Suffix {
		return Difficulty{}, configErr("pattern_type", string(kind), ErrInvalidPatternType)
	}
	if !currency.Valid() {
		return Difficulty{}, configErr("currency", currency.String(), ErrUnknownCurrency)
	}

	size := currency.Family().AlphabetSize()
	probability := math.Pow(float64(size), float64(len(pattern)))
	tier := TierFor(probability)

	nanos := probability * float64(time.Second) / tier.BaselineThroughput()
	projected := time.Duration(math.MaxInt64)
	if nanos < math.MaxInt64 {
		projected = time.Duration(nanos)
	}

	return Difficulty{
		Tier:         tier,
		AlphabetSize: size,
		Probability:  probability,
		Projected:    projected,
	}, nil
}
