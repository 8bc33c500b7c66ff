package codec

import (
	"fmt"
	"io"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/holiman/uint256"
)

// ScalarPolicy selects how 32 random bytes become a private key.
type ScalarPolicy int

const (
	// Rejection resamples until the value lies in [1, N-1]. Uniform.
	Rejection ScalarPolicy = iota
	// ModReduce maps the value to (v mod (N-1)) + 1 with a single draw.
	// The result is very slightly biased toward small scalars.
	ModReduce
)

func (p ScalarPolicy) String() string {
	switch p {
	case Rejection:
		return "rejection"
	case ModReduce:
		return "modreduce"
	default:
		return "unknown"
	}
}

// ParseScalarPolicy resolves "rejection" or "modreduce".
func ParseScalarPolicy(s string) (ScalarPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rejection":
		return Rejection, nil
	case "modreduce", "mod-reduce", "mod":
		return ModReduce, nil
	default:
		return Rejection, fmt.Errorf("unknown scalar policy %q (want rejection or modreduce)", s)
	}
}

// maxRejections bounds resampling. A healthy source needs more than one draw
// with probability about 2^-128.
const maxRejections = 64

// orderMinusOne is N-1 of secp256k1.
var orderMinusOne = func() *uint256.Int {
	n := uint256.MustFromBig(secp256k1.Params().N)
	return n.SubUint64(n, 1)
}()

func (c *Codec) sample() ([32]byte, error) {
	if c.policy == ModReduce {
		if _, err := io.ReadFull(c.entropy, c.buf[:]); err != nil {
			return [32]byte{}, fmt.Errorf("read entropy: %w", err)
		}
		return reduce(c.buf), nil
	}

	for i := 0; i < maxRejections; i++ {
		if _, err := io.ReadFull(c.entropy, c.buf[:]); err != nil {
			return [32]byte{}, fmt.Errorf("read entropy: %w", err)
		}
		var s secp256k1.ModNScalar
		if overflow := s.SetBytes(&c.buf); overflow == 0 && !s.IsZero() {
			return c.buf, nil
		}
	}
	return [32]byte{}, fmt.Errorf("%w: entropy source produced %d invalid scalars in a row", ErrScalarOutOfRange, maxRejections)
}

func reduce(b [32]byte) [32]byte {
	v := new(uint256.Int).SetBytes32(b[:])
	v.Mod(v, orderMinusOne)
	v.AddUint64(v, 1)
	return v.Bytes32()
}

func inRange(raw []byte) bool {
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(raw); overflow {
		return false
	}
	return !s.IsZero()
}
