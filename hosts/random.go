package hosts

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mathrand "math/rand/v2"

	"github.com/google/uuid"
)

// MaxRandomBytes limits single-call allocation (1MB).
const MaxRandomBytes = 1 << 20

// RandomHost exposes random values. Hex and UUID come from crypto/rand;
// Float and Int are fast and not suitable for secrets.
type RandomHost struct{}

func NewRandomHost() *RandomHost {
	return &RandomHost{}
}

func (h *RandomHost) Namespace() string {
	return "random"
}

// Hex returns n secure random bytes, hex encoded.
func (h *RandomHost) Hex(n int) (string, error) {
	if n < 0 || n > MaxRandomBytes {
		return "", fmt.Errorf("random.hex: length %d out of range [0, %d]", n, MaxRandomBytes)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (h *RandomHost) UUID() string {
	return uuid.NewString()
}

// Float returns a pseudo-random number in [0, 1).
func (h *RandomHost) Float() float64 {
	return mathrand.Float64()
}

// Int returns a pseudo-random integer in [0, n).
func (h *RandomHost) Int(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("random.int: bound must be positive, got %d", n)
	}
	return mathrand.IntN(n), nil
}
