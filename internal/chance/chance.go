// Package chance provides the injectable randomness sources used for
// channel noise and stochastic placement. Simulations take a Source
// explicitly so tests can fix seeds and assert exact outcomes.
package chance

import (
	crand "crypto/rand"
	"encoding/binary"
	"log/slog"
	"math/rand"
	"sync"
)

// Source yields random numbers for the simulation. Implementations must
// be safe for use from a single goroutine; the orchestrator never shares
// one source across concurrent callers.
type Source interface {
	// Float64 returns a uniform random float64 in [0, 1).
	Float64() float64
	// Intn returns a uniform random int in [0, n).
	Intn(n int) int
}

// seeded is a deterministic source backed by math/rand.
type seeded struct {
	rng *rand.Rand
}

// NewSeeded returns a deterministic source. The same seed always yields
// the same stream, which is what episode reproducibility depends on.
func NewSeeded(seed int64) Source {
	return &seeded{rng: rand.New(rand.NewSource(seed))}
}

func (s *seeded) Float64() float64 { return s.rng.Float64() }
func (s *seeded) Intn(n int) int   { return s.rng.Intn(n) }

// crypto is a non-deterministic source backed by crypto/rand, used when
// no seed is supplied.
type crypto struct {
	mu sync.Mutex
}

// NewCrypto returns a source drawing from the operating system's CSPRNG.
func NewCrypto() Source {
	return &crypto{}
}

func (c *crypto) Float64() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cryptoFloat()
}

func (c *crypto) Intn(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(cryptoFloat() * float64(n))
}

// cryptoFloat generates a random float64 in [0, 1) using crypto/rand.
func cryptoFloat() float64 {
	var buf [8]byte
	_, err := crand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		slog.Debug("crypto rand read failed", "error", err)
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}
