// Package id provides centralized ID generation for the duplicator.
//
// This package offers type-safe ULID generation with:
//   - Lexicographic sortability: log lines for one run sort by creation time
//   - Prefixed types: Type-specific prefixes for debugging (sess_*, req_*)
//   - Type safety: Separate types prevent ID misuse
//
// A relay process creates exactly one SessionID at startup; RequestIDs are
// minted per ops-endpoint request.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionID identifies one relay session (one process lifetime)
type SessionID string

// RequestID identifies an ops API request
type RequestID string

// ID prefixes for debugging and type identification
const (
	SessionPrefix = "sess"
	RequestPrefix = "req"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator with secure entropy
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewSessionID generates a new relay session ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

// NewRequestID generates a new ops request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// String methods for ID types
func (id SessionID) String() string { return string(id) }
func (id RequestID) String() string { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Timestamp extracts the creation time from a ULID string
func Timestamp(id string) (time.Time, error) {
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
