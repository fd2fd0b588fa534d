package ports

import "math/rand"

// RNGPort provides seeded random number generation for reproducible
// resampling and sampling.
type RNGPort interface {
	// SeededStream creates a deterministic generator for a named operation.
	// The same (name, seed) pair always yields the same sequence.
	SeededStream(name string, seed int64) *rand.Rand
}
