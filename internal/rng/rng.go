// Package rng derives deterministic math/rand streams from a base seed and a
// stream name, so independent consumers (bootstrap, each MCMC chain, fold
// shuffling) never share a generator.
package rng

import (
	"math/rand"
	"time"

	"goethos/ports"
)

// Streams implements ports.RNGPort
type Streams struct{}

var _ ports.RNGPort = Streams{}

// SeededStream returns a generator seeded from seed mixed with the hash of name.
// An empty name yields rand.NewSource(seed) exactly.
func (Streams) SeededStream(name string, seed int64) *rand.Rand {
	return New(Derive(seed, name))
}

// New returns a generator for seed
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Derive combines a base seed with a stream name
func Derive(seed int64, name string) int64 {
	if name == "" {
		return seed
	}
	return int64(mix(uint64(seed) ^ mix(uint64(hashString(name)))))
}

// mix is the splitmix64 finalizer; nearby inputs land far apart
func mix(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// TimeSeed returns a seed for callers that explicitly ask for
// non-reproducible output.
func TimeSeed() int64 {
	return time.Now().UnixNano()
}

func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2
	}
	return hash
}
