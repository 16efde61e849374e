package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// NewSeed generates a high-entropy seed using crypto/rand, suitable for
// initializing the engine's deterministic RNG when no seed is supplied.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// NewRand builds the single RNG the engine uses for shuffles, tie-breaks,
// and fallback substitutions. It must only be touched from the coordinating
// goroutine.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
