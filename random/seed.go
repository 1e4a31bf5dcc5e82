// Package random builds the pseudo-random streams used for sampling.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return binary.LittleEndian.Uint64(b[:]), nil
}

// MustSeed is NewSeed for callers that cannot handle a failing entropy source.
func MustSeed() uint64 {
	seed, err := NewSeed()
	if err != nil {
		panic(err)
	}
	return seed
}

// New returns a PCG stream for seed. Equal seeds give equal streams.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, mix(seed+0x9e3779b97f4a7c15)))
}

// Derive returns the seed of the stream-th independent stream under seed.
func Derive(seed uint64, stream int) uint64 {
	return mix(seed + uint64(stream+1)*0x9e3779b97f4a7c15)
}

// mix is the splitmix64 finalizer.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
