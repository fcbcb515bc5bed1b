// Package random provides the deterministic generator behind personalized
// shuffles. Output depends only on the seed, so results are reproducible
// across processes and languages.
package random

import (
	"hash/fnv"
	"strconv"
)

// SplitMix64 is the splitmix64 generator (Steele, Lea, Flood 2014): a 64-bit
// counter advanced by the golden-ratio increment, passed through a
// variant-13 mix.
type SplitMix64 struct {
	state uint64
}

func NewSplitMix64(seed uint64) *SplitMix64 {
	return &SplitMix64{state: seed}
}

// Next returns the next 64-bit output.
func (s *SplitMix64) Next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Float64 returns a value in [0, 1) built from the top 53 bits of Next.
func (s *SplitMix64) Float64() float64 {
	return float64(s.Next()>>11) * (1.0 / (1 << 53))
}

// Shuffle returns a permuted copy of items. It runs Fisher-Yates from the
// last index down, drawing j = floor(Float64() * (i+1)).
func Shuffle[T any](items []T, seed uint64) []T {
	out := make([]T, len(items))
	copy(out, items)

	rng := NewSplitMix64(seed)
	for i := len(out) - 1; i > 0; i-- {
		j := int(rng.Float64() * float64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// UserSeed derives the personalization seed of a user id: the numeric value
// of its last 8 characters read as hex. Ids whose tail is not hex fall back
// to their 32-bit FNV-1a hash.
func UserSeed(userID string) uint64 {
	tail := userID
	if len(tail) > 8 {
		tail = tail[len(tail)-8:]
	}
	if tail != "" {
		if v, err := strconv.ParseUint(tail, 16, 64); err == nil {
			return v
		}
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return uint64(h.Sum32())
}
