package util

import "math/rand"

// Rand is the subset of *rand.Rand the simulator draws from.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

func New(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	src := rand.NewSource(seed)
	return rand.New(src)
}

// Script replays fixed values, cycling when exhausted. Intn maps the next
// float onto [0, n).
type Script struct {
	Values []float64
	pos    int
}

func NewScript(values ...float64) *Script {
	return &Script{Values: values}
}

func (s *Script) Float64() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.pos%len(s.Values)]
	s.pos++
	return v
}

func (s *Script) Intn(n int) int {
	if n <= 0 {
		panic("util: Intn with non-positive n")
	}
	i := int(s.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
