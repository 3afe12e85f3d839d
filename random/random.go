package random

import "math/rand"

// Random provides random number generation that can be replaced in tests.
type Random interface {
	// Intn returns a random int in [0, n). It returns 0 when n <= 0.
	Intn(n int) int
}

// Source implements Random with math/rand's global generator.
type Source struct{}

// New creates a new Source.
func New() *Source {
	return &Source{}
}

// Intn returns a pseudo-random int in [0, n).
func (Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return rand.Intn(n)
}

// Shuffle permutes n elements in place with an unbiased Fisher-Yates pass
// driven by r.
func Shuffle(r Random, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		swap(i, j)
	}
}
