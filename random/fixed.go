package random

// Fixed is a deterministic Random for tests. It returns queued values in
// order (reduced modulo n) and 0 once the queue is empty.
type Fixed struct {
	values []int
	next   int
}

// Ensure Fixed implements Random.
var _ Random = (*Fixed)(nil)

// NewFixed creates a Fixed that will return values in order.
func NewFixed(values ...int) *Fixed {
	return &Fixed{values: values}
}

// Intn returns the next queued value modulo n, or 0 if none remain.
func (f *Fixed) Intn(n int) int {
	if n <= 0 || f.next >= len(f.values) {
		return 0
	}
	v := f.values[f.next] % n
	f.next++
	if v < 0 {
		v += n
	}
	return v
}

// Queue appends values to the result queue.
func (f *Fixed) Queue(values ...int) {
	f.values = append(f.values, values...)
}
