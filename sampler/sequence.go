package sampler

// Sequence is a Source that replays fixed values in order and wraps around.
// It makes sampling deterministic in tests and examples.
type Sequence struct {
	values []float64
	next   int
}

// NewSequence returns a Source replaying values.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

// Float64 returns the next value. An empty sequence always yields 0.
func (s *Sequence) Float64() float64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}
