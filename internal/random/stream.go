package random

const (
	multiplier = 0x5DEECE66D
	addend     = 0xB
	mask       = (1 << 48) - 1
)

// Stream is a deterministic 48-bit linear congruential generator.
// A Stream is owned by exactly one worker and must not be shared.
type Stream struct {
	seed uint64
}

// New creates a stream whose output sequence depends only on seed
func New(seed uint64) *Stream {
	s := &Stream{}
	s.Reset(seed)
	return s
}

// Reset re-seeds the stream, restarting its sequence
func (s *Stream) Reset(seed uint64) {
	s.seed = (seed ^ multiplier) & mask
}

func (s *Stream) next(bits uint) uint64 {
	s.seed = (s.seed*multiplier + addend) & mask
	return s.seed >> (48 - bits)
}

// Next returns the next pseudo-random 64-bit value, two 32-bit draws high first
func (s *Stream) Next() uint64 {
	hi := s.NextUint32()
	return uint64(hi)<<32 + uint64(s.NextUint32())
}

// NextUint32 returns the next pseudo-random 32-bit value
func (s *Stream) NextUint32() uint32 {
	return uint32(s.next(32))
}

// NextUniform returns a double in [0, 1) built from 53 random bits
func (s *Stream) NextUniform() float64 {
	return float64(s.next(26)<<27+s.next(27)) / float64(uint64(1)<<53)
}

// NextInRange returns a value in [0, n). n == 0 yields 0.
func (s *Stream) NextInRange(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	return s.Next() % n
}
