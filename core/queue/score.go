package queue

// Sort key layout: the priority occupies the bits above seqBits and the
// arrival sequence the low seqBits. Priority dominates the ordering and
// the sequence breaks ties in arrival order.
//
// The packed value is returned as float64 because that is what sorted-set
// backends score members with. Every representable key stays below 2^53
// (priority <= 3, so the maximum is 3<<48 + 2^48-1 < 2^50), which keeps
// the float64 conversion exact and makes key collisions impossible for
// distinct (priority, seq) pairs.
const (
	seqBits = 48

	// MaxSequence is the largest arrival sequence that fits in the sort
	// key. At one insert per microsecond this lasts roughly 8,900 years.
	MaxSequence uint64 = 1<<seqBits - 1
)

// Score maps (priority, arrival sequence) to a single sortable key.
// Keys order first by priority ascending, then by sequence ascending.
// Pure function; the only failure mode is a sequence outside the
// reserved range.
func Score(priority Priority, seq uint64) (float64, error) {
	if !priority.Valid() {
		return 0, ErrInvalidPriority
	}
	if seq > MaxSequence {
		return 0, ErrSequenceOverflow
	}
	return float64(uint64(priority)<<seqBits | seq), nil
}
