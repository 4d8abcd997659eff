package queue

import "context"

// Store is the narrow contract both roles coordinate through. All
// correctness rests on the atomicity of TakeLowest: concurrent callers
// always receive distinct envelopes because the backing store removes the
// minimum-key member in the same indivisible step that reads it.
//
// TakeLowest and PeekLowest return (nil, nil) when the store is empty at
// the moment of the atomic check; emptiness is a normal polling signal,
// not an error. Transport failures wrap ErrStoreUnavailable and malformed
// members wrap ErrDecode.
type Store interface {
	// Insert computes the envelope's sort key from a freshly obtained
	// arrival sequence, serializes it, and adds it to the collection.
	Insert(ctx context.Context, e *Envelope) error

	// TakeLowest atomically reads and removes the minimum-key envelope.
	// This is the only delivery mechanism: a peek followed by a separate
	// remove would let two consumers claim the same member.
	TakeLowest(ctx context.Context) (*Envelope, error)

	// PeekLowest reads the minimum-key envelope without removing it.
	// Diagnostics only; never part of the delivery path.
	PeekLowest(ctx context.Context) (*Envelope, error)

	// Size reports the number of envelopes currently present.
	Size(ctx context.Context) (int64, error)

	// Clear removes all envelopes. Test setup and operator tooling only.
	Clear(ctx context.Context) error
}
