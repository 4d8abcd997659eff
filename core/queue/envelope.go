package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EncodeEnvelope serializes an envelope for storage. CreatedAt is
// normalized to UTC with microsecond precision so that a decoded envelope
// compares equal to the encoded one.
func EncodeEnvelope(e *Envelope) ([]byte, error) {
	if e == nil {
		return nil, errors.New("envelope cannot be nil")
	}

	norm := *e
	norm.CreatedAt = e.CreatedAt.UTC().Truncate(time.Microsecond)

	data, err := json.Marshal(norm)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope %d: %w", e.ID, err)
	}
	return data, nil
}

// DecodeEnvelope deserializes an envelope read from the store. Malformed
// data is reported as ErrDecode so callers can distinguish a poisoned
// member from a transport failure.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if !e.Priority.Valid() {
		return nil, fmt.Errorf("%w: priority %d out of range", ErrDecode, e.Priority)
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}
