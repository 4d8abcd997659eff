// Package queue implements a priority task queue on top of a shared
// ordered-collection store, with Redis sorted sets as the reference
// backend.
//
// Producers insert envelopes tagged with a priority; consumers drain them
// in priority order, with arrival order breaking ties within a priority.
// Every envelope is delivered to exactly one consumer regardless of how
// many consumers poll concurrently.
//
// # Design
//
// Each envelope is stored under a single composite sort key produced by
// Score: priority in the high bits, a store-issued arrival sequence in the
// low bits. Ordering by this one key lets "take the most urgent task" be
// expressed as a single native atomic min-pop against the store (ZPOPMIN
// on Redis), so at-most-one delivery follows from the store's own
// transactional guarantee rather than any client-side locking. A
// peek-then-remove two-step is never used for delivery: it would let two
// consumers claim the same member.
//
// # Usage
//
//	store, err := queue.NewRedisStore(client)
//	if err != nil { ... }
//
//	producer, err := queue.NewProducer(store,
//		queue.WithProduceInterval(time.Second),
//	)
//
//	consumer, err := queue.NewConsumer(store,
//		queue.WithPollInterval(500*time.Millisecond),
//	)
//	consumer.RegisterHandler(queue.NewHandler("email", sendEmail))
//
//	go producer.Start(ctx)
//	go consumer.Start(ctx)
//
// # Failure semantics
//
// Store unavailability wraps ErrStoreUnavailable and is retried by both
// roles with bounded exponential backoff. A malformed member read from the
// store wraps ErrDecode, is skipped, and never halts the consumer loop.
// An empty store is a normal polling signal, reported as (nil, nil), not
// an error.
//
// There is no acknowledgement beyond the atomic take: an envelope lost
// after a successful take (consumer crash, handler failure) is not
// redelivered. Redelivery would require an explicit in-flight lease state
// and is intentionally outside this package's contract.
package queue
