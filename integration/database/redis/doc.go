// Package redis provides Redis client initialization and health checking
// for the task queue backend.
//
// Connect validates the connection URL, attempts connection with
// exponential backoff retries, and verifies connectivity with a ping
// before returning the client. Both redis:// and rediss:// (TLS) URL
// schemes are supported.
//
// Configuration is handled through the Config struct with environment
// variable mapping:
//
//	cfg := redis.Config{}
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
// Healthcheck returns a function performing a ping, suitable for
// readiness probes:
//
//	check := redis.Healthcheck(client)
//	if err := check(ctx); err != nil { ... }
//
// The package defines domain-specific errors checked with errors.Is:
// ErrFailedToParseRedisConnString, ErrRedisNotReady, ErrEmptyConnectionURL,
// and ErrHealthcheckFailed.
package redis
