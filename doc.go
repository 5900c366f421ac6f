// Package authcore implements the lifecycle of signed bearer credential
// pairs: issuance, per-request validation, one-time refresh rotation, and
// revocation ahead of natural expiry.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// and value types ([Identity], [TokenPair], [User]). Flow orchestration lives
// under internal/ and is never exported. Persistent user state is reached
// exclusively through the [IdentityStore] interface; the registry package
// ships a Redis implementation, but callers may bring their own. The
// revocation cache always runs on the Redis client handed to the builder.
//
// # What this package must NOT do
//
//   - Perform HTTP parsing, routing, or response formatting (see middleware
//     for the thin glue layer).
//   - Mutate user records outside IdentityStore operations.
//   - Reveal in returned errors whether a rejected credential was expired,
//     revoked, or replayed; that detail belongs to logs and audit events
//     only.
package authcore
