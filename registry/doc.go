// Package registry is the Redis-backed user store: user records, an email
// index, and per-user refresh-token sets. It knows nothing about the root
// package; the root adapts its Record type and sentinels at the boundary.
//
// Refresh tokens are stored as SHA-256 digests only. Rotation uses a Lua
// script so that conditional removal of the old digest and insertion of the
// new one happen as one atomic step: of N concurrent rotations presenting
// the same token, exactly one wins.
package registry
