// Package token creates and verifies the signed, expiring credentials used
// by the engine. Access and refresh tokens form two independent trust
// domains: each is signed with its own key and carries its own expiry
// horizon, so a token of one kind is cryptographically unusable as the
// other. A typ claim is embedded as a second line of defense against key
// misconfiguration.
//
// Verification never panics on malformed input; every failure is reported as
// an error value wrapping [ErrMalformed] or [ErrExpired].
package token
