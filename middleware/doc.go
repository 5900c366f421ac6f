// Package middleware exposes HTTP adapters for the authorization guard
// built on top of authcore.Engine.
//
// # Guards
//
//   - [Guard]: authenticates the bearer token and optionally enforces a
//     role allow-list.
//   - [RequireRole]: shorthand for a single-role guard.
//
// Each guard reads the Authorization header, calls Engine.Authorize, and
// injects the validated identity into the request context.
//
// Rejections are deliberately uniform: every authentication or
// authorization failure maps to 401 with the same body, so the response
// never reveals whether a token was malformed, expired, revoked, or merely
// under-privileged. Only infrastructure unavailability is distinguished, as
// 503.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself.
package middleware
