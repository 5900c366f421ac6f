// Package internal contains helper utilities that are intentionally private
// to authcore, currently token digest helpers shared by the registry and the
// revocation cache.
//
// # Sub-packages
//
//   - flows: pure-function flow orchestrators for every Engine operation
//
// # What this package must NOT do
//
//   - Export types that appear in the public authcore API.
//   - Be imported by any package outside the authcore module.
package internal
