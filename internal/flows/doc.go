// Package flows contains the pure orchestration logic behind every Engine
// operation. Each flow is a Run* function taking a context, its inputs, and
// a Deps struct of closures plus sentinel errors wired by the root package.
// Flows never import the root package; failure classification travels as
// FailureKind enums the root maps to its public sentinels.
package flows
