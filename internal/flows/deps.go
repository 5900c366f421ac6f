package flows

// Deps bundles the dependency wiring for every flow, built once by the root
// engine.
type Deps struct {
	Rotate   RotateDeps
	Validate ValidateDeps
	Logout   LogoutDeps
	Login    LoginDeps
	Account  AccountDeps
	Issue    IssueDeps
}
