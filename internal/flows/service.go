package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Validate.ParseAccess != nil
}

func (s Service) Rotate(ctx context.Context, presented string) RotateResult {
	return RunRotate(ctx, presented, s.deps.Rotate)
}

func (s Service) Validate(ctx context.Context, tokenStr string) ValidateResult {
	return RunValidate(ctx, tokenStr, s.deps.Validate)
}

func (s Service) Logout(ctx context.Context, userID, refreshToken, accessToken string) LogoutResult {
	return RunLogout(ctx, userID, refreshToken, accessToken, s.deps.Logout)
}

func (s Service) LogoutAll(ctx context.Context, userID string) LogoutResult {
	return RunLogoutAll(ctx, userID, s.deps.Logout)
}

func (s Service) Login(ctx context.Context, email, password string) LoginResult {
	return RunLogin(ctx, email, password, s.deps.Login)
}

func (s Service) CreateAccount(ctx context.Context, req AccountCreateRequest) AccountCreateResult {
	return RunCreateAccount(ctx, req, s.deps.Account)
}

func (s Service) IssuePair(ctx context.Context, user UserRecord) (string, string, error) {
	return RunIssuePair(ctx, user, s.deps.Issue)
}
