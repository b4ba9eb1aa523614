package auth

import (
	"crypto/subtle"
	"log/slog"

	"paygate/internal/domain"
	dErrors "paygate/pkg/domain-errors"
)

// Credential is one entry in the static operator directory.
type Credential struct {
	User     domain.User
	Password string
}

// DefaultDirectory is the development allow-list, one operator per desk.
// Production deployments override it via configuration.
func DefaultDirectory() []Credential {
	return []Credential{
		{User: domain.User{ID: "u-admin", Username: "admin", Name: "Site Administrator", Role: domain.RoleAdmin}, Password: "admin123"},
		{User: domain.User{ID: "u-approver", Username: "approver", Name: "Approvals Desk", Role: domain.RoleApprover}, Password: "approve123"},
		{User: domain.User{ID: "u-backend", Username: "backend", Name: "Submission Desk", Role: domain.RoleSubmission}, Password: "backend123"},
		{User: domain.User{ID: "u-accounts", Username: "accounts", Name: "Accounts Desk", Role: domain.RoleFinance}, Password: "accounts123"},
	}
}

// Service authenticates operators against the directory and issues tokens.
type Service struct {
	directory map[string]Credential
	tokens    *TokenService
	logger    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(directory []Credential, tokens *TokenService, opts ...ServiceOption) (*Service, error) {
	if tokens == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "auth: token service is required")
	}
	if len(directory) == 0 {
		directory = DefaultDirectory()
	}
	byUsername := make(map[string]Credential, len(directory))
	for _, cred := range directory {
		byUsername[cred.User.Username] = cred
	}
	s := &Service{
		directory: byUsername,
		tokens:    tokens,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Login verifies a username/password pair and issues an access token. The
// failure message never distinguishes unknown user from wrong password.
func (s *Service) Login(username, password string) (string, domain.User, error) {
	cred, ok := s.directory[username]
	if !ok || subtle.ConstantTimeCompare([]byte(cred.Password), []byte(password)) != 1 {
		s.logger.Warn("login rejected", "username", username)
		return "", domain.User{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	token, err := s.tokens.Issue(cred.User)
	if err != nil {
		return "", domain.User{}, dErrors.Wrap(err, dErrors.CodeInternal, "sign token")
	}
	s.logger.Info("operator logged in", "username", username, "role", cred.User.Role)
	return token, cred.User, nil
}

// Validate checks a bearer token and returns the operator it identifies.
func (s *Service) Validate(token string) (domain.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return domain.User{}, err
	}
	return UserFromClaims(claims), nil
}
