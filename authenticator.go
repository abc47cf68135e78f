package accounts

import (
	"context"

	"github.com/goliatone/go-repository-bun"
)

type Auther struct {
	repo            RepositoryManager
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        []string
	logger          Logger
	tokenService    TokenService
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		repo:            repo,
		signingKey:      []byte(opts.GetSigningKey()),
		tokenExpiration: opts.GetTokenExpiration(),
		audience:        opts.GetAudience(),
		issuer:          opts.GetIssuer(),
		logger:          defLogger{},
		tokenService:    tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	// Update the TokenService logger as well
	s.tokenService = NewTokenService(
		s.signingKey,
		s.tokenExpiration,
		s.issuer,
		s.audience,
		logger,
	)
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the email/password pair and mints a bearer token carrying
// the account id. Unknown emails and bad passwords are indistinguishable to
// the caller.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	account, err := s.repo.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.logger.Info("Login unknown identifier", "email", email)
			return "", ErrInvalidCredentials
		}
		s.logger.Error("Login account lookup error", "error", err)
		return "", err
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		if trackErr := s.repo.Accounts().TrackAttemptedLogin(ctx, account); trackErr != nil {
			s.logger.Warn("Login track attempted login error", "error", trackErr)
		}
		return "", ErrInvalidCredentials
	}

	if err := s.repo.Accounts().TrackSuccessfulLogin(ctx, account); err != nil {
		s.logger.Warn("Login track successful login error", "error", err)
	}

	return s.tokenService.Generate(account.ID.String())
}

// SessionFromToken validates a raw token and returns its claims
func (s *Auther) SessionFromToken(raw string) (AuthClaims, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	return claims, nil
}
