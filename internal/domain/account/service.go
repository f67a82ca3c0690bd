package account

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/physiocare/dashboard/internal/platform/apperr"
	"github.com/physiocare/dashboard/internal/platform/auth"
	"github.com/physiocare/dashboard/internal/platform/db"
)

type Service struct {
	repo    Repository
	tx      db.TxRunner
	issuer  *auth.TokenIssuer
	revoked auth.RevocationStore
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(repo Repository, tx db.TxRunner, issuer *auth.TokenIssuer, revoked auth.RevocationStore, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		tx:      tx,
		issuer:  issuer,
		revoked: revoked,
		logger:  logger.With().Str("component", "account").Logger(),
		now:     time.Now,
	}
}

// Register creates an operator account. The first account ever created is
// an admin; every later one is staff.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := s.now()
	u := &User{
		ID:           uuid.New(),
		Username:     req.Username,
		Name:         req.Name,
		Surname:      req.Surname,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         auth.RoleStaff,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		n, err := s.repo.Count(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			u.Role = auth.RoleAdmin
		}
		return s.repo.Create(ctx, u)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", u.ID.String()).Str("role", u.Role).Msg("account registered")
	return u, nil
}

// Login verifies the password and opens a session. Unknown usernames and
// wrong passwords are reported separately.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if req.Username == "" || req.Password == "" {
		return nil, apperr.Validation("", "please provide all values")
	}
	u, err := s.lookup(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, apperr.Unauthenticated(msgBadPassword)
	}
	return s.open(u)
}

// AutoLogin reopens a session from the hash the browser stored.
func (s *Service) AutoLogin(ctx context.Context, req AutoLoginRequest) (*Session, error) {
	if req.Username == "" || req.PasswordFromFrontend == "" {
		return nil, apperr.Validation("", "please provide all values")
	}
	u, err := s.lookup(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if !auth.MatchesStoredHash(u.PasswordHash, req.PasswordFromFrontend) {
		return nil, apperr.Unauthenticated(msgBadPassword)
	}
	return s.open(u)
}

// Logout revokes the token's id until it expires. Missing or unparsable
// tokens are ignored so logging out always succeeds.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperr.Internal(err)
	}
	s.logger.Info().Str("user_id", claims.Subject).Msg("session revoked")
	return nil
}

func (s *Service) Me(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) lookup(ctx context.Context, username string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if apperr.IsNotFound(err) {
		return nil, apperr.Unauthenticated(msgBadUsername)
	}
	return u, err
}

func (s *Service) open(u *User) (*Session, error) {
	token, claims, err := s.issuer.Issue(u.ID, u.Username, u.Role)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	s.logger.Debug().Str("user_id", u.ID.String()).Msg("session opened")
	return &Session{Token: token, Claims: claims, User: u}, nil
}
