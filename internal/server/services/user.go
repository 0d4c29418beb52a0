// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, and issuing session JWTs.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/coinledger/internal/common"
	"github.com/dmitrijs2005/coinledger/internal/logging"
	"github.com/dmitrijs2005/coinledger/internal/server/auth"
	"github.com/dmitrijs2005/coinledger/internal/server/config"
	"github.com/dmitrijs2005/coinledger/internal/server/models"
	"github.com/dmitrijs2005/coinledger/internal/server/repositories/repomanager"
)

// minPasswordLength is the minimum accepted password length at registration.
const minPasswordLength = 8

// AuthResult bundles a signed session token with the authenticated user.
type AuthResult struct {
	Token string
	User  *models.User
}

// UserService provides authentication-related operations:
// - Register: validate input, create the user, mint a token
// - Login: verify credentials and mint a token
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	logger                      logging.Logger
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	bcryptCost                  int
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, l logging.Logger) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		logger:                      l.With("module", "user_service"),
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		bcryptCost:                  cfg.BcryptCost,
	}
}

// Register creates a new user and returns it with a fresh session token.
// A duplicate email yields common.ErrorAlreadyExists; the existing record
// stays untouched.
func (s *UserService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	if err := validateRegistration(email, password, name); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.Create(ctx, &models.User{Email: email, PasswordHash: hash, Name: name})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		s.logger.Error(ctx, "user creation failed", "error", err)
		return nil, common.ErrorInternal
	}

	token, err := s.generateAccessToken(user.ID)
	if err != nil {
		s.logger.Error(ctx, "token generation failed", "error", err)
		return nil, common.ErrorInternal
	}

	return &AuthResult{Token: token, User: user}, nil
}

// Login verifies the credentials and, on success, returns the user with a
// fresh session token. Unknown email and wrong password both collapse to
// common.ErrorUnauthorized so callers cannot enumerate accounts.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrorValidation)
	}

	user, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, err := s.generateAccessToken(user.ID)
	if err != nil {
		s.logger.Error(ctx, "token generation failed", "error", err)
		return nil, common.ErrorInternal
	}

	return &AuthResult{Token: token, User: user}, nil
}

// VerifyCredentials looks the user up by email and checks the password
// against the stored digest. Both failure cases return the same error.
func (s *UserService) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}

func (s *UserService) generateAccessToken(userID string) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}

func validateRegistration(email, password, name string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: invalid email format", common.ErrorValidation)
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", common.ErrorValidation, minPasswordLength)
	}
	if name == "" {
		return fmt.Errorf("%w: name is required", common.ErrorValidation)
	}
	return nil
}
