// Package services contains server-side business logic outside the
// verification pipeline. This file implements UserService: registration,
// password authentication and session token issuance.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/attendkeeper/internal/common"
	"github.com/dmitrijs2005/attendkeeper/internal/server/models"
	"github.com/dmitrijs2005/attendkeeper/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for stored password hashes.
const PasswordCost = 10

// usernamePattern also keeps names safe as a file name or object key
// component for the reference image lookup.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._@-]{0,63}$`)

// TokenIssuer mints a session token for an authenticated username.
type TokenIssuer interface {
	Issue(username string) (string, error)
}

// UserService provides:
// - Register: create an identity with a salted one-way password hash
// - Authenticate: check a username/password pair
// - Login: Authenticate and issue a session token
type UserService struct {
	users  users.Repository
	tokens TokenIssuer
	// dummyHash is compared against when the username is unknown so that
	// both failure paths cost one bcrypt comparison.
	dummyHash []byte
}

func NewUserService(repo users.Repository, tokens TokenIssuer) *UserService {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("attendkeeper-dummy-password"), PasswordCost)
	return &UserService{users: repo, tokens: tokens, dummyHash: dummy}
}

// Register stores a new identity. It fails with common.ErrorAlreadyExists if
// the username is taken and common.ErrorValidation for an empty or malformed
// username, an empty password or a password bcrypt cannot hash (longer than
// 72 bytes).
func (s *UserService) Register(ctx context.Context, username, password string) (*models.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}
	if !usernamePattern.MatchString(username) || strings.Contains(username, "..") {
		return nil, fmt.Errorf("%w: username may contain only letters, digits, '.', '_', '@' and '-'", common.ErrorValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password is too long", common.ErrorValidation)
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	identity, err := s.users.Create(ctx, &models.Identity{Username: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return identity, nil
}

// Authenticate returns the identity for a matching username/password pair.
// Unknown usernames and wrong passwords both yield common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.Identity, error) {
	identity, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if err := bcrypt.CompareHashAndPassword(identity.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}

	return identity, nil
}

// Login authenticates and returns a fresh session token.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	identity, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Issue(identity.Username)
	if err != nil {
		return "", fmt.Errorf("%w: issue token: %v", common.ErrorInternal, err)
	}
	return token, nil
}
