package auth

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var usernameFormat = regexp.MustCompile("^[a-z0-9_]{3,20}$")

const (
	minPasswordLength    = 8
	maxPasswordLength    = 64
	maxDisplayNameLength = 20
)

type service struct {
	userRepo       UserRepo
	passwordHasher PasswordHasher
	tokenManager   TokenManager
}

func NewService(userRepo UserRepo, passwordHasher PasswordHasher, tokenManager TokenManager) *service {
	return &service{userRepo, passwordHasher, tokenManager}
}

// Signup creates the account and returns a session token for it. An empty
// display name falls back to the username.
func (as *service) Signup(ctx context.Context, username, password, displayName string) (string, error) {
	if !usernameFormat.MatchString(username) {
		return "", ErrInvalidUsernameFormat
	}

	passwordLength := utf8.RuneCountInString(password)
	if passwordLength < minPasswordLength {
		return "", ErrWeakPassword
	}
	if passwordLength > maxPasswordLength {
		return "", ErrPasswordTooLong
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = username
	}
	if utf8.RuneCountInString(displayName) > maxDisplayNameLength {
		return "", ErrInvalidDisplayName
	}

	passwordHash, err := as.passwordHasher.Hash(password)
	if err != nil {
		return "", err
	}

	id, err := as.userRepo.CreateUser(ctx, username, displayName, passwordHash)
	if err != nil {
		return "", err
	}

	return as.GenerateToken(id)
}

func (as *service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := as.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	match, err := as.passwordHasher.Compare(user.PasswordHash, password)
	if err != nil {
		return "", err
	}
	if !match {
		return "", ErrIncorrectPassword
	}

	return as.GenerateToken(user.Id)
}

// VerifyToken returns the user id if the token is valid, else it returns an error
func (as *service) VerifyToken(token string) (string, error) {
	return as.tokenManager.Verify(token)
}

func (as *service) GenerateToken(id string) (string, error) {
	return as.tokenManager.Generate(id, time.Now())
}
