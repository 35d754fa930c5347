package service

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cloudsqlconsole/internal/core"
	"cloudsqlconsole/internal/logger"
)

const sessionLifetime = 24 * time.Hour

// Default bootstrap credential. Deployments must rotate this immediately
// after first start; the server logs a warning until then.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
)

type AuthService struct {
	userRepo    core.UserRepository
	sessionRepo core.SessionRepository
}

func NewAuthService(userRepo core.UserRepository, sessionRepo core.SessionRepository) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
	}
}

// HashSecret returns the bcrypt hash of a plaintext password.
func (s *AuthService) HashSecret(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Login verifies credentials and opens a session. Unknown username, inactive
// account and wrong password all return the same error so callers cannot
// enumerate usernames.
func (s *AuthService) Login(username, password string) (*core.UserAccount, string, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, "", core.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", core.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", core.ErrInvalidCredentials
	}

	token, err := generateToken()
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	session := &core.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(sessionLifetime),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Validate resolves a bearer token to its account. It returns nil for an
// absent, unknown or expired token and for an inactive owner. Expired rows
// are deleted on sight.
func (s *AuthService) Validate(token string) *core.UserAccount {
	if token == "" {
		return nil
	}
	session, err := s.sessionRepo.GetByToken(token)
	if err != nil || session == nil {
		return nil
	}
	if time.Now().After(session.ExpiresAt) {
		if err := s.sessionRepo.DeleteByToken(token); err != nil {
			logger.Error.Printf("Failed to delete expired session: %v", err)
		}
		return nil
	}
	user, err := s.userRepo.GetByID(session.UserID)
	if err != nil || !user.IsActive {
		return nil
	}
	return user
}

// Logout deletes the session. Idempotent: reports success even when the
// token was already gone.
func (s *AuthService) Logout(token string) bool {
	if token == "" {
		return true
	}
	if err := s.sessionRepo.DeleteByToken(token); err != nil {
		logger.Error.Printf("Failed to delete session on logout: %v", err)
	}
	return true
}

// BootstrapDefaultAdmin creates the default admin account when the user
// table is empty.
func (s *AuthService) BootstrapDefaultAdmin() error {
	count, err := s.userRepo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := s.HashSecret(DefaultAdminPassword)
	if err != nil {
		return err
	}
	if _, err := s.userRepo.Create(DefaultAdminUsername, hash, core.RoleAdmin); err != nil {
		return err
	}
	logger.Info.Printf("Created default admin account %q. Rotate its password before exposing this server.", DefaultAdminUsername)
	return nil
}

// ResetPassword resets a user's password by username
func (s *AuthService) ResetPassword(username, newPassword string) error {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return err
	}

	hash, err := s.HashSecret(newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	return s.userRepo.Update(user)
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
