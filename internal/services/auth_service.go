package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tailor-app/internal/models"
	"tailor-app/internal/utils"
)

// LoadAdminCredential reads the single admin login from a JSON file.
func LoadAdminCredential(path string) (*models.AdminCredential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read admin credentials: %w", err)
	}
	cred := new(models.AdminCredential)
	if err := json.Unmarshal(data, cred); err != nil {
		return nil, fmt.Errorf("decode admin credentials: %w", err)
	}
	if strings.TrimSpace(cred.Email) == "" || (cred.Password == "" && cred.PasswordHash == "") {
		return nil, errors.New("admin credentials need an email and a password or passwordHash")
	}
	return cred, nil
}

type AuthService struct {
	cred   models.AdminCredential
	jwt    *utils.JWTUtil
	cache  Cache
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthService checks logins against cred. cache may be nil, in which case
// logout cannot revoke tokens before they expire.
func NewAuthService(cred models.AdminCredential, jwtUtil *utils.JWTUtil, cache Cache, logger *zap.Logger) *AuthService {
	return &AuthService{cred: cred, jwt: jwtUtil, cache: cache, logger: logger, now: time.Now}
}

func (s *AuthService) principal() models.Principal {
	return models.Principal{ID: models.AdminID, Email: s.cred.Email, Name: s.cred.Name, Role: models.RoleAdmin}
}

// Login issues a session token when email and password match the admin credential.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.Principal, error) {
	if !s.matches(email, password) {
		return "", nil, models.ErrInvalidCredentials
	}

	p := s.principal()
	token, _, err := s.jwt.GenerateToken(p)
	if err != nil {
		return "", nil, err
	}
	s.logger.Info("admin signed in", zap.String("email", p.Email))
	return token, &p, nil
}

func (s *AuthService) matches(email, password string) bool {
	if email != s.cred.Email {
		return false
	}
	if s.cred.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(s.cred.PasswordHash), []byte(password)) == nil
	}
	return password == s.cred.Password
}

// Authenticate validates a session token and rejects revoked ones.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Principal, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}
	if s.cache != nil {
		// Fails closed: a token that cannot be checked against the blacklist is rejected.
		revoked, err := s.cache.Exists(ctx, keyBlacklist+claims.ID)
		if err != nil {
			s.logger.Warn("failed to check token blacklist", zap.Error(err))
			return nil, fmt.Errorf("%w: revocation check failed: %v", models.ErrUnauthorized, err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: token revoked", models.ErrUnauthorized)
		}
	}
	p := claims.Principal()
	return &p, nil
}

// Logout revokes token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}
	if s.cache == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, keyBlacklist+claims.ID, true, ttl)
}
