package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/drac2606/django-data-monitor/internal/dto"
	"github.com/drac2606/django-data-monitor/internal/models"
	"github.com/drac2606/django-data-monitor/internal/repositories"

	"github.com/google/uuid"
)

// revocations of tokens without a readable expiry are kept this long
const revokedTokenFallbackTTL = 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked due to too many failed attempts")
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
)

// client identifies where an authentication request came from.
type client struct {
	ip        string
	userAgent string
}

// AuthService logs users in and out of the dashboards and provisions accounts.
// Every authentication event is written to the audit trail and counted in
// authentication_events_total; audit failures never fail the request.
type AuthService struct {
	users     repositories.UserRepositoryInterface
	audit     repositories.AuditLogRepositoryInterface
	blacklist repositories.BlacklistedTokenRepositoryInterface
	passwords PasswordServiceInterface
	tokens    TokenServiceInterface
	metrics   MetricsRecorderInterface
	logger    *slog.Logger
}

func NewAuthService(
	users repositories.UserRepositoryInterface,
	audit repositories.AuditLogRepositoryInterface,
	blacklist repositories.BlacklistedTokenRepositoryInterface,
	passwords PasswordServiceInterface,
	tokens TokenServiceInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) AuthServiceInterface {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:     users,
		audit:     audit,
		blacklist: blacklist,
		passwords: passwords,
		tokens:    tokens,
		metrics:   metrics,
		logger:    logger,
	}
}

// Login checks the credentials and issues an access token. Unknown emails and
// wrong passwords both return ErrInvalidCredentials; the fifth consecutive
// wrong password locks the account.
func (s *AuthService) Login(req *dto.LoginRequest, ipAddress, userAgent string) (*dto.TokenResponse, error) {
	from := client{ip: ipAddress, userAgent: userAgent}

	user, err := s.users.GetByEmail(req.Email)
	if errors.Is(err, repositories.ErrUserNotFound) {
		s.failedLogin(req.Email, "user_not_found", from)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsLocked() {
		s.failedLogin(req.Email, "account_locked", from)
		return nil, ErrAccountLocked
	}

	if !s.passwords.ComparePassword(req.Password, user.PasswordHash) {
		user.IncrementFailedAttempts()
		if err := s.users.UpdateFailedLoginAttempts(user); err != nil {
			s.logger.Error("failed to update login attempts", "user_id", user.ID, "error", err)
		}
		if user.IsLocked() {
			s.event(models.AuditActionAccountLocked, &user.ID, from, nil)
		}
		s.failedLogin(req.Email, "invalid_password", from)
		return nil, ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 {
		user.ResetFailedAttempts()
		if err := s.users.UpdateFailedLoginAttempts(user); err != nil {
			s.logger.Warn("failed to reset login attempts", "user_id", user.ID, "error", err)
		}
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	if err := s.users.UpdateLastLogin(user.ID, time.Now()); err != nil {
		s.logger.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}
	s.event(models.AuditActionLogin, &user.ID, from, nil)

	return &dto.TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}

// Logout revokes the access token until it expires. A token that no longer
// validates is still revoked when its jti can be read; one that cannot be
// read at all is ignored.
func (s *AuthService) Logout(accessToken, ipAddress, userAgent string) error {
	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		if claims, err = s.tokens.GetTokenClaims(accessToken); err != nil || claims.ID == "" {
			return nil
		}
	}

	revoked, err := models.NewBlacklistedToken(claims, revokedTokenFallbackTTL)
	if err != nil {
		return fmt.Errorf("invalid token subject: %w", err)
	}
	if err := s.blacklist.Create(revoked); err != nil {
		s.logger.Error("failed to blacklist token", "jti", claims.ID, "user_id", revoked.UserID, "error", err)
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	s.event(models.AuditActionLogout, &revoked.UserID, client{ip: ipAddress, userAgent: userAgent}, nil)
	return nil
}

// CreateUser provisions a dashboard account. The role defaults to viewer.
func (s *AuthService) CreateUser(req *dto.CreateUserRequest) (*models.User, error) {
	if err := models.ValidatePermissions(req.Permissions); err != nil {
		return nil, err
	}

	switch _, err := s.users.GetByEmail(req.Email); {
	case err == nil:
		return nil, ErrUserAlreadyExists
	case !errors.Is(err, repositories.ErrUserNotFound):
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Email: req.Email, PasswordHash: hash, Role: req.Role}
	if user.Role == "" {
		user.Role = models.RoleViewer
	}
	user.SetPermissions(req.Permissions)

	if err := s.users.Create(user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.record(models.AuditActionUserCreated, &user.ID, client{}, models.AuditMetadata{
		"role":        user.Role,
		"permissions": user.PermissionList(),
	})
	return user, nil
}

func (s *AuthService) failedLogin(email, reason string, from client) {
	s.event(models.AuditActionFailedLogin, nil, from, models.AuditMetadata{
		"email":  email,
		"reason": reason,
	})
}

// event records an authentication event and counts it.
func (s *AuthService) event(action string, userID *uuid.UUID, from client, metadata models.AuditMetadata) {
	if s.metrics != nil {
		s.metrics.IncrementCounter(MetricAuthenticationEvent, map[string]string{"event_type": action})
	}
	s.record(action, userID, from, metadata)
}

// record appends to the audit trail. The subject user, when known, is both
// actor and resource.
func (s *AuthService) record(action string, userID *uuid.UUID, from client, metadata models.AuditMetadata) {
	entry := &models.AuditLog{
		UserID:    userID,
		Action:    action,
		Resource:  models.AuditResourceUser,
		IPAddress: from.ip,
		UserAgent: from.userAgent,
		Metadata:  metadata,
	}
	if userID != nil {
		entry.ResourceID = userID.String()
	}

	if err := s.audit.Create(entry); err != nil {
		s.logger.Error("failed to create audit log", "action", action, "resource_id", entry.ResourceID, "error", err)
	}
}
