package service

import (
	"errors"
	"fmt"
	"time"

	"go-accounting/internal/access"
	"go-accounting/internal/model"
	"go-accounting/internal/repository"
	"go-accounting/pkg/jwt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
	ErrSessionTimeout     = errors.New("session expired due to inactivity")
)

// IdleTimeout ends a session that has sent no heartbeat for this long.
const IdleTimeout = 5 * time.Minute

// AuthService owns sessions. A user holds at most one live token: every
// login, logout, password change or deactivation rotates the stored token
// version, and Authenticate rejects tokens carrying an older one.
type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	Logout(p access.Principal) error
	ResetPassword(email, oldPassword, newPassword string) error
	Authenticate(token string) (*Session, error)
	ValidateToken(token string) (*TokenValidationResponse, error)
	Heartbeat(p access.Principal) error
}

// Session is an authenticated request's account row plus the privilege
// codes signed into its token.
type Session struct {
	User       *model.User
	Privileges []string
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type authService struct {
	userRepo repository.UserRepository
	notifier Notifier
}

func NewAuthService(userRepo repository.UserRepository, n Notifier) AuthService {
	return &authService{
		userRepo: userRepo,
		notifier: notifierOrNop(n),
	}
}

func (s *authService) status(userID uuid.UUID, status string, at time.Time) {
	s.notifier.Notify(userID, map[string]interface{}{
		"type":         "user_status_update",
		"user_id":      userID.String(),
		"status":       status,
		"last_seen_at": at,
	})
}

func (s *authService) Login(email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	// Same answer for unknown, wrong password and inactive accounts
	if !user.CheckPassword(password) || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	// The seen time is set with the new version so the fresh token is not
	// already idle
	now := time.Now()
	version, err := s.userRepo.RotateSession(user.ID, map[string]interface{}{"last_seen_at": now})
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	user.TokenVersion = version
	user.LastSeenAt = &now

	roleCode := ""
	if user.Role != nil {
		roleCode = user.Role.Code
	}
	token, err := jwt.GenerateToken(jwt.Session{
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.FullName,
		RoleCode:     roleCode,
		IsSuperuser:  user.IsSuperuser,
		Privileges:   user.GetPrivilegeCodes(),
		TokenVersion: version,
	})
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.status(user.ID, "online", now)
	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

func (s *authService) Logout(p access.Principal) error {
	if _, err := s.userRepo.RotateSession(p.UserID, nil); err != nil {
		return notFound(err, ErrUserNotFound)
	}
	s.status(p.UserID, "offline", time.Now())
	return nil
}

func (s *authService) ResetPassword(email, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return ErrUserNotFound
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if _, err := s.userRepo.RotateSession(user.ID, map[string]interface{}{"password": user.Password}); err != nil {
		return notFound(err, ErrUserNotFound)
	}
	return nil
}

// Authenticate checks a bearer token against the stored account: it must
// exist, be active and carry the current token version.
func (s *authService) Authenticate(token string) (*Session, error) {
	claims, err := jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}
	return &Session{User: user, Privileges: claims.Privileges}, nil
}

// ValidateToken is Authenticate plus the idle timeout, for clients
// deciding whether to show the login screen.
func (s *authService) ValidateToken(token string) (*TokenValidationResponse, error) {
	session, err := s.Authenticate(token)
	if err != nil {
		return nil, err
	}
	user := session.User
	if user.LastSeenAt == nil || time.Since(*user.LastSeenAt) > IdleTimeout {
		return nil, ErrSessionTimeout
	}

	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

// Heartbeat keeps p's session from idling out and announces p as online to
// the clients allowed to see p's rows.
func (s *authService) Heartbeat(p access.Principal) error {
	seen, err := s.userRepo.Touch(p.UserID)
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}
	s.status(p.UserID, "online", seen)
	return nil
}
