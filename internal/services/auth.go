package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/staffdesk/apiserver/internal/store"
	"github.com/staffdesk/apiserver/internal/token"
	"github.com/staffdesk/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

// Service-level failure kinds. Handlers map these onto HTTP responses;
// the messages clients see live at that boundary, so nothing here leaks
// which internal check failed.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
)

// RegistrationError aggregates every policy rule the submitted
// registration violated into one failure.
type RegistrationError struct {
	Reasons []string
}

func (e *RegistrationError) Error() string {
	return "registration rejected: " + strings.Join(e.Reasons, ", ")
}

// UserRepository defines the credential-store operations auth depends on.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	GetRoles(ctx context.Context, userID uuid.UUID) ([]types.Role, error)
	AddRole(ctx context.Context, userID uuid.UUID, role types.Role) error
}

// RoleRepository defines the role-registry operations auth depends on.
type RoleRepository interface {
	Exists(ctx context.Context, role types.Role) (bool, error)
	Create(ctx context.Context, role types.Role) error
}

// LoginResult carries the token pair issued at login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
}

// AuthService implements login, refresh, registration, role seeding,
// and role grants.
type AuthService struct {
	users      UserRepository
	roles      RoleRepository
	issuer     *token.Issuer
	accessTTL  time.Duration
	refreshTTL time.Duration
	audit      *AuditPublisher
}

func NewAuthService(
	users UserRepository,
	roles RoleRepository,
	issuer *token.Issuer,
	accessTTL, refreshTTL time.Duration,
	audit *AuditPublisher,
) *AuthService {
	return &AuthService{
		users:      users,
		roles:      roles,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		audit:      audit,
	}
}

// Login verifies the credentials and issues an access/refresh token pair
// built from one shared claim set. An unknown username and a wrong
// password fail identically.
func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	roles, err := s.users.GetRoles(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}
	user.Roles = roles

	claims := s.issuer.NewClaims(user)
	accessToken, err := s.issuer.Issue(claims, s.accessTTL)
	if err != nil {
		return LoginResult{}, err
	}
	refreshToken, err := s.issuer.Issue(claims, s.refreshTTL)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh validates the refresh token and re-issues an access token from
// the validated claim set unchanged. No refresh rotation takes place.
// Every validation failure is flattened to ErrInvalidToken so a caller
// cannot distinguish a bad signature from a wrong issuer or an expired
// token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.issuer.Parse(refreshToken)
	if err != nil {
		return "", ErrInvalidToken
	}

	accessToken, err := s.issuer.Issue(*claims, s.accessTTL)
	if err != nil {
		return "", ErrInvalidToken
	}
	return accessToken, nil
}

// Register creates a new account with a fresh security stamp and the
// default USER role.
func (s *AuthService) Register(ctx context.Context, username, password, firstName, lastName, email string) (types.User, error) {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return types.User{}, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}

	if reasons := checkPasswordPolicy(password); len(reasons) > 0 {
		return types.User{}, &RegistrationError{Reasons: reasons}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.users.Create(ctx, types.User{
		Username:      username,
		Email:         email,
		FirstName:     firstName,
		LastName:      lastName,
		PasswordHash:  string(hash),
		SecurityStamp: uuid.NewString(),
	})
	if err != nil {
		// A concurrent registration may win the uniqueness race between
		// the lookup above and this insert.
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, ErrUsernameTaken
		}
		return types.User{}, err
	}

	if err := s.users.AddRole(ctx, user.ID, types.RoleUser); err != nil {
		return types.User{}, err
	}
	user.Roles = []types.Role{types.RoleUser}

	s.audit.Publish(ctx, AuditEvent{
		Action:  "user.registered",
		Subject: user.Username,
	})
	return user, nil
}

// SeedRoles ensures every role in the fixed set exists, creating only
// the missing ones. It returns the roles it created; an empty result
// means seeding had already been done and nothing was written.
func (s *AuthService) SeedRoles(ctx context.Context) ([]types.Role, error) {
	var missing []types.Role
	for _, role := range types.AllRoles {
		exists, err := s.roles.Exists(ctx, role)
		if err != nil {
			return nil, err
		}
		if !exists {
			missing = append(missing, role)
		}
	}

	for _, role := range missing {
		if err := s.roles.Create(ctx, role); err != nil {
			return nil, err
		}
	}
	return missing, nil
}

// GrantRole adds ADMIN or OWNER to the named user's role set. Granting a
// role the user already holds succeeds without writing a duplicate.
func (s *AuthService) GrantRole(ctx context.Context, username string, role types.Role) error {
	if role != types.RoleAdmin && role != types.RoleOwner {
		return fmt.Errorf("role %q cannot be granted", role)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.users.AddRole(ctx, user.ID, role); err != nil {
		return err
	}

	s.audit.Publish(ctx, AuditEvent{
		Action:  "role.granted",
		Subject: user.Username,
		Details: map[string]string{"role": role.String()},
	})
	return nil
}

// checkPasswordPolicy returns every rule the password violates, so the
// caller can report all of them at once.
func checkPasswordPolicy(password string) []string {
	var reasons []string
	if len(password) < minPasswordLen {
		reasons = append(reasons, fmt.Sprintf("passwords must be at least %d characters", minPasswordLen))
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	if !hasLower {
		reasons = append(reasons, "passwords must have at least one lowercase letter")
	}
	if !hasUpper {
		reasons = append(reasons, "passwords must have at least one uppercase letter")
	}
	if !hasDigit {
		reasons = append(reasons, "passwords must have at least one digit")
	}
	if !hasSymbol {
		reasons = append(reasons, "passwords must have at least one non-alphanumeric character")
	}
	return reasons
}
