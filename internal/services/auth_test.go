package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/staffdesk/apiserver/config"
	"github.com/staffdesk/apiserver/internal/store"
	"github.com/staffdesk/apiserver/internal/token"
	"github.com/staffdesk/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	users        map[string]types.User
	roles        map[uuid.UUID][]types.Role
	addRoleCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users: make(map[string]types.User),
		roles: make(map[uuid.UUID][]types.Role),
	}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (types.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	user, ok := r.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.Username]; ok {
		return types.User{}, store.ErrConflict
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.Username] = user
	return user, nil
}

func (r *fakeUserRepo) GetRoles(_ context.Context, userID uuid.UUID) ([]types.Role, error) {
	return r.roles[userID], nil
}

func (r *fakeUserRepo) AddRole(_ context.Context, userID uuid.UUID, role types.Role) error {
	r.addRoleCalls++
	for _, held := range r.roles[userID] {
		if held == role {
			return nil
		}
	}
	r.roles[userID] = append(r.roles[userID], role)
	return nil
}

type fakeRoleRepo struct {
	existing    map[types.Role]bool
	createCalls int
}

func newFakeRoleRepo(roles ...types.Role) *fakeRoleRepo {
	existing := make(map[types.Role]bool)
	for _, role := range roles {
		existing[role] = true
	}
	return &fakeRoleRepo{existing: existing}
}

func (r *fakeRoleRepo) Exists(_ context.Context, role types.Role) (bool, error) {
	return r.existing[role], nil
}

func (r *fakeRoleRepo) Create(_ context.Context, role types.Role) error {
	r.createCalls++
	r.existing[role] = true
	return nil
}

func newTestAuthService(users *fakeUserRepo, roles *fakeRoleRepo) *AuthService {
	issuer := token.NewIssuer(config.JWTConfig{
		Secret:   "0123456789abcdef0123456789abcdef",
		Issuer:   "staffdesk-test",
		Audience: "staffdesk-clients",
	})
	return NewAuthService(users, roles, issuer, time.Hour, 7*24*time.Hour, nil)
}

func seedUser(t *testing.T, repo *fakeUserRepo, username, password string, roles ...types.Role) types.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user, err := repo.Create(context.Background(), types.User{
		Username:      username,
		PasswordHash:  string(hash),
		SecurityStamp: uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	for _, role := range roles {
		if err := repo.AddRole(context.Background(), user.ID, role); err != nil {
			t.Fatalf("seed role: %v", err)
		}
	}
	repo.addRoleCalls = 0
	return user
}

func TestLoginIssuesDistinctTokenPair(t *testing.T) {
	users := newFakeUserRepo()
	auth := newTestAuthService(users, newFakeRoleRepo(types.AllRoles...))
	seedUser(t, users, "bob", "Pwd123!", types.RoleUser)

	result, err := auth.Login(context.Background(), "bob", "Pwd123!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if result.AccessToken == result.RefreshToken {
		t.Fatal("expected access and refresh tokens to differ")
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	users := newFakeUserRepo()
	auth := newTestAuthService(users, newFakeRoleRepo(types.AllRoles...))
	seedUser(t, users, "bob", "Pwd123!", types.RoleUser)

	_, unknownErr := auth.Login(context.Background(), "nobody", "Pwd123!")
	_, wrongPassErr := auth.Login(context.Background(), "bob", "wrong")

	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("unknown user: got %v, want ErrInvalidCredentials", unknownErr)
	}
	if !errors.Is(wrongPassErr, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", wrongPassErr)
	}
}

func TestRefreshPreservesClaims(t *testing.T) {
	users := newFakeUserRepo()
	auth := newTestAuthService(users, newFakeRoleRepo(types.AllRoles...))
	user := seedUser(t, users, "bob", "Pwd123!", types.RoleUser, types.RoleAdmin)

	result, err := auth.Login(context.Background(), "bob", "Pwd123!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	accessToken, err := auth.Refresh(context.Background(), result.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	originalClaims, err := auth.issuer.Parse(result.RefreshToken)
	if err != nil {
		t.Fatalf("parse refresh token: %v", err)
	}
	refreshedClaims, err := auth.issuer.Parse(accessToken)
	if err != nil {
		t.Fatalf("parse refreshed access token: %v", err)
	}

	if refreshedClaims.Username != "bob" {
		t.Errorf("username = %q, want bob", refreshedClaims.Username)
	}
	if refreshedClaims.Subject != user.ID.String() {
		t.Errorf("subject = %q, want %q", refreshedClaims.Subject, user.ID)
	}
	if refreshedClaims.ID != originalClaims.ID {
		t.Errorf("jti changed on refresh: %q -> %q", originalClaims.ID, refreshedClaims.ID)
	}
	if !refreshedClaims.HasRole(types.RoleAdmin) {
		t.Errorf("roles = %v, want ADMIN preserved", refreshedClaims.Roles)
	}
}

func TestRefreshFlattensAllFailures(t *testing.T) {
	users := newFakeUserRepo()
	auth := newTestAuthService(users, newFakeRoleRepo(types.AllRoles...))
	seedUser(t, users, "bob", "Pwd123!", types.RoleUser)

	otherIssuer := token.NewIssuer(config.JWTConfig{
		Secret:   "fedcba9876543210fedcba9876543210",
		Issuer:   "staffdesk-test",
		Audience: "staffdesk-clients",
	})
	foreignToken, err := otherIssuer.Issue(otherIssuer.NewClaims(types.User{ID: uuid.New(), Username: "bob"}), time.Hour)
	if err != nil {
		t.Fatalf("issue foreign token: %v", err)
	}

	for _, tokenString := range []string{"", "garbage", foreignToken} {
		if _, err := auth.Refresh(context.Background(), tokenString); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("refresh(%q): got %v, want ErrInvalidToken", tokenString, err)
		}
	}
}

func TestRegisterAssignsDefaultRole(t *testing.T) {
	users := newFakeUserRepo()
	auth := newTestAuthService(users, newFakeRoleRepo(types.AllRoles...))

	user, err := auth.Register(context.Background(), "bob", "Pwd123!", "Bob", "Smith", "bob@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("expected a user id")
	}
	if user.SecurityStamp == "" {
		t.Error("expected a security stamp")
	}
	if user.PasswordHash == "Pwd123!" || user.PasswordHash == "" {
		t.Error("expected the password to be hashed")
	}
	if !user.HasRole(types.RoleUser) {
		t.Errorf("roles = %v, want USER", user.Roles)
	}

	// The freshly registered account must be able to log in.
	if _, err := auth.Login(context.Background(), "bob", "Pwd123!"); err != nil {
		t.Fatalf("login after register: %v", err)
	}
}

func TestRegisterRejectsTakenUsername(t *testing.T) {
	users := newFakeUserRepo()
	auth := newTestAuthService(users, newFakeRoleRepo(types.AllRoles...))
	seedUser(t, users, "bob", "Pwd123!", types.RoleUser)

	_, err := auth.Register(context.Background(), "bob", "Other123!", "Bob", "Smith", "bob@example.com")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("got %v, want ErrUsernameTaken", err)
	}
}

func TestRegisterAggregatesPolicyViolations(t *testing.T) {
	users := newFakeUserRepo()
	auth := newTestAuthService(users, newFakeRoleRepo(types.AllRoles...))

	_, err := auth.Register(context.Background(), "bob", "abc", "Bob", "Smith", "bob@example.com")

	var regErr *RegistrationError
	if !errors.As(err, &regErr) {
		t.Fatalf("got %v, want RegistrationError", err)
	}
	// "abc" is too short and has no uppercase, digit, or symbol.
	if len(regErr.Reasons) != 4 {
		t.Fatalf("reasons = %v, want 4 entries", regErr.Reasons)
	}
	joined := strings.Join(regErr.Reasons, "; ")
	for _, fragment := range []string{"at least 6", "uppercase", "digit", "non-alphanumeric"} {
		if !strings.Contains(joined, fragment) {
			t.Errorf("reasons %q missing %q", joined, fragment)
		}
	}

	// Nothing may be persisted for a rejected registration.
	if _, err := users.GetByUsername(context.Background(), "bob"); !errors.Is(err, store.ErrNotFound) {
		t.Fatal("rejected registration must not create a user")
	}
}

func TestCheckPasswordPolicyAcceptsCompliant(t *testing.T) {
	if reasons := checkPasswordPolicy("Pwd123!"); len(reasons) != 0 {
		t.Fatalf("unexpected violations: %v", reasons)
	}
}

func TestSeedRolesIsIdempotent(t *testing.T) {
	roles := newFakeRoleRepo()
	auth := newTestAuthService(newFakeUserRepo(), roles)

	created, err := auth.SeedRoles(context.Background())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(created) != len(types.AllRoles) {
		t.Fatalf("created = %v, want all of %v", created, types.AllRoles)
	}

	roles.createCalls = 0
	created, err = auth.SeedRoles(context.Background())
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("second seed created %v, want none", created)
	}
	if roles.createCalls != 0 {
		t.Fatalf("second seed wrote %d roles, want 0", roles.createCalls)
	}
}

func TestSeedRolesCreatesOnlyMissing(t *testing.T) {
	roles := newFakeRoleRepo(types.RoleUser)
	auth := newTestAuthService(newFakeUserRepo(), roles)

	created, err := auth.SeedRoles(context.Background())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created = %v, want ADMIN and OWNER only", created)
	}
	for _, role := range created {
		if role == types.RoleUser {
			t.Fatal("USER already existed and must not be re-created")
		}
	}
}

func TestGrantRole(t *testing.T) {
	users := newFakeUserRepo()
	auth := newTestAuthService(users, newFakeRoleRepo(types.AllRoles...))
	user := seedUser(t, users, "bob", "Pwd123!", types.RoleUser)

	if err := auth.GrantRole(context.Background(), "bob", types.RoleAdmin); err != nil {
		t.Fatalf("grant: %v", err)
	}
	held, _ := users.GetRoles(context.Background(), user.ID)
	if len(held) != 2 {
		t.Fatalf("roles = %v, want USER and ADMIN", held)
	}

	// Granting again succeeds without growing the role set.
	if err := auth.GrantRole(context.Background(), "bob", types.RoleAdmin); err != nil {
		t.Fatalf("repeat grant: %v", err)
	}
	held, _ = users.GetRoles(context.Background(), user.ID)
	if len(held) != 2 {
		t.Fatalf("roles after repeat grant = %v, want unchanged", held)
	}
}

func TestGrantRoleUnknownUser(t *testing.T) {
	auth := newTestAuthService(newFakeUserRepo(), newFakeRoleRepo(types.AllRoles...))

	err := auth.GrantRole(context.Background(), "nobody", types.RoleAdmin)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}
}

func TestGrantRoleRejectsUngrantableRoles(t *testing.T) {
	users := newFakeUserRepo()
	auth := newTestAuthService(users, newFakeRoleRepo(types.AllRoles...))
	seedUser(t, users, "bob", "Pwd123!", types.RoleUser)

	if err := auth.GrantRole(context.Background(), "bob", types.RoleUser); err == nil {
		t.Fatal("expected granting USER to fail")
	}
	if err := auth.GrantRole(context.Background(), "bob", types.Role("ROOT")); err == nil {
		t.Fatal("expected granting an unknown role to fail")
	}
}
