package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/staffdesk/apiserver/config"
	"github.com/staffdesk/apiserver/internal/services"
	"github.com/staffdesk/apiserver/internal/store"
	"github.com/staffdesk/apiserver/internal/token"
	"github.com/staffdesk/apiserver/types"
)

type memUserRepo struct {
	users map[string]types.User
	roles map[uuid.UUID][]types.Role
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users: make(map[string]types.User),
		roles: make(map[uuid.UUID][]types.Role),
	}
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (types.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	user, ok := r.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.Username]; ok {
		return types.User{}, store.ErrConflict
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.Username] = user
	return user, nil
}

func (r *memUserRepo) GetRoles(_ context.Context, userID uuid.UUID) ([]types.Role, error) {
	return r.roles[userID], nil
}

func (r *memUserRepo) AddRole(_ context.Context, userID uuid.UUID, role types.Role) error {
	for _, held := range r.roles[userID] {
		if held == role {
			return nil
		}
	}
	r.roles[userID] = append(r.roles[userID], role)
	return nil
}

type memRoleRepo struct {
	existing map[types.Role]bool
}

func newMemRoleRepo() *memRoleRepo {
	return &memRoleRepo{existing: make(map[types.Role]bool)}
}

func (r *memRoleRepo) Exists(_ context.Context, role types.Role) (bool, error) {
	return r.existing[role], nil
}

func (r *memRoleRepo) Create(_ context.Context, role types.Role) error {
	r.existing[role] = true
	return nil
}

type memEmployeeRepo struct {
	employees []types.Employee
}

func (r *memEmployeeRepo) List(_ context.Context, offset, limit int) ([]types.Employee, int, error) {
	total := len(r.employees)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return r.employees[offset:end], total, nil
}

func (r *memEmployeeRepo) Get(_ context.Context, id uuid.UUID) (types.Employee, error) {
	for _, e := range r.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return types.Employee{}, store.ErrNotFound
}

func (r *memEmployeeRepo) Create(_ context.Context, employee types.Employee) (types.Employee, error) {
	if employee.ID == uuid.Nil {
		employee.ID = uuid.New()
	}
	r.employees = append(r.employees, employee)
	return employee, nil
}

func (r *memEmployeeRepo) Update(_ context.Context, employee types.Employee) (types.Employee, error) {
	for i, e := range r.employees {
		if e.ID == employee.ID {
			r.employees[i] = employee
			return employee, nil
		}
	}
	return types.Employee{}, store.ErrNotFound
}

func (r *memEmployeeRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, e := range r.employees {
		if e.ID == id {
			r.employees = append(r.employees[:i], r.employees[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type memStudentRepo struct {
	students []types.Student
}

func (r *memStudentRepo) List(_ context.Context, offset, limit int) ([]types.Student, int, error) {
	total := len(r.students)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return r.students[offset:end], total, nil
}

func (r *memStudentRepo) Get(_ context.Context, id uuid.UUID) (types.Student, error) {
	for _, s := range r.students {
		if s.ID == id {
			return s, nil
		}
	}
	return types.Student{}, store.ErrNotFound
}

func (r *memStudentRepo) Create(_ context.Context, student types.Student) (types.Student, error) {
	if student.ID == uuid.Nil {
		student.ID = uuid.New()
	}
	r.students = append(r.students, student)
	return student, nil
}

func (r *memStudentRepo) Update(_ context.Context, student types.Student) (types.Student, error) {
	for i, s := range r.students {
		if s.ID == student.ID {
			r.students[i] = student
			return student, nil
		}
	}
	return types.Student{}, store.ErrNotFound
}

func (r *memStudentRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, s := range r.students {
		if s.ID == id {
			r.students = append(r.students[:i], r.students[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// testEnv wires the full router over in-memory repositories.
type testEnv struct {
	router    *chi.Mux
	issuer    *token.Issuer
	users     *memUserRepo
	employees *memEmployeeRepo
	students  *memStudentRepo
	auth      *services.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	issuer := token.NewIssuer(config.JWTConfig{
		Secret:   "0123456789abcdef0123456789abcdef",
		Issuer:   "staffdesk-test",
		Audience: "staffdesk-clients",
	})

	users := newMemUserRepo()
	roles := newMemRoleRepo()
	employees := &memEmployeeRepo{}
	students := &memStudentRepo{}

	authService := services.NewAuthService(users, roles, issuer, time.Hour, 7*24*time.Hour, nil)
	employeeService := services.NewEmployeeService(employees, nil)
	studentService := services.NewStudentService(students, nil)
	exportService := services.NewExportService(employees, nil)

	authMiddleware := RequireAuth(issuer)

	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, authService, authMiddleware)
	})
	router.Route("/employees", func(r chi.Router) {
		EmployeeRouter(r, employeeService, exportService, authMiddleware)
	})
	router.Route("/students", func(r chi.Router) {
		StudentRouter(r, studentService, authMiddleware)
	})

	return &testEnv{
		router:    router,
		issuer:    issuer,
		users:     users,
		employees: employees,
		students:  students,
		auth:      authService,
	}
}

// tokenFor issues an access token for a synthetic user holding the
// given roles.
func (e *testEnv) tokenFor(t *testing.T, username string, roles ...types.Role) string {
	t.Helper()

	claims := e.issuer.NewClaims(types.User{
		ID:       uuid.New(),
		Username: username,
		Roles:    roles,
	})
	tokenString, err := e.issuer.Issue(claims, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tokenString
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}
