package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/staffdesk/apiserver/internal/storage"
	"github.com/staffdesk/apiserver/internal/store"
	"github.com/staffdesk/apiserver/types"
)

type fakeEmployeeRepo struct {
	employees []types.Employee
}

func (r *fakeEmployeeRepo) List(_ context.Context, offset, limit int) ([]types.Employee, int, error) {
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

func (r *fakeEmployeeRepo) Get(_ context.Context, id uuid.UUID) (types.Employee, error) {
	for _, e := range r.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return types.Employee{}, store.ErrNotFound
}

func (r *fakeEmployeeRepo) Create(_ context.Context, employee types.Employee) (types.Employee, error) {
	if employee.ID == uuid.Nil {
		employee.ID = uuid.New()
	}
	r.employees = append(r.employees, employee)
	return employee, nil
}

func (r *fakeEmployeeRepo) Update(_ context.Context, employee types.Employee) (types.Employee, error) {
	for i, e := range r.employees {
		if e.ID == employee.ID {
			r.employees[i] = employee
			return employee, nil
		}
	}
	return types.Employee{}, store.ErrNotFound
}

func (r *fakeEmployeeRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, e := range r.employees {
		if e.ID == id {
			r.employees = append(r.employees[:i], r.employees[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeObjectStorage struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (s *fakeObjectStorage) EnsureBucket(context.Context) error { return nil }

func (s *fakeObjectStorage) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *fakeObjectStorage) Bucket() string { return "test-bucket" }

func TestExportEmployeesWritesCSVSnapshot(t *testing.T) {
	repo := &fakeEmployeeRepo{}
	for i := 0; i < 3; i++ {
		_, err := repo.Create(context.Background(), types.Employee{
			Name:      fmt.Sprintf("Employee %d", i),
			Email:     fmt.Sprintf("e%d@example.com", i),
			Phone:     "555-0100",
			Salary:    int64(50000 + i),
			CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("seed employee: %v", err)
		}
	}

	backend := newFakeObjectStorage()
	export := NewExportService(repo, storage.NewStorage(backend))

	key, count, err := export.ExportEmployees(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
	if !strings.HasPrefix(key, "exports/employees-") || !strings.HasSuffix(key, ".csv") {
		t.Fatalf("unexpected object key %q", key)
	}
	if backend.types[key] != "text/csv" {
		t.Fatalf("content type = %q, want text/csv", backend.types[key])
	}

	records, err := csv.NewReader(bytes.NewReader(backend.objects[key])).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("rows = %d, want header plus 3", len(records))
	}
	header := strings.Join(records[0], ",")
	if header != "id,name,email,phone,salary,created_at" {
		t.Fatalf("unexpected header %q", header)
	}
	if records[1][1] != "Employee 0" || records[1][4] != "50000" {
		t.Fatalf("unexpected first row %v", records[1])
	}
}

func TestExportEmployeesPagesThroughRoster(t *testing.T) {
	repo := &fakeEmployeeRepo{}
	total := exportPageSize + 7
	for i := 0; i < total; i++ {
		if _, err := repo.Create(context.Background(), types.Employee{
			Name:  fmt.Sprintf("Employee %d", i),
			Email: fmt.Sprintf("e%d@example.com", i),
		}); err != nil {
			t.Fatalf("seed employee: %v", err)
		}
	}

	backend := newFakeObjectStorage()
	export := NewExportService(repo, storage.NewStorage(backend))

	_, count, err := export.ExportEmployees(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if count != total {
		t.Fatalf("count = %d, want %d", count, total)
	}
}

func TestExportEmployeesDisabledWithoutStorage(t *testing.T) {
	export := NewExportService(&fakeEmployeeRepo{}, nil)

	_, _, err := export.ExportEmployees(context.Background())
	if !errors.Is(err, ErrExportDisabled) {
		t.Fatalf("got %v, want ErrExportDisabled", err)
	}
}
