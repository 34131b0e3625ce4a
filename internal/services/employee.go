package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/staffdesk/apiserver/types"
)

// EmployeeRepository defines persistence operations for employees.
type EmployeeRepository interface {
	List(ctx context.Context, offset, limit int) ([]types.Employee, int, error)
	Get(ctx context.Context, id uuid.UUID) (types.Employee, error)
	Create(ctx context.Context, employee types.Employee) (types.Employee, error)
	Update(ctx context.Context, employee types.Employee) (types.Employee, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// EmployeeService encapsulates employee use-cases.
type EmployeeService struct {
	repo  EmployeeRepository
	audit *AuditPublisher
}

func NewEmployeeService(repo EmployeeRepository, audit *AuditPublisher) *EmployeeService {
	return &EmployeeService{repo: repo, audit: audit}
}

func (s *EmployeeService) List(ctx context.Context, offset, limit int) ([]types.Employee, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit)
}

func (s *EmployeeService) Get(ctx context.Context, id uuid.UUID) (types.Employee, error) {
	return s.repo.Get(ctx, id)
}

func (s *EmployeeService) Create(ctx context.Context, employee types.Employee) (types.Employee, error) {
	created, err := s.repo.Create(ctx, employee)
	if err != nil {
		return types.Employee{}, err
	}
	s.audit.Publish(ctx, AuditEvent{Action: "employee.created", Subject: created.ID.String()})
	return created, nil
}

func (s *EmployeeService) Update(ctx context.Context, employee types.Employee) (types.Employee, error) {
	updated, err := s.repo.Update(ctx, employee)
	if err != nil {
		return types.Employee{}, err
	}
	s.audit.Publish(ctx, AuditEvent{Action: "employee.updated", Subject: updated.ID.String()})
	return updated, nil
}

func (s *EmployeeService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Publish(ctx, AuditEvent{Action: "employee.deleted", Subject: id.String()})
	return nil
}
