package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/staffdesk/apiserver/types"
)

// StudentRepository defines persistence operations for students.
type StudentRepository interface {
	List(ctx context.Context, offset, limit int) ([]types.Student, int, error)
	Get(ctx context.Context, id uuid.UUID) (types.Student, error)
	Create(ctx context.Context, student types.Student) (types.Student, error)
	Update(ctx context.Context, student types.Student) (types.Student, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// StudentService encapsulates student use-cases.
type StudentService struct {
	repo  StudentRepository
	audit *AuditPublisher
}

func NewStudentService(repo StudentRepository, audit *AuditPublisher) *StudentService {
	return &StudentService{repo: repo, audit: audit}
}

func (s *StudentService) List(ctx context.Context, offset, limit int) ([]types.Student, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit)
}

func (s *StudentService) Get(ctx context.Context, id uuid.UUID) (types.Student, error) {
	return s.repo.Get(ctx, id)
}

func (s *StudentService) Create(ctx context.Context, student types.Student) (types.Student, error) {
	created, err := s.repo.Create(ctx, student)
	if err != nil {
		return types.Student{}, err
	}
	s.audit.Publish(ctx, AuditEvent{Action: "student.created", Subject: created.ID.String()})
	return created, nil
}

func (s *StudentService) Update(ctx context.Context, student types.Student) (types.Student, error) {
	updated, err := s.repo.Update(ctx, student)
	if err != nil {
		return types.Student{}, err
	}
	s.audit.Publish(ctx, AuditEvent{Action: "student.updated", Subject: updated.ID.String()})
	return updated, nil
}

func (s *StudentService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Publish(ctx, AuditEvent{Action: "student.deleted", Subject: id.String()})
	return nil
}
