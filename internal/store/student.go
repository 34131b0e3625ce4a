package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/staffdesk/apiserver/types"
)

// StudentRepository handles persistence for students.
type StudentRepository struct {
	db *sql.DB
}

func NewStudentRepository(db *sql.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) List(ctx context.Context, offset, limit int) ([]types.Student, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM students`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, name, school, COALESCE(grade, ''), created_at, updated_at
		FROM students
		ORDER BY created_at, id
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	students := make([]types.Student, 0, limit)
	for rows.Next() {
		var student types.Student
		if err := rows.Scan(
			&student.ID,
			&student.Name,
			&student.School,
			&student.Grade,
			&student.CreatedAt,
			&student.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *StudentRepository) Get(ctx context.Context, id uuid.UUID) (types.Student, error) {
	const query = `
		SELECT id, name, school, COALESCE(grade, ''), created_at, updated_at
		FROM students
		WHERE id = $1`
	var student types.Student
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&student.ID,
		&student.Name,
		&student.School,
		&student.Grade,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, ErrNotFound
		}
		return types.Student{}, err
	}
	return student, nil
}

func (r *StudentRepository) Create(ctx context.Context, student types.Student) (types.Student, error) {
	if student.ID == uuid.Nil {
		student.ID = uuid.New()
	}
	now := time.Now()
	student.CreatedAt = now
	student.UpdatedAt = now

	const query = `
		INSERT INTO students (id, name, school, grade, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		student.ID,
		student.Name,
		student.School,
		student.Grade,
		student.CreatedAt,
		student.UpdatedAt,
	); err != nil {
		return types.Student{}, err
	}
	return student, nil
}

func (r *StudentRepository) Update(ctx context.Context, student types.Student) (types.Student, error) {
	student.UpdatedAt = time.Now()

	const query = `
		UPDATE students
		SET name = $1,
			school = $2,
			grade = NULLIF($3, ''),
			updated_at = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(
		ctx,
		query,
		student.Name,
		student.School,
		student.Grade,
		student.UpdatedAt,
		student.ID,
	)
	if err != nil {
		return types.Student{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Student{}, err
	}
	if affected == 0 {
		return types.Student{}, ErrNotFound
	}
	return student, nil
}

func (r *StudentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM students WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
