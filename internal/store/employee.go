package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/staffdesk/apiserver/types"
)

// EmployeeRepository handles persistence for employees.
type EmployeeRepository struct {
	db *sql.DB
}

func NewEmployeeRepository(db *sql.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) List(ctx context.Context, offset, limit int) ([]types.Employee, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM employees`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, name, email, phone, salary, created_at, updated_at
		FROM employees
		ORDER BY created_at, id
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	employees := make([]types.Employee, 0, limit)
	for rows.Next() {
		var employee types.Employee
		if err := rows.Scan(
			&employee.ID,
			&employee.Name,
			&employee.Email,
			&employee.Phone,
			&employee.Salary,
			&employee.CreatedAt,
			&employee.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		employees = append(employees, employee)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return employees, total, nil
}

func (r *EmployeeRepository) Get(ctx context.Context, id uuid.UUID) (types.Employee, error) {
	const query = `
		SELECT id, name, email, phone, salary, created_at, updated_at
		FROM employees
		WHERE id = $1`
	var employee types.Employee
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&employee.ID,
		&employee.Name,
		&employee.Email,
		&employee.Phone,
		&employee.Salary,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Employee{}, ErrNotFound
		}
		return types.Employee{}, err
	}
	return employee, nil
}

func (r *EmployeeRepository) Create(ctx context.Context, employee types.Employee) (types.Employee, error) {
	if employee.ID == uuid.Nil {
		employee.ID = uuid.New()
	}
	now := time.Now()
	employee.CreatedAt = now
	employee.UpdatedAt = now

	const query = `
		INSERT INTO employees (id, name, email, phone, salary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		employee.ID,
		employee.Name,
		employee.Email,
		employee.Phone,
		employee.Salary,
		employee.CreatedAt,
		employee.UpdatedAt,
	); err != nil {
		return types.Employee{}, err
	}
	return employee, nil
}

func (r *EmployeeRepository) Update(ctx context.Context, employee types.Employee) (types.Employee, error) {
	employee.UpdatedAt = time.Now()

	const query = `
		UPDATE employees
		SET name = $1,
			email = $2,
			phone = $3,
			salary = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		employee.Name,
		employee.Email,
		employee.Phone,
		employee.Salary,
		employee.UpdatedAt,
		employee.ID,
	)
	if err != nil {
		return types.Employee{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Employee{}, err
	}
	if affected == 0 {
		return types.Employee{}, ErrNotFound
	}
	return employee, nil
}

func (r *EmployeeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM employees WHERE id = $1`
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
