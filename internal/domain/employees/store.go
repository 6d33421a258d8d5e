package employees

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("employee not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (*Employee, error) {
	var emp Employee
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, email, COALESCE(title, ''), COALESCE(department, ''), status, created_at
    FROM employees
    WHERE id = $1
  `, employeeID).Scan(&emp.ID, &emp.Name, &emp.Email, &emp.Title, &emp.Department, &emp.Status, &emp.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (s *Store) ListEmployees(ctx context.Context, limit, offset int) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, email, COALESCE(title, ''), COALESCE(department, ''), status, created_at
    FROM employees
    ORDER BY name
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var emp Employee
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.Email, &emp.Title, &emp.Department, &emp.Status, &emp.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

// ListAllEmployees skips pagination for the dashboard, where recognition
// must rank the whole roster.
func (s *Store) ListAllEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, email, COALESCE(title, ''), COALESCE(department, ''), status, created_at
    FROM employees
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var emp Employee
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.Email, &emp.Title, &emp.Department, &emp.Status, &emp.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (s *Store) CreateEmployee(ctx context.Context, emp Employee) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (name, email, title, department, status)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING id
  `, emp.Name, emp.Email, nullIfEmpty(emp.Title), nullIfEmpty(emp.Department), emp.Status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, employeeID string, emp Employee) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET name = $1,
        email = $2,
        title = $3,
        department = $4,
        status = $5
    WHERE id = $6
  `, emp.Name, emp.Email, nullIfEmpty(emp.Title), nullIfEmpty(emp.Department), emp.Status, employeeID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteEmployee(ctx context.Context, employeeID string) error {
	cmd, err := s.DB.Exec(ctx, "DELETE FROM employees WHERE id = $1", employeeID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) EmployeeExists(ctx context.Context, employeeID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE id = $1", employeeID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
