package performance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrGoalNotFound   = errors.New("goal not found")
	ErrReviewNotFound = errors.New("review not found")
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// ListGoals returns goals for one employee when employeeID is set, otherwise
// all goals.
func (s *Store) ListGoals(ctx context.Context, employeeID string) ([]Goal, error) {
	query := `
    SELECT id, employee_id, title, COALESCE(description, ''),
           COALESCE(start_date, '0001-01-01'), COALESCE(end_date, '0001-01-01'),
           status, progress, created_at
    FROM goals
  `
	args := []any{}
	if employeeID != "" {
		query += " WHERE employee_id = $1"
		args = append(args, employeeID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		var goal Goal
		if err := rows.Scan(&goal.ID, &goal.EmployeeID, &goal.Title, &goal.Description, &goal.StartDate, &goal.EndDate, &goal.Status, &goal.Progress, &goal.CreatedAt); err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

func (s *Store) GetGoal(ctx context.Context, goalID string) (*Goal, error) {
	var goal Goal
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, title, COALESCE(description, ''),
           COALESCE(start_date, '0001-01-01'), COALESCE(end_date, '0001-01-01'),
           status, progress, created_at
    FROM goals
    WHERE id = $1
  `, goalID).Scan(&goal.ID, &goal.EmployeeID, &goal.Title, &goal.Description, &goal.StartDate, &goal.EndDate, &goal.Status, &goal.Progress, &goal.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

func (s *Store) CreateGoal(ctx context.Context, goal Goal) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO goals (employee_id, title, description, start_date, end_date, status, progress)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING id
  `, goal.EmployeeID, goal.Title, nullIfEmpty(goal.Description), nullIfZeroTime(goal.StartDate), nullIfZeroTime(goal.EndDate), goal.Status, goal.Progress).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateGoal(ctx context.Context, goalID string, goal Goal) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE goals
    SET employee_id = $1,
        title = $2,
        description = $3,
        start_date = $4,
        end_date = $5,
        status = $6,
        progress = $7
    WHERE id = $8
  `, goal.EmployeeID, goal.Title, nullIfEmpty(goal.Description), nullIfZeroTime(goal.StartDate), nullIfZeroTime(goal.EndDate), goal.Status, goal.Progress, goalID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrGoalNotFound
	}
	return nil
}

func (s *Store) DeleteGoal(ctx context.Context, goalID string) error {
	cmd, err := s.DB.Exec(ctx, "DELETE FROM goals WHERE id = $1", goalID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrGoalNotFound
	}
	return nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullIfZeroTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value
}
