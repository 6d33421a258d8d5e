package notifications

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("notification not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Create(ctx context.Context, userID, ntype, title, body string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (user_id, type, title, body)
    VALUES ($1,$2,$3,$4)
  `, userID, ntype, title, body)
	return err
}

func (s *Store) List(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, type, title, body, read_at, created_at
    FROM notifications
    WHERE user_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) UnreadCount(ctx context.Context, userID string) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM notifications WHERE user_id = $1 AND read_at IS NULL",
		userID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) MarkRead(ctx context.Context, userID, notificationID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = COALESCE(read_at, now())
    WHERE user_id = $1 AND id = $2
  `, userID, notificationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = now()
    WHERE user_id = $1 AND read_at IS NULL
  `, userID)
	return err
}

func (s *Store) userEmail(ctx context.Context, userID string) (string, error) {
	var email string
	if err := s.DB.QueryRow(ctx, "SELECT email FROM users WHERE id = $1", userID).Scan(&email); err != nil {
		return "", err
	}
	return email, nil
}

// userIDForEmployee returns the id of the account linked to an employee
// record, or empty when the employee has no login.
func (s *Store) userIDForEmployee(ctx context.Context, employeeID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx,
		"SELECT COALESCE(MIN(id::text), '') FROM users WHERE employee_id = $1",
		employeeID).Scan(&id)
	return id, err
}
