package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// AuthUser carries everything login needs in one lookup, including inactive
// accounts so the handler can answer 403 instead of 401 for them.
type AuthUser struct {
	ID           string
	Name         string
	Role         Role
	EmployeeID   string
	PasswordHash string
	IsActive     bool
	MFAEnabled   bool
	MFASecretEnc []byte
}

type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	EmployeeID string    `json:"employeeId,omitempty"`
	IsActive   bool      `json:"isActive"`
	MFAEnabled bool      `json:"mfaEnabled"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var out AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, role, COALESCE(employee_id::text, ''), password_hash, is_active, mfa_enabled, mfa_secret_enc
    FROM users
    WHERE email = $1
  `, email).Scan(&out.ID, &out.Name, &out.Role, &out.EmployeeID, &out.PasswordHash, &out.IsActive, &out.MFAEnabled, &out.MFASecretEnc)
	return out, err
}

func (s *Store) GetUser(ctx context.Context, userID string) (User, error) {
	var out User
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, email, role, COALESCE(employee_id::text, ''), is_active, mfa_enabled, created_at
    FROM users
    WHERE id = $1
  `, userID).Scan(&out.ID, &out.Name, &out.Email, &out.Role, &out.EmployeeID, &out.IsActive, &out.MFAEnabled, &out.CreatedAt)
	return out, err
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, email, role, COALESCE(employee_id::text, ''), is_active, mfa_enabled, created_at
    FROM users
    ORDER BY created_at DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.EmployeeID, &u.IsActive, &u.MFAEnabled, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string, role Role, employeeID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (name, email, password_hash, role, employee_id, is_active)
    VALUES ($1, $2, $3, $4, $5, TRUE)
    RETURNING id
  `, name, email, passwordHash, string(role), nullIfEmpty(employeeID)).Scan(&id)
	return id, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login_at = now() WHERE id = $1", userID)
	return err
}

// CreateSession stores a refresh token hash and returns the session id.
// Access tokens carry the id, so refresh rotation does not log users out.
func (s *Store) CreateSession(ctx context.Context, userID, tokenHash string, expires time.Time) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO sessions (user_id, refresh_token, expires_at)
    VALUES ($1, $2, $3)
    RETURNING id
  `, userID, tokenHash, expires).Scan(&id)
	return id, err
}

func (s *Store) SessionAlive(ctx context.Context, sessionID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM sessions
    WHERE id = $1 AND expires_at > now() AND revoked_at IS NULL
  `, sessionID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// SessionByToken resolves an unexpired, unrevoked session from a refresh
// token hash.
func (s *Store) SessionByToken(ctx context.Context, tokenHash string) (sessionID, userID string, err error) {
	err = s.DB.QueryRow(ctx, `
    SELECT id, user_id
    FROM sessions
    WHERE refresh_token = $1 AND expires_at > now() AND revoked_at IS NULL
  `, tokenHash).Scan(&sessionID, &userID)
	return sessionID, userID, err
}

func (s *Store) RotateSession(ctx context.Context, sessionID, newHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE sessions
    SET refresh_token = $1, expires_at = $2, rotated_at = now()
    WHERE id = $3
  `, newHash, expires, sessionID)
	return err
}

func (s *Store) RevokeSession(ctx context.Context, sessionID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE id = $1", sessionID)
	return err
}

func (s *Store) RevokeAllSessions(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL", userID)
	return err
}

func (s *Store) UpdateMFASecret(ctx context.Context, userID string, secretEnc []byte) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_secret_enc = $1, mfa_enabled = FALSE WHERE id = $2", secretEnc, userID)
	return err
}

func (s *Store) GetMFASecret(ctx context.Context, userID string) ([]byte, error) {
	var secretEnc []byte
	if err := s.DB.QueryRow(ctx, "SELECT mfa_secret_enc FROM users WHERE id = $1", userID).Scan(&secretEnc); err != nil {
		return nil, err
	}
	return secretEnc, nil
}

func (s *Store) SetMFAEnabled(ctx context.Context, userID string, enabled bool) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_enabled = $1 WHERE id = $2", enabled, userID)
	return err
}

func (s *Store) UserIDByEmail(ctx context.Context, email string) (string, error) {
	var userID string
	if err := s.DB.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&userID); err != nil {
		return "", err
	}
	return userID, nil
}

// UserIDByEmployeeID finds the account linked to an employee record, if any.
func (s *Store) UserIDByEmployeeID(ctx context.Context, employeeID string) (string, error) {
	var userID string
	if err := s.DB.QueryRow(ctx, "SELECT id FROM users WHERE employee_id = $1", employeeID).Scan(&userID); err != nil {
		return "", err
	}
	return userID, nil
}

func (s *Store) CreatePasswordReset(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, "INSERT INTO password_resets (user_id, token, expires_at) VALUES ($1, $2, $3)", userID, tokenHash, expires)
	return err
}

func (s *Store) PasswordResetUserID(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx, `
    SELECT user_id
    FROM password_resets
    WHERE token = $1 AND expires_at > now() AND used_at IS NULL
  `, tokenHash).Scan(&userID)
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, userID, hash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET password_hash = $1 WHERE id = $2", hash, userID)
	return err
}

func (s *Store) MarkPasswordResetUsed(ctx context.Context, tokenHash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE password_resets SET used_at = now() WHERE token = $1", tokenHash)
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
