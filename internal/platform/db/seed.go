package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"perftrack/internal/domain/auth"
	"perftrack/internal/platform/config"
)

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensureUser(ctx, pool, "Administrator", cfg.SeedAdminEmail, cfg.SeedAdminPassword, auth.RoleAdmin, ""); err != nil {
		return err
	}

	if cfg.SeedDemoData {
		if err := seedDemoData(ctx, pool); err != nil {
			return err
		}
	}

	return nil
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, name, email, password string, role auth.Role, employeeID string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	var empID any
	if employeeID != "" {
		empID = employeeID
	}
	err = pool.QueryRow(ctx,
		"INSERT INTO users (name, email, password_hash, role, employee_id, is_active) VALUES ($1, $2, $3, $4, $5, TRUE) RETURNING id",
		name, email, hash, string(role), empID).Scan(&id)
	if err != nil {
		return err
	}
	return nil
}

func seedDemoData(ctx context.Context, pool *pgxpool.Pool) error {
	type demoGoal struct {
		title    string
		status   string
		progress int
	}
	type demoReview struct {
		month  string
		rating int
	}
	demo := []struct {
		name       string
		email      string
		title      string
		department string
		goals      []demoGoal
		reviews    []demoReview
	}{
		{
			name: "Alice Johnson", email: "alice.johnson@example.com",
			title: "Software Engineer", department: "Engineering",
			goals: []demoGoal{
				{"Ship reporting dashboard", "completed", 100},
				{"Reduce flaky test rate", "in-progress", 60},
			},
			reviews: []demoReview{{"2026-06", 5}, {"2026-07", 4}},
		},
		{
			name: "Bob Smith", email: "bob.smith@example.com",
			title: "Sales Associate", department: "Sales",
			goals: []demoGoal{
				{"Close Q3 pipeline", "in-progress", 40},
			},
			reviews: []demoReview{{"2026-07", 3}},
		},
		{
			name: "Carol Diaz", email: "carol.diaz@example.com",
			title: "Product Manager", department: "Product",
			goals: []demoGoal{
				{"Launch onboarding revamp", "planned", 0},
			},
			reviews: nil,
		},
	}

	for _, d := range demo {
		empID, err := ensureEmployee(ctx, pool, d.name, d.email, d.title, d.department)
		if err != nil {
			return err
		}
		for _, g := range d.goals {
			if err := ensureGoal(ctx, pool, empID, g.title, g.status, g.progress); err != nil {
				return err
			}
		}
		for _, r := range d.reviews {
			if err := ensureReview(ctx, pool, empID, r.month, r.rating); err != nil {
				return err
			}
		}
	}

	var aliceID string
	if err := pool.QueryRow(ctx, "SELECT id FROM employees WHERE email = $1", "alice.johnson@example.com").Scan(&aliceID); err == nil {
		if err := ensureUser(ctx, pool, "Alice Johnson", "alice.johnson@example.com", "alice-demo-password", auth.RoleEmployee, aliceID); err != nil {
			return err
		}
	}
	if err := ensureUser(ctx, pool, "Morgan Lee", "morgan.lee@example.com", "morgan-demo-password", auth.RoleManager, ""); err != nil {
		return err
	}

	return nil
}

func ensureEmployee(ctx context.Context, pool *pgxpool.Pool, name, email, title, department string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM employees WHERE email = $1", email).Scan(&id)
	if err == nil {
		return id, nil
	}

	err = pool.QueryRow(ctx,
		"INSERT INTO employees (name, email, title, department, status) VALUES ($1, $2, $3, $4, 'active') RETURNING id",
		name, email, title, department).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func ensureGoal(ctx context.Context, pool *pgxpool.Pool, employeeID, title, status string, progress int) error {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM goals WHERE employee_id = $1 AND title = $2", employeeID, title).Scan(&id)
	if err == nil {
		return nil
	}

	_, err = pool.Exec(ctx,
		"INSERT INTO goals (employee_id, title, description, start_date, end_date, status, progress) VALUES ($1, $2, '', now() - interval '30 days', now() + interval '60 days', $3, $4)",
		employeeID, title, status, progress)
	return err
}

func ensureReview(ctx context.Context, pool *pgxpool.Pool, employeeID, month string, rating int) error {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM performance_reviews WHERE employee_id = $1 AND month = $2", employeeID, month).Scan(&id)
	if err == nil {
		return nil
	}

	_, err = pool.Exec(ctx,
		"INSERT INTO performance_reviews (employee_id, month, rating, feedback, reviewer_name) VALUES ($1, $2, $3, 'Seeded review', 'System')",
		employeeID, month, rating)
	return err
}
