package notifications

import (
	"context"
	"log/slog"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	Store        *Store
	Mailer       Mailer
	From         string
	EmailEnabled bool
}

func New(store *Store, mailer Mailer, from string, emailEnabled bool) *Service {
	if from == "" {
		from = "no-reply@example.com"
	}
	return &Service{Store: store, Mailer: mailer, From: from, EmailEnabled: emailEnabled}
}

// Notify records an in-app notification and, when email delivery is
// enabled, mails a copy. Email failures are logged, never surfaced.
func (s *Service) Notify(ctx context.Context, userID, ntype, title, body string) error {
	if err := s.Store.Create(ctx, userID, ntype, title, body); err != nil {
		return err
	}

	if s.Mailer == nil || !s.EmailEnabled {
		return nil
	}

	email, err := s.Store.userEmail(ctx, userID)
	if err != nil {
		slog.Warn("notification email lookup failed", "user", userID, "err", err)
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, s.From, email, title, body); err != nil {
		slog.Warn("notification email send failed", "user", userID, "err", err)
	}
	return nil
}

// NotifyEmployee delivers to the account linked to an employee record.
// Employees without a login are skipped silently.
func (s *Service) NotifyEmployee(ctx context.Context, employeeID, ntype, title, body string) error {
	userID, err := s.Store.userIDForEmployee(ctx, employeeID)
	if err != nil {
		return err
	}
	if userID == "" {
		return nil
	}
	return s.Notify(ctx, userID, ntype, title, body)
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	return s.Store.List(ctx, userID, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.Store.UnreadCount(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.Store.MarkRead(ctx, userID, notificationID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	return s.Store.MarkAllRead(ctx, userID)
}
