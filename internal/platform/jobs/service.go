package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"perftrack/internal/platform/config"
)

const (
	JobSessionSweep     = "session_sweep"
	JobIdempotencySweep = "idempotency_sweep"
)

type Service struct {
	DB    *pgxpool.Pool
	Cfg   config.Config
	queue chan job
}

type job struct {
	Name string
	Run  func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, cfg config.Config) *Service {
	return &Service{
		DB:    db,
		Cfg:   cfg,
		queue: make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.SweepInterval > 0 {
		go s.schedule(ctx, s.Cfg.SweepInterval)
	}
}

// EnqueueNamed queues one of the known maintenance jobs by name.
func (s *Service) EnqueueNamed(name string) error {
	run, ok := s.known()[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	s.enqueue(name, run)
	return nil
}

func (s *Service) KnownJobs() []string {
	return []string{JobSessionSweep, JobIdempotencySweep}
}

func (s *Service) known() map[string]func(context.Context) (any, error) {
	return map[string]func(context.Context) (any, error){
		JobSessionSweep:     s.sweepSessions,
		JobIdempotencySweep: s.sweepIdempotency,
	}
}

func (s *Service) enqueue(name string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Name: name, Run: run}:
	default:
		slog.Warn("job queue full", "job", name)
	}
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "job", j.Name, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) error {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (name, status)
    VALUES ($1, 'running')
    RETURNING id
  `, j.Name).Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
		details = map[string]any{"error": err.Error()}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, finished_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return err
}

func (s *Service) schedule(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueue(JobSessionSweep, s.sweepSessions)
			s.enqueue(JobIdempotencySweep, s.sweepIdempotency)
		}
	}
}

func (s *Service) sweepSessions(ctx context.Context) (any, error) {
	cutoff := time.Now().Add(-s.Cfg.SessionRetention)

	sessions, err := s.DB.Exec(ctx, `
    DELETE FROM sessions
    WHERE expires_at < $1 OR (revoked_at IS NOT NULL AND revoked_at < $1)
  `, cutoff)
	if err != nil {
		return nil, err
	}

	resets, err := s.DB.Exec(ctx, `
    DELETE FROM password_resets
    WHERE expires_at < now() OR used_at IS NOT NULL
  `)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"sessionsDeleted": sessions.RowsAffected(),
		"resetsDeleted":   resets.RowsAffected(),
	}, nil
}

func (s *Service) sweepIdempotency(ctx context.Context) (any, error) {
	cutoff := time.Now().Add(-s.Cfg.IdempotencyRetention)
	tag, err := s.DB.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	if err != nil {
		return nil, err
	}
	return map[string]any{"keysDeleted": tag.RowsAffected()}, nil
}

type Run struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	Details    string     `json:"details"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

func (s *Service) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, status, COALESCE(details_json::text, '{}'), started_at, finished_at
    FROM job_runs
    ORDER BY started_at DESC
    LIMIT $1
  `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Name, &r.Status, &r.Details, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
