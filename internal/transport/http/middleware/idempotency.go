package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"perftrack/internal/transport/http/api"
)

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

const maxIdempotencyBody = 1 << 20

type IdempotencyStore struct {
	db *pgxpool.Pool
}

func NewIdempotencyStore(db *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

type storedResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

func requestHash(method, path string, body []byte) string {
	sum := sha256.New()
	sum.Write([]byte(method))
	sum.Write([]byte{0})
	sum.Write([]byte(path))
	sum.Write([]byte{0})
	sum.Write(body)
	return hex.EncodeToString(sum.Sum(nil))
}

func (s *IdempotencyStore) check(ctx context.Context, userID, key, hash string) (*storedResponse, error) {
	var storedHash string
	resp := &storedResponse{}
	err := s.db.QueryRow(ctx, `
    SELECT request_hash, status, content_type, response_body
    FROM idempotency_keys
    WHERE user_id = $1 AND key = $2
  `, userID, key).Scan(&storedHash, &resp.Status, &resp.ContentType, &resp.Body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if storedHash != hash {
		return nil, ErrIdempotencyConflict
	}
	return resp, nil
}

func (s *IdempotencyStore) save(ctx context.Context, userID, key, hash string, resp storedResponse) error {
	tag, err := s.db.Exec(ctx, `
    INSERT INTO idempotency_keys (user_id, key, request_hash, status, content_type, response_body)
    VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (user_id, key)
    DO UPDATE SET status = EXCLUDED.status,
                  content_type = EXCLUDED.content_type,
                  response_body = EXCLUDED.response_body
    WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
  `, userID, key, hash, resp.Status, resp.ContentType, resp.Body)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *captureWriter) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(p []byte) (int, error) {
	c.body.Write(p)
	return c.ResponseWriter.Write(p)
}

// Idempotency makes mutating requests replay-safe: a repeated
// Idempotency-Key with the same payload returns the stored response, a
// repeated key with a different payload is rejected.
func Idempotency(store *IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil || store.db == nil {
				next.ServeHTTP(w, r)
				return
			}
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodDelete {
				next.ServeHTTP(w, r)
				return
			}
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, ok := GetUser(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			var body []byte
			if r.Body != nil {
				raw, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotencyBody))
				if err != nil {
					api.Fail(w, http.StatusBadRequest, "invalid_body", "could not read request body", GetRequestID(r.Context()))
					return
				}
				body = raw
				r.Body = io.NopCloser(bytes.NewReader(raw))
			}
			hash := requestHash(r.Method, r.URL.Path, body)

			stored, err := store.check(r.Context(), user.UserID, key, hash)
			if errors.Is(err, ErrIdempotencyConflict) {
				api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key already used with a different request", GetRequestID(r.Context()))
				return
			}
			if err != nil {
				slog.Warn("idempotency lookup failed", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if stored != nil {
				w.Header().Set("Idempotency-Replayed", "true")
				if stored.ContentType != "" {
					w.Header().Set("Content-Type", stored.ContentType)
				}
				w.WriteHeader(stored.Status)
				w.Write(stored.Body)
				return
			}

			capture := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)

			// 5xx responses are not recorded so the client can retry.
			if capture.status >= 500 {
				return
			}
			resp := storedResponse{
				Status:      capture.status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			}
			if err := store.save(r.Context(), user.UserID, key, hash, resp); err != nil && !errors.Is(err, ErrIdempotencyConflict) {
				slog.Warn("idempotency save failed", "err", err)
			}
		})
	}
}
