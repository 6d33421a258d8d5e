package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"
)

type keyedResponse struct {
	status   int
	replayed bool
	data     map[string]any
	errCode  string
}

func TestEmployeeCreateIdempotencyReplay(t *testing.T) {
	app, ts := startTestApp(t)
	defer app.Close()
	defer ts.Close()

	client := ts.Client()
	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	suffix := time.Now().UnixNano()
	key := fmt.Sprintf("employee-create-%d", suffix)
	body := map[string]any{
		"name":       "Idempotent Employee",
		"email":      fmt.Sprintf("idempotent-%d@example.com", suffix),
		"title":      "Analyst",
		"department": "Finance",
		"status":     "active",
	}

	first := postWithKey(t, client, ts.URL+"/api/v1/employees", adminToken, key, body)
	if first.status != http.StatusCreated {
		t.Fatalf("expected 201 on first create, got %d", first.status)
	}
	if first.replayed {
		t.Fatal("first response must not be marked replayed")
	}
	firstID, _ := first.data["id"].(string)
	if firstID == "" {
		t.Fatal("expected employee id on first create")
	}

	second := postWithKey(t, client, ts.URL+"/api/v1/employees", adminToken, key, body)
	if second.status != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", second.status)
	}
	if !second.replayed {
		t.Fatal("expected Idempotency-Replayed header on repeat")
	}
	if gotID, _ := second.data["id"].(string); gotID != firstID {
		t.Fatalf("expected replay to return the original id %s, got %s", firstID, gotID)
	}

	// Same key with a different payload must be refused, not replayed.
	conflicting := map[string]any{
		"name":   "Different Person",
		"email":  fmt.Sprintf("different-%d@example.com", suffix),
		"status": "active",
	}
	third := postWithKey(t, client, ts.URL+"/api/v1/employees", adminToken, key, conflicting)
	if third.status != http.StatusConflict {
		t.Fatalf("expected 409 for key reuse with new payload, got %d", third.status)
	}
	if third.errCode != "idempotency_conflict" {
		t.Fatalf("expected idempotency_conflict, got %q", third.errCode)
	}

	// A fresh key with the original payload reaches the handler and trips
	// the real duplicate-email conflict.
	fourth := postWithKey(t, client, ts.URL+"/api/v1/employees", adminToken, key+"-fresh", body)
	if fourth.status != http.StatusConflict {
		t.Fatalf("expected 409 duplicate email, got %d", fourth.status)
	}
	if fourth.errCode != "employee_exists" {
		t.Fatalf("expected employee_exists, got %q", fourth.errCode)
	}
}

func TestReviewCreateIdempotencyReplay(t *testing.T) {
	app, ts := startTestApp(t)
	defer app.Close()
	defer ts.Close()

	client := ts.Client()
	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	suffix := time.Now().UnixNano()
	employeeID := createEmployee(t, client, ts.URL, adminToken, "Reviewed Once", fmt.Sprintf("reviewed-once-%d@example.com", suffix))

	key := fmt.Sprintf("review-create-%d", suffix)
	body := map[string]any{
		"employeeId":   employeeID,
		"month":        "2026-08",
		"rating":       4,
		"reviewerName": "Replay Admin",
	}

	first := postWithKey(t, client, ts.URL+"/api/v1/reviews", adminToken, key, body)
	if first.status != http.StatusCreated {
		t.Fatalf("expected 201 on first review, got %d", first.status)
	}
	second := postWithKey(t, client, ts.URL+"/api/v1/reviews", adminToken, key, body)
	if !second.replayed {
		t.Fatal("expected review create replay")
	}

	// The replay must not have written a second row.
	var count int
	if err := app.DB.QueryRow(context.Background(),
		"SELECT COUNT(1) FROM performance_reviews WHERE employee_id = $1 AND month = $2",
		employeeID, "2026-08").Scan(&count); err != nil {
		t.Fatalf("failed to count reviews: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single review row after replay, got %d", count)
	}
}

func postWithKey(t *testing.T, client *http.Client, url, token, key string, body any) keyedResponse {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", key)

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}

	var parsed struct {
		Data  map[string]any `json:"data"`
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("failed to decode response %q: %v", string(payload), err)
	}

	out := keyedResponse{
		status:   resp.StatusCode,
		replayed: resp.Header.Get("Idempotency-Replayed") == "true",
		data:     parsed.Data,
	}
	if parsed.Error != nil {
		out.errCode = parsed.Error.Code
	}
	return out
}
