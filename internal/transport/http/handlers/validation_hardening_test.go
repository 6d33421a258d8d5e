package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestMutationEndpointsReturnValidationErrors(t *testing.T) {
	app, ts := startTestApp(t)
	defer app.Close()
	defer ts.Close()

	client := ts.Client()
	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	suffix := time.Now().UnixNano()
	employeeID := createEmployee(t, client, ts.URL, adminToken, "Validation Target", fmt.Sprintf("validation-%d@example.com", suffix))

	goalResp := sendJSONStatus(t, client, http.MethodPost, ts.URL+"/api/v1/goals", adminToken, map[string]any{
		"employeeId": employeeID,
		"title":      "Backwards goal",
		"startDate":  "2026-04-10",
		"endDate":    "2026-04-01",
		"progress":   150,
	}, http.StatusBadRequest)
	assertValidationErrorField(t, goalResp, "progress")
	assertValidationErrorField(t, goalResp, "startDate")
	assertValidationErrorField(t, goalResp, "endDate")

	reviewResp := sendJSONStatus(t, client, http.MethodPost, ts.URL+"/api/v1/reviews", adminToken, map[string]any{
		"employeeId": employeeID,
		"month":      "July-2026",
		"rating":     9,
	}, http.StatusBadRequest)
	assertValidationErrorField(t, reviewResp, "month")
	assertValidationErrorField(t, reviewResp, "rating")

	employeeResp := sendJSONStatus(t, client, http.MethodPost, ts.URL+"/api/v1/employees", adminToken, map[string]any{
		"email":  fmt.Sprintf("nameless-%d@example.com", suffix),
		"status": "on-vacation",
	}, http.StatusBadRequest)
	assertValidationErrorField(t, employeeResp, "name")
	assertValidationErrorField(t, employeeResp, "status")

	userResp := sendJSONStatus(t, client, http.MethodPost, ts.URL+"/api/v1/users", adminToken, map[string]any{
		"password": "short",
		"role":     "employee",
	}, http.StatusBadRequest)
	assertValidationErrorField(t, userResp, "name")
	assertValidationErrorField(t, userResp, "email")
	assertValidationErrorField(t, userResp, "password")

	orphanGoal := sendJSONStatus(t, client, http.MethodPost, ts.URL+"/api/v1/goals", adminToken, map[string]any{
		"employeeId": "00000000-0000-0000-0000-000000000000",
		"title":      "Goal for nobody",
	}, http.StatusBadRequest)
	if code := envelopeErrorCode(orphanGoal); code != "unknown_employee" {
		t.Fatalf("expected unknown_employee, got %q", code)
	}

	orphanUser := sendJSONStatus(t, client, http.MethodPost, ts.URL+"/api/v1/users", adminToken, map[string]any{
		"name":     "Unlinked Account",
		"email":    fmt.Sprintf("unlinked-%d@example.com", suffix),
		"password": "Unlinked123!",
		"role":     "employee",
	}, http.StatusBadRequest)
	if code := envelopeErrorCode(orphanUser); code != "employee_link_required" {
		t.Fatalf("expected employee_link_required, got %q", code)
	}
}

func envelopeErrorCode(env envelope) string {
	errMap, ok := env.Error.(map[string]any)
	if !ok {
		return ""
	}
	code, _ := errMap["code"].(string)
	return code
}

func assertValidationErrorField(t *testing.T, env envelope, field string) {
	t.Helper()
	if code := envelopeErrorCode(env); code != "validation_error" {
		t.Fatalf("expected validation_error, got %+v", env.Error)
	}
	errMap, ok := env.Error.(map[string]any)
	if !ok {
		t.Fatalf("expected error object, got %T", env.Error)
	}
	details, ok := errMap["details"].(map[string]any)
	if !ok {
		t.Fatalf("expected details object, got %+v", errMap["details"])
	}
	fieldsRaw, ok := details["fields"].([]any)
	if !ok {
		t.Fatalf("expected details.fields array, got %+v", details["fields"])
	}
	for _, item := range fieldsRaw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if value, _ := entry["field"].(string); value == field {
			return
		}
	}
	t.Fatalf("expected validation field %q in %+v", field, fieldsRaw)
}
