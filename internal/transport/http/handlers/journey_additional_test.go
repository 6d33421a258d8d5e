package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestEmployeeRecordScoping(t *testing.T) {
	app, ts := startTestApp(t)
	defer app.Close()
	defer ts.Close()

	client := ts.Client()
	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	suffix := time.Now().UnixNano()
	ownID := createEmployee(t, client, ts.URL, adminToken, "Scoped Self", fmt.Sprintf("scoped-self-%d@example.com", suffix))
	otherID := createEmployee(t, client, ts.URL, adminToken, "Scoped Other", fmt.Sprintf("scoped-other-%d@example.com", suffix))

	ownGoalID := createGoal(t, client, ts.URL, adminToken, ownID, "Own goal")
	otherGoalID := createGoal(t, client, ts.URL, adminToken, otherID, "Other goal")

	accountEmail := fmt.Sprintf("scoped-user-%d@example.com", suffix)
	accountPassword := "ScopedPass123"
	createUser(t, client, ts.URL, adminToken, "Scoped Self", accountEmail, accountPassword, "employee", ownID)
	employeeToken := login(t, client, ts.URL, accountEmail, accountPassword)

	// The collection narrows to the caller's own record instead of failing.
	list := getJSON(t, client, ts.URL+"/api/v1/employees", employeeToken)
	var employeesPayload []map[string]any
	if err := json.Unmarshal(list.Data, &employeesPayload); err != nil {
		t.Fatalf("failed to decode employees response: %v", err)
	}
	if len(employeesPayload) != 1 {
		t.Fatalf("expected employee to see only their own record, got %d", len(employeesPayload))
	}
	if got, _ := employeesPayload[0]["id"].(string); got != ownID {
		t.Fatalf("expected own record %s, got %s", ownID, got)
	}

	getJSON(t, client, ts.URL+"/api/v1/employees/"+ownID, employeeToken)
	getJSONStatus(t, client, ts.URL+"/api/v1/employees/"+otherID, employeeToken, http.StatusForbidden)

	// Asking for someone else's goals silently scopes back to your own.
	goalsList := getJSON(t, client, ts.URL+"/api/v1/goals?employeeId="+otherID, employeeToken)
	var goalsPayload []map[string]any
	if err := json.Unmarshal(goalsList.Data, &goalsPayload); err != nil {
		t.Fatalf("failed to decode goals response: %v", err)
	}
	if len(goalsPayload) == 0 {
		t.Fatal("expected at least the seeded own goal")
	}
	for _, goal := range goalsPayload {
		if got, _ := goal["employeeId"].(string); got != ownID {
			t.Fatalf("expected only own goals, found goal for %s", got)
		}
	}

	sendJSONStatus(t, client, http.MethodPut, ts.URL+"/api/v1/goals/"+ownGoalID, employeeToken, map[string]any{
		"progress": 50,
	}, http.StatusOK)
	sendJSONStatus(t, client, http.MethodPut, ts.URL+"/api/v1/goals/"+ownGoalID, employeeToken, map[string]any{
		"title": "Renamed by employee",
	}, http.StatusForbidden)
	sendJSONStatus(t, client, http.MethodPut, ts.URL+"/api/v1/goals/"+otherGoalID, employeeToken, map[string]any{
		"progress": 50,
	}, http.StatusForbidden)
	sendJSONStatus(t, client, http.MethodDelete, ts.URL+"/api/v1/goals/"+ownGoalID, employeeToken, nil, http.StatusForbidden)

	getJSONStatus(t, client, ts.URL+"/api/v1/users", employeeToken, http.StatusForbidden)
	getJSONStatus(t, client, ts.URL+"/api/v1/audit/events", employeeToken, http.StatusForbidden)
	getJSONStatus(t, client, ts.URL+"/api/v1/dashboard/report", employeeToken, http.StatusForbidden)
}

func TestEmployeeSelfEvaluation(t *testing.T) {
	app, ts := startTestApp(t)
	defer app.Close()
	defer ts.Close()

	client := ts.Client()
	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	suffix := time.Now().UnixNano()
	ownID := createEmployee(t, client, ts.URL, adminToken, "Self Reviewer", fmt.Sprintf("self-review-%d@example.com", suffix))
	otherID := createEmployee(t, client, ts.URL, adminToken, "Review Target", fmt.Sprintf("review-target-%d@example.com", suffix))

	accountEmail := fmt.Sprintf("self-review-user-%d@example.com", suffix)
	accountPassword := "SelfReview123"
	createUser(t, client, ts.URL, adminToken, "Self Reviewer", accountEmail, accountPassword, "employee", ownID)
	employeeToken := login(t, client, ts.URL, accountEmail, accountPassword)

	created := sendJSONStatus(t, client, http.MethodPost, ts.URL+"/api/v1/reviews", employeeToken, map[string]any{
		"employeeId": ownID,
		"month":      "2026-07",
		"rating":     4,
		"feedback":   "Solid quarter",
	}, http.StatusCreated)
	var createdPayload map[string]any
	if err := json.Unmarshal(created.Data, &createdPayload); err != nil {
		t.Fatalf("failed to decode review response: %v", err)
	}
	reviewID, _ := createdPayload["id"].(string)
	if reviewID == "" {
		t.Fatal("expected review id")
	}

	// Self-evaluations fall back to the employee's own name as reviewer.
	fetched := getJSON(t, client, ts.URL+"/api/v1/reviews/"+reviewID, employeeToken)
	var reviewPayload map[string]any
	if err := json.Unmarshal(fetched.Data, &reviewPayload); err != nil {
		t.Fatalf("failed to decode fetched review: %v", err)
	}
	if got, _ := reviewPayload["reviewerName"].(string); got != "Self Reviewer" {
		t.Fatalf("expected reviewer name to default to the employee, got %q", got)
	}

	sendJSONStatus(t, client, http.MethodPost, ts.URL+"/api/v1/reviews", employeeToken, map[string]any{
		"employeeId": otherID,
		"month":      "2026-07",
		"rating":     1,
	}, http.StatusForbidden)

	sendJSONStatus(t, client, http.MethodDelete, ts.URL+"/api/v1/reviews/"+reviewID, employeeToken, nil, http.StatusForbidden)
}

func TestManagerScope(t *testing.T) {
	app, ts := startTestApp(t)
	defer app.Close()
	defer ts.Close()

	client := ts.Client()
	adminToken := login(t, client, ts.URL, "admin@test.local", "ChangeMe123!")

	suffix := time.Now().UnixNano()
	managerEmail := fmt.Sprintf("manager-%d@example.com", suffix)
	managerPassword := "Manager123!"
	createUser(t, client, ts.URL, adminToken, "Manny Manager", managerEmail, managerPassword, "manager", "")
	managerToken := login(t, client, ts.URL, managerEmail, managerPassword)

	employeeID := createEmployee(t, client, ts.URL, managerToken, "Managed Employee", fmt.Sprintf("managed-%d@example.com", suffix))
	goalID := createGoal(t, client, ts.URL, managerToken, employeeID, "Manager assigned goal")
	createReview(t, client, ts.URL, managerToken, employeeID, "2026-07", 3)

	sendJSONStatus(t, client, http.MethodPut, ts.URL+"/api/v1/goals/"+goalID, managerToken, map[string]any{
		"title": "Manager renamed goal",
	}, http.StatusOK)

	// User administration stays admin-only.
	getJSONStatus(t, client, ts.URL+"/api/v1/users", managerToken, http.StatusForbidden)
	sendJSONStatus(t, client, http.MethodPost, ts.URL+"/api/v1/users", managerToken, map[string]any{
		"name":     "Sneaky Account",
		"email":    fmt.Sprintf("sneaky-%d@example.com", suffix),
		"password": "Sneaky123!",
		"role":     "admin",
	}, http.StatusForbidden)
	getJSONStatus(t, client, ts.URL+"/api/v1/audit/events", managerToken, http.StatusForbidden)

	// Managers do get the report surface.
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/dashboard/report", nil)
	if err != nil {
		t.Fatalf("failed to create report request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+managerToken)
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("report request failed: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for manager report, got %d", res.StatusCode)
	}
	if got := res.Header.Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", got)
	}
}
