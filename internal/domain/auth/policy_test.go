package auth

import "testing"

func TestAdminAllowsEverything(t *testing.T) {
	admin := Identity{Role: RoleAdmin}
	actions := []Action{ActionRead, ActionWrite, ActionCreate, ActionDelete, ActionCreateUser}
	resources := []Resource{ResourceEmployees, ResourceGoals, ResourceReviews, ResourceUsers}

	for _, action := range actions {
		for _, resource := range resources {
			if !Decide(admin, action, Target{Resource: resource, EmployeeID: "e1"}).Allowed() {
				t.Fatalf("admin denied %s on %s", action, resource)
			}
			if !Decide(admin, action, Target{Resource: resource, Collection: true}).Allowed() {
				t.Fatalf("admin denied %s on %s collection", action, resource)
			}
		}
	}
}

func TestManagerAllowsRecordOperationsButNotCreateUser(t *testing.T) {
	manager := Identity{Role: RoleManager}

	for _, action := range []Action{ActionRead, ActionWrite, ActionCreate, ActionDelete} {
		for _, resource := range []Resource{ResourceEmployees, ResourceGoals, ResourceReviews} {
			if !Decide(manager, action, Target{Resource: resource, EmployeeID: "someone-else"}).Allowed() {
				t.Fatalf("manager denied %s on %s", action, resource)
			}
		}
	}

	if Decide(manager, ActionCreateUser, Target{Resource: ResourceUsers}).Allowed() {
		t.Fatal("manager must not create users")
	}
	if Decide(manager, ActionRead, Target{Resource: ResourceUsers, Collection: true}).Allowed() {
		t.Fatal("manager must not read user accounts")
	}
}

func TestEmployeeReadOwnRecordsOnly(t *testing.T) {
	emp := Identity{Role: RoleEmployee, EmployeeID: "e1"}

	for _, resource := range []Resource{ResourceEmployees, ResourceGoals, ResourceReviews} {
		if !Decide(emp, ActionRead, Target{Resource: resource, EmployeeID: "e1"}).Allowed() {
			t.Fatalf("employee denied read on own %s", resource)
		}
		if Decide(emp, ActionRead, Target{Resource: resource, EmployeeID: "e2"}).Allowed() {
			t.Fatalf("employee allowed read on foreign %s", resource)
		}
	}

	if Decide(emp, ActionRead, Target{Resource: ResourceEmployees, Collection: true}).Allowed() {
		t.Fatal("employee allowed to list all employees")
	}
}

func TestEmployeeGoalWriteRestrictedToProgressAndStatus(t *testing.T) {
	emp := Identity{Role: RoleEmployee, EmployeeID: "e1"}

	allowed := Target{Resource: ResourceGoals, EmployeeID: "e1", Fields: []string{"progress", "status"}}
	if !Decide(emp, ActionWrite, allowed).Allowed() {
		t.Fatal("employee denied progress/status update on own goal")
	}

	blocked := Target{Resource: ResourceGoals, EmployeeID: "e1", Fields: []string{"progress", "title"}}
	if Decide(emp, ActionWrite, blocked).Allowed() {
		t.Fatal("employee allowed to change goal title")
	}

	foreign := Target{Resource: ResourceGoals, EmployeeID: "e2", Fields: []string{"progress"}}
	if Decide(emp, ActionWrite, foreign).Allowed() {
		t.Fatal("employee allowed to update a foreign goal")
	}
}

func TestEmployeeSelfEvaluation(t *testing.T) {
	emp := Identity{Role: RoleEmployee, EmployeeID: "e1"}

	if !Decide(emp, ActionCreate, Target{Resource: ResourceReviews, EmployeeID: "e1"}).Allowed() {
		t.Fatal("employee denied self-evaluation")
	}
	if Decide(emp, ActionCreate, Target{Resource: ResourceReviews, EmployeeID: "e2"}).Allowed() {
		t.Fatal("employee allowed to review someone else")
	}
	if !Decide(emp, ActionWrite, Target{Resource: ResourceReviews, EmployeeID: "e1"}).Allowed() {
		t.Fatal("employee denied update of own review")
	}
	if Decide(emp, ActionCreate, Target{Resource: ResourceGoals, EmployeeID: "e1"}).Allowed() {
		t.Fatal("employee allowed to create goals")
	}
}

func TestEmployeeDeniedMutationsAndUserManagement(t *testing.T) {
	emp := Identity{Role: RoleEmployee, EmployeeID: "e1"}

	if Decide(emp, ActionDelete, Target{Resource: ResourceGoals, EmployeeID: "e1"}).Allowed() {
		t.Fatal("employee allowed to delete own goal")
	}
	if Decide(emp, ActionWrite, Target{Resource: ResourceEmployees, EmployeeID: "e1"}).Allowed() {
		t.Fatal("employee allowed to edit own employee record")
	}
	if Decide(emp, ActionCreateUser, Target{Resource: ResourceUsers}).Allowed() {
		t.Fatal("employee allowed to create users")
	}
}

func TestFailClosed(t *testing.T) {
	if Decide(Identity{Role: Role("auditor")}, ActionRead, Target{Resource: ResourceGoals, EmployeeID: "e1"}).Allowed() {
		t.Fatal("unknown role must be denied")
	}

	// An employee account without a linked employee record owns nothing,
	// even when the target carries an empty owner too.
	unlinked := Identity{Role: RoleEmployee}
	if Decide(unlinked, ActionRead, Target{Resource: ResourceGoals}).Allowed() {
		t.Fatal("unlinked employee matched empty owner")
	}

	if Decide(Identity{}, ActionRead, Target{Resource: ResourceGoals, EmployeeID: "e1"}).Allowed() {
		t.Fatal("zero identity must be denied")
	}
}

func TestParseRole(t *testing.T) {
	for _, value := range []string{"admin", "manager", "employee"} {
		role, err := ParseRole(value)
		if err != nil {
			t.Fatalf("expected %s to parse, got %v", value, err)
		}
		if string(role) != value {
			t.Fatalf("role mismatch: %s != %s", role, value)
		}
	}

	if _, err := ParseRole("superuser"); err == nil {
		t.Fatal("expected unknown role to fail")
	}
}
