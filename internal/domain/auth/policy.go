package auth

// The access policy is a pure decision function over the caller's identity
// and the record (or collection) a request wants to touch. Handlers translate
// Deny into a 403; the policy itself never errors.

type Action string

const (
	ActionRead       Action = "read"
	ActionWrite      Action = "write"
	ActionCreate     Action = "create"
	ActionDelete     Action = "delete"
	ActionCreateUser Action = "createUser"
)

type Resource string

const (
	ResourceEmployees Resource = "employees"
	ResourceGoals     Resource = "goals"
	ResourceReviews   Resource = "reviews"
	ResourceUsers     Resource = "users"
)

// Identity is the authenticated caller as the policy sees it. EmployeeID is
// empty when the user has no linked employee record.
type Identity struct {
	Role       Role
	EmployeeID string
}

// Target describes the object of a request: a whole collection, or a single
// record owned by EmployeeID. Fields lists the field names a write touches,
// so ownership-scoped writes can be restricted per field.
type Target struct {
	Resource   Resource
	EmployeeID string
	Collection bool
	Fields     []string
}

type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) Allowed() bool { return d == Allow }

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// goalSelfServeFields are the only goal fields an employee may change on
// their own record.
var goalSelfServeFields = map[string]bool{
	"progress": true,
	"status":   true,
}

// Decide evaluates the access rules in order; the first match wins and
// anything unmatched is denied.
func Decide(id Identity, action Action, target Target) Decision {
	switch id.Role {
	case RoleAdmin:
		return Allow
	case RoleManager:
		switch action {
		case ActionRead, ActionWrite, ActionCreate, ActionDelete:
			if target.Resource == ResourceUsers {
				return Deny
			}
			return Allow
		}
		return Deny
	case RoleEmployee:
		return decideEmployee(id, action, target)
	}
	return Deny
}

func decideEmployee(id Identity, action Action, target Target) Decision {
	owned := id.EmployeeID != "" && target.EmployeeID == id.EmployeeID

	switch action {
	case ActionRead:
		if target.Collection {
			return Deny
		}
		if owned {
			return Allow
		}
	case ActionWrite:
		if !owned {
			return Deny
		}
		switch target.Resource {
		case ResourceGoals:
			for _, field := range target.Fields {
				if !goalSelfServeFields[field] {
					return Deny
				}
			}
			return Allow
		case ResourceReviews:
			return Allow
		}
	case ActionCreate:
		if target.Resource == ResourceReviews && owned {
			return Allow
		}
	}
	return Deny
}
