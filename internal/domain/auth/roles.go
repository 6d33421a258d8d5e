package auth

import "fmt"

// Role is the closed set of caller roles. Policy decisions switch
// exhaustively over these values; anything unknown fails closed.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleAdmin, RoleManager, RoleEmployee:
		return Role(value), nil
	}
	return "", fmt.Errorf("unknown role %q", value)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}
