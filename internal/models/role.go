package models

import (
	"fmt"
	"strings"
)

// Role is the access level attached to a Profile.
type Role string

const (
	RoleNone       Role = ""
	RoleCustomer   Role = "customer"
	RoleAdmin      Role = "admin"
	RoleManagement Role = "management"
	RoleDeveloper  Role = "developer"
)

// privilege orders roles from least to most privileged.
var privilege = map[Role]int{
	RoleNone:       0,
	RoleCustomer:   1,
	RoleAdmin:      2,
	RoleManagement: 3,
	RoleDeveloper:  4,
}

// ParseRole accepts the canonical role names plus the legacy aliases the
// portal used before the roles were renamed.
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "customer", "user", "cliente":
		return RoleCustomer, nil
	case "admin":
		return RoleAdmin, nil
	case "management", "gestao":
		return RoleManagement, nil
	case "developer", "dev":
		return RoleDeveloper, nil
	default:
		return RoleNone, fmt.Errorf("unknown role %q", raw)
	}
}

func (r Role) Valid() bool {
	_, ok := privilege[r]
	return ok && r != RoleNone
}

// Allows reports whether an actor holding role actor may see something that
// requires role required. RoleNone as the requirement means "anyone".
func Allows(actor, required Role) bool {
	if required == RoleNone {
		return true
	}
	have, ok := privilege[actor]
	if !ok {
		return false
	}
	need, ok := privilege[required]
	if !ok {
		return false
	}
	return have >= need
}
