package auth

import (
	"fmt"
	"strings"
)

type User string

type Role string

type Roles []Role

func (roles Roles) Has(role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

type Permission string

type Permissions []Permission

// Action is a method and a path pattern, e.g. "GET /actuator/health/{any}".
type Action string

func (a Action) MethodPath() (method, resource string, err error) {
	methodPath := strings.SplitN(string(a), " ", 2)
	if len(methodPath) != 2 {
		err = fmt.Errorf("invalid action: %s", a)
		return
	}

	method = methodPath[0]
	resource = strings.Trim(methodPath[1], "/")

	return
}

type Actions []Action

type RolePermissions map[Role]Permissions

type PermissionActions map[Permission]Actions

type Policy struct {
	Roles       RolePermissions   `json:"roles" yaml:"roles"`
	Permissions PermissionActions `json:"permissions" yaml:"permissions"`
	Public      Actions           `json:"public" yaml:"public"`
}

type Claims struct {
	User      User
	Roles     Roles
	Additions map[string]any
}

const (
	claimUser  = "user"
	claimRoles = "roles"
)
