// Package domain defines the capability model behind biscuit tokens: the closed set of
// permissions, the grant set with ALL absorption, identity and time constraints, and the
// policy text those render to and parse from.
package domain

import (
	"fmt"
	"strings"
)

// Permission is one of the closed set of grantable operations.
type Permission int

const (
	PermissionSelect Permission = iota + 1
	PermissionInsert
	PermissionUpdate
	PermissionDelete
	PermissionMerge
	PermissionCreate
	PermissionAlter
	PermissionDrop
	// PermissionAll grants every operation and absorbs any other permission.
	PermissionAll
)

var permissionNames = map[Permission]string{
	PermissionSelect: "SELECT",
	PermissionInsert: "INSERT",
	PermissionUpdate: "UPDATE",
	PermissionDelete: "DELETE",
	PermissionMerge:  "MERGE",
	PermissionCreate: "CREATE",
	PermissionAlter:  "ALTER",
	PermissionDrop:   "DROP",
	PermissionAll:    "ALL",
}

var permissionTags = map[Permission]string{
	PermissionSelect: "dql_select",
	PermissionInsert: "dml_insert",
	PermissionUpdate: "dml_update",
	PermissionDelete: "dml_delete",
	PermissionMerge:  "dml_merge",
	PermissionCreate: "ddl_create",
	PermissionAlter:  "ddl_alter",
	PermissionDrop:   "ddl_drop",
	PermissionAll:    "*",
}

// AllPermissions lists every permission in declaration order.
func AllPermissions() []Permission {
	return []Permission{
		PermissionSelect, PermissionInsert, PermissionUpdate, PermissionDelete,
		PermissionMerge, PermissionCreate, PermissionAlter, PermissionDrop, PermissionAll,
	}
}

// Name returns the upper-case name, e.g. "SELECT".
func (p Permission) Name() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PERMISSION(%d)", int(p))
}

// Tag returns the policy text tag, e.g. "dql_select".
func (p Permission) Tag() string {
	return permissionTags[p]
}

// String returns the permission name.
func (p Permission) String() string {
	return p.Name()
}

// Valid reports whether p is a member of the closed set.
func (p Permission) Valid() bool {
	_, ok := permissionTags[p]
	return ok
}

// ParsePermission accepts either a name ("select", case-insensitive) or a tag ("dql_select").
func ParsePermission(s string) (Permission, error) {
	value := strings.ToLower(strings.TrimSpace(s))
	for p, name := range permissionNames {
		if value == strings.ToLower(name) || value == permissionTags[p] {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPermission, s)
}

// ParsePermissions parses each value with ParsePermission.
func ParsePermissions(values ...string) ([]Permission, error) {
	perms := make([]Permission, 0, len(values))
	for _, v := range values {
		p, err := ParsePermission(v)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, nil
}
