package gate

import "strings"

// Permission represents an allowed action on a resource type.
// Format: "resource:action" (e.g. "sites:create", "activities:export").
type Permission string

// NewPermission creates a permission from resource type and action.
func NewPermission(resourceType string, action Action) Permission {
	return Permission(resourceType + ":" + string(action))
}

// Parse splits a permission into resource type and action.
func (p Permission) Parse() (resourceType string, action Action) {
	res, act, ok := strings.Cut(string(p), ":")
	if !ok {
		return "", ""
	}
	return res, Action(act)
}

const (
	WildcardAll                     = "*"
	PermissionSuperAdmin Permission = "*:*"
)

// Matches reports whether p grants requested. "*:*" matches everything,
// "sites:*" every action on sites and "*:view" view on every resource.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionSuperAdmin || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, reqAct := requested.Parse()
	if res == "" || reqRes == "" {
		return false
	}
	return (res == reqRes || res == WildcardAll) && (act == reqAct || string(act) == WildcardAll)
}
