package gate

import (
	"context"
	"slices"
)

// Profile is a named set of permissions.
type Profile interface {
	Name() string
	HasPermission(permission Permission) bool
	Permissions() []Permission
}

// ProfileResolver resolves a user to their profile. A nil profile with a
// nil error means the user has none.
type ProfileResolver[U any] interface {
	Resolve(ctx context.Context, user U) (Profile, error)
}

// StaticProfile is an in-memory profile.
type StaticProfile struct {
	name        string
	permissions map[Permission]bool
}

// NewStaticProfile creates a profile with the given permissions.
func NewStaticProfile(name string, permissions ...Permission) *StaticProfile {
	p := &StaticProfile{name: name, permissions: make(map[Permission]bool, len(permissions))}
	for _, perm := range permissions {
		p.permissions[perm] = true
	}
	return p
}

func (p *StaticProfile) Name() string { return p.name }

// Permissions returns the granted permissions in sorted order.
func (p *StaticProfile) Permissions() []Permission {
	perms := make([]Permission, 0, len(p.permissions))
	for perm := range p.permissions {
		perms = append(perms, perm)
	}
	slices.Sort(perms)
	return perms
}

// HasPermission checks requested against every grant, wildcards included.
func (p *StaticProfile) HasPermission(requested Permission) bool {
	for perm := range p.permissions {
		if perm.Matches(requested) {
			return true
		}
	}
	return false
}

// RoleResolver maps users to profiles by role name.
type RoleResolver[U any] struct {
	roleOf   func(U) string
	profiles map[string]Profile
}

// NewRoleResolver builds a resolver reading the role of a user with roleOf.
func NewRoleResolver[U any](roleOf func(U) string, profiles map[string]Profile) *RoleResolver[U] {
	return &RoleResolver[U]{roleOf: roleOf, profiles: profiles}
}

// Resolve returns the profile of the user's role, or nil for unknown roles.
func (r *RoleResolver[U]) Resolve(_ context.Context, user U) (Profile, error) {
	if p, ok := r.profiles[r.roleOf(user)]; ok {
		return p, nil
	}
	return nil, nil
}
