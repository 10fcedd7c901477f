// Package gate is a small profile-based authorization checkpoint. A
// ProfileResolver turns a user into a Profile; the Gate grants an action on a
// resource type when the profile holds the matching "resource:action"
// permission. The package knows nothing about the domain models.
package gate

import "context"

// Gate is the central authorization checkpoint. U is the user type; its zero
// value means "nobody".
type Gate[U comparable] struct {
	resolver ProfileResolver[U]
}

func New[U comparable](resolver ProfileResolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver}
}

// Authorize returns ErrUnauthorized for the zero user and ErrForbidden when
// the user's profile does not grant resourceType:action.
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string) error {
	var zero U
	if user == zero {
		return ErrUnauthorized
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil || profile == nil {
		return ErrForbidden
	}
	if !profile.HasPermission(NewPermission(resourceType, action)) {
		return ErrForbidden
	}
	return nil
}

// Can is Authorize as a bool.
func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string) bool {
	return g.Authorize(ctx, user, action, resourceType) == nil
}

// Profile returns the user's profile, nil when there is none.
func (g *Gate[U]) Profile(ctx context.Context, user U) Profile {
	var zero U
	if user == zero {
		return nil
	}
	p, err := g.resolver.Resolve(ctx, user)
	if err != nil {
		return nil
	}
	return p
}
