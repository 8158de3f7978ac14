// Package authz models the closed role set and the capability checks every
// operation states explicitly, instead of ad-hoc role-string comparisons
// scattered through handlers.
package authz

import (
	"context"
	"errors"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Role is the closed set of account roles.
type Role string

const (
	RolePlayer        Role = "player"
	RoleFacilityOwner Role = "facility_owner"
	RoleAdmin         Role = "admin"
)

// ParseRole maps a stored role string onto the closed set.
func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case RolePlayer, RoleFacilityOwner, RoleAdmin:
		return Role(value), true
	}
	return "", false
}

// AuthUser is the authenticated identity the session layer supplies. The
// core trusts it; credential verification happens at the boundary.
type AuthUser struct {
	ID   int64
	Role Role
}

type userContextKey struct{}

func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the AuthUser stored in ctx. It returns nil if
// ctx is nil, if no user is stored, or if the stored value has a different
// type.
func UserFromContext(ctx context.Context) *AuthUser {
	if ctx == nil {
		return nil
	}
	user, ok := ctx.Value(userContextKey{}).(*AuthUser)
	if !ok {
		return nil
	}
	return user
}

// RequireRole checks that the context carries an authenticated user with one
// of the given roles. Admins pass every role check.
func RequireRole(ctx context.Context, roles ...Role) error {
	user := UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}
	if user.Role == RoleAdmin {
		return nil
	}
	for _, role := range roles {
		if user.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

// RequireAuthenticated checks only that a user is present.
func RequireAuthenticated(ctx context.Context) (*AuthUser, error) {
	user := UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// RequireVenueOwner grants access to the venue's owner (and admins).
func RequireVenueOwner(ctx context.Context, venueOwnerID int64) error {
	user := UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}
	if user.Role == RoleAdmin || user.ID == venueOwnerID {
		return nil
	}
	return ErrForbidden
}

// RequireBookingOwner grants access to the user who made the booking (and
// admins). Cancellation uses this: venue owners may NOT cancel on a
// player's behalf.
func RequireBookingOwner(ctx context.Context, bookingUserID int64) error {
	user := UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}
	if user.Role == RoleAdmin || user.ID == bookingUserID {
		return nil
	}
	return ErrForbidden
}

// RequireBookingAccess grants access to either the booker or the venue
// owner (and admins). Read views and completion use this.
func RequireBookingAccess(ctx context.Context, bookingUserID, venueOwnerID int64) error {
	user := UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}
	if user.Role == RoleAdmin || user.ID == bookingUserID || user.ID == venueOwnerID {
		return nil
	}
	return ErrForbidden
}
