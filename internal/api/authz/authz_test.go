package authz

import (
	"context"
	"errors"
	"testing"
)

func ctxWith(user *AuthUser) context.Context {
	return ContextWithUser(context.Background(), user)
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"player", "facility_owner", "admin"} {
		if _, ok := ParseRole(valid); !ok {
			t.Fatalf("ParseRole(%q) should succeed", valid)
		}
	}
	for _, invalid := range []string{"", "owner", "Player", "staff"} {
		if _, ok := ParseRole(invalid); ok {
			t.Fatalf("ParseRole(%q) should fail", invalid)
		}
	}
}

func TestUserFromContext(t *testing.T) {
	if UserFromContext(context.Background()) != nil {
		t.Fatal("empty context should have no user")
	}
	user := &AuthUser{ID: 7, Role: RolePlayer}
	if got := UserFromContext(ctxWith(user)); got != user {
		t.Fatalf("got %+v, want %+v", got, user)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		user    *AuthUser
		roles   []Role
		wantErr error
	}{
		{"unauthenticated", nil, []Role{RolePlayer}, ErrUnauthenticated},
		{"matching role", &AuthUser{ID: 1, Role: RoleFacilityOwner}, []Role{RoleFacilityOwner}, nil},
		{"wrong role", &AuthUser{ID: 1, Role: RolePlayer}, []Role{RoleFacilityOwner}, ErrForbidden},
		{"admin passes any check", &AuthUser{ID: 1, Role: RoleAdmin}, []Role{RoleFacilityOwner}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.user != nil {
				ctx = ctxWith(tt.user)
			}
			err := RequireRole(ctx, tt.roles...)
			if !errors.Is(err, tt.wantErr) && err != tt.wantErr {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireVenueOwner(t *testing.T) {
	owner := &AuthUser{ID: 10, Role: RoleFacilityOwner}
	if err := RequireVenueOwner(ctxWith(owner), 10); err != nil {
		t.Fatalf("owner denied: %v", err)
	}
	if err := RequireVenueOwner(ctxWith(owner), 11); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner allowed: %v", err)
	}
	admin := &AuthUser{ID: 99, Role: RoleAdmin}
	if err := RequireVenueOwner(ctxWith(admin), 10); err != nil {
		t.Fatalf("admin denied: %v", err)
	}
}

func TestRequireBookingOwner(t *testing.T) {
	booker := &AuthUser{ID: 5, Role: RolePlayer}
	if err := RequireBookingOwner(ctxWith(booker), 5); err != nil {
		t.Fatalf("booker denied: %v", err)
	}
	venueOwner := &AuthUser{ID: 10, Role: RoleFacilityOwner}
	if err := RequireBookingOwner(ctxWith(venueOwner), 5); !errors.Is(err, ErrForbidden) {
		t.Fatal("venue owner must not cancel a player's booking")
	}
}

func TestRequireBookingAccess(t *testing.T) {
	tests := []struct {
		name    string
		user    *AuthUser
		wantErr error
	}{
		{"booker", &AuthUser{ID: 5, Role: RolePlayer}, nil},
		{"venue owner", &AuthUser{ID: 10, Role: RoleFacilityOwner}, nil},
		{"stranger", &AuthUser{ID: 77, Role: RolePlayer}, ErrForbidden},
		{"admin", &AuthUser{ID: 1, Role: RoleAdmin}, nil},
		{"unauthenticated", nil, ErrUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.user != nil {
				ctx = ctxWith(tt.user)
			}
			err := RequireBookingAccess(ctx, 5, 10)
			if !errors.Is(err, tt.wantErr) && err != tt.wantErr {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
