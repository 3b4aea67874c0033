package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid viewer",
			user:    User{Email: "test@example.com", Role: RoleViewer, Permissions: PermissionIndexViewer},
			wantErr: false,
		},
		{
			name:    "valid admin without permissions",
			user:    User{Email: "admin@example.com", Role: RoleAdmin},
			wantErr: false,
		},
		{
			name:    "invalid email",
			user:    User{Email: "invalid-email", Role: RoleViewer},
			wantErr: true,
			errMsg:  "invalid email format",
		},
		{
			name:    "empty email",
			user:    User{Email: "", Role: RoleViewer},
			wantErr: true,
			errMsg:  "email is required",
		},
		{
			name:    "invalid role",
			user:    User{Email: "test@example.com", Role: "customer"},
			wantErr: true,
			errMsg:  "invalid role",
		},
		{
			name:    "malformed permission codename",
			user:    User{Email: "test@example.com", Role: RoleViewer, Permissions: "dashboard.index_viewer,view everything"},
			wantErr: true,
			errMsg:  "invalid permission codename",
		},
	}

	for i := range tests {
		tt := &tests[i]
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestUser_HasPermission(t *testing.T) {
	viewer := User{Role: RoleViewer, Permissions: PermissionIndexViewer}
	admin := User{Role: RoleAdmin}

	assert.True(t, viewer.HasPermission(PermissionIndexViewer))
	assert.False(t, viewer.HasPermission(PermissionReservationsViewer))
	assert.True(t, admin.HasPermission(PermissionReservationsViewer))
	assert.True(t, admin.HasPermission("anything.at_all"))
}

func TestUser_SetPermissions(t *testing.T) {
	var user User
	user.SetPermissions([]string{" dashboard.index_viewer", "", "dashboard.index_viewer", "dashboard.reservations_viewer "})

	assert.Equal(t, "dashboard.index_viewer,dashboard.reservations_viewer", user.Permissions)
	assert.Equal(t, []string{PermissionIndexViewer, PermissionReservationsViewer}, user.PermissionList())
}

func TestParsePermissions_Empty(t *testing.T) {
	assert.Equal(t, []string{}, ParsePermissions(""))
	assert.Equal(t, []string{}, ParsePermissions("  ,  "))
}

func TestUser_IncrementFailedAttempts(t *testing.T) {
	user := User{}

	for i := 1; i < MaxFailedLoginAttempts; i++ {
		user.IncrementFailedAttempts()
		assert.Equal(t, i, user.FailedLoginAttempts)
		assert.False(t, user.IsLocked())
	}

	user.IncrementFailedAttempts()
	assert.True(t, user.IsLocked())

	user.Unlock()
	assert.False(t, user.IsLocked())
	assert.Equal(t, 0, user.FailedLoginAttempts)
}

func TestUser_BeforeCreate(t *testing.T) {
	user := User{Email: "test@example.com", Role: RoleViewer}

	err := user.BeforeCreate(nil)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.NotZero(t, user.CreatedAt)
	assert.NotZero(t, user.UpdatedAt)
}

func TestCustomClaims_HasPermission(t *testing.T) {
	claims := CustomClaims{Role: RoleViewer, Permissions: []string{PermissionReservationsViewer}}
	assert.True(t, claims.HasPermission(PermissionReservationsViewer))
	assert.False(t, claims.HasPermission(PermissionIndexViewer))

	admin := CustomClaims{Role: RoleAdmin}
	assert.True(t, admin.HasPermission(PermissionIndexViewer))
}

func TestCircuitBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half_open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitBreakerState(9).String())
}
