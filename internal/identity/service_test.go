package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService(NewMemoryRepository())
}

func TestAddAndFindUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	added, err := svc.AddUser(ctx, NewUserParams{
		Username: "manager",
		Name:     "name",
		LastName: "lastname",
		Email:    "manager@a.com",
		Password: "TempPassword1_",
	})
	require.NoError(t, err)
	require.Greater(t, added.ID, int64(0))
	require.True(t, added.Active)
	require.NotEqual(t, "TempPassword1_", added.PasswordHash)

	found, err := svc.FindUser(ctx, "manager")
	require.NoError(t, err)
	require.Equal(t, added.ID, found.ID)

	_, err = svc.FindUser(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateUsernameRejected(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.AddUser(ctx, NewUserParams{Username: "taken", Password: "pw"})
	require.NoError(t, err)
	_, err = svc.AddUser(ctx, NewUserParams{Username: "taken", Password: "pw"})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.AddUser(ctx, NewUserParams{Username: "editor", Password: "TempPassword1_"})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "editor", "TempPassword1_")
	require.NoError(t, err)
	require.Equal(t, "editor", user.Username)

	_, err = svc.Authenticate(ctx, "editor", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown users fail the same way as bad passwords.
	_, err = svc.Authenticate(ctx, "ghost", "TempPassword1_")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAdminFlagBindsAdminRole(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	admin, err := svc.AddUser(ctx, NewUserParams{Username: "root", Password: "pw", Admin: true})
	require.NoError(t, err)

	names, err := svc.RolesOf(ctx, admin.ID)
	require.NoError(t, err)
	require.Contains(t, names, AdminRole)
}

func TestEnsureRoleIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	first, err := svc.EnsureRole(ctx, "company.manager", "company managers")
	require.NoError(t, err)
	second, err := svc.EnsureRole(ctx, "company.manager", "company managers")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestAddRoleAndRolesOf(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	user, err := svc.AddUser(ctx, NewUserParams{Username: "viewer", Password: "pw"})
	require.NoError(t, err)
	role, err := svc.EnsureRole(ctx, "company.viewer", "")
	require.NoError(t, err)

	require.NoError(t, svc.AddRole(ctx, user.ID, role))
	// Binding twice is harmless.
	require.NoError(t, svc.AddRole(ctx, user.ID, role))

	names, err := svc.RolesOf(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"company.viewer"}, names)
}

func TestGetRoleMissing(t *testing.T) {
	svc := newTestService()
	_, err := svc.GetRole(context.Background(), "absent")
	require.ErrorIs(t, err, ErrNotFound)
}
