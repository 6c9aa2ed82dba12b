package companies

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-registry/meridian/internal/entity"
	"github.com/meridian-registry/meridian/internal/identity"
	"github.com/meridian-registry/meridian/internal/rbac"
	"github.com/meridian-registry/meridian/internal/shared"
)

// fixture assembles the full stack the service runs on in production,
// with the store and directory swapped for their in-memory versions.
type fixture struct {
	service   *Service
	directory *identity.Service
	users     map[string]identity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	directory := identity.NewService(identity.NewMemoryRepository())

	f := &fixture{
		service:   NewService(NewMemoryStore(), rbac.NewEngine(directory), entity.NewFieldValidator()),
		directory: directory,
		users:     make(map[string]identity.User),
	}

	seed := []struct {
		username string
		role     string
		admin    bool
	}{
		{"admin", "", true},
		{"manager", DefaultManagerRole, false},
		{"editor", DefaultEditorRole, false},
		{"editor2", DefaultEditorRole, false},
		{"viewer", DefaultViewerRole, false},
	}
	for _, s := range seed {
		user, err := f.directory.AddUser(ctx, identity.NewUserParams{
			Username: s.username,
			Email:    s.username + "@a.com",
			Password: "TempPassword1_",
			Admin:    s.admin,
		})
		require.NoError(t, err)
		if s.role != "" {
			role, err := f.directory.EnsureRole(ctx, s.role, "company entity role")
			require.NoError(t, err)
			require.NoError(t, f.directory.AddRole(ctx, user.ID, role))
		}
		f.users[s.username] = user
	}
	return f
}

// as impersonates a seeded user.
func (f *fixture) as(username string) context.Context {
	user := f.users[username]
	return shared.ContextWithActor(context.Background(), shared.Actor{UserID: user.ID, Username: user.Username})
}

func sampleCompany(seed int) *Company {
	return &Company{
		BusinessName:   fmt.Sprintf("exampleName%d", seed),
		InvoiceAddress: fmt.Sprintf("invoice Address%d", seed),
		City:           fmt.Sprintf("City%d", seed),
		PostalCode:     fmt.Sprintf("postalCode%d", seed),
		Nation:         fmt.Sprintf("nation%d", seed),
		VATNumber:      fmt.Sprintf("vatNumber%d", seed),
	}
}

func TestSaveOk(t *testing.T) {
	f := newFixture(t)

	saved, err := f.service.Save(f.as("admin"), sampleCompany(0))
	require.NoError(t, err)
	require.Equal(t, int64(1), saved.EntityVersion)
	require.Greater(t, saved.ID, int64(0))
	require.Equal(t, "exampleName0", saved.BusinessName)
}

func TestUpdateShouldWork(t *testing.T) {
	f := newFixture(t)
	ctx := f.as("admin")

	_, err := f.service.Save(ctx, sampleCompany(0))
	require.NoError(t, err)

	found, err := f.service.FindOne(ctx, entity.Eq("business_name", "exampleName0"))
	require.NoError(t, err)

	found.BusinessName = found.BusinessName + "Updated"
	updated, err := f.service.Update(ctx, found)
	require.NoError(t, err)
	require.Equal(t, "exampleName0Updated", updated.BusinessName)
	require.Equal(t, int64(2), updated.EntityVersion)
}

func TestUpdateShouldFailWithWrongVersion(t *testing.T) {
	f := newFixture(t)
	ctx := f.as("admin")

	saved, err := f.service.Save(ctx, sampleCompany(0))
	require.NoError(t, err)
	saved.BusinessName += "Updated"
	updated, err := f.service.Update(ctx, saved)
	require.NoError(t, err)
	require.Equal(t, int64(2), updated.EntityVersion)

	updated.EntityVersion = 1
	_, err = f.service.Update(ctx, updated)
	require.ErrorIs(t, err, entity.ErrStaleVersion)
}

func TestFindAllPaginated(t *testing.T) {
	f := newFixture(t)
	ctx := f.as("admin")

	for i := 0; i < 10; i++ {
		_, err := f.service.Save(ctx, sampleCompany(i))
		require.NoError(t, err)
	}

	all, err := f.service.FindAll(ctx, nil, -1, -1, nil)
	require.NoError(t, err)
	require.Len(t, all.Results, 10)

	paginated, err := f.service.FindAll(ctx, nil, 7, 1, nil)
	require.NoError(t, err)
	require.Len(t, paginated.Results, 7)
	require.Equal(t, 1, paginated.CurrentPage)
	require.Equal(t, 2, paginated.NextPage)

	paginated, err = f.service.FindAll(ctx, nil, 7, 2, nil)
	require.NoError(t, err)
	require.Len(t, paginated.Results, 3)
	require.Equal(t, 2, paginated.CurrentPage)
	require.Equal(t, 1, paginated.NextPage)
}

func TestRemoveAll(t *testing.T) {
	f := newFixture(t)
	ctx := f.as("admin")

	for i := 0; i < 4; i++ {
		_, err := f.service.Save(ctx, sampleCompany(i))
		require.NoError(t, err)
	}

	all, err := f.service.FindAll(ctx, nil, -1, -1, nil)
	require.NoError(t, err)
	for _, c := range all.Results {
		require.NoError(t, f.service.Remove(ctx, c.ID))
	}

	total, err := f.service.CountAll(ctx, nil)
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestSaveShouldFailOnDuplicatedEntity(t *testing.T) {
	f := newFixture(t)
	ctx := f.as("admin")

	_, err := f.service.Save(ctx, sampleCompany(1))
	require.NoError(t, err)

	_, err = f.service.Save(ctx, sampleCompany(1))
	require.ErrorIs(t, err, entity.ErrDuplicate)
}

func TestSaveShouldFailOnValidationFailure(t *testing.T) {
	f := newFixture(t)

	injected := sampleCompany(3)
	injected.BusinessName = "<script>function(){alert('ciao')!}</script>"
	_, err := f.service.Save(f.as("admin"), injected)
	require.True(t, entity.IsValidationError(err))
}

func TestManagerCanDoEverything(t *testing.T) {
	f := newFixture(t)
	ctx := f.as("manager")

	saved, err := f.service.Save(ctx, sampleCompany(101))
	require.NoError(t, err)

	saved.BusinessName = "newSavedEntity"
	_, err = f.service.Update(ctx, saved)
	require.NoError(t, err)

	_, err = f.service.Find(ctx, saved.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.Remove(ctx, saved.ID))
}

func TestViewerCannotSaveOrUpdateOrRemove(t *testing.T) {
	f := newFixture(t)

	// Seeded by the admin so there is something a viewer could try to touch.
	saved, err := f.service.Save(f.as("admin"), sampleCompany(201))
	require.NoError(t, err)

	ctx := f.as("viewer")
	_, err = f.service.Save(ctx, sampleCompany(202))
	require.ErrorIs(t, err, entity.ErrUnauthorized)

	saved.BusinessName = "viewerEdit"
	_, err = f.service.Update(ctx, saved)
	require.ErrorIs(t, err, entity.ErrUnauthorized)

	require.ErrorIs(t, f.service.Remove(ctx, saved.ID), entity.ErrUnauthorized)

	// Viewers can list, but only their own entities are visible.
	all, err := f.service.FindAll(ctx, nil, -1, -1, nil)
	require.NoError(t, err)
	require.Empty(t, all.Results)
}

func TestEditorCannotRemove(t *testing.T) {
	f := newFixture(t)
	ctx := f.as("editor")

	saved, err := f.service.Save(ctx, sampleCompany(301))
	require.NoError(t, err)

	saved.BusinessName = "editorNewSavedEntity"
	_, err = f.service.Update(ctx, saved)
	require.NoError(t, err)

	_, err = f.service.Find(ctx, saved.ID)
	require.NoError(t, err)

	require.ErrorIs(t, f.service.Remove(ctx, saved.ID), entity.ErrUnauthorized)
}

func TestOwnedResourceAccessedOnlyByOwner(t *testing.T) {
	f := newFixture(t)

	saved, err := f.service.Save(f.as("editor"), sampleCompany(401))
	require.NoError(t, err)

	_, err = f.service.Find(f.as("editor"), saved.ID)
	require.NoError(t, err)

	// A different ownership-scoped caller sees not-found, never
	// unauthorized, so existence does not leak.
	_, err = f.service.Find(f.as("editor2"), saved.ID)
	require.ErrorIs(t, err, entity.ErrNotFound)
	require.NotErrorIs(t, err, entity.ErrUnauthorized)

	// Managers hold unrestricted visibility.
	_, err = f.service.Find(f.as("manager"), saved.ID)
	require.NoError(t, err)
}

func TestEditorListingsAreOwnershipScoped(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Save(f.as("editor"), sampleCompany(501))
	require.NoError(t, err)
	_, err = f.service.Save(f.as("editor2"), sampleCompany(502))
	require.NoError(t, err)

	mine, err := f.service.FindAll(f.as("editor"), nil, -1, -1, nil)
	require.NoError(t, err)
	require.Len(t, mine.Results, 1)
	require.Equal(t, "exampleName501", mine.Results[0].BusinessName)

	total, err := f.service.CountAll(f.as("editor2"), nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	everything, err := f.service.FindAll(f.as("manager"), nil, -1, -1, nil)
	require.NoError(t, err)
	require.Len(t, everything.Results, 2)
}
