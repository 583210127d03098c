package repository

import (
	"testing"

	"go-accounting/internal/model"
	"go-accounting/internal/testutil"

	"github.com/stretchr/testify/require"
)

func privilegeCodes(ps []model.Privilege) []string {
	codes := make([]string, len(ps))
	for i, p := range ps {
		codes[i] = p.Code
	}
	return codes
}

func TestSeedDefaults_Idempotent(t *testing.T) {
	db := testutil.NewDB(t)
	privileges := NewPrivilegeRepo(db)
	roles := NewRoleRepo(db)

	for i := 0; i < 2; i++ {
		require.NoError(t, privileges.SeedDefaults())
		require.NoError(t, roles.SeedDefaults())
	}

	all, err := privileges.FindAll()
	require.NoError(t, err)
	require.Len(t, all, len(model.DefaultPrivileges))

	seeded, err := roles.FindAll()
	require.NoError(t, err)
	require.Len(t, seeded, len(model.DefaultRoles))
}

func TestAssignDefaultPrivileges(t *testing.T) {
	db := testutil.NewDB(t)
	privileges := NewPrivilegeRepo(db)
	roles := NewRoleRepo(db)
	require.NoError(t, privileges.SeedDefaults())
	require.NoError(t, roles.SeedDefaults())

	all, err := privileges.FindAll()
	require.NoError(t, err)
	require.NoError(t, roles.AssignDefaultPrivileges(all))

	master, err := roles.FindByCode(model.RoleMasterAdmin)
	require.NoError(t, err)
	require.Len(t, master.Privileges, len(all))

	admin, err := roles.FindByCode(model.RoleAdmin)
	require.NoError(t, err)
	codes := privilegeCodes(admin.Privileges)
	require.Contains(t, codes, "purchase:delete")
	require.NotContains(t, codes, "tally:recompute")
	require.NotContains(t, codes, "user:create")

	clerk, err := roles.FindByCode(model.RoleClerk)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		"purchase:view", "order:view", "order:create", "order:update",
		"tally:view", "export:csv", "dashboard:view",
	}, privilegeCodes(clerk.Privileges))

	// An edited role keeps its set on the next startup
	view, err := privileges.FindByCodes([]string{"order:view"})
	require.NoError(t, err)
	require.NoError(t, db.Model(clerk).Association("Privileges").Replace(view))
	require.NoError(t, roles.AssignDefaultPrivileges(all))

	clerk, err = roles.FindByCode(model.RoleClerk)
	require.NoError(t, err)
	require.Equal(t, []string{"order:view"}, privilegeCodes(clerk.Privileges))
}
