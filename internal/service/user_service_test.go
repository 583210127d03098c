package service

import (
	"testing"

	"go-accounting/internal/access"
	"go-accounting/internal/model"
	"go-accounting/internal/repository"
	"go-accounting/internal/testutil"
	"go-accounting/pkg/validator"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUserService(t *testing.T, db *gorm.DB) (UserService, repository.RoleRepository) {
	t.Helper()
	privileges := repository.NewPrivilegeRepo(db)
	roles := repository.NewRoleRepo(db)
	require.NoError(t, privileges.SeedDefaults())
	require.NoError(t, roles.SeedDefaults())
	all, err := privileges.FindAll()
	require.NoError(t, err)
	require.NoError(t, roles.AssignDefaultPrivileges(all))
	return NewUserService(repository.NewUserRepo(db), privileges, roles), roles
}

func roleID(t *testing.T, roles repository.RoleRepository, code string) uint {
	t.Helper()
	role, err := roles.FindByCode(code)
	require.NoError(t, err)
	return role.ID
}

func TestCreateUser(t *testing.T) {
	db := testutil.NewDB(t)
	users, roles := newUserService(t, db)
	admin := testutil.CreateUser(t, db, "admin@example.com", true)
	clerkRole := roleID(t, roles, model.RoleClerk)

	u, err := users.CreateUser(&CreateUserRequest{
		Email:    "clerk@example.com",
		Password: "secret123",
		FullName: "Counter Clerk",
		RoleID:   clerkRole,
	}, admin)
	require.NoError(t, err)
	require.Equal(t, admin.UserID.String(), u.CreatedBy)
	require.True(t, u.HasPrivilege("order:create"))
	require.False(t, u.HasPrivilege("purchase:create"))
	require.NotEmpty(t, u.TokenVersion)

	_, err = users.CreateUser(&CreateUserRequest{
		Email: "clerk@example.com", Password: "secret123", FullName: "Again", RoleID: clerkRole,
	}, admin)
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestCreateUserValidation(t *testing.T) {
	db := testutil.NewDB(t)
	users, roles := newUserService(t, db)
	admin := testutil.CreateUser(t, db, "admin@example.com", true)
	clerkRole := roleID(t, roles, model.RoleClerk)
	bad := "03/02/1990"

	tests := []struct {
		name  string
		req   CreateUserRequest
		field string
	}{
		{"short password", CreateUserRequest{Email: "a@example.com", Password: "123", FullName: "A", RoleID: clerkRole}, "password"},
		{"bad email", CreateUserRequest{Email: "nope", Password: "secret123", FullName: "A", RoleID: clerkRole}, "email"},
		{"unknown role", CreateUserRequest{Email: "a@example.com", Password: "secret123", FullName: "A", RoleID: 999}, "role_id"},
		{"bad birth date", CreateUserRequest{Email: "a@example.com", Password: "secret123", FullName: "A", RoleID: clerkRole, BirthDate: &bad}, "birth_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := users.CreateUser(&req, admin)
			var ve *validator.ValidationError
			require.ErrorAs(t, err, &ve)
			require.Contains(t, ve.Fields, tt.field)
		})
	}
}

func TestSuperuserFlagNeedsSuperuser(t *testing.T) {
	db := testutil.NewDB(t)
	users, roles := newUserService(t, db)
	manager := testutil.CreateUser(t, db, "manager@example.com", false)
	owner := testutil.CreateUser(t, db, "owner@example.com", false)
	adminRole := roleID(t, roles, model.RoleAdmin)

	_, err := users.CreateUser(&CreateUserRequest{
		Email: "root@example.com", Password: "secret123", FullName: "Root", RoleID: adminRole, IsSuperuser: true,
	}, manager)
	require.ErrorIs(t, err, ErrForbidden)

	promote := true
	_, err = users.UpdateUser(owner.UserID, &UpdateUserRequest{
		Email: "owner@example.com", FullName: "Owner", RoleID: adminRole, IsSuperuser: &promote,
	}, manager)
	require.ErrorIs(t, err, ErrForbidden)

	u, err := users.UpdateUser(owner.UserID, &UpdateUserRequest{
		Email: "owner@example.com", FullName: "Owner", RoleID: adminRole, IsSuperuser: &promote,
	}, access.System)
	require.NoError(t, err)
	require.True(t, u.IsSuperuser)
}

func TestUpdateUserRoleChangeResetsPrivileges(t *testing.T) {
	db := testutil.NewDB(t)
	users, roles := newUserService(t, db)
	admin := testutil.CreateUser(t, db, "admin@example.com", true)

	u, err := users.CreateUser(&CreateUserRequest{
		Email: "clerk@example.com", Password: "secret123", FullName: "Clerk", RoleID: roleID(t, roles, model.RoleClerk),
	}, admin)
	require.NoError(t, err)

	u, err = users.UpdateUserPrivileges(u.ID, []string{"order:view"}, admin)
	require.NoError(t, err)
	require.Equal(t, []string{"order:view"}, u.GetPrivilegeCodes())

	_, err = users.UpdateUserPrivileges(u.ID, []string{"order:view", "order:fly"}, admin)
	var ve *validator.ValidationError
	require.ErrorAs(t, err, &ve)

	// Same role keeps the custom set
	u, err = users.UpdateUser(u.ID, &UpdateUserRequest{
		Email: "clerk@example.com", FullName: "Clerk Renamed", RoleID: roleID(t, roles, model.RoleClerk),
	}, admin)
	require.NoError(t, err)
	require.Equal(t, "Clerk Renamed", u.FullName)
	require.Equal(t, []string{"order:view"}, u.GetPrivilegeCodes())

	u, err = users.UpdateUser(u.ID, &UpdateUserRequest{
		Email: "clerk@example.com", FullName: "Clerk Renamed", RoleID: roleID(t, roles, model.RoleAdmin),
	}, admin)
	require.NoError(t, err)
	require.True(t, u.HasPrivilege("purchase:delete"))
	require.Equal(t, admin.UserID.String(), u.UpdatedBy)
}

func TestDeleteUser(t *testing.T) {
	db := testutil.NewDB(t)
	users, _ := newUserService(t, db)
	admin := testutil.CreateUser(t, db, "admin@example.com", true)
	owner := testutil.CreateUser(t, db, "owner@example.com", false)

	require.ErrorIs(t, users.DeleteUser(admin.UserID, admin), ErrForbidden)
	require.NoError(t, users.DeleteUser(owner.UserID, admin))
	require.ErrorIs(t, users.DeleteUser(owner.UserID, admin), ErrUserNotFound)

	_, err := users.GetUserByID(owner.UserID)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeactivateUserEndsSession(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := testutil.NewDB(t)
	users, roles := newUserService(t, db)
	admin := testutil.CreateUser(t, db, "admin@example.com", true)
	auth := NewAuthService(repository.NewUserRepo(db), nil)

	u, err := users.CreateUser(&CreateUserRequest{
		Email: "clerk@example.com", Password: "secret123", FullName: "Clerk", RoleID: roleID(t, roles, model.RoleClerk),
	}, admin)
	require.NoError(t, err)
	login, err := auth.Login("clerk@example.com", "secret123")
	require.NoError(t, err)

	// Renaming keeps the session alive
	_, err = users.UpdateUser(u.ID, &UpdateUserRequest{
		Email: "Clerk@Example.com", FullName: "Clerk Renamed", RoleID: roleID(t, roles, model.RoleClerk),
	}, admin)
	require.NoError(t, err)
	_, err = auth.Authenticate(login.Token)
	require.NoError(t, err)

	inactive := false
	u, err = users.UpdateUser(u.ID, &UpdateUserRequest{
		Email: "clerk@example.com", FullName: "Clerk Renamed", RoleID: roleID(t, roles, model.RoleClerk), IsActive: &inactive,
	}, admin)
	require.NoError(t, err)
	require.False(t, u.IsActive)

	_, err = auth.Authenticate(login.Token)
	require.ErrorIs(t, err, ErrUserInactive)

	// Reactivating does not revive the old token
	active := true
	_, err = users.UpdateUser(u.ID, &UpdateUserRequest{
		Email: "clerk@example.com", FullName: "Clerk Renamed", RoleID: roleID(t, roles, model.RoleClerk), IsActive: &active,
	}, admin)
	require.NoError(t, err)
	_, err = auth.Authenticate(login.Token)
	require.ErrorIs(t, err, ErrSessionReplaced)
}
