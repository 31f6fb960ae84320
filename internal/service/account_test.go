package service

import (
	"context"
	"testing"
	"time"

	"shop_system/internal/apperr"
	"shop_system/internal/domain"
	"shop_system/internal/policy"
	"shop_system/internal/testutil"
	"shop_system/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func accountFixture(t *testing.T) (*AccountService, *gorm.DB) {
	t.Helper()
	gdb := testutil.NewDB(t)
	tokens := utils.NewTokenIssuer("test-secret", time.Hour)
	return NewAccountService(gdb, tokens, testutil.BcryptCost), gdb
}

func TestRegisterCreatesAdminWithCart(t *testing.T) {
	ctx := context.Background()
	svc, gdb := accountFixture(t)

	sess, err := svc.Register(ctx, "  New@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", sess.User.Email)
	assert.Equal(t, domain.RoleAdmin, sess.User.Role)
	assert.NotEmpty(t, sess.Token)
	assert.True(t, sess.ExpiresAt.After(time.Now()))

	var carts int64
	require.NoError(t, gdb.Model(&domain.Cart{}).Where("user_id = ?", sess.User.ID).Count(&carts).Error)
	assert.EqualValues(t, 1, carts)

	id, err := svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, policy.Identity{UserID: sess.User.ID, Role: domain.RoleAdmin}, id)

	_, err = svc.Register(ctx, "new@example.com", "secret2")
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := accountFixture(t)

	_, err := svc.Register(ctx, "not-an-email", "short")
	require.ErrorIs(t, err, apperr.ErrValidation)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Fields, "email")
	assert.Contains(t, ae.Fields, "password")
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, gdb := accountFixture(t)
	testutil.CreateUser(t, gdb, "user@example.com", "secret1", domain.RoleAdmin)

	sess, err := svc.Login(ctx, "USER@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", sess.User.Email)

	_, err = svc.Login(ctx, "user@example.com", "wrong")
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Equal(t, "Invalid credentials", err.Error())

	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Equal(t, "Invalid credentials", err.Error())
}

func TestAuthenticateUsesLiveRole(t *testing.T) {
	ctx := context.Background()
	svc, gdb := accountFixture(t)
	u := testutil.CreateUser(t, gdb, "user@example.com", "secret1", domain.RoleSuperAdmin)

	sess, err := svc.Login(ctx, u.Email, "secret1")
	require.NoError(t, err)
	require.NoError(t, gdb.Model(&domain.User{}).Where("id = ?", u.ID).Update("role", domain.RoleAdmin).Error)

	id, err := svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, id.Role)

	require.NoError(t, gdb.Delete(&domain.User{}, u.ID).Error)
	_, err = svc.Authenticate(ctx, sess.Token)
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Equal(t, "Invalid token - user not found", err.Error())
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	svc, gdb := accountFixture(t)
	u := testutil.CreateUser(t, gdb, "user@example.com", "secret1", domain.RoleAdmin)

	_, err := svc.Authenticate(ctx, "")
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = svc.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Equal(t, "Invalid token", err.Error())

	expired, _, err := utils.NewTokenIssuer("test-secret", -time.Minute).Issue(u.ID, u.Role)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, expired)
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Equal(t, "Token expired", err.Error())

	forged, _, err := utils.NewTokenIssuer("other-secret", time.Hour).Issue(u.ID, domain.RoleSuperAdmin)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, forged)
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, gdb := accountFixture(t)
	u := testutil.CreateUser(t, gdb, "user@example.com", "secret1", domain.RoleAdmin)

	err := svc.ChangePassword(ctx, u.ID, "wrong", "secret2")
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "Current password is incorrect", err.Error())

	err = svc.ChangePassword(ctx, u.ID, "secret1", "123")
	require.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "secret1", "secret2"))
	_, err = svc.Login(ctx, u.Email, "secret2")
	require.NoError(t, err)
	_, err = svc.Login(ctx, u.Email, "secret1")
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, gdb := accountFixture(t)
	u := testutil.CreateUser(t, gdb, "user@example.com", "secret1", domain.RoleAdmin)
	testutil.CreateUser(t, gdb, "taken@example.com", "secret1", domain.RoleAdmin)

	updated, err := svc.UpdateProfile(ctx, u.ID, "Fresh@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "fresh@example.com", updated.Email)

	_, err = svc.UpdateProfile(ctx, u.ID, "taken@example.com")
	require.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.UpdateProfile(ctx, u.ID, "bad")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSearchUsersAndStats(t *testing.T) {
	ctx := context.Background()
	svc, gdb := accountFixture(t)
	testutil.CreateUser(t, gdb, "root@example.com", "secret1", domain.RoleSuperAdmin)
	testutil.CreateUser(t, gdb, "alice@shop.io", "secret1", domain.RoleAdmin)
	testutil.CreateUser(t, gdb, "bob@shop.io", "secret1", domain.RoleAdmin)

	page, err := svc.ListUsers(ctx, PageRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Users, 2)
	assert.Equal(t, Pagination{Page: 1, Limit: 2, Total: 3, TotalPages: 2}, page.Pagination)
	assert.Equal(t, "bob@shop.io", page.Users[0].Email)

	page, err = svc.SearchUsers(ctx, "SHOP", "", PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Pagination.Total)

	page, err = svc.SearchUsers(ctx, "", "superadmin", PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, "root@example.com", page.Users[0].Email)

	_, err = svc.SearchUsers(ctx, "", "owner", PageRequest{})
	require.ErrorIs(t, err, apperr.ErrValidation)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, UserStats{TotalUsers: 3, SuperAdminCount: 1, AdminCount: 2}, *stats)
}

func TestCreateAdminRequiresSuperadmin(t *testing.T) {
	ctx := context.Background()
	svc, gdb := accountFixture(t)
	root := testutil.CreateUser(t, gdb, "root@example.com", "secret1", domain.RoleSuperAdmin)
	admin := testutil.CreateUser(t, gdb, "admin@example.com", "secret1", domain.RoleAdmin)

	_, err := svc.CreateAdmin(ctx, policy.Identity{UserID: admin.ID, Role: admin.Role}, "x@example.com", "secret1")
	require.ErrorIs(t, err, apperr.ErrPermissionDenied)

	created, err := svc.CreateAdmin(ctx, policy.Identity{UserID: root.ID, Role: root.Role}, "x@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, created.Role)

	var carts int64
	require.NoError(t, gdb.Model(&domain.Cart{}).Where("user_id = ?", created.ID).Count(&carts).Error)
	assert.EqualValues(t, 1, carts)
}

func TestUpdateRoleProtections(t *testing.T) {
	ctx := context.Background()
	svc, gdb := accountFixture(t)
	root := testutil.CreateUser(t, gdb, "root@example.com", "secret1", domain.RoleSuperAdmin)
	admin := testutil.CreateUser(t, gdb, "admin@example.com", "secret1", domain.RoleAdmin)
	actor := policy.Identity{UserID: root.ID, Role: root.Role}

	_, err := svc.UpdateRole(ctx, actor, root.ID, "admin")
	require.ErrorIs(t, err, apperr.ErrPermissionDenied)

	_, err = svc.UpdateRole(ctx, policy.Identity{UserID: admin.ID, Role: admin.Role}, root.ID, "admin")
	require.ErrorIs(t, err, apperr.ErrPermissionDenied)

	_, err = svc.UpdateRole(ctx, actor, admin.ID, "owner")
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.UpdateRole(ctx, actor, admin.ID+100, "admin")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	updated, err := svc.UpdateRole(ctx, actor, admin.ID, "superadmin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, updated.Role)
}

func TestDeleteUserProtections(t *testing.T) {
	ctx := context.Background()
	svc, gdb := accountFixture(t)
	root := testutil.CreateUser(t, gdb, "root@example.com", "secret1", domain.RoleSuperAdmin)
	other := testutil.CreateUser(t, gdb, "other@example.com", "secret1", domain.RoleSuperAdmin)
	actor := policy.Identity{UserID: root.ID, Role: root.Role}

	err := svc.DeleteUser(ctx, actor, root.ID)
	require.ErrorIs(t, err, apperr.ErrPermissionDenied)

	err = svc.DeleteUser(ctx, actor, other.ID)
	require.ErrorIs(t, err, apperr.ErrPermissionDenied)

	err = svc.DeleteUser(ctx, actor, 999)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteUserRemovesCart(t *testing.T) {
	ctx := context.Background()
	svc, gdb := accountFixture(t)
	root := testutil.CreateUser(t, gdb, "root@example.com", "secret1", domain.RoleSuperAdmin)
	victim := testutil.CreateUser(t, gdb, "victim@example.com", "secret1", domain.RoleAdmin)
	p := testutil.CreateProduct(t, gdb, "Mug", "7.00", 10)
	_, err := NewCartService(gdb).AddItem(ctx, victim.ID, p.ID, 1)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, policy.Identity{UserID: root.ID, Role: root.Role}, victim.ID))

	_, err = svc.GetUser(ctx, victim.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	var carts, items int64
	require.NoError(t, gdb.Model(&domain.Cart{}).Count(&carts).Error)
	require.NoError(t, gdb.Model(&domain.CartItem{}).Count(&items).Error)
	assert.Zero(t, carts)
	assert.Zero(t, items)
}

func TestCreateSuperAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _ := accountFixture(t)

	u, err := svc.CreateSuperAdmin(ctx, "root@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, u.Role)

	_, err = svc.CreateSuperAdmin(ctx, "root@example.com", "secret1")
	require.ErrorIs(t, err, apperr.ErrConflict)
}
