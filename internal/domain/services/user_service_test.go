package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/repositories"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/internal/test/testutil"
)

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)

	_, err := e.users.Register(e.ctx, services.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "weak"})
	requireCode(t, err, apperr.KindValidation, code.ErrWeakPassword)

	u, err := e.users.Register(e.ctx, services.RegisterInput{
		Username: " alice ",
		Email:    "Alice@Example.com",
		Password: "Str0ngPass",
		FullName: "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, rules.RoleUser, u.Role)
	assert.Equal(t, "en", u.Language)
	assert.NotEqual(t, "Str0ngPass", u.Password)

	_, err = e.users.Register(e.ctx, services.RegisterInput{Username: "alice2", Email: "alice@example.com", Password: "Str0ngPass"})
	requireCode(t, err, apperr.KindConflict, code.ErrUserAlreadyExist)

	got, err := e.users.Login(e.ctx, "alice@example.com", "Str0ngPass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotNil(t, got.LastLoginAt)

	_, err = e.users.Login(e.ctx, "alice", "Str0ngPass")
	require.NoError(t, err)

	_, err = e.users.Login(e.ctx, "alice", "wrong")
	requireCode(t, err, apperr.KindUnauthorized, code.ErrUserPasswordIncorrect)
	_, err = e.users.Login(e.ctx, "nobody", "Str0ngPass")
	requireCode(t, err, apperr.KindUnauthorized, code.ErrUserPasswordIncorrect)
}

func TestBanBlocksLogin(t *testing.T) {
	e := newEnv(t)
	admin := testutil.CreateUser(t, e.db, rules.RoleAdmin)
	super := testutil.CreateUser(t, e.db, rules.RoleSuperadmin)
	user := testutil.CreateUser(t, e.db, rules.RoleUser)

	require.NoError(t, e.users.Ban(e.ctx, admin.Actor(), user.ID))
	_, err := e.users.Login(e.ctx, user.Username, testutil.DefaultPassword)
	requireCode(t, err, apperr.KindForbidden, code.ErrUserInactive)

	requireCode(t, e.users.Ban(e.ctx, admin.Actor(), super.ID), apperr.KindForbidden, code.ErrForbidden)
	requireCode(t, e.users.Ban(e.ctx, user.Actor(), admin.ID), apperr.KindForbidden, code.ErrForbidden)

	require.NoError(t, e.users.Unban(e.ctx, admin.Actor(), user.ID))
	_, err = e.users.Login(e.ctx, user.Username, testutil.DefaultPassword)
	require.NoError(t, err)

	require.NoError(t, e.users.Delete(e.ctx, super.Actor(), user.ID))
	requireCode(t, e.users.Unban(e.ctx, super.Actor(), user.ID), apperr.KindConflict, code.ErrUserInactive)

	logs, _, err := e.audit.List(e.ctx, super.Actor(), repositories.AuditFilter{EntityType: "user", EntityID: user.ID}, &models.PaginationQuery{})
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

func TestChangeRoleDropsInspectorAssignments(t *testing.T) {
	e := newEnv(t)
	super := testutil.CreateUser(t, e.db, rules.RoleSuperadmin)
	admin := testutil.CreateUser(t, e.db, rules.RoleAdmin)
	loc := testutil.CreateLocation(t, e.db, testutil.CreateGeo(t, e.db), super)
	testutil.AssignInspector(t, e.db, loc, admin, super)

	_, err := e.users.ChangeRole(e.ctx, admin.Actor(), super.ID, rules.RoleUser)
	requireCode(t, err, apperr.KindForbidden, code.ErrForbidden)

	u, err := e.users.ChangeRole(e.ctx, super.Actor(), admin.ID, rules.RoleInspector)
	require.NoError(t, err)
	assert.Equal(t, rules.RoleInspector, u.Role)

	ok, err := e.locations.IsInspector(e.ctx, rules.Actor{ID: admin.ID, Role: rules.RoleAdmin}, loc.ID)
	require.NoError(t, err)
	assert.False(t, ok, "assignment removed with the admin role")

	var n models.Notification
	require.NoError(t, e.db.Where("user_id = ? AND type = ?", admin.ID, models.NotificationRoleChanged).Take(&n).Error)
	assert.Contains(t, n.Message, "inspector")
}

func TestGetAndUpdateProfile(t *testing.T) {
	e := newEnv(t)
	user := testutil.CreateUser(t, e.db, rules.RoleUser)
	other := testutil.CreateUser(t, e.db, rules.RoleUser)
	admin := testutil.CreateUser(t, e.db, rules.RoleAdmin)

	_, err := e.users.Get(e.ctx, user.Actor(), other.ID)
	requireCode(t, err, apperr.KindForbidden, code.ErrForbidden)
	got, err := e.users.Get(e.ctx, admin.Actor(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.ID)

	u, err := e.users.UpdateProfile(e.ctx, user.Actor(), services.ProfileInput{FullName: ptr("New Name"), Language: ptr("uz")})
	require.NoError(t, err)
	assert.Equal(t, "New Name", u.FullName)
	assert.Equal(t, "uz", u.Language)

	requireCode(t, e.users.ChangePassword(e.ctx, user.Actor(), "wrong", "N3wPassword"), apperr.KindUnauthorized, code.ErrUserPasswordIncorrect)
	require.NoError(t, e.users.ChangePassword(e.ctx, user.Actor(), testutil.DefaultPassword, "N3wPassword"))
	_, err = e.users.Login(e.ctx, user.Email, "N3wPassword")
	require.NoError(t, err)
}

func TestEnsureSuperadminIsIdempotent(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.users.EnsureSuperadmin(e.ctx))
	require.NoError(t, e.users.EnsureSuperadmin(e.ctx))

	var count int64
	require.NoError(t, e.db.Model(&models.User{}).Where("role = ?", rules.RoleSuperadmin).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	u, err := e.users.Login(e.ctx, "root", "RootPassw0rd")
	require.NoError(t, err)
	assert.True(t, u.Actor().IsSuperadmin())
}
