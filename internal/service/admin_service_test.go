package service

import (
	"context"
	"testing"

	"leadtrack/internal/entity"
	"leadtrack/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSuperuser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.admin.CreateSuperuser(ctx, SuperuserInput{
		Username: "root",
		Email:    "ops@LeadTrack.io",
		Password: strongPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.UserRoleAdmin, user.Role)
	assert.Equal(t, "ops@leadtrack.io", user.Email)

	stored := env.reload(t, user)
	assert.True(t, stored.IsActive)
	assert.True(t, stored.IsStaff)
	assert.True(t, stored.IsSuperuser)

	_, err = env.auth.Authenticate(ctx, "ops@leadtrack.io", strongPassword)
	assert.NoError(t, err)

	_, err = env.admin.CreateSuperuser(ctx, SuperuserInput{Username: "root", Email: "other@leadtrack.io", Password: strongPassword})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = env.admin.CreateSuperuser(ctx, SuperuserInput{Username: "root2", Email: "root2@leadtrack.io", Password: "qwerty123"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = env.admin.CreateSuperuser(ctx, SuperuserInput{Username: "2root", Email: "root2@leadtrack.io", Password: strongPassword})
	assert.ErrorIs(t, err, ErrInvalidUsername)
}

func TestListTokenRecordsFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.activeUser(t, "ghopper", "grace@navy.mil")
	env.signup(t, "alovelace", "ada@analytical.org")
	require.NoError(t, env.auth.RequestPasswordReset(ctx, "grace@navy.mil", nil))

	all, err := env.admin.ListTokenRecords(ctx, repository.TokenRecordFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	used := true
	records, err := env.admin.ListTokenRecords(ctx, repository.TokenRecordFilter{IsUsed: &used}, 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].User)
	assert.Equal(t, "grace@navy.mil", records[0].User.Email)

	records, err = env.admin.ListTokenRecords(ctx, repository.TokenRecordFilter{Email: "grace@NAVY.mil"}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = env.admin.ListTokenRecords(ctx, repository.TokenRecordFilter{TokenType: entity.TokenTypeResetPassword}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = env.admin.ListTokenRecords(ctx, repository.TokenRecordFilter{TokenType: "magic"}, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSetUserActiveAndRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.activeUser(t, "ghopper", "grace@navy.mil")

	login, err := env.auth.Login(ctx, LoginInput{Email: "grace@navy.mil", Password: strongPassword})
	require.NoError(t, err)

	updated, err := env.admin.SetUserRole(ctx, user.ID, entity.UserRoleSupport)
	require.NoError(t, err)
	assert.Equal(t, entity.UserRoleSupport, updated.Role)

	_, err = env.admin.SetUserRole(ctx, user.ID, "ceo")
	assert.ErrorIs(t, err, ErrInvalidRole)

	updated, err = env.admin.SetUserActive(ctx, user.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	claims, err := env.jwtManager.ParseSessionToken(login.SessionToken)
	require.NoError(t, err)
	session, err := env.sessions.FindActive(ctx, mustUUID(t, claims.SessionID), env.clock.Now())
	require.NoError(t, err)
	assert.Nil(t, session)

	_, err = env.auth.Authenticate(ctx, "grace@navy.mil", strongPassword)
	assert.ErrorIs(t, err, ErrAccountNotActivated)

	_, err = env.admin.SetUserActive(ctx, uuid.New(), true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListUsersPaging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "ghopper", "grace@navy.mil")
	env.signup(t, "alovelace", "ada@analytical.org")
	env.signup(t, "kjohnson", "katherine@nasa.gov")

	users, err := env.admin.ListUsers(ctx, repository.UserFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	users, err = env.admin.ListUsers(ctx, repository.UserFilter{}, 2, 0)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = env.admin.ListUsers(ctx, repository.UserFilter{}, 2, 2)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestListUsersFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.activeUser(t, "ghopper", "grace@navy.mil")
	input := signupInput("alovelace", "ada@analytical.org")
	input.FirstName, input.LastName, input.Role = "Ada", "Lovelace", entity.UserRoleManager
	_, err := env.auth.Signup(ctx, input)
	require.NoError(t, err)
	_, err = env.admin.CreateSuperuser(ctx, SuperuserInput{Username: "root", Email: "ops@leadtrack.io", Password: strongPassword})
	require.NoError(t, err)

	active, inactive := true, false
	tests := []struct {
		name   string
		filter repository.UserFilter
		want   []string
	}{
		{name: "search email", filter: repository.UserFilter{Search: "NAVY"}, want: []string{"ghopper"}},
		{name: "search last name", filter: repository.UserFilter{Search: "lovel"}, want: []string{"alovelace"}},
		{name: "search role", filter: repository.UserFilter{Search: "manag"}, want: []string{"alovelace"}},
		{name: "role", filter: repository.UserFilter{Role: entity.UserRoleSales}, want: []string{"ghopper"}},
		{name: "inactive", filter: repository.UserFilter{IsActive: &inactive}, want: []string{"alovelace"}},
		{name: "staff", filter: repository.UserFilter{IsStaff: &active}, want: []string{"root"}},
		{name: "not superuser", filter: repository.UserFilter{IsSuperuser: &inactive, IsActive: &active}, want: []string{"ghopper"}},
		{name: "no match", filter: repository.UserFilter{Search: "babbage"}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := env.admin.ListUsers(ctx, tt.filter, 0, 0)
			require.NoError(t, err)
			var names []string
			for _, user := range users {
				names = append(names, user.Username)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}

	_, err = env.admin.ListUsers(ctx, repository.UserFilter{Role: "ceo"}, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestSetUserRoleEndsSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.activeUser(t, "ghopper", "grace@navy.mil")

	login, err := env.auth.Login(ctx, LoginInput{Email: "grace@navy.mil", Password: strongPassword})
	require.NoError(t, err)
	claims, err := env.jwtManager.ParseSessionToken(login.SessionToken)
	require.NoError(t, err)
	sessionID := mustUUID(t, claims.SessionID)

	updated, err := env.admin.SetUserRole(ctx, user.ID, entity.UserRoleSales)
	require.NoError(t, err)
	assert.Equal(t, entity.UserRoleSales, updated.Role)
	session, err := env.sessions.FindActive(ctx, sessionID, env.clock.Now())
	require.NoError(t, err)
	assert.NotNil(t, session, "unchanged role keeps sessions")

	_, err = env.admin.SetUserRole(ctx, user.ID, entity.UserRoleSupport)
	require.NoError(t, err)
	session, err = env.sessions.FindActive(ctx, sessionID, env.clock.Now())
	require.NoError(t, err)
	assert.Nil(t, session)

	_, err = env.admin.SetUserRole(ctx, uuid.New(), entity.UserRoleSupport)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
