package commands

import (
	"context"
	"testing"

	"cybercase/internal/access"
	"cybercase/internal/constants"
	"cybercase/internal/database"
	"cybercase/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetPassword_Args(t *testing.T) {
	assert.Equal(t, 2, ResetPassword(nil))
	assert.Equal(t, 2, ResetPassword([]string{"admin"}))
	assert.Equal(t, 1, ResetPassword([]string{"admin", "short"}))
}

func TestResetPassword_UpdatesStore(t *testing.T) {
	cleanup := testutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.Equal(t, 0, resetPassword(testutil.AdminUsername, "recovered-1"))

	p, err := access.NewService().Authenticate(ctx, testutil.AdminUsername, "recovered-1")
	require.NoError(t, err)
	assert.False(t, p.MustChangePassword)

	entries, err := database.NewActivityRepo().List(ctx, database.ActivityFilter{Action: constants.ActionPasswordReset})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, constants.SystemUser, entries[0].Username)

	assert.Equal(t, 1, resetPassword("nobody", "recovered-1"))
}
