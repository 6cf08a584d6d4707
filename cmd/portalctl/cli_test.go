package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/MrEthical07/portalauth/login"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, file string, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{
		"--file", file,
		"--env-file", filepath.Join(t.TempDir(), "missing.env"),
	}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func sessionFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "session.json")
}

func TestDemoStatusGuardLogout(t *testing.T) {
	file := sessionFile(t)

	out, err := runCLI(t, file, "demo", "--name", "Asha", "--level", "tpc")
	require.NoError(t, err)
	assert.Contains(t, out, "-> navigate /dashboard")
	assert.Contains(t, out, "demo session for Asha (TPC)")

	out, err = runCLI(t, file, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in:  yes")
	assert.Contains(t, out, "Role:       TPC")
	assert.Contains(t, out, "Name:       Asha")
	assert.Contains(t, out, "Admin view: yes")
	assert.Contains(t, out, "Admin only: no")
	assert.Contains(t, out, "/dashboard/manage-candidates")
	assert.NotContains(t, out, "/dashboard/user-management")

	out, err = runCLI(t, file, "guard", "/dashboard/reports")
	require.NoError(t, err)
	assert.Contains(t, out, "/dashboard/reports: allowed (Reports)")

	out, err = runCLI(t, file, "guard", "/dashboard/user-management")
	require.NoError(t, err)
	assert.Contains(t, out, "hidden for role TPC")

	out, err = runCLI(t, file, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "-> redirect /login")

	out, err = runCLI(t, file, "guard", "/dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "-> navigate /login")
	assert.Contains(t, out, "denied, not logged in")

	out, err = runCLI(t, file, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in:  no")
	assert.Contains(t, out, "Role:       -")
}

func TestGuardUnknownRoute(t *testing.T) {
	_, err := runCLI(t, sessionFile(t), "guard", "/nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown route")
}

func TestUnknownStorageBackend(t *testing.T) {
	_, err := runCLI(t, sessionFile(t), "--storage", "floppy", "status")
	require.Error(t, err)
}

func TestLoginInvalidForm(t *testing.T) {
	_, err := runCLI(t, sessionFile(t), "login", "--email", "nope", "--password", "x")
	require.ErrorIs(t, err, errInvalidForm)
}

func TestDevAuthLogin(t *testing.T) {
	file := sessionFile(t)

	out, err := runCLI(t, file, "--dev-auth", "login", "--email", "admin@portal.local", "--password", "admin123")
	require.NoError(t, err)
	assert.Contains(t, out, "-> navigate /dashboard")
	assert.Contains(t, out, "logged in as Portal Admin (ADMIN)")

	out, err = runCLI(t, file, "guard", "/dashboard/user-management")
	require.NoError(t, err)
	assert.Contains(t, out, "/dashboard/user-management: allowed")
}

func TestDevAuthLoginUnknownUser(t *testing.T) {
	out, err := runCLI(t, sessionFile(t), "--dev-auth", "login", "--email", "ghost@portal.local", "--password", "secret1")
	require.Error(t, err)
	assert.Contains(t, out, login.MsgUserNotFound)
	assert.Contains(t, out, "portalctl register")
}

func TestDevAuthRegister(t *testing.T) {
	out, err := runCLI(t, sessionFile(t), "--dev-auth", "register",
		"--name", "Ravi", "--email", "ravi@college.edu", "--password", "secret1", "--level", "DEPT_HEAD")
	require.NoError(t, err)
	assert.Contains(t, out, login.MsgRegistered)
}
