package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"shop_system/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	out, err := run(t, "hash-password", "secret1")
	require.NoError(t, err)
	assert.True(t, utils.CheckPassword(strings.TrimSpace(out), "secret1"))

	_, err = run(t, "hash-password", "--cost", "4", "secret1")
	assert.Error(t, err)
}

func TestCreateSuperAdmin(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_NAME", filepath.Join(t.TempDir(), "shop.db"))
	t.Setenv("DATABASE_DSN", "")

	out, err := run(t, "create-superadmin", "--email", "Root@Example.com", "--password", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "created superadmin root@example.com")

	_, err = run(t, "create-superadmin", "--email", "root@example.com", "--password", "secret1")
	assert.Error(t, err)

	_, err = run(t, "create-superadmin", "--email", "x@example.com")
	assert.Error(t, err)

	_, err = run(t, "migrate")
	assert.NoError(t, err)
}
