package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Migrations must run under a role without superuser rights.
func TestMigrations_NoExtensionsOrSuperuserStatements(t *testing.T) {
	files, err := fs.Glob(Migrations, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		b, err := fs.ReadFile(Migrations, name)
		require.NoError(t, err)
		sql := strings.ToUpper(string(b))
		if strings.Contains(sql, "CREATE EXTENSION") {
			t.Fatalf("%s creates an extension", name)
		}
		if !strings.Contains(sql, "-- +GOOSE UP") {
			t.Fatalf("%s has no goose Up section", name)
		}
	}
}
