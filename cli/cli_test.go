package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"roster-server-go/config"
	"roster-server-go/db"
	"roster-server-go/query"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func isolateEnv(t *testing.T, dbPath string) {
	t.Helper()
	t.Setenv(config.EnvConfig, "")
	t.Setenv(config.EnvRedisAddr, "")
	t.Setenv(config.EnvDatabasePath, dbPath)
	t.Setenv(config.EnvLogLevel, "error")
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "roster "+Version+"\n", out)
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "roster.db")
	isolateEnv(t, dbPath)

	xlsx := filepath.Join(dir, "students.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"studentId", "name", "age"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{7, "Grace", 23}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{8, "Heidi", "n/a"}))
	require.NoError(t, f.SaveAs(xlsx))
	require.NoError(t, f.Close())

	out, err := runCommand(t, "import", xlsx)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 1 students")
	assert.Contains(t, out, "skipped row 3")

	sqlDB, err := db.Open(dbPath)
	require.NoError(t, err)
	defer sqlDB.Close()
	page, err := db.NewStudentStore(sqlDB).FindAll(context.Background(), nil, query.PageRequest{Page: 0, Size: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Grace", *page.Items[0].Name)
}

func TestImportCommand_MissingFile(t *testing.T) {
	dir := t.TempDir()
	isolateEnv(t, filepath.Join(dir, "roster.db"))

	_, err := runCommand(t, "import", filepath.Join(dir, "nope.xlsx"))
	assert.Error(t, err)
}

func TestImportCommand_RequiresOneArg(t *testing.T) {
	_, err := runCommand(t, "import")
	assert.Error(t, err)
}
