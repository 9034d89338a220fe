package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountsCSV "github.com/clearline-dev/clearline/internal/accounts"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "clearline-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "clearline")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/clearline")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func runClearline(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	_, err := runClearline(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	expectedDirs := []string{
		"accounts",
		"rules",
		"exceptions",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range expectedDirs {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, err := runClearline(t, "init", dir, "--name", "My Company")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "clearline.yaml"))
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: My Company")
	assert.Contains(t, contents, "entity_type: sole_trader")
	assert.Contains(t, contents, "tolerance: 0.01")
}

func TestInit_Accounts(t *testing.T) {
	dir := t.TempDir()
	_, err := runClearline(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	path := filepath.Join(dir, "accounts", "chart-of-accounts.csv")
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	accts, err := accountsCSV.ReadAccounts(f)
	require.NoError(t, err)
	assert.Len(t, accts, 12, "default sole trader chart has 12 accounts")
	for _, a := range accts {
		assert.True(t, a.Active, "account %d should start active", a.ID)
	}
}

func TestInit_Rules(t *testing.T) {
	dir := t.TempDir()
	_, err := runClearline(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "rules", "classification-rules.yaml"))
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "bank-interest")
	assert.Contains(t, contents, "default_category: uncategorized")
}

func TestInit_GitRepo(t *testing.T) {
	dir := t.TempDir()
	_, err := runClearline(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	// .git directory should exist.
	_, err = os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git should exist")

	// git log should have an init commit.
	log := exec.Command("git", "log", "--format=%s", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "init:")

	// Verify author.
	authorLog := exec.Command("git", "log", "--format=%an <%ae>", "-1")
	authorLog.Dir = dir
	out, err = authorLog.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "clearline <ledger@clearline.dev>")
}

func TestInit_Gitignore(t *testing.T) {
	dir := t.TempDir()
	_, err := runClearline(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	contents := string(data)

	for _, pattern := range []string{"import/", ".clearline-cache/"} {
		assert.Contains(t, contents, pattern, ".gitignore should contain %s", pattern)
	}
}

func TestInit_RequiresName(t *testing.T) {
	dir := t.TempDir()
	_, err := runClearline(t, "init", dir)
	require.Error(t, err, "init without --name should fail")
}

func TestExceptions_EmptyQueue(t *testing.T) {
	dir := t.TempDir()
	_, err := runClearline(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	out, err := runClearline(t, "exceptions", "--repo", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "exception queue is empty")
}
