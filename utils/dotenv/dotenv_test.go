package dotenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDotEnvsInTestsFindsModuleRoot(t *testing.T) {
	root := t.TempDir()
	assert.Nil(t, os.WriteFile(filepath.Join(root, "go.mod"),
		[]byte("module example.com/scratch\n"), 0644))
	assert.Nil(t, os.WriteFile(filepath.Join(root, ".env.test"),
		[]byte("DOTENV_TEST_MARKER=loaded\n"), 0644))

	// Run from a nested package directory, the way go test does.
	nested := filepath.Join(root, "utils", "dotenv")
	assert.Nil(t, os.MkdirAll(nested, 0755))

	cwd, err := os.Getwd()
	assert.Nil(t, err)
	t.Cleanup(func() { os.Chdir(cwd) })
	assert.Nil(t, os.Chdir(nested))

	os.Unsetenv("DOTENV_TEST_MARKER")
	assert.Nil(t, LoadDotEnvsInTests())
	assert.Equal(t, "loaded", os.Getenv("DOTENV_TEST_MARKER"))
}

func TestFindModuleRootStopsAtGoMod(t *testing.T) {
	root := t.TempDir()
	assert.Nil(t, os.WriteFile(filepath.Join(root, "go.mod"),
		[]byte("module example.com/scratch\n"), 0644))
	nested := filepath.Join(root, "a", "b")
	assert.Nil(t, os.MkdirAll(nested, 0755))

	cwd, err := os.Getwd()
	assert.Nil(t, err)
	t.Cleanup(func() { os.Chdir(cwd) })
	assert.Nil(t, os.Chdir(nested))

	got, err := findModuleRoot()
	assert.Nil(t, err)
	// Resolve symlinks: on some systems TempDir returns a symlinked path.
	wantReal, _ := filepath.EvalSymlinks(root)
	gotReal, _ := filepath.EvalSymlinks(got)
	assert.Equal(t, wantReal, gotReal)
}
