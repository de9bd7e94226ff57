package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize_DisabledIsNoOp(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, false, "info", false, nil))

	assert.NoDirExists(t, filepath.Join(dir, ".javagraph", "logs"))

	l := Get(CategoryGraph)
	l.Info("should not panic or write anything")
}

func TestInitialize_EnabledWritesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, true, "debug", false, nil))
	defer CloseAll()

	l := Get(CategoryExtractJava)
	l.Info("parsed %d files", 3)
	l.Debug("debug detail")

	entries, err := os.ReadDir(filepath.Join(dir, ".javagraph", "logs"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestIsCategoryEnabled_PerCategoryOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, true, "info", false, map[string]bool{
		string(CategoryAI): false,
	}))
	defer CloseAll()

	assert.False(t, IsCategoryEnabled(CategoryAI))
	assert.True(t, IsCategoryEnabled(CategoryGraph))
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, true, "warn", false, nil))
	defer CloseAll()

	l := Get(CategoryImpact)
	// Should not panic even though debug/info are below the configured level.
	l.Debug("ignored")
	l.Info("ignored")
	l.Warn("kept")
	l.Error("kept")
}
