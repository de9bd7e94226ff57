package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOverrides_GraphPath(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv("JAVAGRAPH_GRAPH_PATH", "/tmp/custom-graph.db")
	cfg.applyEnvOverrides()
	assert.Equal(t, "/tmp/custom-graph.db", cfg.GraphPath)
}

func TestEnvOverrides_SourceFolders(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv("JAVA_SOURCE_FOLDER", "app/src")
	t.Setenv("DB_SCRIPT_FOLDER", "sql/migrations")
	cfg.applyEnvOverrides()
	assert.Equal(t, "app/src", cfg.JavaSourceFolder)
	assert.Equal(t, "sql/migrations", cfg.DBScriptFolder)
}

func TestEnvOverrides_LogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "info"
	t.Setenv("LOG_LEVEL", "debug")
	cfg.applyEnvOverrides()
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvOverrides_ConcurrentAIRequests(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AI.ConcurrentRequests = 4

	t.Setenv("CONCURRENT_AI_REQUESTS", "12")
	cfg.applyEnvOverrides()
	assert.Equal(t, 12, cfg.AI.ConcurrentRequests)

	// A non-numeric value leaves the existing setting untouched.
	cfg2 := DefaultConfig()
	cfg2.AI.ConcurrentRequests = 4
	t.Setenv("CONCURRENT_AI_REQUESTS", "not-a-number")
	cfg2.applyEnvOverrides()
	assert.Equal(t, 4, cfg2.AI.ConcurrentRequests)

	// Zero or negative values are rejected.
	cfg3 := DefaultConfig()
	cfg3.AI.ConcurrentRequests = 4
	t.Setenv("CONCURRENT_AI_REQUESTS", "0")
	cfg3.applyEnvOverrides()
	assert.Equal(t, 4, cfg3.AI.ConcurrentRequests)
}

func TestEnvOverrides_SkipAIAnalysis(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.AI.SkipAnalysis)

	t.Setenv("SKIP_AI_ANALYSIS", "true")
	cfg.applyEnvOverrides()
	assert.True(t, cfg.AI.SkipAnalysis)
}

func TestEnvOverrides_ImpactOutputDirAndAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv("IMPACT_ANALYSIS_OUTPUT_DIR", "/tmp/impact-reports")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test-key")
	cfg.applyEnvOverrides()
	assert.Equal(t, "/tmp/impact-reports", cfg.ImpactAnalysisOutputDir)
	assert.Equal(t, "sk-ant-test-key", cfg.AI.AnthropicAPIKey)
}

func TestEnvOverrides_UnsetVarsLeaveDefaultsUntouched(t *testing.T) {
	cfg := DefaultConfig()
	want := *cfg
	cfg.applyEnvOverrides()
	assert.Equal(t, want, *cfg)
}
