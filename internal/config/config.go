// Package config loads and merges javagraph's project configuration from
// .javagraph/config.yaml, applying environment variable overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/javagraph/javagraph/internal/errs"
)

// Config is the merged project configuration for a javagraph run.
type Config struct {
	ProjectName string `yaml:"project_name"`

	// GraphPath is the file path of the embedded property-graph store.
	GraphPath string `yaml:"graph_path"`

	// JavaSourceFolder is scanned by C2/C3 for .java and MyBatis .xml files.
	JavaSourceFolder string `yaml:"java_source_folder"`
	// DBScriptFolder is scanned by C4 for DDL script files.
	DBScriptFolder string `yaml:"db_script_folder"`

	Logging LoggingConfig `yaml:"logging"`
	AI      AIConfig      `yaml:"ai"`

	// ImpactAnalysisOutputDir is where reverse-impact reports are written.
	ImpactAnalysisOutputDir string `yaml:"impact_analysis_output_dir"`
}

// LoggingConfig controls internal/logging.Initialize.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"`
	Categories map[string]bool `yaml:"categories"`
}

// AIConfig controls internal/ai's bounded-concurrency enrichment pool.
type AIConfig struct {
	SkipAnalysis       bool   `yaml:"skip_analysis"`
	ConcurrentRequests int    `yaml:"concurrent_requests"`
	AnthropicAPIKey    string `yaml:"-"` // never persisted to disk
}

// DefaultConfig returns the configuration used when no config.yaml exists.
func DefaultConfig() *Config {
	return &Config{
		ProjectName:      "javagraph",
		GraphPath:        ".javagraph/graph.db",
		JavaSourceFolder: "src/main/java",
		DBScriptFolder:   "db/scripts",
		Logging: LoggingConfig{
			DebugMode:  false,
			Level:      "info",
			JSONFormat: false,
		},
		AI: AIConfig{
			SkipAnalysis:       false,
			ConcurrentRequests: 4,
		},
		ImpactAnalysisOutputDir: ".javagraph/impact",
	}
}

// Load reads .javagraph/config.yaml under workspace (if present), falls
// back to DefaultConfig otherwise, then applies environment overrides.
func Load(workspace string) (*Config, error) {
	cfg := DefaultConfig()

	path := filepath.Join(workspace, ".javagraph", "config.yaml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if uerr := yaml.Unmarshal(data, cfg); uerr != nil {
			return nil, &errs.ConfigError{Message: fmt.Sprintf("parsing %s: %v", path, uerr)}
		}
	case os.IsNotExist(err):
		// no project config on disk; defaults stand.
	default:
		return nil, &errs.IOError{Op: "read", Path: path, Wrapped: err}
	}

	cfg.applyEnvOverrides()

	if cfg.JavaSourceFolder == "" && cfg.DBScriptFolder == "" {
		return nil, &errs.ConfigError{Message: "at least one of java_source_folder or db_script_folder must be set"}
	}
	return cfg, nil
}

// Save writes the config as .javagraph/config.yaml under workspace.
func Save(workspace string, cfg *Config) error {
	dir := filepath.Join(workspace, ".javagraph")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &errs.IOError{Op: "mkdir", Path: dir, Wrapped: err}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return &errs.ConfigError{Message: fmt.Sprintf("marshaling config: %v", err)}
	}
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &errs.IOError{Op: "write", Path: path, Wrapped: err}
	}
	return nil
}

// applyEnvOverrides overlays environment variables on top of whatever was
// loaded from disk, highest precedence last. Unset variables leave the
// existing value untouched.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("JAVAGRAPH_GRAPH_PATH"); v != "" {
		c.GraphPath = v
	}
	if v := os.Getenv("JAVA_SOURCE_FOLDER"); v != "" {
		c.JavaSourceFolder = v
	}
	if v := os.Getenv("DB_SCRIPT_FOLDER"); v != "" {
		c.DBScriptFolder = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CONCURRENT_AI_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.AI.ConcurrentRequests = n
		}
	}
	if v := os.Getenv("IMPACT_ANALYSIS_OUTPUT_DIR"); v != "" {
		c.ImpactAnalysisOutputDir = v
	}
	if v := os.Getenv("SKIP_AI_ANALYSIS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AI.SkipAnalysis = b
		}
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.AI.AnthropicAPIKey = v
	}
}
