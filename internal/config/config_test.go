package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.MaxItems)
	assert.Equal(t, 10, cfg.MaxPages)
	assert.Equal(t, 3, cfg.RetryLimit)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, "data", cfg.OutputDir)
	assert.Equal(t, "upwork_jobs", cfg.FilePrefix)
}

func TestLoad_YAMLAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `query: golang developer
max_items: 25
output_format: csv
filters:
  job_type: hourly
  budget_min: 100
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "golang developer", cfg.Query)
	assert.Equal(t, 25, cfg.MaxItems)
	assert.Equal(t, "csv", cfg.OutputFormat)
	assert.Equal(t, "hourly", cfg.Filters.JobType)
	assert.Equal(t, 100, cfg.Filters.BudgetMin)
	//unset fields still get defaults
	assert.Equal(t, "2s", cfg.RetryDelay)
	assert.Equal(t, "30s", cfg.Timeout)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{Query: "golang"}
		cfg.applyDefaults()
		return cfg
	}

	assert.NoError(t, base().Validate())

	noQuery := base()
	noQuery.Query = ""
	assert.Error(t, noQuery.Validate())

	badDelay := base()
	badDelay.RetryDelay = "soon"
	assert.Error(t, badDelay.Validate())

	badPages := base()
	badPages.MaxPages = -1
	assert.Error(t, badPages.Validate())
}
