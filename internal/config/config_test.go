package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPipelineConfigMatchesDocumentedDefaults(t *testing.T) {
	cfg := DefaultPipelineConfig()
	assert.Equal(t, 0.55, cfg.Retriever.MinScore)
	assert.Equal(t, 10, cfg.Retriever.Limit)
	assert.Equal(t, 2, cfg.Retriever.MaxParentDepth)
	assert.Equal(t, 5, cfg.Tag.MaxTagsPerCategory)
	assert.Equal(t, "balanced", cfg.Tag.Priority)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPipelineConfig(), cfg)
}

func TestLoadParsesHCLAndFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.hcl")
	hcl := `
shard {
  default_bucket = "custom-bucket"
}

retriever {
  min_score = 0.7
}

cache {
}

tag {
  priority = "verbose"
}
`
	require.NoError(t, os.WriteFile(path, []byte(hcl), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom-bucket", cfg.Shard.DefaultBucket)
	assert.Equal(t, 0.7, cfg.Retriever.MinScore)
	assert.Equal(t, 10, cfg.Retriever.Limit, "zero-valued optional field falls back to default")
	assert.Equal(t, 8, cfg.Cache.MaxShardsPerInvocation)
	assert.Equal(t, "verbose", cfg.Tag.Priority)
	assert.Equal(t, 5, cfg.Tag.MaxTagsPerCategory)
}

func TestToRetrieverConfigAndToTagConfig(t *testing.T) {
	cfg := DefaultPipelineConfig()
	rc := cfg.ToRetrieverConfig()
	assert.Equal(t, cfg.Retriever.MinScore, rc.MinScore)
	tc := cfg.ToTagConfig()
	assert.Equal(t, cfg.Tag.MaxTagsPerCategory, tc.MaxTagsPerCategory)
}
