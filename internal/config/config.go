// Package config loads the pipeline's HCL configuration: shard bucket
// defaults, retriever thresholds, cache sizing, and tag-generator
// priority (spec §6 "Configuration (enumerated)"). Grounded on the
// teacher's internal/server/config.go: hclparse + gohcl.DecodeBody,
// file-absent falls back to a documented default, then a post-decode
// pass fills any zero-valued optional fields.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/railbird/solver-enrichment/internal/retriever"
	"github.com/railbird/solver-enrichment/internal/tags"
)

// ShardConfig covers the object-store defaults (spec §6 shard.*).
type ShardConfig struct {
	DefaultBucket string `hcl:"default_bucket,optional"`
}

// RetrieverConfig covers the vector-search tunables (spec §6 retriever.*).
type RetrieverConfig struct {
	MinScore       float64 `hcl:"min_score,optional"`
	Limit          int     `hcl:"limit,optional"`
	MaxParentDepth int     `hcl:"max_parent_depth,optional"`
}

// CacheConfig covers the per-invocation shard cache sizing (spec §6
// cache.*). MaxShardsPerInvocation is advisory: the cache never evicts
// within an invocation by default (spec §6).
type CacheConfig struct {
	MaxShardsPerInvocation int `hcl:"max_shards_per_invocation,optional"`
}

// TagConfig covers the tag generator's priority mode and per-category cap
// (spec §6 tag.*).
type TagConfig struct {
	Priority            string `hcl:"priority,optional"`
	MaxTagsPerCategory  int    `hcl:"max_tags_per_category,optional"`
}

// PipelineConfig is the top-level HCL document.
type PipelineConfig struct {
	Shard     ShardConfig     `hcl:"shard,block"`
	Retriever RetrieverConfig `hcl:"retriever,block"`
	Cache     CacheConfig     `hcl:"cache,block"`
	Tag       TagConfig       `hcl:"tag,block"`
}

// DefaultPipelineConfig returns the spec-documented defaults: minScore
// 0.55, limit 10, maxParentDepth 2, balanced tag priority, 5 tags per
// category, 8 cached shards per invocation.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		Shard: ShardConfig{DefaultBucket: "gto-shards"},
		Retriever: RetrieverConfig{
			MinScore:       0.55,
			Limit:          10,
			MaxParentDepth: 2,
		},
		Cache: CacheConfig{MaxShardsPerInvocation: 8},
		Tag:   TagConfig{Priority: string(tags.Balanced), MaxTagsPerCategory: 5},
	}
}

// Load reads an HCL config file, falling back to DefaultPipelineConfig
// when the file does not exist, then fills any still-zero optional field
// from the defaults.
func Load(filename string) (*PipelineConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultPipelineConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: parse %s: %s", filename, diags.Error())
	}

	var cfg PipelineConfig
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: decode %s: %s", filename, diags.Error())
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *PipelineConfig) {
	d := DefaultPipelineConfig()
	if cfg.Shard.DefaultBucket == "" {
		cfg.Shard.DefaultBucket = d.Shard.DefaultBucket
	}
	if cfg.Retriever.MinScore == 0 {
		cfg.Retriever.MinScore = d.Retriever.MinScore
	}
	if cfg.Retriever.Limit == 0 {
		cfg.Retriever.Limit = d.Retriever.Limit
	}
	if cfg.Retriever.MaxParentDepth == 0 {
		cfg.Retriever.MaxParentDepth = d.Retriever.MaxParentDepth
	}
	if cfg.Cache.MaxShardsPerInvocation == 0 {
		cfg.Cache.MaxShardsPerInvocation = d.Cache.MaxShardsPerInvocation
	}
	if cfg.Tag.Priority == "" {
		cfg.Tag.Priority = d.Tag.Priority
	}
	if cfg.Tag.MaxTagsPerCategory == 0 {
		cfg.Tag.MaxTagsPerCategory = d.Tag.MaxTagsPerCategory
	}
}

// ToRetrieverConfig translates this config's retriever.* fields into the
// internal/retriever package's Config shape.
func (c *PipelineConfig) ToRetrieverConfig() retriever.Config {
	return retriever.Config{
		MinScore:       c.Retriever.MinScore,
		Limit:          c.Retriever.Limit,
		MaxParentDepth: c.Retriever.MaxParentDepth,
	}
}

// ToTagConfig translates this config's tag.* fields into the internal/tags
// package's Config shape.
func (c *PipelineConfig) ToTagConfig() tags.Config {
	return tags.Config{
		Priority:           tags.Priority(c.Tag.Priority),
		MaxTagsPerCategory: c.Tag.MaxTagsPerCategory,
	}
}

// ShardStoreMaxShards returns the advisory cache size for
// shardstore.New's maxShards parameter.
func (c *PipelineConfig) ShardStoreMaxShards() int {
	if c.Cache.MaxShardsPerInvocation <= 0 {
		return 0
	}
	return c.Cache.MaxShardsPerInvocation
}
