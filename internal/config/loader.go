package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/codetrail-dev/codetrail/internal/errs"
)

// Loader loads configuration from defaults, a repo-root
// .codetrailrc.json, and CODETRAIL_* environment variables, env winning
// over file winning over defaults.
type Loader interface {
	Load() (*Config, error)
}

type loader struct {
	repoRoot string
}

// NewLoader creates a loader rooted at repoRoot, where .codetrailrc.json
// is searched for.
func NewLoader(repoRoot string) Loader {
	return &loader{repoRoot: repoRoot}
}

// Load merges defaults, the config file, and environment variables. A
// malformed config file is errs.ErrConfigParse-wrapped and recoverable:
// callers should warn and fall back to defaults rather than abort, per
// §7's propagation policy.
func (l *loader) Load() (*Config, error) {
	def := Default()

	v := viper.New()
	v.SetConfigName(".codetrailrc")
	v.SetConfigType("json")
	v.AddConfigPath(l.repoRoot)

	v.SetEnvPrefix("CODETRAIL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v, def)

	cfg := *def
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return def, errs.WithHint(errs.KindConfigParse, "using built-in defaults", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return def, errs.WithHint(errs.KindConfigParse, "using built-in defaults", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, def *Config) {
	v.SetDefault("include", def.Include)
	v.SetDefault("exclude", def.Exclude)
	v.SetDefault("excludePatterns", def.ExcludePatterns)
	v.SetDefault("maxFileLines", def.MaxFileLines)
	v.SetDefault("indexTests", def.IndexTests)
	v.SetDefault("chunkMaxTokens", def.ChunkMaxTokens)
	v.SetDefault("embeddingProvider", def.EmbeddingProvider)
	v.SetDefault("embeddingModel", def.EmbeddingModel)
	v.SetDefault("embeddingBatchSize", def.EmbeddingBatchSize)
	v.SetDefault("searchLimit", def.SearchLimit)
	v.SetDefault("git.includeFileChunks", def.Git.IncludeFileChunks)
	v.SetDefault("git.includeMergeGroups", def.Git.IncludeMergeGroups)
	v.SetDefault("git.maxDiffLinesPerFile", def.Git.MaxDiffLinesPerFile)
	v.SetDefault("git.enrichLowQualityMessages", def.Git.EnrichLowQualityMessages)
	v.SetDefault("git.lowQualityThreshold", def.Git.LowQualityThreshold)
	v.SetDefault("git.skipBotAuthors", def.Git.SkipBotAuthors)
	v.SetDefault("git.skipMessagePatterns", def.Git.SkipMessagePatterns)
	v.SetDefault("git.maxCommits", def.Git.MaxCommits)
}
