// Package cli holds helpers shared by the docragd commands.
package cli

import (
	"fmt"

	"github.com/cloo-solutions/docrag/internal/config"
	"github.com/spf13/pflag"
)

// Flag names bound to configuration fields.
const (
	FlagDatabaseURL       = "database-url"
	FlagDebug             = "debug"
	FlagEmbeddingDim      = "embedding-dim"
	FlagEmbeddingProvider = "embedding-provider"
	FlagEmbeddingURL      = "embedding-url"
)

// AddConfigFlags registers persistent flags that override environment settings.
func AddConfigFlags(fs *pflag.FlagSet) {
	fs.String(FlagDatabaseURL, "", "Postgres connection URL (overrides DOCRAG_DATABASE_URL)")
	fs.Bool(FlagDebug, false, "Enable development logging")
	fs.Int(FlagEmbeddingDim, 0, "Configured embedding width (overrides DOCRAG_EMBEDDING_DIM)")
	fs.String(FlagEmbeddingProvider, "", "Embedding provider: http or openai")
	fs.String(FlagEmbeddingURL, "", "HTTP embedding endpoint")
}

// ApplyOverrides copies every flag the user set explicitly onto cfg and
// re-validates the result. Flags left at their defaults do not touch cfg.
func ApplyOverrides(fs *pflag.FlagSet, cfg *config.Config) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case FlagDatabaseURL:
			cfg.DatabaseURL, err = fs.GetString(f.Name)
		case FlagDebug:
			cfg.Debug, err = fs.GetBool(f.Name)
		case FlagEmbeddingDim:
			cfg.EmbeddingDim, err = fs.GetInt(f.Name)
		case FlagEmbeddingProvider:
			cfg.EmbeddingProvider, err = fs.GetString(f.Name)
		case FlagEmbeddingURL:
			cfg.EmbeddingURL, err = fs.GetString(f.Name)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to read flag: %w", err)
	}
	return cfg.Validate()
}

// LoadConfig loads configuration from the environment and applies flag overrides.
func LoadConfig(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := ApplyOverrides(fs, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
