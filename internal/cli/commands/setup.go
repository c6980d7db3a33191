package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/searchlens-labs/searchlens/internal/cli/output"
	"github.com/searchlens-labs/searchlens/internal/config"
	"github.com/searchlens-labs/searchlens/internal/query"
	"github.com/searchlens-labs/searchlens/internal/query/preset"
	"github.com/searchlens-labs/searchlens/internal/state"
)

// configKey stores the loaded config in the command context; the root
// command sets it in PersistentPreRunE.
type configKey struct{}

// loggerKey stores the slog logger in the command context.
type loggerKey struct{}

// WithConfig returns a context carrying cfg.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetConfig retrieves the config from the command context, falling back to
// defaults when the root command did not run (direct command tests).
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		Account:         config.DefaultAccount,
		StatePath:       config.DefaultStatePath(),
		PresetsPath:     config.DefaultPresetsPath(),
		CredentialsPath: config.DefaultCredentialsPath(),
		MaxRowLimit:     config.DefaultMaxRowLimit,
		DefaultLimit:    config.DefaultLimit,
		ServeAddr:       config.DefaultServeAddr,
		OutputFormat:    config.DefaultOutputFormat,
	}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// CommandContext holds the dependencies most commands need.
type CommandContext struct {
	Cfg     *config.Config
	Logger  *slog.Logger
	Styles  *output.Styles
	Presets *preset.Registry
}

// NewCommandContext assembles config, logger, styles, and the preset
// registry (built-ins plus the user presets file).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := GetConfig(cmd.Context())

	registry := preset.NewRegistry()
	if err := preset.LoadInto(registry, cfg.PresetsPath); err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:     cfg,
		Logger:  GetLogger(cmd.Context()),
		Styles:  output.NewStyles(),
		Presets: registry,
	}, nil
}

// Normalizer builds the query normalizer over the loaded presets and
// configured limits.
func (c *CommandContext) Normalizer() *query.Normalizer {
	return &query.Normalizer{
		Presets:      c.Presets,
		MaxRowLimit:  c.Cfg.MaxRowLimit,
		DefaultLimit: c.Cfg.DefaultLimit,
	}
}

// OpenStore opens the state database, creating its directory first.
func (c *CommandContext) OpenStore() (*state.SQLiteStore, error) {
	dir := filepath.Dir(c.Cfg.StatePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	return state.Open(c.Cfg.StatePath)
}
