package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// configFileUsed tracks the file the last Load picked up, for verbose output.
var configFileUsed string

// findConfigFile picks the config file to use.
// Priority: explicit path > ./searchlens.yaml > ~/.searchlens/searchlens.yaml.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat("searchlens.yaml"); err == nil {
		return "searchlens.yaml"
	}
	candidate := filepath.Join(HomeDir(), "searchlens.yaml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

// Load builds the configuration from defaults, the config file, SEARCHLENS_*
// environment variables, and explicitly-set CLI flags, in ascending priority.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults.
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"account":          DefaultAccount,
		"state_path":       DefaultStatePath(),
		"presets_path":     DefaultPresetsPath(),
		"credentials_path": DefaultCredentialsPath(),
		"max_row_limit":    DefaultMaxRowLimit,
		"default_limit":    DefaultLimit,
		"serve_addr":       DefaultServeAddr,
		"verbose":          false,
		"output":           DefaultOutputFormat,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file, if any.
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables: SEARCHLENS_SITE_URL -> site_url.
	if err := k.Load(env.Provider("SEARCHLENS_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SEARCHLENS_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only those explicitly set.
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			// kebab-case flags map to snake_case config keys; --site is
			// shorthand for site_url.
			key := strings.ReplaceAll(f.Name, "-", "_")
			if key == "site" {
				return "site_url", posflag.FlagVal(flags, f)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// FileUsed returns the path of the config file the last Load read, if any.
func FileUsed() string {
	return configFileUsed
}
