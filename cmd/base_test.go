package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/renaissanceio/renio/config"
)

func newFlags(cfg *config.Config) *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flags, cfg)
	AddDiscoveryFlags(flags, cfg)
	return flags
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renio.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[main]
identity = "@file"

[scanner]
staleness = "20s"

[mob]
save-interval = "5m"
`), 0o600))

	cfg := config.DefaultConfig()
	flags := newFlags(&cfg)
	require.NoError(t, flags.Parse([]string{"--config", path, "--identity", "@flag", "--sweep-interval", "3s"}))
	require.NoError(t, LoadConfig(flags, &cfg))

	require.Equal(t, "@flag", cfg.Identity)
	require.Equal(t, 20*time.Second, cfg.Scanner.Staleness)
	require.Equal(t, 5*time.Minute, cfg.Mob.SaveInterval)
	require.Equal(t, 3*time.Second, cfg.Mob.SweepInterval)
}

func TestLoadConfigWithoutFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ConfigFile = filepath.Join(t.TempDir(), "missing.toml")
	flags := newFlags(&cfg)
	require.NoError(t, flags.Parse([]string{"--attendees", "4"}))
	require.NoError(t, LoadConfig(flags, &cfg))
	require.Equal(t, 4, cfg.Sim.Attendees)

	require.NoError(t, flags.Parse([]string{"--config", cfg.ConfigFile}))
	require.Error(t, LoadConfig(flags, &cfg), "explicit config file must exist")
}

func TestLoadConfigInvalid(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ConfigFile = filepath.Join(t.TempDir(), "missing.toml")
	flags := newFlags(&cfg)
	require.NoError(t, flags.Parse([]string{"--staleness", "0s"}))
	require.Error(t, LoadConfig(flags, &cfg))
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renio.toml")
	require.NoError(t, os.WriteFile(path, []byte("[scanner]\nloudness = 11\n"), 0o600))

	cfg := config.DefaultConfig()
	flags := newFlags(&cfg)
	require.NoError(t, flags.Parse([]string{"--config", path}))
	require.ErrorContains(t, LoadConfig(flags, &cfg), "config file is malformed")
}
