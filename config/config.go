// Package config resolves blobd's configuration (C5): command-line flags,
// a TOML file at a user-config location, then built-in defaults, in that
// priority order. Grounded on spf13/viper + spf13/cobra as wired by
// meigma-blobber (cmd/blobber/cli/config) and mfinelli-modctl (cmd/root.go)
// — the teacher resolves its own (much larger) configuration from a
// bespoke YAML loader, but viper's flag/file/default layering is a direct
// match for this spec's three-tier resolution and is the idiom the rest
// of the retrieved pack converges on.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is blobd's fully resolved runtime configuration.
type Config struct {
	StoreRoot string `mapstructure:"store_root"`
	BindHost  string `mapstructure:"bind_host"`
	BindPort  int    `mapstructure:"bind_port"`
	AuthToken string `mapstructure:"auth_token"`
	LogLevel  string `mapstructure:"log_level"`
}

// Defaults mirror spec §4.5's "built-in defaults" tier.
const (
	DefaultStoreRoot = "./blobd-data"
	DefaultBindHost  = "127.0.0.1"
	DefaultBindPort  = 8080
	DefaultLogLevel  = "info"
)

// BindFlags registers blobd's recognized options on fs so a cobra command
// can expose them as command-line flags, the highest-priority config
// tier.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("store-root", DefaultStoreRoot, "path to the blob store root directory")
	fs.String("bind-host", DefaultBindHost, "HTTP listen host")
	fs.Int("bind-port", DefaultBindPort, "HTTP listen port")
	fs.String("auth-token", "", "shared auth token (generated and persisted on first run if unset)")
	fs.String("log-level", DefaultLogLevel, "log severity: debug, info, warn, error")
}

// flagKeys maps each flag registered by BindFlags to the mapstructure key
// Config unmarshals it into. Viper binds a pflag under its literal flag
// name, which is hyphenated for readability on the command line; this
// keeps that hyphenated name from silently failing to override the
// underscored config-file key it corresponds to.
var flagKeys = map[string]string{
	"store-root": "store_root",
	"bind-host":  "bind_host",
	"bind-port":  "bind_port",
	"auth-token": "auth_token",
	"log-level":  "log_level",
}

// BindToViper binds fs's flags (as registered by BindFlags) onto v under
// the config keys Config actually unmarshals from.
func BindToViper(v *viper.Viper, fs *pflag.FlagSet) error {
	for flagName, key := range flagKeys {
		flag := fs.Lookup(flagName)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding flag %s: %w", flagName, err)
		}
	}
	return nil
}

// Load resolves configuration from v, which must already have had
// BindFlags' flags bound to it (see internal/cli for the cobra wiring).
// configFile is the TOML file to read and, if a token must be generated,
// write back to; callers normally obtain it from FilePath. If no
// auth_token is available from flags or the file, one is generated,
// persisted to configFile, and logged once — satisfying spec §4.5's
// first-run bootstrap behavior.
func Load(v *viper.Viper, configFile string, log logrus.FieldLogger) (*Config, error) {
	v.SetDefault("store_root", DefaultStoreRoot)
	v.SetDefault("bind_host", DefaultBindHost)
	v.SetDefault("bind_port", DefaultBindPort)
	v.SetDefault("log_level", DefaultLogLevel)

	v.SetConfigFile(configFile)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if cfg.AuthToken == "" {
		token := uuid.NewString()
		cfg.AuthToken = token
		v.Set("auth_token", token)

		if err := persistToken(v, configFile); err != nil {
			return nil, fmt.Errorf("persisting generated auth token: %w", err)
		}

		log.WithField("config_file", configFile).Info("generated new auth token and saved it to the config file")
	}

	return &cfg, nil
}

func persistToken(v *viper.Viper, configFile string) error {
	if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
		return err
	}
	if err := v.WriteConfigAs(configFile); err != nil {
		return err
	}
	return os.Chmod(configFile, 0o600)
}
