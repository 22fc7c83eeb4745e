// Package config loads and validates gateway configuration from
// defaults, config files, environment variables, and CLI flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	linkhttp "github.com/akavelink/akavelink/http"
)

// Config is the root configuration struct for the gateway.
type Config struct {
	Server ServerConfig        `mapstructure:"server"`
	Node   NodeConfig          `mapstructure:"node"`
	CLI    CLIConfig           `mapstructure:"cli"`
	Chain  ChainConfig         `mapstructure:"chain"`
	CORS   linkhttp.CORSConfig `mapstructure:"cors"`
	Log    LogConfig           `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port          int   `mapstructure:"port" validate:"required,min=1,max=65535"`
	MaxUploadSize int64 `mapstructure:"max_upload_size" validate:"min=0"`
}

// NodeConfig holds the storage node credentials passed to every CLI
// invocation.
type NodeConfig struct {
	Address    string `mapstructure:"address" validate:"required"`
	PrivateKey string `mapstructure:"private_key" validate:"required"`
}

// CLIConfig holds the wrapped binary configuration.
type CLIConfig struct {
	Binary string `mapstructure:"binary" validate:"required"`
}

// ChainConfig holds transaction-hash enrichment configuration.
type ChainConfig struct {
	Enrich bool   `mapstructure:"enrich"`
	RPCURL string `mapstructure:"rpc_url" validate:"required_if=Enrich true,omitempty,url"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":         "server.port",
	"node-address": "node.address",
	"private-key":  "node.private_key",
	"cli-binary":   "cli.binary",
	"rpc-url":      "chain.rpc_url",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set.
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.max_upload_size", 0) // 0 means no limit

	v.SetDefault("cli.binary", "akavecli")

	v.SetDefault("chain.enrich", false)

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files
// > defaults.
//
// Parameters:
//   - configFiles: list of config file paths (later files override
//     earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("AKAVELINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
