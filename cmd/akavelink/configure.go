package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Interactively create the gateway configuration",
	Long: `Interactively create the gateway configuration file.

You will be prompted for:
  - Storage node address
  - Account private key (hex, without 0x prefix)
  - Storage CLI binary path
  - Whether to enable transaction-hash enrichment

Configuration is stored in ~/.akavelink/config.yaml`,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

// fileConfig mirrors the config package's YAML layout for writing.
type fileConfig struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Node struct {
		Address    string `yaml:"address"`
		PrivateKey string `yaml:"private_key"`
	} `yaml:"node"`
	CLI struct {
		Binary string `yaml:"binary"`
	} `yaml:"cli"`
	Chain struct {
		Enrich bool   `yaml:"enrich"`
		RPCURL string `yaml:"rpc_url,omitempty"`
	} `yaml:"chain"`
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".akavelink", "config.yaml"), nil
}

func runConfigure(_ *cobra.Command, _ []string) error {
	var cfg fileConfig
	cfg.Server.Port = 4000

	addressPrompt := promptui.Prompt{
		Label: "Storage node address",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("address is required")
			}
			return nil
		},
	}
	address, err := addressPrompt.Run()
	if err != nil {
		return err
	}
	cfg.Node.Address = strings.TrimSpace(address)

	keyPrompt := promptui.Prompt{
		Label: "Account private key (hex, no 0x prefix)",
		Mask:  '*',
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("private key is required")
			}
			return nil
		},
	}
	key, err := keyPrompt.Run()
	if err != nil {
		return err
	}
	cfg.Node.PrivateKey = strings.TrimSpace(key)

	binaryPrompt := promptui.Prompt{
		Label:   "Storage CLI binary",
		Default: "akavecli",
	}
	binary, err := binaryPrompt.Run()
	if err != nil {
		return err
	}
	cfg.CLI.Binary = strings.TrimSpace(binary)

	enrichPrompt := promptui.Select{
		Label: "Enrich uploads with transaction hashes",
		Items: []string{"no", "yes"},
	}
	_, enrich, err := enrichPrompt.Run()
	if err != nil {
		return err
	}
	cfg.Chain.Enrich = enrich == "yes"

	if cfg.Chain.Enrich {
		rpcPrompt := promptui.Prompt{
			Label: "Chain RPC URL",
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("rpc url is required when enrichment is enabled")
				}
				return nil
			},
		}
		rpcURL, err := rpcPrompt.Run()
		if err != nil {
			return err
		}
		cfg.Chain.RPCURL = strings.TrimSpace(rpcURL)
	}

	path, err := defaultConfigPath()
	if err != nil {
		return err
	}
	if err := writeConfigFile(path, &cfg); err != nil {
		return err
	}

	fmt.Printf("Configuration written to %s\n", path)
	return nil
}

// writeConfigFile writes the config under a file lock so concurrent
// configure runs cannot interleave partial writes.
func writeConfigFile(path string, cfg *fileConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock config file: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
