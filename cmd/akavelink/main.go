package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "akavelink",
	Short:   "HTTP gateway for decentralized storage buckets and files",
	Long: `Akavelink exposes bucket and file operations of a decentralized
storage network over a JSON REST API by wrapping the storage CLI.`,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("node-address", "", "storage node address (env: AKAVELINK_NODE_ADDRESS)")
	rootCmd.PersistentFlags().String("private-key", "", "account private key, hex without 0x (env: AKAVELINK_NODE_PRIVATE_KEY)")
	rootCmd.PersistentFlags().String("cli-binary", "", "storage CLI binary (default: akavecli, env: AKAVELINK_CLI_BINARY)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
