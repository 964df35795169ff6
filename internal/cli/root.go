// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-biokey.
//
// go-biokey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-biokey/internal/config"
	"github.com/jeremyhahn/go-biokey/pkg/biokey"
)

var (
	// Global CLI flags
	configFile   string
	dataDir      string
	debug        bool
	outputFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "biokey",
	Short: "go-biokey CLI - Biometric-gated signing key management",
	Long: `go-biokey CLI manages hardware-emulated ECDSA signing keys gated by
biometric authentication. Keys are generated inside a secure store and
referenced only by their public keys; private key material never leaves
the store.

Commands operate on base64url-encoded uncompressed P-256 public keys as
printed by "biokey generate".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is built-in development config)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"directory for key and alias storage (default in-memory)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false,
		"enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text",
		"output format (text, json)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(hasKeyCmd)
	rootCmd.AddCommand(hardwareBackedCmd)
	rootCmd.AddCommand(infoCmd)
}

// loadConfig resolves the effective configuration from the config file and
// global flags.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if dataDir != "" {
		cfg.Storage.Path = dataDir
	}
	if debug {
		cfg.Logging.Debug = true
	}
	return cfg, nil
}

// newService builds a Service from the effective configuration.
func newService() (*biokey.Service, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	svc, err := cfg.CreateService(nil)
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

// handleError prints an error and exits with code 1
func handleError(err error) {
	printer := NewPrinter(outputFormat, os.Stderr)
	_ = printer.PrintError(err)
	os.Exit(1)
}

// printVerbose prints a message if debug mode is enabled
func printVerbose(format string, args ...interface{}) {
	if debug {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}
