// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-native-tls.
//
// go-native-tls is dual-licensed:
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
)

var (
	// Global configuration
	globalConfig *Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tlsprobe",
	Short: "tlsprobe - TLS session diagnostics tool",
	Long: `tlsprobe opens and inspects TLS sessions using the go-native-tls
session layer: protocol range negotiation, trust root policies,
client identities from PKCS#12 archives, PKCS#8 key pairs or
certificate store references, ALPN, and tls-server-end-point
channel binding tokens.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Initialize global config
	globalConfig = NewConfig()

	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&globalConfig.ConfigFile, "config", "",
		"config file (default is $HOME/.tlsprobe.yaml)")
	rootCmd.PersistentFlags().StringVarP(&globalConfig.OutputFormat, "output", "o", "text",
		"output format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&globalConfig.Verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().StringVar(&globalConfig.MinProtocol, "min-protocol", "",
		"minimum protocol version (SSLv3, TLSv1.0, TLSv1.1, TLSv1.2, TLSv1.3)")
	rootCmd.PersistentFlags().StringVar(&globalConfig.MaxProtocol, "max-protocol", "",
		"maximum protocol version")
	rootCmd.PersistentFlags().StringSliceVar(&globalConfig.ALPN, "alpn", nil,
		"application protocols to offer, most preferred first")
	rootCmd.PersistentFlags().StringVar(&globalConfig.PKCS12File, "pkcs12", "",
		"identity PKCS#12 archive file")
	rootCmd.PersistentFlags().StringVar(&globalConfig.PKCS12Password, "pkcs12-password", "",
		"password for the PKCS#12 archive")
	rootCmd.PersistentFlags().StringVar(&globalConfig.CertFile, "cert", "",
		"identity certificate chain file (PEM, leaf first)")
	rootCmd.PersistentFlags().StringVar(&globalConfig.KeyFile, "key", "",
		"identity private key file (PKCS#8 PEM)")
	rootCmd.PersistentFlags().StringVar(&globalConfig.EngineRef, "engine-ref", "",
		"identity certificate store reference (user:<store>:<fingerprint>, machine:<store>:<fingerprint>, file:<path>)")
	rootCmd.PersistentFlags().StringVar(&globalConfig.StoreRoot, "store-root", "",
		"certificate store root directory for engine references")
	rootCmd.PersistentFlags().StringVar(&globalConfig.CACertFile, "ca-cert", "",
		"PEM file of additional trust root certificates")
	rootCmd.PersistentFlags().BoolVar(&globalConfig.Insecure, "insecure", false,
		"accept any peer certificate (disables all validation)")
	rootCmd.PersistentFlags().BoolVar(&globalConfig.AcceptInvalidHostnames, "accept-invalid-hostnames", false,
		"skip hostname validation (chain validation still applies)")
	rootCmd.PersistentFlags().BoolVar(&globalConfig.NoSNI, "no-sni", false,
		"do not send the server name during the handshake")
	rootCmd.PersistentFlags().BoolVar(&globalConfig.DisableBuiltInRoots, "disable-built-in-roots", false,
		"trust only the roots from --ca-cert")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(serveCmd)
}

// getConfig returns the global configuration
func getConfig() *Config {
	return globalConfig
}

// handleError prints an error and exits with code 1
func handleError(err error) {
	printer := NewPrinter(globalConfig.OutputFormat, os.Stderr)
	_ = printer.PrintError(err) // Error printing to stderr is best-effort
	os.Exit(1)
}

// printVerbose prints a message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if globalConfig.Verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] "+format+"\n", args...)
	}
}
