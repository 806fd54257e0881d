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

	"github.com/spf13/viper"

	"github.com/nnmkhang/go-native-tls/pkg/certstore"
	"github.com/nnmkhang/go-native-tls/pkg/encoding"
	"github.com/nnmkhang/go-native-tls/pkg/identity"
	"github.com/nnmkhang/go-native-tls/pkg/keyprovider"
	"github.com/nnmkhang/go-native-tls/pkg/tls"
	"github.com/nnmkhang/go-native-tls/pkg/types"
)

// Config holds global CLI configuration
type Config struct {
	// ConfigFile is the path to the configuration file
	ConfigFile string

	// OutputFormat controls output formatting (text, json)
	OutputFormat string

	// Verbose enables verbose logging
	Verbose bool

	// MinProtocol / MaxProtocol bound the negotiated protocol version
	MinProtocol string
	MaxProtocol string

	// ALPN is the application protocol offer list
	ALPN []string

	// PKCS12File and PKCS12Password locate a PKCS#12 identity archive
	PKCS12File     string
	PKCS12Password string

	// CertFile and KeyFile locate a PEM certificate chain and PKCS#8 key
	CertFile string
	KeyFile  string

	// EngineRef is a certificate store reference
	// (user:<store>:<fingerprint>, machine:<store>:<fingerprint>, file:<path>)
	EngineRef string

	// StoreRoot is the certificate store root directory used to resolve
	// user/machine engine references
	StoreRoot string

	// CACertFile is a PEM file of additional trust roots
	CACertFile string

	// Insecure disables all peer validation
	Insecure bool

	// AcceptInvalidHostnames disables hostname validation only
	AcceptInvalidHostnames bool

	// NoSNI suppresses the server name during the handshake
	NoSNI bool

	// DisableBuiltInRoots restricts trust to CACertFile roots
	DisableBuiltInRoots bool

	// MetricsListen is the address of the serve command's Prometheus
	// endpoint; empty leaves metrics disabled
	MetricsListen string
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		OutputFormat: "text",
		Verbose:      false,
	}
}

// initConfig reads the config file and environment into viper and
// overlays any values the flags left at their defaults.
func initConfig() {
	if globalConfig.ConfigFile != "" {
		viper.SetConfigFile(globalConfig.ConfigFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".tlsprobe")
		}
	}

	viper.SetEnvPrefix("TLSPROBE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		printVerbose("Using config file: %s", viper.ConfigFileUsed())
	}

	if globalConfig.PKCS12Password == "" {
		globalConfig.PKCS12Password = viper.GetString("pkcs12_password")
	}
	if globalConfig.StoreRoot == "" {
		globalConfig.StoreRoot = viper.GetString("store_root")
	}
	if globalConfig.CACertFile == "" {
		globalConfig.CACertFile = viper.GetString("ca_cert")
	}
	if !globalConfig.Insecure {
		globalConfig.Insecure = viper.GetBool("insecure")
	}
	if !globalConfig.AcceptInvalidHostnames {
		globalConfig.AcceptInvalidHostnames = viper.GetBool("accept_invalid_hostnames")
	}
	if !globalConfig.NoSNI {
		globalConfig.NoSNI = viper.GetBool("no_sni")
	}
	if !globalConfig.DisableBuiltInRoots {
		globalConfig.DisableBuiltInRoots = viper.GetBool("disable_built_in_roots")
	}
}

// ProtocolRange parses the configured protocol bounds.
func (c *Config) ProtocolRange() (types.ProtocolRange, error) {
	var r types.ProtocolRange
	if c.MinProtocol != "" {
		p, err := types.ParseProtocol(c.MinProtocol)
		if err != nil {
			return r, err
		}
		r.Min = types.ProtocolPtr(p)
	}
	if c.MaxProtocol != "" {
		p, err := types.ParseProtocol(c.MaxProtocol)
		if err != nil {
			return r, err
		}
		r.Max = types.ProtocolPtr(p)
	}
	if err := r.Validate(); err != nil {
		return r, err
	}
	return r, nil
}

// LoadIdentity resolves the configured identity source, or returns nil
// when none is configured. At most one source may be set.
func (c *Config) LoadIdentity() (*identity.Identity, error) {
	sources := 0
	if c.PKCS12File != "" {
		sources++
	}
	if c.CertFile != "" || c.KeyFile != "" {
		sources++
	}
	if c.EngineRef != "" {
		sources++
	}
	if sources == 0 {
		return nil, nil
	}
	if sources > 1 {
		return nil, fmt.Errorf("at most one identity source may be configured")
	}

	switch {
	case c.PKCS12File != "":
		der, err := os.ReadFile(c.PKCS12File)
		if err != nil {
			return nil, fmt.Errorf("failed to read PKCS#12 archive: %w", err)
		}
		return identity.FromPKCS12(der, c.PKCS12Password)

	case c.EngineRef != "":
		if c.StoreRoot == "" {
			return nil, fmt.Errorf("--store-root is required with --engine-ref")
		}
		stores := certstore.NewFileProvider(c.StoreRoot)
		keys := keyprovider.NewFileKeyProvider()
		return identity.FromProvider(c.EngineRef, stores, keys)

	default:
		if c.CertFile == "" || c.KeyFile == "" {
			return nil, fmt.Errorf("--cert and --key must be set together")
		}
		chainPEM, err := os.ReadFile(c.CertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read certificate chain: %w", err)
		}
		keyPEM, err := os.ReadFile(c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		return identity.FromPKCS8(chainPEM, keyPEM)
	}
}

// LoadRoots reads the configured CA certificate file into trust anchors.
func (c *Config) LoadRoots() ([]*certstore.Certificate, error) {
	if c.CACertFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.CACertFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificates: %w", err)
	}
	var roots []*certstore.Certificate
	for _, block := range encoding.PEMBlocks(data) {
		cert, err := certstore.FromPEM(block)
		if err != nil {
			return nil, fmt.Errorf("failed to parse CA certificate: %w", err)
		}
		roots = append(roots, cert)
	}
	return roots, nil
}

// BuildConnector assembles a session connector from the configuration.
func (c *Config) BuildConnector() (*tls.Connector, error) {
	protocols, err := c.ProtocolRange()
	if err != nil {
		return nil, err
	}
	id, err := c.LoadIdentity()
	if err != nil {
		return nil, err
	}
	roots, err := c.LoadRoots()
	if err != nil {
		return nil, err
	}

	builder := tls.NewConnectorBuilder().
		UseSNI(!c.NoSNI).
		AcceptInvalidHostnames(c.AcceptInvalidHostnames).
		AcceptInvalidCerts(c.Insecure).
		DisableBuiltInRoots(c.DisableBuiltInRoots)
	if id != nil {
		builder.WithIdentity(id)
	}
	if protocols.Min != nil {
		builder.MinProtocol(*protocols.Min)
	}
	if protocols.Max != nil {
		builder.MaxProtocol(*protocols.Max)
	}
	for _, root := range roots {
		builder.AddRootCertificate(root)
	}
	if len(c.ALPN) > 0 {
		builder.RequestALPN(c.ALPN...)
	}

	return builder.Build()
}

// BuildAcceptor assembles a session acceptor from the configuration.
// An identity source is mandatory.
func (c *Config) BuildAcceptor() (*tls.Acceptor, error) {
	protocols, err := c.ProtocolRange()
	if err != nil {
		return nil, err
	}
	id, err := c.LoadIdentity()
	if err != nil {
		return nil, err
	}

	builder := tls.NewAcceptorBuilder(id)
	if protocols.Min != nil {
		builder.MinProtocol(*protocols.Min)
	}
	if protocols.Max != nil {
		builder.MaxProtocol(*protocols.Max)
	}
	if len(c.ALPN) > 0 {
		builder.SupportALPN(c.ALPN...)
	}

	return builder.Build()
}
