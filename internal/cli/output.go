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
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/nnmkhang/go-native-tls/pkg/tls"
	"github.com/nnmkhang/go-native-tls/pkg/types"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintSession prints the negotiated parameters of an established
// session.
func (p *Printer) PrintSession(endpoint string, session *tls.Session) error {
	alpn, err := session.NegotiatedALPN()
	if err != nil {
		return err
	}
	binding, err := session.TLSServerEndPoint()
	if err != nil {
		return err
	}
	peer, err := session.PeerCertificate()
	if err != nil {
		return err
	}

	switch p.format {
	case OutputFormatJSON:
		info := map[string]interface{}{
			"endpoint": endpoint,
			"server":   session.IsServer(),
		}
		if alpn != "" {
			info["alpn"] = alpn
		}
		if len(binding) > 0 {
			info["tls_server_end_point"] = base64.StdEncoding.EncodeToString(binding)
		}
		if peer != nil {
			fingerprint, err := peer.Fingerprint(types.HashSHA256)
			if err != nil {
				return err
			}
			info["peer"] = map[string]interface{}{
				"subject":            peer.X509().Subject.String(),
				"issuer":             peer.X509().Issuer.String(),
				"not_after":          peer.X509().NotAfter,
				"sha256_fingerprint": hex.EncodeToString(fingerprint),
			}
		}
		return p.printJSON(info)

	case OutputFormatText:
		fmt.Fprintf(p.writer, "Endpoint: %s\n", endpoint)
		if alpn != "" {
			fmt.Fprintf(p.writer, "ALPN: %s\n", alpn)
		}
		if peer != nil {
			fingerprint, err := peer.Fingerprint(types.HashSHA256)
			if err != nil {
				return err
			}
			fmt.Fprintf(p.writer, "Peer subject: %s\n", peer.X509().Subject)
			fmt.Fprintf(p.writer, "Peer issuer: %s\n", peer.X509().Issuer)
			fmt.Fprintf(p.writer, "Peer expires: %s\n", peer.X509().NotAfter)
			fmt.Fprintf(p.writer, "Peer SHA-256: %s\n", hex.EncodeToString(fingerprint))
		}
		if len(binding) > 0 {
			fmt.Fprintf(p.writer, "tls-server-end-point: %s\n",
				base64.StdEncoding.EncodeToString(binding))
		}
		return nil

	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"error": err.Error(),
		})
	default:
		_, werr := fmt.Fprintf(p.writer, "Error: %v\n", err)
		return werr
	}
}

// printJSON marshals v with indentation
func (p *Printer) printJSON(v interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
