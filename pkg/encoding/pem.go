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

// Package encoding provides the PEM and PKCS#8 decoding primitives used by
// the identity resolver and certificate store.
package encoding

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// PEM block types
const (
	PEMTypeCertificate = "CERTIFICATE"
	PEMTypePrivateKey  = "PRIVATE KEY"
)

// pemBeginGuard is the marker that opens every PEM block. PEMBlocks splits
// on this guard without parsing block contents.
var pemBeginGuard = []byte("-----BEGIN")

// PEMBlocks splits data into chunks, each starting at a "-----BEGIN" guard
// and ending just before the next guard (or the end of input for the last
// chunk). Content before the first guard is discarded. Data without any
// guard yields an empty result.
//
// The chunks alias the input; callers must not mutate them. This is a pure
// syntactic split used to separate a multi-certificate PEM bundle into
// leaf + intermediates without re-parsing certificate contents.
func PEMBlocks(data []byte) [][]byte {
	var blocks [][]byte
	start := bytes.Index(data, pemBeginGuard)
	if start < 0 {
		return blocks
	}
	for start < len(data) {
		next := bytes.Index(data[start+1:], pemBeginGuard)
		if next < 0 {
			blocks = append(blocks, data[start:])
			break
		}
		end := start + 1 + next
		blocks = append(blocks, data[start:end])
		start = end
	}
	return blocks
}

// EncodeCertificatePEM encodes an X.509 certificate to PEM format.
func EncodeCertificatePEM(cert *x509.Certificate) ([]byte, error) {
	if cert == nil {
		return nil, ErrInvalidCertificate
	}

	block := &pem.Block{
		Type:  PEMTypeCertificate,
		Bytes: cert.Raw,
	}

	var buf bytes.Buffer
	if err := pem.Encode(&buf, block); err != nil {
		return nil, fmt.Errorf("failed to encode certificate PEM: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeCertificatePEM decodes PEM encoded data to an X.509 certificate.
// Only the first PEM block is considered.
func DecodeCertificatePEM(data []byte) (*x509.Certificate, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrInvalidPEMEncoding
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	return cert, nil
}

// DecodeCertificateChainPEM decodes PEM encoded data containing multiple
// certificates. Returns all certificates found in the PEM data in order.
func DecodeCertificateChainPEM(data []byte) ([]*x509.Certificate, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	var certs []*x509.Certificate
	remaining := data

	for len(remaining) > 0 {
		var block *pem.Block
		block, remaining = pem.Decode(remaining)
		if block == nil {
			break
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate in chain: %w", err)
		}

		certs = append(certs, cert)
	}

	if len(certs) == 0 {
		return nil, ErrInvalidPEMEncoding
	}

	return certs, nil
}
