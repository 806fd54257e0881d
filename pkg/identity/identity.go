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

// Package identity resolves signing identities from PKCS#12 archives,
// PKCS#8 key and certificate chain pairs, and platform store references.
//
// Store enumeration order governs which certificate is selected when
// multiple candidates qualify. Callers relying on a specific identity
// among duplicates must disambiguate by fingerprint rather than depend on
// first-match semantics.
package identity

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"golang.org/x/crypto/pkcs12"

	"github.com/nnmkhang/go-native-tls/pkg/certstore"
	"github.com/nnmkhang/go-native-tls/pkg/encoding"
	"github.com/nnmkhang/go-native-tls/pkg/keyprovider"
	"github.com/nnmkhang/go-native-tls/pkg/metrics"
	"github.com/nnmkhang/go-native-tls/pkg/types"
)

// Identity is a certificate paired with its usable private key. Copying an
// Identity shares the underlying platform objects; it does not duplicate
// them.
type Identity struct {
	cert     *certstore.Certificate
	store    certstore.Store
	provider keyprovider.KeyProvider
}

// Certificate returns the identity's leaf certificate.
func (i *Identity) Certificate() *certstore.Certificate {
	return i.cert
}

// Store returns the store holding the leaf and any intermediates, in
// chain order. May hold only the leaf.
func (i *Identity) Store() certstore.Store {
	return i.store
}

// Signer returns the private key backing the identity's certificate.
func (i *Identity) Signer() (crypto.Signer, error) {
	return i.provider.Find(i.cert)
}

// Intermediates returns the certificates following the leaf in store
// order.
func (i *Identity) Intermediates() []*certstore.Certificate {
	certs := i.store.Certificates()
	var intermediates []*certstore.Certificate
	for _, cert := range certs {
		if cert.Equal(i.cert) {
			continue
		}
		intermediates = append(intermediates, cert)
	}
	return intermediates
}

// FromPKCS12 resolves an identity from a password-protected PKCS#12
// archive. The archive is imported into a memory store and scanned in
// enumeration order; the first certificate whose private key is present
// and key-matched becomes the identity.
func FromPKCS12(der []byte, password string) (id *Identity, err error) {
	defer func() { recordResolution(metrics.SourcePKCS12, err) }()

	blocks, err := pkcs12.ToPEM(der, password)
	if err != nil {
		return nil, fmt.Errorf("failed to import PKCS#12 archive: %w", err)
	}

	store := certstore.NewMemoryStore()
	provider := keyprovider.NewMemoryKeyProvider()

	var signers []crypto.Signer
	for _, block := range blocks {
		switch block.Type {
		case encoding.PEMTypeCertificate:
			cert, err := certstore.FromDER(block.Bytes)
			if err != nil {
				return nil, err
			}
			if _, err := store.Add(cert, certstore.AddAlways); err != nil {
				return nil, err
			}
		default:
			signer, err := parseArchiveKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse archive key: %w", err)
			}
			signers = append(signers, signer)
		}
	}

	// Bind each archive key to the certificates it matches through a
	// generated container, then scan for the first matched certificate.
	for _, cert := range store.Certificates() {
		for _, signer := range signers {
			if err := bindSigner(provider, cert, signer); err != nil {
				return nil, err
			}
			if _, err := provider.Find(cert); err == nil {
				return &Identity{cert: cert, store: store, provider: provider}, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: no identity found in PKCS #12 archive", ErrNoIdentityFound)
}

// FromPKCS8 resolves an identity from an unencrypted PKCS#8 PEM key and a
// PEM certificate chain. The first chain chunk is the leaf; each
// subsequent chunk is an intermediate added to the store preserving input
// order. The key is imported into a process-unique key container bound to
// the leaf.
func FromPKCS8(chainPEM, keyPEM []byte) (id *Identity, err error) {
	defer func() { recordResolution(metrics.SourcePKCS8, err) }()

	if !encoding.IsPKCS8PEM(keyPEM) {
		return nil, fmt.Errorf("%w: not a PKCS#8 key", encoding.ErrUnsupportedKeyFormat)
	}

	chunks := encoding.PEMBlocks(chainPEM)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: at least one certificate must be provided to create an identity", ErrEmptyChain)
	}

	leaf, err := certstore.FromPEM(chunks[0])
	if err != nil {
		return nil, err
	}

	provider := keyprovider.NewMemoryKeyProvider()
	name := keyprovider.NextContainerName()
	container, err := provider.Acquire(name)
	if err != nil {
		return nil, err
	}
	if err := container.ImportPKCS8(keyPEM); err != nil {
		return nil, err
	}
	leaf.SetKeyContainer(name)

	store := certstore.NewMemoryStore()
	retained, err := store.Add(leaf, certstore.AddAlways)
	if err != nil {
		return nil, err
	}
	for _, chunk := range chunks[1:] {
		intermediate, err := certstore.FromPEM(chunk)
		if err != nil {
			return nil, err
		}
		if _, err := store.Add(intermediate, certstore.AddAlways); err != nil {
			return nil, err
		}
	}

	// The identity is only valid when the provider confirms the imported
	// key matches the leaf.
	if _, err := provider.Find(retained); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingPrivateKey, err)
	}

	return &Identity{cert: retained, store: store, provider: provider}, nil
}

// FromProvider resolves an identity from an engine reference string
// against the platform store and key provider. See ParseEngineRef for the
// reference grammar.
func FromProvider(ref string, stores certstore.Provider, keys keyprovider.KeyProvider) (id *Identity, err error) {
	defer func() { recordResolution(metrics.SourceProvider, err) }()

	parsed, err := ParseEngineRef(ref)
	if err != nil {
		return nil, err
	}

	switch parsed.Kind {
	case EngineRefStore:
		algo, err := types.HashForFingerprintLength(len(parsed.Fingerprint))
		if err != nil {
			return nil, fmt.Errorf("invalid hex thumbprint: %w", err)
		}

		store, err := stores.OpenStore(parsed.Class, parsed.StoreName)
		if err != nil {
			return nil, err
		}

		for _, cert := range store.Certificates() {
			fp, err := cert.Fingerprint(algo)
			if err != nil {
				return nil, err
			}
			if !bytes.Equal(fp, parsed.Fingerprint) {
				continue
			}
			if _, err := keys.Find(cert); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMissingPrivateKey, err)
			}
			return &Identity{cert: cert, store: store, provider: keys}, nil
		}
		return nil, fmt.Errorf("%w: no identity found in provided store", ErrNoIdentityFound)

	case EngineRefFile:
		store, err := stores.OpenFileStore(parsed.FilePath)
		if err != nil {
			return nil, err
		}
		for _, cert := range store.Certificates() {
			if _, err := keys.Find(cert); err == nil {
				return &Identity{cert: cert, store: store, provider: keys}, nil
			}
		}
		return nil, fmt.Errorf("%w: no identity found in provided store", ErrNoIdentityFound)

	default:
		return nil, ErrInvalidReference
	}
}

// recordResolution reports the outcome of a resolution attempt.
func recordResolution(source string, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	metrics.RecordIdentityResolution(source, status)
}

// bindSigner imports signer into a fresh container bound to cert.
func bindSigner(provider keyprovider.KeyProvider, cert *certstore.Certificate, signer crypto.Signer) error {
	name := keyprovider.NextContainerName()
	container, err := provider.Acquire(name)
	if err != nil {
		return err
	}

	der, err := x509.MarshalPKCS8PrivateKey(signer)
	if err != nil {
		return fmt.Errorf("failed to re-encode archive key: %w", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: encoding.PEMTypePrivateKey, Bytes: der})
	if err := container.ImportPKCS8(keyPEM); err != nil {
		return err
	}

	cert.SetKeyContainer(name)
	return nil
}

// parseArchiveKey decodes a private key block produced by a PKCS#12
// import, which may be PKCS#1, SEC1 or PKCS#8 encoded.
func parseArchiveKey(der []byte) (crypto.Signer, error) {
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		if signer, ok := key.(crypto.Signer); ok {
			return signer, nil
		}
	}
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return key, nil
	}
	return nil, fmt.Errorf("unsupported archive key encoding")
}
