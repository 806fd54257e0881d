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

package keyprovider

import (
	"crypto"
	"fmt"
	"os"

	"github.com/nnmkhang/go-native-tls/pkg/certstore"
	"github.com/nnmkhang/go-native-tls/pkg/encoding"
)

// FileKeyProvider is a KeyProvider whose container names are file paths
// holding unencrypted PKCS#8 PEM keys. It pairs with certstore.FileProvider,
// which binds store members to sibling "<member>.key" files.
type FileKeyProvider struct{}

// NewFileKeyProvider creates a file-backed key provider.
func NewFileKeyProvider() *FileKeyProvider {
	return &FileKeyProvider{}
}

// Acquire opens the container at the given file path, creating the file
// lazily on first import.
func (p *FileKeyProvider) Acquire(container string) (Container, error) {
	if container == "" {
		return nil, ErrInvalidContainer
	}
	return &fileContainer{path: container}, nil
}

// Find reads the key file bound to cert and verifies the key match.
func (p *FileKeyProvider) Find(cert *certstore.Certificate) (crypto.Signer, error) {
	if cert == nil {
		return nil, ErrKeyNotFound
	}

	path := cert.KeyContainer()
	if path == "" {
		return nil, ErrKeyNotFound
	}

	container := &fileContainer{path: path}
	signer, err := container.Signer()
	if err != nil {
		return nil, err
	}

	if !publicKeysEqual(signer.Public(), cert.X509().PublicKey) {
		return nil, fmt.Errorf("%w: %s", ErrKeyMismatch, path)
	}
	return signer, nil
}

// fileContainer is a key container persisted as a PKCS#8 PEM file.
type fileContainer struct {
	path string
}

func (c *fileContainer) Name() string {
	return c.path
}

func (c *fileContainer) ImportPKCS8(pem []byte) error {
	// Parse before persisting so a malformed key never reaches disk.
	if _, err := encoding.DecodePKCS8PEM(pem); err != nil {
		return err
	}
	if err := os.WriteFile(c.path, pem, 0o600); err != nil {
		return fmt.Errorf("failed to write key container: %w", err)
	}
	return nil
}

func (c *fileContainer) Signer() (crypto.Signer, error) {
	// #nosec G304 - container path comes from store member binding
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, c.path)
	}

	key, err := encoding.DecodePKCS8PEM(data)
	if err != nil {
		return nil, err
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("%w: key does not implement crypto.Signer", ErrInvalidKey)
	}
	return signer, nil
}
