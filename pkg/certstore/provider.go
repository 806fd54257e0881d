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

package certstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nnmkhang/go-native-tls/pkg/encoding"
)

// StoreClass scopes a named platform store.
type StoreClass int

const (
	// StoreClassUser is the current-user certificate store scope.
	StoreClassUser StoreClass = iota

	// StoreClassMachine is the local-machine certificate store scope.
	StoreClassMachine
)

// String returns the engine-reference prefix for the store class.
func (c StoreClass) String() string {
	if c == StoreClassMachine {
		return "machine"
	}
	return "user"
}

// Provider opens platform certificate stores. Implementations wrap
// whatever the operating system exposes; the session layer only depends
// on ordered enumeration through the returned Store.
type Provider interface {
	// OpenStore opens the named store in the given scope.
	OpenStore(class StoreClass, name string) (Store, error)

	// OpenFileStore opens the store serialized in the given file.
	OpenFileStore(path string) (Store, error)
}

// FileProvider is a Provider backed by a directory tree:
//
//	<root>/user/<store-name>/*.pem|*.crt|*.der
//	<root>/machine/<store-name>/*.pem|*.crt|*.der
//
// Files are enumerated in lexical name order so store enumeration is
// deterministic. A file store is a single file holding one or more PEM
// certificates, or one DER certificate.
type FileProvider struct {
	root string
}

// NewFileProvider creates a Provider rooted at dir.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{root: dir}
}

// OpenStore loads every certificate file under the named store directory.
func (p *FileProvider) OpenStore(class StoreClass, name string) (Store, error) {
	dir := filepath.Join(p.root, class.String(), name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreNotFound, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	store := NewMemoryStore()
	for _, fileName := range names {
		// #nosec G304 - paths derive from the configured store root
		data, err := os.ReadFile(filepath.Join(dir, fileName))
		if err != nil {
			return nil, fmt.Errorf("failed to read store member %s: %w", fileName, err)
		}
		cert, err := parseCertificateFile(fileName, data)
		if err != nil {
			return nil, err
		}
		// A sibling "<member>.key" file binds the member to its private
		// key; the container name is the key file path.
		keyPath := filepath.Join(dir, fileName) + ".key"
		if _, err := os.Stat(keyPath); err == nil {
			cert.SetKeyContainer(keyPath)
		}
		if _, err := store.Add(cert, AddAlways); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// OpenFileStore loads all certificates from a single file.
func (p *FileProvider) OpenFileStore(path string) (Store, error) {
	// #nosec G304 - path comes from the caller's engine reference
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreNotFound, err)
	}

	// A sibling "<path>.key" file names the key container for the store
	// members; the key provider verifies which member it actually matches.
	keyPath := path + ".key"
	if _, err := os.Stat(keyPath); err != nil {
		keyPath = ""
	}

	store := NewMemoryStore()
	if strings.Contains(string(data), "-----BEGIN") {
		certs, err := encoding.DecodeCertificateChainPEM(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCertInvalid, err)
		}
		for _, parsed := range certs {
			cert := FromX509(parsed)
			if keyPath != "" {
				cert.SetKeyContainer(keyPath)
			}
			if _, err := store.Add(cert, AddAlways); err != nil {
				return nil, err
			}
		}
		return store, nil
	}

	cert, err := FromDER(data)
	if err != nil {
		return nil, err
	}
	if keyPath != "" {
		cert.SetKeyContainer(keyPath)
	}
	if _, err := store.Add(cert, AddAlways); err != nil {
		return nil, err
	}
	return store, nil
}

// parseCertificateFile decodes a store member as PEM or DER depending on
// content.
func parseCertificateFile(name string, data []byte) (*Certificate, error) {
	if strings.Contains(string(data), "-----BEGIN") {
		cert, err := FromPEM(data)
		if err != nil {
			return nil, fmt.Errorf("store member %s: %w", name, err)
		}
		return cert, nil
	}
	cert, err := FromDER(data)
	if err != nil {
		return nil, fmt.Errorf("store member %s: %w", name, err)
	}
	return cert, nil
}
