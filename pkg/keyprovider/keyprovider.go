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

// Package keyprovider models the platform private key provider: named key
// containers into which PKCS#8 keys are imported, and silent key lookup
// with certificate matching.
package keyprovider

import (
	"crypto"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nnmkhang/go-native-tls/pkg/certstore"
	"github.com/nnmkhang/go-native-tls/pkg/encoding"
)

// containerCounter backs NextContainerName. Initialized once per process,
// monotonically increasing, never reset.
var containerCounter atomic.Uint64

// NameGenerator produces a process-unique key container name.
type NameGenerator func() string

// NextContainerName returns the next container name in the process-wide
// sequence. Container names must be unique for multiple keys to be active
// at once.
func NextContainerName() string {
	return fmt.Sprintf("native-tls-%d", containerCounter.Add(1)-1)
}

// Container is an acquired key container. A container holds at most one
// private key.
type Container interface {
	// Name returns the container name.
	Name() string

	// ImportPKCS8 imports an unencrypted PKCS#8 PEM key into the container.
	ImportPKCS8(pem []byte) error

	// Signer returns the contained key, or ErrKeyNotFound when the
	// container is empty.
	Signer() (crypto.Signer, error)
}

// KeyProvider is the platform private key provider contract.
//
// All implementations must be thread-safe.
type KeyProvider interface {
	// Acquire opens the named container, creating it when absent
	// (acquire, then new-keyset retry semantics).
	Acquire(container string) (Container, error)

	// Find silently locates the private key bound to cert through its key
	// container metadata and verifies it matches the certificate's public
	// key. Returns ErrKeyNotFound when no container is bound or the
	// container is empty, ErrKeyMismatch when the key does not match.
	Find(cert *certstore.Certificate) (crypto.Signer, error)
}

// MemoryKeyProvider is an in-memory KeyProvider used for memory-backed
// identity resolution and tests.
type MemoryKeyProvider struct {
	containers map[string]*memoryContainer
	mu         sync.RWMutex
}

// NewMemoryKeyProvider creates an empty key provider.
func NewMemoryKeyProvider() *MemoryKeyProvider {
	return &MemoryKeyProvider{
		containers: make(map[string]*memoryContainer),
	}
}

// Acquire opens the named container, creating it when absent.
func (p *MemoryKeyProvider) Acquire(container string) (Container, error) {
	if container == "" {
		return nil, ErrInvalidContainer
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.containers[container]; ok {
		return existing, nil
	}
	created := &memoryContainer{name: container}
	p.containers[container] = created
	return created, nil
}

// Find locates the key bound to cert and verifies the key match.
func (p *MemoryKeyProvider) Find(cert *certstore.Certificate) (crypto.Signer, error) {
	if cert == nil {
		return nil, ErrKeyNotFound
	}

	name := cert.KeyContainer()
	if name == "" {
		return nil, ErrKeyNotFound
	}

	p.mu.RLock()
	container, ok := p.containers[name]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: container %s", ErrKeyNotFound, name)
	}

	signer, err := container.Signer()
	if err != nil {
		return nil, err
	}

	if !publicKeysEqual(signer.Public(), cert.X509().PublicKey) {
		return nil, fmt.Errorf("%w: container %s", ErrKeyMismatch, name)
	}
	return signer, nil
}

// memoryContainer holds a single imported key.
type memoryContainer struct {
	name   string
	signer crypto.Signer
	mu     sync.Mutex
}

func (c *memoryContainer) Name() string {
	return c.name
}

func (c *memoryContainer) ImportPKCS8(pem []byte) error {
	key, err := encoding.DecodePKCS8PEM(pem)
	if err != nil {
		return err
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return fmt.Errorf("%w: key does not implement crypto.Signer", ErrInvalidKey)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.signer = signer
	return nil
}

func (c *memoryContainer) Signer() (crypto.Signer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.signer == nil {
		return nil, fmt.Errorf("%w: container %s is empty", ErrKeyNotFound, c.name)
	}
	return c.signer, nil
}

// publicKeysEqual compares two public keys through the standard library's
// Equal method set.
func publicKeysEqual(a, b crypto.PublicKey) bool {
	type equaler interface {
		Equal(crypto.PublicKey) bool
	}
	if ae, ok := a.(equaler); ok {
		return ae.Equal(b)
	}
	return false
}
