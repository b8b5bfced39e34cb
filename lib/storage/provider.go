package storage

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	convCtx "github.com/sofmon/actuator/lib/ctx"
)

var ErrNotFound = errors.New("object does not exist")

// Provider is a storage backend for archived management artifacts.
type Provider interface {
	Save(ctx convCtx.Context, path string, data []byte) (err error)

	// Load returns ErrNotFound when nothing is stored at path.
	Load(ctx convCtx.Context, path string) (data []byte, err error)

	// Delete is idempotent.
	Delete(ctx convCtx.Context, path string) (err error)

	Exists(ctx convCtx.Context, path string) (exists bool, err error)

	// List returns the stored paths starting with prefix in lexical order.
	List(ctx convCtx.Context, prefix string) (paths []string, err error)

	Name() string
}

// ProviderFactory creates a provider from a bucket name and provider
// specific credentials.
type ProviderFactory func(bucket string, credentials []byte) (Provider, error)

var (
	registry   = map[string]ProviderFactory{}
	registryMu sync.RWMutex
)

// RegisterProvider is called from the init of each provider implementation.
func RegisterProvider(name string, factory ProviderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

func NewProvider(name string, bucket string, credentials []byte) (Provider, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown storage provider: %s", name)
	}
	return factory(bucket, credentials)
}

func Providers() (names []string) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}
