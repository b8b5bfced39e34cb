package storage

import (
	"sort"
	"strings"
	"sync"

	convCtx "github.com/sofmon/actuator/lib/ctx"
)

func init() {
	RegisterProvider("memory", newMemoryProvider)
}

// memoryProvider keeps objects in process memory. Bucket and credentials
// are ignored; it backs local runs and tests.
type memoryProvider struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func newMemoryProvider(string, []byte) (Provider, error) {
	return NewMemoryProvider(), nil
}

func NewMemoryProvider() Provider {
	return &memoryProvider{objects: map[string][]byte{}}
}

func (p *memoryProvider) Name() string {
	return "memory"
}

func (p *memoryProvider) Save(_ convCtx.Context, path string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.objects[path] = append([]byte(nil), data...)
	return nil
}

func (p *memoryProvider) Load(_ convCtx.Context, path string) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	data, ok := p.objects[path]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (p *memoryProvider) Delete(_ convCtx.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.objects, path)
	return nil
}

func (p *memoryProvider) Exists(_ convCtx.Context, path string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.objects[path]
	return ok, nil
}

func (p *memoryProvider) List(_ convCtx.Context, prefix string) (paths []string, err error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for path := range p.objects {
		if strings.HasPrefix(path, prefix) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return
}
