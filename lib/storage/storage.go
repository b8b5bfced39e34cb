package storage

import (
	"strings"

	convCfg "github.com/sofmon/actuator/lib/cfg"
	convCtx "github.com/sofmon/actuator/lib/ctx"
)

const (
	configKeyBucket      convCfg.ConfigKey = "storage_bucket"
	configKeyProvider    convCfg.ConfigKey = "storage_provider"
	configKeyCredentials convCfg.ConfigKey = "storage_credentials"
)

// joinPath combines root and path; path is returned unchanged for an empty
// root.
func joinPath(root, path string) string {
	root = strings.Trim(root, "/")
	path = strings.TrimLeft(path, "/")
	if root == "" {
		return path
	}
	return root + "/" + path
}

// Storage wraps a Provider with a root path and scoped error reporting.
type Storage struct {
	provider Provider
	rootPath string
}

// New creates a Storage from "storage_provider" (default "gcs"),
// "storage_bucket" and "storage_credentials". The memory provider needs
// neither bucket nor credentials.
func New(ctx convCtx.Context) (s *Storage, err error) {
	ctx = ctx.WithScope("storage.New")
	defer ctx.Exit(&err)

	providerName := convCfg.StringOrDefault(configKeyProvider, "gcs")

	var (
		bucket      string
		credentials []byte
	)
	if providerName != "memory" {
		bucket, err = convCfg.String(configKeyBucket)
		if err != nil {
			return
		}
		credentials, err = convCfg.Bytes(configKeyCredentials)
		if err != nil {
			return
		}
	}

	provider, err := NewProvider(providerName, bucket, credentials)
	if err != nil {
		return
	}

	ctx.Logger().Info("storage ready", "provider", provider.Name(), "bucket", bucket)

	s = &Storage{provider: provider}
	return
}

func NewWithProvider(provider Provider) *Storage {
	return &Storage{provider: provider}
}

// WithRootPath returns a Storage that prepends rootPath to every path.
func (s *Storage) WithRootPath(rootPath string) *Storage {
	return &Storage{
		provider: s.provider,
		rootPath: joinPath(s.rootPath, rootPath),
	}
}

func (s *Storage) RootPath() string {
	return s.rootPath
}

func (s *Storage) Save(ctx convCtx.Context, path string, data []byte) (err error) {
	fullPath := joinPath(s.rootPath, path)
	ctx = ctx.WithScope("storage.Save", "path", fullPath, "size", len(data))
	defer ctx.Exit(&err)

	err = s.provider.Save(ctx, fullPath, data)
	return
}

func (s *Storage) Load(ctx convCtx.Context, path string) (data []byte, err error) {
	fullPath := joinPath(s.rootPath, path)
	ctx = ctx.WithScope("storage.Load", "path", fullPath)
	defer ctx.Exit(&err)

	data, err = s.provider.Load(ctx, fullPath)
	return
}

func (s *Storage) Delete(ctx convCtx.Context, path string) (err error) {
	fullPath := joinPath(s.rootPath, path)
	ctx = ctx.WithScope("storage.Delete", "path", fullPath)
	defer ctx.Exit(&err)

	err = s.provider.Delete(ctx, fullPath)
	return
}

func (s *Storage) Exists(ctx convCtx.Context, path string) (exists bool, err error) {
	fullPath := joinPath(s.rootPath, path)
	ctx = ctx.WithScope("storage.Exists", "path", fullPath)
	defer ctx.Exit(&err)

	exists, err = s.provider.Exists(ctx, fullPath)
	return
}

// List returns the paths under the root path, relative to it.
func (s *Storage) List(ctx convCtx.Context) (paths []string, err error) {
	ctx = ctx.WithScope("storage.List", "root", s.rootPath)
	defer ctx.Exit(&err)

	prefix := ""
	if s.rootPath != "" {
		prefix = s.rootPath + "/"
	}

	full, err := s.provider.List(ctx, prefix)
	if err != nil {
		return
	}

	for _, p := range full {
		paths = append(paths, strings.TrimPrefix(p, prefix))
	}
	return
}

func (s *Storage) Provider() Provider {
	return s.provider
}
