package storage

import (
	"context"
	"errors"
	"io"
	"sort"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	convCtx "github.com/sofmon/actuator/lib/ctx"
)

func init() {
	RegisterProvider("gcs", newGCSProvider)
}

type gcsProvider struct {
	client *storage.Client
	bucket string
}

// newGCSProvider expects the JSON key of a GCP service account as credentials.
func newGCSProvider(bucket string, credentials []byte) (Provider, error) {
	client, err := storage.NewClient(
		context.Background(),
		option.WithCredentialsJSON(credentials),
	)
	if err != nil {
		return nil, err
	}
	return &gcsProvider{client: client, bucket: bucket}, nil
}

func (p *gcsProvider) Name() string {
	return "gcs"
}

func (p *gcsProvider) object(path string) *storage.ObjectHandle {
	return p.client.Bucket(p.bucket).Object(path)
}

func (p *gcsProvider) Save(ctx convCtx.Context, path string, data []byte) (err error) {
	ctx = ctx.WithScope("gcsProvider.Save", "path", path, "size", len(data))
	defer ctx.Exit(&err)

	w := p.object(path).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err = w.Write(data); err != nil {
		w.Close()
		return
	}
	err = w.Close()
	return
}

func (p *gcsProvider) Load(ctx convCtx.Context, path string) (data []byte, err error) {
	ctx = ctx.WithScope("gcsProvider.Load", "path", path)
	defer ctx.Exit(&err, ErrNotFound)

	r, err := p.object(path).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		err = ErrNotFound
		return
	}
	if err != nil {
		return
	}
	defer r.Close()

	data, err = io.ReadAll(r)
	return
}

func (p *gcsProvider) Delete(ctx convCtx.Context, path string) (err error) {
	ctx = ctx.WithScope("gcsProvider.Delete", "path", path)
	defer ctx.Exit(&err)

	err = p.object(path).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		err = nil
	}
	return
}

func (p *gcsProvider) Exists(ctx convCtx.Context, path string) (exists bool, err error) {
	ctx = ctx.WithScope("gcsProvider.Exists", "path", path)
	defer ctx.Exit(&err)

	_, err = p.object(path).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return
	}
	return true, nil
}

func (p *gcsProvider) List(ctx convCtx.Context, prefix string) (paths []string, err error) {
	ctx = ctx.WithScope("gcsProvider.List", "prefix", prefix)
	defer ctx.Exit(&err)

	it := p.client.Bucket(p.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		var attrs *storage.ObjectAttrs
		attrs, err = it.Next()
		if errors.Is(err, iterator.Done) {
			err = nil
			break
		}
		if err != nil {
			return
		}
		paths = append(paths, attrs.Name)
	}

	sort.Strings(paths)
	return
}
