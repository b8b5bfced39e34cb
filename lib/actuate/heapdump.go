package actuate

import (
	"bytes"
	"runtime"
	"runtime/pprof"
	"sync"

	"github.com/google/uuid"

	convCtx "github.com/sofmon/actuator/lib/ctx"
	"github.com/sofmon/actuator/lib/endpoint"
	"github.com/sofmon/actuator/lib/storage"
)

const heapDumpTimeFormat = "20060102T150405Z"

// HeapDumpEndpoint serves heap profiles in pprof format. With an archive
// the write operation stores a dump and returns its path.
type HeapDumpEndpoint struct {
	archive *storage.Storage

	// one dump at a time
	mu sync.Mutex
}

func NewHeapDumpEndpoint(archive *storage.Storage) *HeapDumpEndpoint {
	return &HeapDumpEndpoint{archive: archive}
}

func (h *HeapDumpEndpoint) Dump(ctx convCtx.Context, live bool) (data []byte, err error) {
	ctx = ctx.WithScope("HeapDumpEndpoint.Dump", "live", live)
	defer ctx.Exit(&err)

	h.mu.Lock()
	defer h.mu.Unlock()

	if live {
		runtime.GC()
	}

	var buf bytes.Buffer
	err = pprof.Lookup("heap").WriteTo(&buf, 0)
	if err != nil {
		return
	}

	data = buf.Bytes()
	return
}

// Archive stores a dump and returns the path it was stored at.
func (h *HeapDumpEndpoint) Archive(ctx convCtx.Context, live bool) (path string, err error) {
	ctx = ctx.WithScope("HeapDumpEndpoint.Archive", "live", live)
	defer ctx.Exit(&err)

	data, err := h.Dump(ctx, live)
	if err != nil {
		return
	}

	path = "heapdump-" + ctx.Now().UTC().Format(heapDumpTimeFormat) + "-" + uuid.NewString()[:8] + ".pprof"

	err = h.archive.Save(ctx, path, data)
	if err != nil {
		return
	}

	ctx.Logger().Info("heap dump archived", "path", path, "size", len(data))

	return
}

func (h *HeapDumpEndpoint) Endpoint() endpoint.Definition {

	ops := []endpoint.Operation{
		endpoint.Read("heapDump", func(ctx convCtx.Context, args endpoint.Arguments) (any, error) {
			live, _ := args.Bool("live")
			data, err := h.Dump(ctx, live)
			if err != nil {
				return nil, err
			}
			return endpoint.Resource(data), nil
		}, endpoint.Param("live", endpoint.TypeBoolean)),
	}

	if h.archive != nil {
		ops = append(ops,
			endpoint.Write("archiveHeapDump", func(ctx convCtx.Context, args endpoint.Arguments) (any, error) {
				live, _ := args.Bool("live")
				path, err := h.Archive(ctx, live)
				if err != nil {
					return nil, err
				}
				return map[string]string{"path": path}, nil
			}, endpoint.Param("live", endpoint.TypeBoolean)),
		)
	}

	return endpoint.Define(IDHeapDump, ops...)
}
