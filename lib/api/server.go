package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	convCfg "github.com/sofmon/actuator/lib/cfg"
	convCtx "github.com/sofmon/actuator/lib/ctx"
)

const (
	configKeyCertificate convCfg.ConfigKey = "communication_certificate"
	configKeyKey         convCfg.ConfigKey = "communication_key"
)

type Server struct {
	httpServer *http.Server
}

func NewServer(ctx convCtx.Context, addr string, handler http.Handler) *Server {
	return &Server{
		&http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(_ net.Listener) context.Context { return ctx },
		},
	}
}

func (srv *Server) Addr() string {
	return srv.httpServer.Addr
}

// ListenAndServe serves TLS when both communication_certificate and
// communication_key are configured, plain HTTP otherwise. A graceful
// Shutdown is not reported as an error.
func (srv *Server) ListenAndServe() (err error) {

	if convCfg.Has(configKeyCertificate) && convCfg.Has(configKeyKey) {
		err = srv.httpServer.ListenAndServeTLS(
			convCfg.FilePath(configKeyCertificate),
			convCfg.FilePath(configKeyKey),
		)
	} else {
		err = srv.httpServer.ListenAndServe()
	}

	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}

	return
}

func (srv *Server) Shutdown(ctx convCtx.Context) (err error) {
	return srv.httpServer.Shutdown(ctx)
}
