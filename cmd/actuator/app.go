package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sofmon/actuator/lib/actuate"
	"github.com/sofmon/actuator/lib/api"
	convAuth "github.com/sofmon/actuator/lib/auth"
	convCfg "github.com/sofmon/actuator/lib/cfg"
	convCtx "github.com/sofmon/actuator/lib/ctx"
	convDB "github.com/sofmon/actuator/lib/db"
	"github.com/sofmon/actuator/lib/endpoint"
	"github.com/sofmon/actuator/lib/storage"
)

const (
	configKeyPolicy          convCfg.ConfigKey = "management_policy"
	configKeyDatabase        convCfg.ConfigKey = "database"
	configKeyDatabaseYAML    convCfg.ConfigKey = "database.yaml"
	configKeyStorageProvider convCfg.ConfigKey = "storage_provider"
	configKeyStorageBucket   convCfg.ConfigKey = "storage_bucket"

	heapDumpRootPath = "heapdumps"
)

type app struct {
	router     *mux.Router
	dispatcher *endpoint.Dispatcher
	registry   *prometheus.Registry
	db         *convDB.DB
}

func (a *app) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// assemble discovers the configured endpoints and mounts them on a router.
// Storage and database backed parts are only wired when configured.
func assemble(ctx convCtx.Context, opts options) (a *app, err error) {
	ctx = ctx.WithScope("assemble")
	defer ctx.Exit(&err)

	a = &app{registry: prometheus.NewRegistry()}

	err = a.registry.Register(collectors.NewGoCollector())
	if err != nil {
		return
	}
	err = a.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err != nil {
		return
	}

	metrics, err := api.NewMetrics(a.registry)
	if err != nil {
		return
	}

	health := actuate.NewHealthEndpoint()

	candidates := []endpoint.Candidate{
		health,
		actuate.NewPrometheusEndpoint(a.registry),
	}

	var archive *storage.Storage
	if convCfg.Has(configKeyStorageProvider) || convCfg.Has(configKeyStorageBucket) {
		var s *storage.Storage
		s, err = storage.New(ctx)
		if err != nil {
			return
		}
		health.Register("storage", actuate.StorageIndicator(s))
		archive = s.WithRootPath(heapDumpRootPath)
		candidates = append(candidates, storage.NewEndpoint(actuate.IDArchive, archive))
	}

	candidates = append(candidates, actuate.NewHeapDumpEndpoint(archive))

	var audit actuate.AuditEventRepository = actuate.NewInMemoryAuditEventRepository(actuate.DefaultAuditCapacity)
	if convCfg.Has(configKeyDatabase) || convCfg.Has(configKeyDatabaseYAML) {
		a.db, err = convDB.OpenFromConfig(ctx)
		if err != nil {
			return
		}
		health.Register("db", actuate.DBIndicator(a.db))
		audit, err = actuate.NewSQLAuditEventRepository(ctx, a.db)
		if err != nil {
			a.db.Close()
			return
		}
	}

	candidates = append(candidates, actuate.NewAuditEventsEndpoint(audit))

	if logFile := actuate.LogFileFromConfig(); logFile != nil {
		candidates = append(candidates, logFile)
	}

	eps, err := endpoint.NewDiscoverer(actuate.DiscovererOptions()...).Discover(candidates...)
	if err != nil {
		a.Close()
		return
	}

	registry, err := endpoint.NewRegistry(eps...)
	if err != nil {
		a.Close()
		return
	}

	dispatcherOpts := []endpoint.DispatcherOption{endpoint.WithMaxAge(opts.maxAge)}
	if len(opts.allowedOrigins) > 0 {
		dispatcherOpts = append(dispatcherOpts, endpoint.WithAllowedOrigins(opts.allowedOrigins...))
	}
	a.dispatcher = endpoint.NewDispatcher(registry, dispatcherOpts...)

	handlerOpts := []api.HandlerOption{
		api.WithLogCalls(opts.logCalls),
		api.WithMetrics(metrics),
	}
	if convCfg.Has(configKeyPolicy) {
		var check convAuth.Check
		check, err = policyCheck()
		if err != nil {
			a.Close()
			return
		}
		handlerOpts = append(handlerOpts, api.WithCheck(check))
	}

	handler := api.NewHandler(ctx, opts.basePath, a.dispatcher, handlerOpts...)

	a.router = mux.NewRouter()
	a.router.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	a.router.PathPrefix("/").Handler(handler)

	for _, ep := range eps {
		ctx.Logger().Info("endpoint exposed", "id", ep.ID, "operations", len(ep.Operations))
	}

	return
}

func policyCheck() (check convAuth.Check, err error) {
	policy, err := convCfg.Object[convAuth.Policy](configKeyPolicy)
	if err != nil {
		return
	}
	return convAuth.NewCheck(policy)
}
