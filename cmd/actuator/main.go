package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sofmon/actuator/lib/api"
	convCfg "github.com/sofmon/actuator/lib/cfg"
	convCtx "github.com/sofmon/actuator/lib/ctx"
)

const shutdownTimeout = 10 * time.Second

type options struct {
	configPath     string
	addr           string
	basePath       string
	logCalls       bool
	allowedOrigins []string
	maxAge         time.Duration
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "actuator",
		Short: "Management endpoints over HTTP",
		Long:  "Serves health, heap dump, log file, audit event and prometheus endpoints under a common base path.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Flags(), opts)
		},
		SilenceUsage: true,
	}

	bindFlags(rootCmd.Flags(), &opts)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func bindFlags(f *pflag.FlagSet, opts *options) {
	f.StringVarP(&opts.configPath, "config", "c", "", "Configuration folder, one file per key")
	f.StringVar(&opts.addr, "addr", ":8080", "HTTP listen address")
	f.StringVar(&opts.basePath, "base-path", api.DefaultBasePath, "Path the endpoints are served under")
	f.BoolVar(&opts.logCalls, "log-calls", false, "Log every request and response")
	f.StringSliceVar(&opts.allowedOrigins, "allowed-origins", nil, "CORS allowed origins (comma-separated, \"*\" for all)")
	f.DurationVar(&opts.maxAge, "cors-max-age", 30*time.Minute, "How long browsers may cache a preflight response")
}

func run(flags *pflag.FlagSet, opts options) (err error) {

	if flags.Changed("config") {
		err = convCfg.SetConfigLocation(opts.configPath)
		if err != nil {
			return fmt.Errorf("failed to set config location: %w", err)
		}
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx := convCtx.WrapContext(signalCtx, "actuator")

	a, err := assemble(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to assemble endpoints: %w", err)
	}
	defer a.Close()

	server := api.NewServer(ctx, opts.addr, a.router)

	served := make(chan error, 1)
	go func() {
		served <- server.ListenAndServe()
	}()

	ctx.Logger().Info("serving management endpoints", "addr", server.Addr(), "base_path", opts.basePath, "endpoints", len(a.dispatcher.Registry().Endpoints()))

	select {
	case err = <-served:
		return
	case <-ctx.Done():
	}

	ctx.Logger().Info("shutting down")

	shutdownCtx, cancel := convCtx.WrapContext(context.Background(), "actuator").WithTimeout(shutdownTimeout)
	defer cancel()

	err = server.Shutdown(shutdownCtx)
	if err != nil {
		return
	}

	return <-served
}
