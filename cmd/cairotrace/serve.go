package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/colorfulnotion/cairotrace/common"
	"github.com/colorfulnotion/cairotrace/log"
	"github.com/colorfulnotion/cairotrace/runner"
	"github.com/colorfulnotion/cairotrace/storage"
	"github.com/colorfulnotion/cairotrace/telemetry"
	"github.com/colorfulnotion/cairotrace/toolchain"
	"github.com/spf13/cobra"
)

const serviceName = "cairotrace"

func newServeCmd() *cobra.Command {
	cfg := runner.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket runner service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&cfg.Port, "port", cfg.Port, "listen port")
	flags.StringVar(&cfg.ToolchainBin, "toolchain-bin", cfg.ToolchainBin, "toolchain bridge executable")
	flags.StringSliceVar(&cfg.ToolchainArgs, "toolchain-arg", nil, "extra argument passed before the source path (repeatable)")
	flags.DurationVar(&cfg.ToolchainTimeout, "toolchain-timeout", cfg.ToolchainTimeout, "per-run compile and execute timeout (0 disables)")
	flags.StringVar(&cfg.WorkDir, "work-dir", "", "parent directory of per-run temp directories")
	flags.StringVar(&cfg.CompilerVersion, "compiler-version", "", "report this compiler version instead of asking the toolchain")
	flags.BoolVar(&cfg.Cache, "cache", false, "cache run results")
	flags.StringVar(&cfg.CacheDir, "cache-dir", "", "LevelDB directory for the result cache (memory when empty)")
	flags.StringVar(&cfg.OTLPEndpoint, "otlp-endpoint", "", "OTLP/HTTP endpoint for spans")
	flags.Int64Var(&cfg.MaxBodyBytes, "max-body-bytes", cfg.MaxBodyBytes, "request body limit")
	flags.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "graceful shutdown limit")
	flags.DurationVar(&cfg.WebsocketPongWait, "ws-pong-wait", cfg.WebsocketPongWait, "drop websocket clients silent for this long")
	return cmd
}

func serve(ctx context.Context, cfg runner.Config) error {
	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, serviceName, common.Version)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn(log.CLIMonitoring, "tracing shutdown", "err", err)
		}
	}()

	exec := toolchain.NewExecRunner(cfg.ToolchainBin, cfg.ToolchainArgs, cfg.WorkDir, cfg.ToolchainTimeout)
	compilerVersion := cfg.CompilerVersion
	if compilerVersion == "" {
		versionCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		compilerVersion, err = exec.Version(versionCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("query compiler version: %w", err)
		}
	}

	var cache *storage.ResultCache
	if cfg.Cache {
		cache, err = storage.NewResultCache(cfg.CacheDir)
		if err != nil {
			return err
		}
		defer cache.Close()
	}

	svc := runner.NewService(exec, compilerVersion, cache)
	server := runner.NewServer(cfg, svc, runner.VersionInfo{
		CairoLangCompilerVersion: compilerVersion,
		ServiceVersion:           common.Version,
		GitCommit:                common.GetCommitHash(),
	})
	log.Info(log.CLIMonitoring, "starting runner", "port", cfg.Port, "toolchain", cfg.ToolchainBin,
		"compiler", compilerVersion, "cache", cfg.Cache, "otlp", cfg.OTLPEndpoint)
	return server.ListenAndServe(ctx)
}
