package commands

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/buckyos/ndnd/internal/logger"
	"github.com/buckyos/ndnd/internal/telemetry"
	"github.com/buckyos/ndnd/pkg/config"
	"github.com/buckyos/ndnd/pkg/metrics"
	"github.com/buckyos/ndnd/pkg/ndn/ndnhttp"
	"github.com/buckyos/ndnd/pkg/rtcp"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ndnd daemon in the foreground",
	Long: `Run serves the local chunk store over the NDN HTTP wire convention
and accepts RTCP tunnels from peer stacks, until interrupted.

Examples:
  ndnd run
  ndnd run --config /etc/ndnd/config.yaml
  NDND_LOGGING_LEVEL=DEBUG ndnd run`,
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "ndnd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "ndnd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("init profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	var csMetrics *metrics.ChunkStoreMetrics
	var tunnelMetrics *metrics.TunnelMetrics
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		csMetrics = metrics.NewChunkStoreMetrics()
		tunnelMetrics = metrics.NewTunnelMetrics()

		metricsAddr := fmt.Sprintf(":%d", cfg.Metrics.Port)
		metricsSrv := &http.Server{Addr: metricsAddr, Handler: metrics.Handler()}
		go func() {
			logger.Info("metrics server listening", "addr", metricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	store, err := config.BuildChunkStore(ctx, cfg.ChunkStore, csMetrics)
	if err != nil {
		return fmt.Errorf("build chunk store: %w", err)
	}
	defer store.Close()

	zoneResolver, err := config.BuildZoneResolver(cfg.Zone)
	if err != nil {
		return fmt.Errorf("build zone resolver: %w", err)
	}

	auth, err := rtcp.NewAuthenticator([]byte(cfg.Tunnel.AuthSecret), cfg.Tunnel.DeviceID, cfg.Tunnel.HandshakeTimeout)
	if err != nil {
		return fmt.Errorf("build rtcp authenticator: %w", err)
	}
	noiseKey, err := rtcp.GenerateNoiseKeypair()
	if err != nil {
		return fmt.Errorf("generate noise keypair: %w", err)
	}

	var forwarder ndnhttp.Forwarder
	if cfg.HTTP.UpstreamURL != "" {
		forwarder = &ndnhttp.StoreForwarder{
			Client: ndnhttp.NewClient(cfg.HTTP.UpstreamURL),
			Store:  store,
		}
	}
	httpServer := ndnhttp.NewServer(ndnhttp.Config{
		Addr:      cfg.HTTP.ListenAddr,
		Forwarder: forwarder,
		Resolver:  ndnhttp.NewMapResolver(store, cfg.Collections.SQLitePath),
	}, store)
	httpDone := make(chan error, 1)
	go func() { httpDone <- httpServer.Start(ctx) }()

	tunnelListener, err := net.Listen("tcp", cfg.Tunnel.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Tunnel.ListenAddr, err)
	}
	mgr := &tunnelManager{
		localID:     cfg.Tunnel.DeviceID,
		auth:        auth,
		noiseKey:    noiseKey,
		zone:        zoneResolver,
		httpAddr:    cfg.HTTP.ListenAddr,
		handshakeTO: cfg.Tunnel.HandshakeTimeout,
		metrics:     tunnelMetrics,
	}
	tunnelDone := make(chan error, 1)
	go func() { tunnelDone <- mgr.acceptLoop(ctx, tunnelListener) }()

	logger.Info("ndnd is running",
		"http_addr", cfg.HTTP.ListenAddr,
		"tunnel_addr", cfg.Tunnel.ListenAddr,
		"device_id", cfg.Tunnel.DeviceID)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		signal.Stop(sigCh)
		logger.Info("shutdown signal received, stopping")
		cancel()
		tunnelListener.Close()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		<-tunnelDone
		<-httpDone
		return nil
	case err := <-httpDone:
		cancel()
		tunnelListener.Close()
		return fmt.Errorf("http server exited: %w", err)
	case err := <-tunnelDone:
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		httpServer.Stop(shutdownCtx)
		return fmt.Errorf("tunnel listener exited: %w", err)
	}
}
