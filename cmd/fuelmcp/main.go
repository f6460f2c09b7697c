package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NERVsystems/fuelmcp/pkg/cache"
	"github.com/NERVsystems/fuelmcp/pkg/monitoring"
	"github.com/NERVsystems/fuelmcp/pkg/osm"
	"github.com/NERVsystems/fuelmcp/pkg/registration"
	"github.com/NERVsystems/fuelmcp/pkg/server"
	"github.com/NERVsystems/fuelmcp/pkg/tools"
	"github.com/NERVsystems/fuelmcp/pkg/tracing"
	ver "github.com/NERVsystems/fuelmcp/pkg/version"
)

var (
	showVersionFlag bool
	debug           bool
	userAgent       string

	// Storage flags
	chartDir        string
	networkCacheDir string

	// HTTP transport flags
	enableHTTP    bool
	httpOnly      bool
	httpAddr      string
	httpBaseURL   string
	httpAuthType  string
	httpAuthToken string

	// Monitoring flags
	enableMonitoring bool
	monitoringAddr   string

	// Registration flags
	enableRegistration bool
	registryURL        string
	serviceURL         string
	internalURL        string

	// Rate limits for each service
	nominatimRPS   float64
	nominatimBurst int
	overpassRPS    float64
	overpassBurst  int
	osrmRPS        float64
	osrmBurst      int
	elevationRPS   float64
	elevationBurst int
)

func init() {
	flag.BoolVar(&showVersionFlag, "version", false, "Display version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.StringVar(&userAgent, "user-agent", osm.UserAgent, "User-Agent string for external API requests")

	// Storage flags
	flag.StringVar(&chartDir, "chart-dir", "", "Directory for rendered chart caching (empty keeps charts in memory)")
	flag.StringVar(&networkCacheDir, "network-cache-dir", "", "Directory for cached road networks (empty disables disk caching)")

	// HTTP transport flags
	// TODO(NERV-MCP-STANDARD): This --enable-http flag is the standardized approach across all
	// NERV Systems MCP servers. Other servers (takmcp, aismcp, qgismcp) should adopt this pattern.
	flag.BoolVar(&enableHTTP, "enable-http", false, "Enable HTTP+SSE transport (in addition to stdio)")
	flag.BoolVar(&httpOnly, "http-only", false, "Run HTTP transport only, skip stdio (requires --enable-http)")
	flag.StringVar(&httpAddr, "http-addr", ":7082", "HTTP server address")
	flag.StringVar(&httpBaseURL, "http-base-url", "", "Base URL for HTTP transport (auto-detected if empty)")
	flag.StringVar(&httpAuthType, "http-auth-type", "none", "HTTP authentication type: none, bearer, basic")
	flag.StringVar(&httpAuthToken, "http-auth-token", "", "HTTP authentication token")

	// Monitoring flags
	flag.BoolVar(&enableMonitoring, "enable-monitoring", true, "Enable Prometheus metrics and health endpoints")
	flag.StringVar(&monitoringAddr, "monitoring-addr", ":9090", "Monitoring server address")

	// Registration flags
	flag.BoolVar(&enableRegistration, "enable-registration", false, "Enable service registration with nerva-monitor")
	flag.StringVar(&registryURL, "registry-url", "", "nerva-monitor registry URL (e.g., http://nerva-monitor:7083)")
	flag.StringVar(&serviceURL, "service-url", "", "External URL where this service is accessible")
	flag.StringVar(&internalURL, "internal-url", "", "Internal URL for container environments")

	// Nominatim rate limits
	flag.Float64Var(&nominatimRPS, "nominatim-rps", 1.0, "Nominatim rate limit in requests per second")
	flag.IntVar(&nominatimBurst, "nominatim-burst", 1, "Nominatim rate limit burst size")

	// Overpass rate limits
	flag.Float64Var(&overpassRPS, "overpass-rps", 1.0, "Overpass rate limit in requests per second")
	flag.IntVar(&overpassBurst, "overpass-burst", 1, "Overpass rate limit burst size")

	// OSRM rate limits
	flag.Float64Var(&osrmRPS, "osrm-rps", 1.0, "OSRM rate limit in requests per second")
	flag.IntVar(&osrmBurst, "osrm-burst", 1, "OSRM rate limit burst size")

	// Open-Elevation rate limits
	flag.Float64Var(&elevationRPS, "elevation-rps", 1.0, "Open-Elevation rate limit in requests per second")
	flag.IntVar(&elevationBurst, "elevation-burst", 1, "Open-Elevation rate limit burst size")
}

func main() {
	// Load .env before flags are read; missing files are fine.
	_ = godotenv.Load()

	flag.Parse()

	// Configure logging
	var logLevel slog.Level
	if debug {
		logLevel = slog.LevelDebug
	} else {
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Initialize OpenTelemetry tracing
	ctx := context.Background()
	shutdownTracing, err := tracing.InitTracing(ctx, ver.BuildVersion)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		// Continue without tracing - it's not critical
	} else {
		// Ensure tracing is shut down on exit
		defer func() {
			if err := shutdownTracing(ctx); err != nil {
				logger.Error("error shutting down tracing", "error", err)
			}
		}()

		if endpoint := os.Getenv("OTLP_ENDPOINT"); endpoint != "" {
			logger.Info("OpenTelemetry tracing enabled", "endpoint", endpoint)
		}
	}

	// Show version and exit if requested
	if showVersionFlag {
		showVersion()
		return
	}

	// Update global user agent if specified
	if userAgent != osm.UserAgent {
		osm.SetUserAgent(userAgent)
	}

	// Update rate limits if specified
	if nominatimRPS != 1.0 || nominatimBurst != 1 {
		osm.UpdateNominatimRateLimits(nominatimRPS, nominatimBurst)
	}
	if overpassRPS != 1.0 || overpassBurst != 1 {
		osm.UpdateOverpassRateLimits(overpassRPS, overpassBurst)
	}
	if osrmRPS != 1.0 || osrmBurst != 1 {
		osm.UpdateOSRMRateLimits(osrmRPS, osrmBurst)
	}
	if elevationRPS != 1.0 || elevationBurst != 1 {
		osm.UpdateElevationRateLimits(elevationRPS, elevationBurst)
	}

	// Wire storage directories into the tool layer
	if chartDir != "" {
		tools.SetChartDirectory(chartDir)
	}
	tools.SetNetworkCacheDir(networkCacheDir)

	logger.Info("starting fuel analysis MCP server",
		"version", ver.BuildVersion,
		"log_level", logLevel.String(),
		"user_agent", userAgent,
		"chart_dir", chartDir,
		"network_cache_dir", networkCacheDir,
		"nominatim_rps", nominatimRPS,
		"overpass_rps", overpassRPS,
		"osrm_rps", osrmRPS,
		"elevation_rps", elevationRPS,
		"http_enabled", enableHTTP,
		"monitoring_enabled", enableMonitoring,
		"monitoring_addr", monitoringAddr)

	// Initialize health checker
	var healthChecker *monitoring.HealthChecker
	if enableMonitoring {
		healthChecker = monitoring.NewHealthChecker(monitoring.ServiceName, ver.BuildVersion)
		defer healthChecker.Shutdown()

		// Set up monitoring hooks for the shared external service client
		osm.SetMonitoringHooks(&osm.MonitoringHooks{
			OnRequest: func(service, operation string) {
				monitoring.RecordExternalServiceRequest(service, operation, 0, false) // Start request
			},
			OnResponse: func(service, operation string, duration time.Duration, success bool) {
				monitoring.RecordExternalServiceRequest(service, operation, duration, success)
			},
			OnRateLimit: func(service string, waitTime time.Duration) {
				monitoring.RecordRateLimitWait(service, waitTime)
				monitoring.RecordRateLimitExceeded(service)
			},
			OnError: func(service, errorType string) {
				monitoring.RecordError(service, errorType)
			},
		})
	}

	// Create a new server instance
	s, err := server.NewServer()
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Start monitoring external services if health checker is enabled
	if healthChecker != nil {
		startExternalServiceMonitoring(healthChecker, logger)
	}

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start monitoring server if enabled (Prometheus metrics only)
	var monitoringServer *http.Server
	if enableMonitoring {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		monitoringServer = &http.Server{
			Addr:              monitoringAddr,
			Handler:           mux,
			ReadHeaderTimeout: 30 * time.Second, // Prevent Slowloris attacks
		}

		go func() {
			logger.Info("starting Prometheus metrics server", "addr", monitoringAddr)
			if err := monitoringServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("monitoring server error", "error", err)
			}
		}()

		// Setup graceful shutdown for monitoring server
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := monitoringServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown monitoring server", "error", err)
			}
		}()
	}

	// Initialize registration client if enabled
	var regClient *registration.Client
	if enableRegistration {
		// Get tool names from registry
		toolRegistry := tools.NewRegistry(logger)
		toolNames := toolRegistry.GetToolNames()

		// Build service URL and health URL
		svcURL := serviceURL
		healthURL := serviceURL + "/health"
		if serviceURL == "" && enableHTTP {
			svcURL = fmt.Sprintf("http://localhost%s", httpAddr)
			healthURL = fmt.Sprintf("http://localhost%s/health", httpAddr)
		}

		regCfg := registration.Config{
			Enabled:           enableRegistration,
			RegistryURL:       registryURL,
			ServiceName:       "fuelmcp",
			ServiceType:       "mcp",
			ServiceURL:        svcURL,
			HealthURL:         healthURL,
			InternalURL:       internalURL,
			InternalHealthURL: internalURL + "/health",
			Version:           ver.BuildVersion,
			Capabilities:      []string{"fuel_analysis", "routing", "elevation", "poi"},
			Tools:             toolNames,
			Metadata: map[string]interface{}{
				"transport": map[string]bool{"stdio": true, "http": enableHTTP},
			},
		}
		regClient = registration.NewClient(regCfg, logger)
		regClient.Start(ctx)
		defer regClient.Stop()

		logger.Info("registration client initialized",
			"registry_url", registryURL,
			"service_url", svcURL,
			"tool_count", len(toolNames))
	}

	// Start HTTP transport in background if enabled (non-blocking)
	var httpTransport *server.HTTPTransport
	if enableHTTP {
		config := server.HTTPTransportConfig{
			Addr:      httpAddr,
			BaseURL:   httpBaseURL,
			AuthType:  httpAuthType,
			AuthToken: httpAuthToken,
		}

		httpTransport = server.NewHTTPTransport(s.GetMCPServer(), config, logger)

		// Set health checker if enabled
		if healthChecker != nil {
			httpTransport.SetHealthChecker(healthChecker)
		}

		// Start HTTP transport in goroutine (non-blocking)
		go func() {
			logger.Info("starting Streamable HTTP transport", "addr", httpAddr, "endpoint", "/mcp")
			if err := httpTransport.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP transport error", "error", err)
			}
		}()

		// Setup graceful shutdown for HTTP transport
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := httpTransport.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown HTTP transport", "error", err)
			}
		}()
	}

	// Transport startup logic:
	// - If HTTP is NOT enabled: Run stdio on main thread (blocking) - default behavior
	// - If HTTP IS enabled and httpOnly is false: Run stdio in goroutine (non-blocking), then wait for shutdown
	// - If HTTP IS enabled and httpOnly is true: Skip stdio, just wait for shutdown
	if !enableHTTP {
		// STDIO-only mode (default) - run blocking on main thread
		logger.Info("transport_enabled", "type", "stdio", "mode", "blocking")
		if err := s.RunWithContext(ctx); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	} else if httpOnly {
		// HTTP-only mode - skip stdio transport entirely
		logger.Info("server_ready", "transports", []string{"http"}, "http_only", true)
		<-ctx.Done()
		logger.Info("shutdown signal received")
	} else {
		// HTTP enabled with stdio - run stdio in goroutine so both transports work
		go func() {
			logger.Info("transport_enabled", "type", "stdio", "mode", "background")
			if err := s.RunWithContext(ctx); err != nil {
				logger.Error("stdio transport error", "error", err)
				// Don't exit - HTTP transport may still be useful
			}
		}()

		// Wait for shutdown signal
		logger.Info("server_ready", "transports", []string{"stdio", "http"})
		<-ctx.Done()
		logger.Info("shutdown signal received")
	}

	// Server has shut down gracefully
	cache.StopGlobalCache()
	logger.Info("server stopped")
}

// showVersion displays version information and exits
func showVersion() {
	fmt.Println(ver.String())
}

// startExternalServiceMonitoring starts monitoring external services
func startExternalServiceMonitoring(healthChecker *monitoring.HealthChecker, logger *slog.Logger) {
	// Monitor Nominatim service
	nominatimMonitor := monitoring.NewConnectionMonitor(
		"nominatim",
		healthChecker,
		func() error {
			return osm.CheckNominatimHealth()
		},
		30*time.Second,
	)
	nominatimMonitor.Start()

	// Monitor Overpass service
	overpassMonitor := monitoring.NewConnectionMonitor(
		"overpass",
		healthChecker,
		func() error {
			return osm.CheckOverpassHealth()
		},
		30*time.Second,
	)
	overpassMonitor.Start()

	// Monitor OSRM service
	osrmMonitor := monitoring.NewConnectionMonitor(
		"osrm",
		healthChecker,
		func() error {
			return osm.CheckOSRMHealth()
		},
		30*time.Second,
	)
	osrmMonitor.Start()

	// Monitor Open-Elevation service
	elevationMonitor := monitoring.NewConnectionMonitor(
		"openelevation",
		healthChecker,
		func() error {
			return osm.CheckOpenElevationHealth()
		},
		30*time.Second,
	)
	elevationMonitor.Start()

	logger.Info("started external service monitoring",
		"services", []string{"nominatim", "overpass", "osrm", "openelevation"},
		"check_interval", "30s")
}
