package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cybercase/internal/access"
	"cybercase/internal/constants"
	"cybercase/internal/dashboard"
	"cybercase/internal/database"
	"cybercase/internal/handlers"
	"cybercase/internal/logger"
	"cybercase/internal/metrics"
	"cybercase/internal/notify"
	"cybercase/internal/output"
	"cybercase/internal/version"
	"cybercase/internal/web"
	"cybercase/internal/webconfig"
)

const (
	loginPath    = "/api/v1/auth/login"
	wsPath       = "/api/v1/ws"
	maxBodyBytes = 1 << 20
)

// Server holds the wired HTTP stack and the background services feeding it.
type Server struct {
	Handler   http.Handler
	Router    *web.Router
	Hub       *web.WSHub
	Dashboard *dashboard.Service
	Notifier  *notify.Manager
}

// NewServer wires handlers, middleware and push services against the open
// database. Background work is bound to ctx; call Start to launch it.
func NewServer(ctx context.Context, cfg *webconfig.Config) *Server {
	hub := web.NewWSHub(cfg.Server.CORSOrigins)

	notifier := notify.NewManager()
	notifier.Configure(cfg.Alert)

	builder := dashboard.NewBuilder(cfg.Dashboard)
	dashSvc := dashboard.NewService(builder, hub, cfg.RefreshInterval(), cfg.QueryTimeoutDuration())

	activityRepo := database.NewActivityRepo()
	web.SetAuthAuditFunc(activityRepo.Log)
	web.SetSessionResolver(access.NewService().Resolve)

	router := web.NewRouter()
	registerRoutes(router, cfg, hub, notifier, builder)

	loginRate := cfg.Auth.LoginRateMax
	if loginRate <= 0 {
		loginRate = 10
	}
	loginLimiter := web.NewRateLimiter(ctx, loginRate, time.Minute)

	skipAuthPaths := []string{loginPath, "/api/v1/health", wsPath}
	resetPaths := []string{"/api/v1/auth/me", "/api/v1/auth/password", "/api/v1/auth/logout"}

	handler := web.Chain(
		router,
		web.RecoveryMiddleware,
		web.RequestIDMiddleware,
		web.RequestLogMiddleware,
		metrics.Middleware(router),
		web.SecurityHeadersMiddleware,
		web.CORSMiddleware(cfg.Server.CORSOrigins),
		web.MaxBodySizeMiddleware(maxBodyBytes),
		web.RateLimitMiddleware(loginLimiter, []string{loginPath}),
		web.InputSanitizeMiddleware,
		web.TimeoutMiddleware(cfg.QueryTimeoutDuration(), []string{wsPath}),
		web.AuthMiddleware(cfg.Auth.JWTSecret, skipAuthPaths, resetPaths),
	)

	return &Server{
		Handler:   handler,
		Router:    router,
		Hub:       hub,
		Dashboard: dashSvc,
		Notifier:  notifier,
	}
}

// Start launches the WebSocket hub and the periodic dashboard refresh.
func (s *Server) Start(ctx context.Context) {
	go s.Hub.Run(ctx)
	go s.Dashboard.Run(ctx)
}

func registerRoutes(router *web.Router, cfg *webconfig.Config, hub *web.WSHub, notifier *notify.Manager, builder *dashboard.Builder) {
	authHandler := handlers.NewAuthHandler(cfg)
	caseHandler := handlers.NewCaseHandler(hub, notifier)
	dashboardHandler := handlers.NewDashboardHandler(builder)
	reportHandler := handlers.NewReportHandler()
	userHandler := handlers.NewUserHandler()
	activityHandler := handlers.NewActivityHandler()
	exportHandler := handlers.NewExportHandler()
	healthHandler := handlers.NewHealthHandler()

	view := func(h http.HandlerFunc) http.HandlerFunc { return web.RequirePermission(constants.PermView, h) }
	manage := func(h http.HandlerFunc) http.HandlerFunc { return web.RequirePermission(constants.PermManageUsers, h) }

	// Session
	router.POST(loginPath, authHandler.Login)
	router.POST("/api/v1/auth/logout", authHandler.Logout)
	router.GET("/api/v1/auth/me", authHandler.Me)
	router.PUT("/api/v1/auth/password", authHandler.ChangePassword)

	// Dashboard and charts
	router.GET("/api/v1/dashboard", view(dashboardHandler.Get))
	router.GET("/api/v1/charts/by-type", view(dashboardHandler.ByType))
	router.GET("/api/v1/charts/by-status", view(dashboardHandler.ByStatus))
	router.GET("/api/v1/charts/trend", view(dashboardHandler.Trend))

	// Cases
	router.GET("/api/v1/cases", view(caseHandler.List))
	router.POST("/api/v1/cases", web.RequirePermission(constants.PermCreate, caseHandler.Create))
	router.GET("/api/v1/cases/search", view(caseHandler.Search))
	router.GET("/api/v1/cases/{case_id}", view(caseHandler.Get))
	router.PUT("/api/v1/cases/{case_id}", web.RequirePermission(constants.PermEdit, caseHandler.Update))

	router.GET("/api/v1/reports", view(reportHandler.Get))
	router.GET("/api/v1/export/cases", view(exportHandler.ExportCases))

	// User administration
	router.GET("/api/v1/users", manage(userHandler.List))
	router.POST("/api/v1/users", manage(userHandler.Create))
	router.DELETE("/api/v1/users/{username}", manage(userHandler.Deactivate))
	router.GET("/api/v1/activity", manage(activityHandler.List))

	router.GET(wsPath, hub.HandleWS(cfg.Auth.JWTSecret))
	router.GET("/api/v1/health", healthHandler.Get)
	router.GET("/metrics", metrics.Handler().ServeHTTP)
}

// applyServeArgs overrides cfg with command line flags.
func applyServeArgs(args []string, cfg *webconfig.Config) error {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--port", "-p":
			if i+1 >= len(args) {
				return fmt.Errorf("%s requires a value", args[i])
			}
			i++
			port, err := strconv.Atoi(args[i])
			if err != nil || port <= 0 || port > 65535 {
				return fmt.Errorf("invalid port %q", args[i])
			}
			cfg.Server.Port = port
		case "--bind", "-b":
			if i+1 >= len(args) {
				return fmt.Errorf("%s requires a value", args[i])
			}
			i++
			cfg.Server.Bind = args[i]
		case "--debug":
			cfg.Log.Mode = "debug"
			cfg.Log.Level = "debug"
		default:
			return fmt.Errorf("unknown argument %q", args[i])
		}
	}
	return nil
}

func RunServe(args []string) int {
	cfg, err := webconfig.Load()
	if err != nil {
		output.Errorf("failed to load config: %v\n", err)
		return 1
	}
	if err := applyServeArgs(args, &cfg); err != nil {
		output.Errorf("%v\nrun 'cybercase help' for usage\n", err)
		return 2
	}

	logger.Init(cfg.Log)
	logger.Log.Info().Str("version", version.Version).Msg("cybercase starting")

	admin := database.BootstrapAdmin{
		Username: cfg.Auth.AdminUsername,
		Password: cfg.Auth.AdminPassword,
		FullName: cfg.Auth.AdminFullName,
	}
	if err := database.Init(cfg.Database, admin, cfg.IsDebug()); err != nil {
		logger.Log.Error().Err(err).Msg("database init failed")
		return 1
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := NewServer(ctx, &cfg)
	app.Start(ctx)

	addr := cfg.ListenAddr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		output.Errorf("\ncannot listen on %s: %v\n", addr, err)
		output.Errorf("use --port to pick another port\n\n")
		logger.Log.Error().Int("port", cfg.Server.Port).Err(err).Msg("listen failed")
		return 1
	}

	if cfg.Server.Bind != "127.0.0.1" && cfg.Server.Bind != "localhost" {
		logger.Log.Warn().Str("bind", cfg.Server.Bind).Msg("server bound to a non-loopback address")
	}
	if len(app.Notifier.ChannelNames()) > 0 {
		logger.Log.Info().Strs("channels", app.Notifier.ChannelNames()).Msg("case alerts enabled")
	}
	printBanner(cfg)

	srv := &http.Server{
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Log.Info().Str("addr", addr).Msg("HTTP server started")

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error().Err(err).Msg("HTTP server failed")
			return 1
		}
	case <-ctx.Done():
		logger.Log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Warn().Err(err).Msg("graceful shutdown incomplete")
		}
	}

	logger.Log.Info().Msg("server stopped")
	return 0
}

func printBanner(cfg webconfig.Config) {
	output.Printf("\n  %s\n", output.Colorize("title", "Cybercase "+version.Version))
	host := cfg.Server.Bind
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
		output.Printf("  %s\n", output.Colorize("warning", "bound to 0.0.0.0: reachable from any host on the network"))
	}
	output.Printf("  ➜ http://%s:%d/api/v1\n", host, cfg.Server.Port)
	output.Printf("  ➜ http://%s:%d/metrics\n", host, cfg.Server.Port)
	if cfg.Auth.AdminPassword == webconfig.Default().Auth.AdminPassword {
		output.Printf("  %s\n", output.Colorize("dim", "bootstrap admin uses the default password; it must be changed at first login"))
	}
	output.Println("")
}
