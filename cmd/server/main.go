// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/api"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/audit"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/auth"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/ban"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/config"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/fingerprint"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/jobs"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/logging"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/ratelimit"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/security"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/supervisor"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/supervisor/services"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/threat"
	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/vpn"
)

//nolint:gocyclo // Sequential wiring of every component
func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default: search standard locations)")
	issueToken := flag.String("issue-token", "", "print a bearer token for username:role and exit")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	if *issueToken != "" {
		if err := printToken(jwtManager, *issueToken); err != nil {
			logging.Fatal().Err(err).Msg("Failed to issue token")
		}
		return
	}

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("users_store", cfg.Users.Store).
		Str("fingerprint_store", cfg.Fingerprint.Store).
		Str("ban_store", cfg.Ban.Store).
		Str("audit_store", cfg.Audit.Store).
		Str("ratelimit_backend", cfg.RateLimit.Backend).
		Msg("Starting Salada device trust engine")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := openBackends(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open stores")
	}
	defer stores.Close(context.Background())

	// Audit log is the shared sink of every engine
	auditCfg := audit.DefaultConfig()
	if cfg.Audit.BufferSize > 0 {
		auditCfg.BufferSize = cfg.Audit.BufferSize
	}
	if cfg.Audit.Retention > 0 {
		auditCfg.Retention = cfg.Audit.Retention
	}
	auditLogger := audit.NewLogger(stores.auditStore, auditCfg)
	defer func() {
		if err := auditLogger.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing audit logger")
		}
	}()

	vpnSvc := vpn.NewService(vpn.Config{ListPath: cfg.VPN.ListPath})
	if cfg.VPN.ListPath != "" {
		res, err := vpnSvc.Reload(ctx)
		if err != nil {
			logging.Warn().Err(err).Str("file", cfg.VPN.ListPath).Msg("Failed to load network list, all addresses classify as clean")
		} else {
			logging.Info().
				Int("addresses", res.AddressesImported).
				Int("prefixes", res.PrefixesImported).
				Int("skipped", res.Skipped).
				Msg("Network intelligence list loaded")
		}
	}

	banSvc := ban.NewService(stores.bans, stores.users, auditLogger)

	threatAnalyzer := threat.NewAnalyzer(cfg.Threat)
	threatAnalyzer.SetNetworkClassifier(vpnSvc)

	fpCfg, err := fingerprintConfig(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to derive fingerprint salt")
	}
	fpSvc := fingerprint.NewService(stores.fingerprints, fpCfg)
	fpSvc.SetBanChecker(banSvc)
	fpSvc.SetNetworkClassifier(vpnSvc)

	var queue *jobs.Queue
	if cfg.Jobs.Enabled {
		queue, err = jobs.NewQueue(cfg.Jobs, fpSvc)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create verification queue")
		}
		fpSvc.SetEnqueuer(queue)
	} else {
		logging.Info().Msg("Verification queue disabled, large collision scans run inline")
	}

	engine := security.NewEngine(cfg.Engine, stores.users, fpSvc, threatAnalyzer, banSvc, auditLogger)
	engine.SetNetworkClassifier(vpnSvc)

	limiter := ratelimit.NewLimiter(stores.rateLimits, cfg.RateLimit)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	handler := api.NewHandler(api.Deps{
		Fingerprints: fpSvc,
		Engine:       engine,
		Realtime:     threatAnalyzer,
		Bans:         banSvc,
		Limiter:      limiter,
		Audit:        auditLogger,
		Users:        stores.users,
		Readiness:    stores.readiness,
	})
	chiMiddleware := api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security), jwtManager)
	router := api.NewRouter(handler, chiMiddleware)

	if cfg.Security.HTTPRateLimitOff {
		logging.Warn().Msg("HTTP rate limiting is DISABLED")
	}
	for _, origin := range cfg.Security.CORSOrigins {
		if origin == "*" {
			logging.Warn().Msg("CORS allows any origin; restrict security.cors_origins in production")
			break
		}
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	// === SUPERVISOR TREE ===

	for _, task := range maintenanceTasks(cfg, banSvc, limiter, auditLogger, threatAnalyzer) {
		tree.AddMaintenanceService(task)
	}
	if task := networkListTask(cfg.VPN, vpnSvc); task != nil {
		tree.AddMaintenanceService(task)
	}
	if queue != nil {
		tree.AddJobsService(services.NewQueueService(queue))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Salada stopped gracefully")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func fingerprintConfig(cfg *config.Config) (fingerprint.Config, error) {
	salt, err := cfg.FingerprintSalt()
	if err != nil {
		return fingerprint.Config{}, err
	}

	fc := fingerprint.DefaultConfig()
	fc.Salt = salt
	if cfg.Fingerprint.SimilarityThreshold > 0 {
		fc.SimilarityThreshold = cfg.Fingerprint.SimilarityThreshold
	}
	if cfg.Fingerprint.BotThreshold > 0 {
		fc.BotThreshold = cfg.Fingerprint.BotThreshold
	}
	if cfg.Fingerprint.AsyncScanThreshold > 0 {
		fc.AsyncScanThreshold = cfg.Fingerprint.AsyncScanThreshold
	}
	if cfg.Fingerprint.MaxSimilarDevices > 0 {
		fc.MaxSimilarDevices = cfg.Fingerprint.MaxSimilarDevices
	}
	if cfg.Fingerprint.ScanWindowDays > 0 {
		fc.ScanWindowDays = cfg.Fingerprint.ScanWindowDays
	}
	return fc, nil
}

// printToken writes a signed token for arg ("username:role") to stdout.
func printToken(m *auth.JWTManager, arg string) error {
	username, role, ok := strings.Cut(arg, ":")
	if !ok || username == "" {
		return fmt.Errorf("-issue-token value %q must be username:role", arg)
	}
	if role != auth.RoleAdmin && role != auth.RoleService {
		return fmt.Errorf("unknown role %q (want %s or %s)", role, auth.RoleAdmin, auth.RoleService)
	}
	token, err := m.GenerateToken(username, role)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, token)
	return err
}
