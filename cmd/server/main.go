package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"

	"authgate/internal/api"
	"authgate/internal/guard"
	"authgate/internal/issuer"
	"authgate/internal/registry"
	"authgate/internal/social"
	"authgate/internal/storage"
)

// Used when the registry document carries no guards section: the token-guarded
// resource alias outranks the session-guarded catch-all, and the endpoints
// carrying their own credentials are public.
var defaultGuardRules = []registry.GuardRule{
	{Path: "/me", Guard: "token", Order: 0},
	{Path: "/oauth/token", Guard: "public", Order: 1},
	{Path: "/login/**", Guard: "public", Order: 1},
	{Path: "/healthz", Guard: "public", Order: 1},
	{Path: "/**", Guard: "session", Order: 10},
}

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Load client registry
	var reg *registry.Registry
	switch cfg.RegistryMode {
	case "s3":
		reg, err = registry.LoadS3(context.Background(), registry.S3Options{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Object:    cfg.S3.Object,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			slog.Error("Failed to load registry from S3", "error", err)
			os.Exit(1)
		}
		slog.Info("Loaded client registry from S3", "endpoint", cfg.S3.Endpoint, "bucket", cfg.S3.Bucket)
	case "file":
		reg, err = registry.LoadFile(cfg.RegistryPath)
		if err != nil {
			slog.Error("Failed to load registry file", "error", err)
			os.Exit(1)
		}
		slog.Info("Loaded client registry", "path", cfg.RegistryPath)
	default:
		slog.Error("Invalid REGISTRY_MODE", "mode", cfg.RegistryMode, "valid_modes", []string{"file", "s3"})
		os.Exit(1)
	}

	// Setup token/session storage
	var store storage.Store
	switch cfg.SessionMode {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		// Test Redis connection
		ctx := context.Background()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}

		store = storage.NewRedisStorage(redisClient)
		slog.Info("Using Redis storage", "addr", cfg.Redis.Addr)
	case "memory":
		store = storage.NewMemoryStorage()
		slog.Warn("Using in-memory storage (not persistent)")
	default:
		slog.Error("Invalid SESSION_MODE", "mode", cfg.SessionMode, "valid_modes", []string{"redis", "memory"})
		os.Exit(1)
	}

	// Setup social provider
	callbackURL := cfg.PublicURL + "/login/callback"
	var provider social.Provider
	switch cfg.Provider.Name {
	case "github":
		provider = social.NewGitHub(cfg.Provider.ClientID, cfg.Provider.ClientSecret, callbackURL)
	case "facebook":
		provider = social.NewFacebook(cfg.Provider.ClientID, cfg.Provider.ClientSecret, callbackURL)
	default:
		slog.Error("Invalid PROVIDER", "provider", cfg.Provider.Name, "valid_providers", []string{"github", "facebook"})
		os.Exit(1)
	}

	// Setup services
	iss := issuer.New(reg, store, store)
	server := api.NewServer(iss, store, provider)

	// Setup guard chain
	chain, err := buildGuardChain(reg.Rules(), store)
	if err != nil {
		slog.Error("Invalid guard configuration", "error", err)
		os.Exit(1)
	}

	// Apply middleware
	handler := api.LoggingMiddleware(chain.Middleware(server.Routes()))

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	slog.Info("Authorization server starting",
		"addr", httpServer.Addr,
		"provider", provider.Name(),
		"authorize_endpoint", cfg.PublicURL+"/oauth/authorize",
		"token_endpoint", cfg.PublicURL+"/oauth/token",
	)

	if err := httpServer.ListenAndServe(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// buildGuardChain turns configured rules into a validated chain, binding each
// guard type to the shared storage.
func buildGuardChain(rules []registry.GuardRule, store storage.Store) (*guard.Chain, error) {
	if len(rules) == 0 {
		rules = defaultGuardRules
	}

	out := make([]guard.Rule, 0, len(rules))
	for _, rule := range rules {
		var g guard.Guard
		switch rule.Guard {
		case "session":
			g = &guard.SessionGuard{Sessions: store, LoginPath: "/login"}
		case "token":
			g = &guard.TokenGuard{Tokens: store}
		case "public":
			g = guard.AllowGuard{}
		default:
			return nil, fmt.Errorf("unknown guard type %q for path %q", rule.Guard, rule.Path)
		}
		out = append(out, guard.Rule{Pattern: rule.Path, Guard: g, Order: rule.Order})
	}

	return guard.NewChain(out)
}
