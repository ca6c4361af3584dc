package main

import (
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/oauth2"

	"authgate/internal/api"
	"authgate/internal/relying"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.CallbackURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.ServerURL + "/oauth/authorize",
			TokenURL: cfg.ServerURL + "/oauth/token",
		},
	}

	app, err := relying.New(conf, cfg.ServerURL+cfg.ResourcePath)
	if err != nil {
		slog.Error("Failed to create client app", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.LoggingMiddleware(app.Routes()),
	}

	slog.Info("OAuth client starting",
		"addr", server.Addr,
		"client_id", cfg.ClientID,
		"authorization_server", cfg.ServerURL,
	)

	if err := server.ListenAndServe(); err != nil {
		slog.Error("Client failed", "error", err)
		os.Exit(1)
	}
}
