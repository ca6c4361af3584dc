package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

// Config holds all configuration options
type Config struct {
	// Server config
	Port      string `long:"port" env:"PORT" default:"8080" description:"Server port"`
	PublicURL string `long:"public-url" env:"PUBLIC_URL" default:"http://localhost:8080" description:"Externally visible base URL"`

	// Storage config
	SessionMode string `long:"session-mode" env:"SESSION_MODE" default:"memory" choice:"memory" choice:"redis" description:"Token/session storage backend"`

	// Client registry config
	RegistryMode string `long:"registry-mode" env:"REGISTRY_MODE" default:"file" choice:"file" choice:"s3" description:"Client registry source"`
	RegistryPath string `long:"registry-path" env:"REGISTRY_PATH" default:"./registry.yaml" description:"Registry file path (file mode)"`

	// Social provider config
	Provider struct {
		Name         string `long:"provider" env:"PROVIDER" default:"github" choice:"github" choice:"facebook" description:"Social identity provider"`
		ClientID     string `long:"provider-client-id" env:"PROVIDER_CLIENT_ID" description:"OAuth app client id at the provider"`
		ClientSecret string `long:"provider-client-secret" env:"PROVIDER_CLIENT_SECRET" description:"OAuth app client secret at the provider"`
	} `group:"Social Provider Options"`

	// S3 registry
	S3 struct {
		Endpoint  string `long:"s3-endpoint" env:"S3_ENDPOINT" default:"localhost:9000" description:"S3 endpoint (host:port)"`
		Bucket    string `long:"s3-bucket" env:"S3_BUCKET" default:"authgate" description:"S3 bucket name"`
		Object    string `long:"s3-object" env:"S3_OBJECT" default:"registry.yaml" description:"S3 object key of the registry document"`
		AccessKey string `long:"s3-access-key" env:"S3_ACCESS_KEY" default:"minioadmin" description:"S3 access key"`
		SecretKey string `long:"s3-secret-key" env:"S3_SECRET_KEY" default:"minioadmin" description:"S3 secret key"`
		UseSSL    bool   `long:"s3-use-ssl" env:"S3_USE_SSL" description:"Use SSL for S3 connections"`
	} `group:"S3 Registry Options"`

	// Redis config
	Redis struct {
		Addr     string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address"`
		Password string `long:"redis-password" env:"REDIS_PASSWORD" description:"Redis password"`
		DB       int    `long:"redis-db" env:"REDIS_DB" default:"0" description:"Redis database number"`
	} `group:"Redis Options"`
}

// LoadConfig parses configuration from environment variables and command line flags
func LoadConfig() (*Config, error) {
	var config Config

	parser := flags.NewParser(&config, flags.Default)
	parser.Usage = "[OPTIONS]"

	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}
