package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

// Config holds all configuration options
type Config struct {
	Port      string `long:"port" env:"PORT" default:"9999" description:"Client port"`
	ServerURL string `long:"server-url" env:"SERVER_URL" default:"http://localhost:8080" description:"Authorization server base URL"`

	ClientID     string `long:"client-id" env:"CLIENT_ID" default:"acme" description:"Registered client id"`
	ClientSecret string `long:"client-secret" env:"CLIENT_SECRET" description:"Registered client secret"`
	CallbackURL  string `long:"callback-url" env:"CALLBACK_URL" default:"http://localhost:9999/client/login" description:"Redirect URI registered for this client"`

	ResourcePath string `long:"resource-path" env:"RESOURCE_PATH" default:"/me" description:"Protected resource path on the server"`
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
