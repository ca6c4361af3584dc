package registry

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"authgate/internal/models"
)

// GuardRule maps a path pattern to a guard type with an explicit precedence.
// Lower order values win. Guard is one of "session", "token" or "public".
type GuardRule struct {
	Path  string `yaml:"path"`
	Guard string `yaml:"guard"`
	Order int    `yaml:"order"`
}

type clientEntry struct {
	ID           string   `yaml:"id"`
	Secret       string   `yaml:"secret"`
	Name         string   `yaml:"name"`
	RedirectURIs []string `yaml:"redirect_uris"`
}

type registryFile struct {
	Clients []clientEntry `yaml:"clients"`
	Guards  []GuardRule   `yaml:"guards"`
}

// Registry is the static client and guard configuration, loaded once at
// startup and read-only afterwards.
type Registry struct {
	clients map[string]*models.Client
	rules   []GuardRule
}

// Parse decodes a YAML registry document and validates the client entries.
func Parse(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}

	if len(file.Clients) == 0 {
		return nil, fmt.Errorf("registry contains no clients")
	}

	clients := make(map[string]*models.Client, len(file.Clients))
	for _, entry := range file.Clients {
		if entry.ID == "" || entry.Secret == "" {
			return nil, fmt.Errorf("client entry missing id or secret")
		}
		if len(entry.RedirectURIs) == 0 {
			return nil, fmt.Errorf("client %q has no redirect_uris", entry.ID)
		}
		if _, exists := clients[entry.ID]; exists {
			return nil, fmt.Errorf("duplicate client id %q", entry.ID)
		}
		clients[entry.ID] = &models.Client{
			ID:           entry.ID,
			Secret:       entry.Secret,
			Name:         entry.Name,
			RedirectURIs: entry.RedirectURIs,
		}
	}

	return &Registry{clients: clients, rules: file.Guards}, nil
}

// Client returns the registration for a client id.
func (r *Registry) Client(clientID string) (*models.Client, bool) {
	client, exists := r.clients[clientID]
	return client, exists
}

// Rules returns the guard rules in file order; the guard chain sorts them.
func (r *Registry) Rules() []GuardRule {
	return r.rules
}
