package registry

import (
	"fmt"
	"os"
)

// LoadFile reads the registry from a YAML file on disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file %s: %w", path, err)
	}

	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("registry file %s: %w", path, err)
	}

	return reg, nil
}
