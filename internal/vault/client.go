// Package vault reads deployment secrets from HashiCorp Vault.
package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/vault/api"

	"trade-advisor/config"
)

// DatabaseSecret holds database credentials stored in Vault.
type DatabaseSecret struct {
	Password string `json:"password"`
}

// Client wraps the HashiCorp Vault client
type Client struct {
	client *api.Client
	config config.VaultConfig

	mu     sync.RWMutex
	cached *DatabaseSecret
}

// NewClient creates a new Vault client
func NewClient(cfg config.VaultConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{config: cfg}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{
			CACert: cfg.CACert,
		}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)

	return &Client{client: client, config: cfg}, nil
}

// Enabled reports whether Vault lookups are active.
func (c *Client) Enabled() bool {
	return c.config.Enabled
}

// DatabasePassword retrieves the database password from the KV v2 secret
// at <mount>/data/<secret_path>. A successful read is cached for the
// lifetime of the process.
func (c *Client) DatabasePassword(ctx context.Context) (string, error) {
	if !c.config.Enabled {
		return "", fmt.Errorf("vault is disabled")
	}

	c.mu.RLock()
	if c.cached != nil {
		password := c.cached.Password
		c.mu.RUnlock()
		return password, nil
	}
	c.mu.RUnlock()

	path := fmt.Sprintf("%s/data/%s", c.config.MountPath, c.config.SecretPath)

	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read database secret from vault: %w", err)
	}

	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("database secret not found at %s", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid secret format at %s", path)
	}

	password := getString(data, "password")
	if password == "" {
		return "", fmt.Errorf("database secret at %s has no password field", path)
	}

	c.mu.Lock()
	c.cached = &DatabaseSecret{Password: password}
	c.mu.Unlock()

	return password, nil
}

// HealthCheck verifies connectivity to the Vault server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}
	health, err := c.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}
	if !health.Initialized || health.Sealed {
		return fmt.Errorf("vault is not ready: initialized=%v sealed=%v", health.Initialized, health.Sealed)
	}
	return nil
}

func getString(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
