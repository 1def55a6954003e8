// Package secrets provides a thread-safe secret vault with hot reload support.
package secrets

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Keys of the secrets Rental Manager reads from the vault.
const (
	KeyJWTSecret  = "RENTAL_JWT_SECRET"
	KeyBackendKey = "RENTAL_BACKEND_KEY"
	KeyMCPAPIKey  = "RENTAL_MCP_API_KEY"
)

// Loader retrieves secrets from a source (env vars, config file, remote vault).
type Loader func() (map[string]string, error)

// Vault holds secret values in memory and supports atomic reloading.
type Vault struct {
	mu        sync.RWMutex
	values    map[string]string
	loader    Loader
	listeners []func()
}

// NewVault creates a Vault, calling the loader once to populate initial values.
func NewVault(loader Loader) (*Vault, error) {
	vals, err := loader()
	if err != nil {
		return nil, fmt.Errorf("initial secret load: %w", err)
	}
	return &Vault{
		values: vals,
		loader: loader,
	}, nil
}

// Get returns the secret for key, or an empty string if not found.
func (v *Vault) Get(key string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[key]
}

// Require fails when any of keys is missing or empty.
func (v *Vault) Require(keys ...string) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var missing []string
	for _, k := range keys {
		if v.values[k] == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing secrets: %s", strings.Join(missing, ", "))
	}
	return nil
}

// OnReload registers fn to run after every successful Reload.
func (v *Vault) OnReload(fn func()) {
	v.mu.Lock()
	v.listeners = append(v.listeners, fn)
	v.mu.Unlock()
}

// Reload calls the loader and swaps in the new values atomically.
// If the loader returns an error, existing values are preserved.
func (v *Vault) Reload() error {
	newVals, err := v.loader()
	if err != nil {
		return fmt.Errorf("reload secrets: %w", err)
	}
	v.mu.Lock()
	v.values = newVals
	listeners := append([]func(){}, v.listeners...)
	v.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return nil
}

// Keys lists the loaded secret names in sorted order.
func (v *Vault) Keys() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	keys := make([]string, 0, len(v.values))
	for k := range v.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Redacted returns a masked form of the secret for logs: the first two
// characters followed by "****", or just "****" for secrets of four
// characters or fewer.
func (v *Vault) Redacted(key string) string {
	return mask(v.Get(key))
}

// RedactString masks every secret value longer than four characters found in s.
func (v *Vault) RedactString(s string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, val := range v.values {
		if len(val) > 4 {
			s = strings.ReplaceAll(s, val, mask(val))
		}
	}
	return s
}

func mask(val string) string {
	switch {
	case val == "":
		return ""
	case len(val) <= 4:
		return "****"
	default:
		return val[:2] + "****"
	}
}
