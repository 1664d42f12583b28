// Package domain contains the core business entities and value objects.
package domain

import (
	"sort"
	"sync"
	"time"
)

// APIKey is a server-side API key as declared in configuration.
type APIKey struct {
	// Key is the actual API key string.
	Key string `json:"key" mapstructure:"key"`

	// Name is a human-readable identifier for this key.
	Name string `json:"name" mapstructure:"name"`

	// Provider associates this key with a specific vendor.
	Provider ProviderType `json:"provider" mapstructure:"provider"`

	// Enabled indicates whether this key is active.
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// IsValid checks if the API key has all required fields.
func (k *APIKey) IsValid() bool {
	return k.Key != "" && k.Provider.IsValid()
}

// KeyRing groups one KeyManager per provider.
// Requests that arrive without a client key borrow keys from here.
type KeyRing struct {
	mu       sync.RWMutex
	managers map[ProviderType]*KeyManager
	cooldown time.Duration
}

// NewKeyRing builds a KeyRing from configured keys. Disabled and invalid keys are skipped.
func NewKeyRing(keys []APIKey, cooldown time.Duration) *KeyRing {
	grouped := make(map[ProviderType][]string)
	for _, k := range keys {
		if !k.Enabled || !k.IsValid() {
			continue
		}
		grouped[k.Provider] = append(grouped[k.Provider], k.Key)
	}

	ring := &KeyRing{
		managers: make(map[ProviderType]*KeyManager, len(grouped)),
		cooldown: cooldown,
	}
	for provider, list := range grouped {
		ring.managers[provider] = NewKeyManager(provider, list, cooldown)
	}
	return ring
}

// Manager returns the KeyManager for a provider, or nil when none is configured.
func (r *KeyRing) Manager(provider ProviderType) *KeyManager {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.managers[provider]
}

// HasKeys reports whether the provider has at least one active server key.
func (r *KeyRing) HasKeys(provider ProviderType) bool {
	km := r.Manager(provider)
	return km != nil && km.ActiveKeyCount() > 0
}

// Providers returns the providers that have server keys, sorted by name.
func (r *KeyRing) Providers() []ProviderType {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ProviderType, 0, len(r.managers))
	for p := range r.managers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// KeyStats is a point-in-time view of one provider's pool.
type KeyStats struct {
	Provider ProviderType `json:"provider"`
	Active   int          `json:"active_keys"`
	Dead     int          `json:"dead_keys"`
	Total    int          `json:"total_keys"`
}

// Stats returns pool statistics for every provider with server keys.
func (r *KeyRing) Stats() []KeyStats {
	providers := r.Providers()
	stats := make([]KeyStats, 0, len(providers))
	for _, p := range providers {
		km := r.Manager(p)
		stats = append(stats, KeyStats{
			Provider: p,
			Active:   km.ActiveKeyCount(),
			Dead:     km.DeadKeyCount(),
			Total:    km.TotalKeyCount(),
		})
	}
	return stats
}
