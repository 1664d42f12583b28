// Package domain contains the core business entities and value objects.
package domain

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNoKeysAvailable is returned when every key of a provider is dead or the pool is empty.
var ErrNoKeysAvailable = errors.New("no keys available in the pool")

// KeyManager rotates the server-side keys of a single provider.
//
// Selection is round-robin over the live keys. A key that keeps failing with
// rate-limit or server errors is parked (MarkAsDead) and comes back by itself
// once the cooldown has elapsed.
type KeyManager struct {
	provider ProviderType

	// index is the round-robin cursor, advanced atomically.
	index int64

	mu       sync.RWMutex
	live     []string
	dead     map[string]time.Time
	managed  map[string]struct{}
	cooldown time.Duration

	now func() time.Time
}

// NewKeyManager creates a KeyManager for provider with the given keys.
// Empty and duplicate keys are dropped. A zero cooldown disables automatic revival.
func NewKeyManager(provider ProviderType, keys []string, cooldown time.Duration) *KeyManager {
	km := &KeyManager{
		provider: provider,
		live:     make([]string, 0, len(keys)),
		dead:     make(map[string]time.Time),
		managed:  make(map[string]struct{}, len(keys)),
		cooldown: cooldown,
		now:      time.Now,
	}

	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, dup := km.managed[key]; dup {
			continue
		}
		km.managed[key] = struct{}{}
		km.live = append(km.live, key)
	}

	return km
}

// Provider returns the vendor this manager serves.
func (km *KeyManager) Provider() ProviderType {
	return km.provider
}

// GetNextKey returns the next live key. Safe for concurrent use.
func (km *KeyManager) GetNextKey() (string, error) {
	km.reviveExpired()

	km.mu.RLock()
	defer km.mu.RUnlock()

	n := len(km.live)
	if n == 0 {
		return "", ErrNoKeysAvailable
	}

	next := atomic.AddInt64(&km.index, 1)
	return km.live[int((next-1)%int64(n))], nil
}

// MarkAsDead removes key from rotation until the cooldown elapses or ReviveKey is called.
// Unknown keys are ignored.
func (km *KeyManager) MarkAsDead(key string) {
	km.mu.Lock()
	defer km.mu.Unlock()

	if _, ok := km.managed[key]; !ok {
		return
	}
	km.dead[key] = km.now()

	kept := km.live[:0:0]
	for _, k := range km.live {
		if k != key {
			kept = append(kept, k)
		}
	}
	km.live = kept
}

// ReviveKey puts a dead key back into rotation.
func (km *KeyManager) ReviveKey(key string) {
	km.mu.Lock()
	defer km.mu.Unlock()
	km.reviveLocked(key)
}

func (km *KeyManager) reviveLocked(key string) {
	if _, wasDead := km.dead[key]; !wasDead {
		return
	}
	delete(km.dead, key)

	for _, k := range km.live {
		if k == key {
			return
		}
	}
	km.live = append(km.live, key)
}

// reviveExpired returns keys whose cooldown has passed to the live set.
func (km *KeyManager) reviveExpired() {
	if km.cooldown == 0 {
		return
	}

	now := km.now()

	km.mu.RLock()
	var expired []string
	for key, since := range km.dead {
		if now.Sub(since) >= km.cooldown {
			expired = append(expired, key)
		}
	}
	km.mu.RUnlock()

	if len(expired) == 0 {
		return
	}

	km.mu.Lock()
	for _, key := range expired {
		km.reviveLocked(key)
	}
	km.mu.Unlock()
}

// ActiveKeyCount returns the number of keys currently in rotation.
func (km *KeyManager) ActiveKeyCount() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.live)
}

// DeadKeyCount returns the number of parked keys.
func (km *KeyManager) DeadKeyCount() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.dead)
}

// TotalKeyCount returns the number of managed keys (live + dead).
func (km *KeyManager) TotalKeyCount() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.managed)
}

// IsKeyDead reports whether key is parked.
func (km *KeyManager) IsKeyDead(key string) bool {
	km.mu.RLock()
	defer km.mu.RUnlock()
	_, dead := km.dead[key]
	return dead
}

// GetDeadKeys returns a copy of the parked keys with the time they were parked.
func (km *KeyManager) GetDeadKeys() map[string]time.Time {
	km.mu.RLock()
	defer km.mu.RUnlock()

	out := make(map[string]time.Time, len(km.dead))
	for k, v := range km.dead {
		out[k] = v
	}
	return out
}
