package domain

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyManager(t *testing.T) {
	tests := []struct {
		name     string
		keys     []string
		expected int
	}{
		{name: "empty keys", keys: []string{}, expected: 0},
		{name: "single key", keys: []string{"sk-a"}, expected: 1},
		{name: "multiple keys", keys: []string{"sk-a", "sk-b", "sk-c"}, expected: 3},
		{name: "filters empty strings", keys: []string{"sk-a", "", "sk-b", ""}, expected: 2},
		{name: "filters duplicates", keys: []string{"sk-a", "sk-a", "sk-b"}, expected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			km := NewKeyManager(ProviderOpenAI, tt.keys, time.Minute)
			assert.Equal(t, tt.expected, km.ActiveKeyCount())
			assert.Equal(t, tt.expected, km.TotalKeyCount())
			assert.Equal(t, ProviderOpenAI, km.Provider())
		})
	}
}

func TestGetNextKey_Empty(t *testing.T) {
	km := NewKeyManager(ProviderGroq, nil, 0)

	_, err := km.GetNextKey()
	assert.ErrorIs(t, err, ErrNoKeysAvailable)
}

func TestGetNextKey_RoundRobin(t *testing.T) {
	km := NewKeyManager(ProviderAnthropic, []string{"k1", "k2", "k3"}, 0)

	var got []string
	for i := 0; i < 6; i++ {
		key, err := km.GetNextKey()
		require.NoError(t, err)
		got = append(got, key)
	}

	assert.Equal(t, []string{"k1", "k2", "k3", "k1", "k2", "k3"}, got)
}

func TestGetNextKey_Concurrent(t *testing.T) {
	keys := make([]string, 4)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}
	km := NewKeyManager(ProviderOpenAI, keys, 0)

	const workers, perWorker = 8, 100
	counts := make(map[string]*int64, len(keys))
	for _, k := range keys {
		counts[k] = new(int64)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key, err := km.GetNextKey()
				if err != nil {
					t.Errorf("GetNextKey() error = %v", err)
					return
				}
				atomic.AddInt64(counts[key], 1)
			}
		}()
	}
	wg.Wait()

	var total int64
	for _, c := range counts {
		n := atomic.LoadInt64(c)
		assert.Equal(t, int64(workers*perWorker/len(keys)), n)
		total += n
	}
	assert.Equal(t, int64(workers*perWorker), total)
}

func TestMarkAsDead(t *testing.T) {
	km := NewKeyManager(ProviderOpenAI, []string{"k1", "k2", "k3"}, 0)

	km.MarkAsDead("k2")

	assert.Equal(t, 2, km.ActiveKeyCount())
	assert.Equal(t, 1, km.DeadKeyCount())
	assert.Equal(t, 3, km.TotalKeyCount())
	assert.True(t, km.IsKeyDead("k2"))

	for i := 0; i < 10; i++ {
		key, err := km.GetNextKey()
		require.NoError(t, err)
		assert.NotEqual(t, "k2", key)
	}
}

func TestMarkAsDead_AllKeys(t *testing.T) {
	km := NewKeyManager(ProviderOpenAI, []string{"k1", "k2"}, 0)

	km.MarkAsDead("k1")
	km.MarkAsDead("k2")

	_, err := km.GetNextKey()
	assert.ErrorIs(t, err, ErrNoKeysAvailable)
}

func TestMarkAsDead_UnknownKey(t *testing.T) {
	km := NewKeyManager(ProviderOpenAI, []string{"k1", "k2"}, 0)

	km.MarkAsDead("stranger")

	assert.Equal(t, 2, km.ActiveKeyCount())
	assert.Equal(t, 0, km.DeadKeyCount())
	assert.False(t, km.IsKeyDead("stranger"))
}

func TestReviveKey(t *testing.T) {
	km := NewKeyManager(ProviderOpenAI, []string{"k1", "k2", "k3"}, 0)

	km.MarkAsDead("k2")
	km.ReviveKey("k2")
	km.ReviveKey("k2")

	assert.Equal(t, 3, km.ActiveKeyCount())
	assert.False(t, km.IsKeyDead("k2"))
}

func TestAutoRevival(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	km := NewKeyManager(ProviderGoogle, []string{"k1", "k2"}, time.Minute)
	km.now = func() time.Time { return clock }

	km.MarkAsDead("k1")
	_, err := km.GetNextKey()
	require.NoError(t, err)
	assert.True(t, km.IsKeyDead("k1"), "still within cooldown")

	clock = clock.Add(time.Minute)
	_, err = km.GetNextKey()
	require.NoError(t, err)
	assert.False(t, km.IsKeyDead("k1"))
	assert.Equal(t, 2, km.ActiveKeyCount())
}

func TestAutoRevival_DisabledWithZeroCooldown(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	km := NewKeyManager(ProviderGoogle, []string{"k1"}, 0)
	km.now = func() time.Time { return clock }

	km.MarkAsDead("k1")
	clock = clock.Add(24 * time.Hour)

	_, err := km.GetNextKey()
	assert.ErrorIs(t, err, ErrNoKeysAvailable)
}

func TestGetDeadKeys_ReturnsCopy(t *testing.T) {
	km := NewKeyManager(ProviderCohere, []string{"k1", "k2"}, 0)
	km.MarkAsDead("k1")

	dead := km.GetDeadKeys()
	require.Contains(t, dead, "k1")

	delete(dead, "k1")
	assert.True(t, km.IsKeyDead("k1"))
}

func TestKeyRing(t *testing.T) {
	ring := NewKeyRing([]APIKey{
		{Key: "sk-1", Provider: ProviderOpenAI, Enabled: true},
		{Key: "sk-2", Provider: ProviderOpenAI, Enabled: true},
		{Key: "gsk_1", Provider: ProviderGroq, Enabled: true},
		{Key: "hf_off", Provider: ProviderHuggingFace, Enabled: false},
	}, time.Minute)

	assert.Equal(t, []ProviderType{ProviderGroq, ProviderOpenAI}, ring.Providers())
	assert.True(t, ring.HasKeys(ProviderOpenAI))
	assert.False(t, ring.HasKeys(ProviderHuggingFace))
	assert.Nil(t, ring.Manager(ProviderAnthropic))

	ring.Manager(ProviderOpenAI).MarkAsDead("sk-1")

	stats := ring.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, KeyStats{Provider: ProviderOpenAI, Active: 1, Dead: 1, Total: 2}, stats[1])
}

func TestKeyRing_SkipsInvalidKeys(t *testing.T) {
	ring := NewKeyRing([]APIKey{
		{Key: "", Provider: ProviderOpenAI, Enabled: true},
		{Key: "acme-1", Provider: "acme", Enabled: true},
		{Key: "co-1", Provider: ProviderCohere, Enabled: true},
	}, time.Minute)

	assert.Equal(t, []ProviderType{ProviderCohere}, ring.Providers())
	assert.False(t, ring.HasKeys(ProviderOpenAI))
}

func TestKeyRing_Nil(t *testing.T) {
	var ring *KeyRing

	assert.Nil(t, ring.Manager(ProviderOpenAI))
	assert.False(t, ring.HasKeys(ProviderOpenAI))
	assert.Empty(t, ring.Providers())
}
