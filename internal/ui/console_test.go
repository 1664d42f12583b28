package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hpn/hpn-blueprint/internal/domain"
)

func newTestConsole() (*Console, *bytes.Buffer) {
	Disable()
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.now = func() time.Time { return time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC) }
	return c, &buf
}

func TestConsole_KeyNoticesAreMasked(t *testing.T) {
	c, buf := newTestConsole()

	c.KeySwitched(domain.ProviderOpenAI, "sk-first-key-abcdefgh1111", "sk-second-key-abcdefg2222")
	c.KeyDead(domain.ProviderOpenAI, "sk-first-key-abcdefgh1111", "openai API error [429]: slow down")

	out := buf.String()
	assert.Contains(t, out, "[SWITCHING] openai sk-f...1111 → sk-s...2222")
	assert.Contains(t, out, "DEAD KEY  openai sk-f...1111 marked as dead (openai API error [429]: slow down)")
	assert.NotContains(t, out, "first-key")
}

func TestConsole_Delivered(t *testing.T) {
	c, buf := newTestConsole()

	c.Delivered(domain.DeliverableSQLSchema, domain.ProviderGroq, 1500*time.Millisecond, nil)
	c.Delivered(domain.DeliverableReferences, domain.ProviderGroq, time.Second, errors.New("bad key sk-abcdefghijklmnopqrstuvwxyz"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "OK")
	assert.Contains(t, lines[0], "SQL Schema")
	assert.Contains(t, lines[0], "1500ms")
	assert.Contains(t, lines[1], "FAIL")
	assert.NotContains(t, lines[1], "abcdefghijklmnop")
}

func TestConsole_Request(t *testing.T) {
	c, buf := newTestConsole()

	c.Request("POST", "/api/generate", 200, 12*time.Millisecond)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "15:04:05 "))
	assert.Contains(t, out, "/api/generate")
	assert.Contains(t, out, " 200 ")
	assert.Contains(t, out, "12ms")
}

func TestConsole_StartupInfo(t *testing.T) {
	c, buf := newTestConsole()

	c.StartupInfo("0.0.0.0:3001",
		[]domain.KeyStats{{Provider: domain.ProviderGoogle, Active: 2, Total: 2}},
		[]Endpoint{{Method: "GET", Path: "/health", Description: "Health check"}},
	)

	out := buf.String()
	assert.Contains(t, out, "http://0.0.0.0:3001")
	assert.Contains(t, out, "google 2")
	assert.Contains(t, out, "/health")
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "/health", truncatePath("/health", 10))
	assert.Equal(t, "/api/ge...", truncatePath("/api/generate/srs", 10))
}
