// Package ui provides colourised console output for HPN Blueprint.
// Structured logs go to slog. This package is the human-facing side:
// request lines, key rotation notices and per-deliverable progress.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/hpn/hpn-blueprint/internal/domain"
	"github.com/hpn/hpn-blueprint/internal/security"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR DEFINITIONS
// ══════════════════════════════════════════════════════════════════════════════

var (
	successBadge = color.New(color.BgGreen, color.FgBlack, color.Bold)
	warningBadge = color.New(color.FgYellow, color.Bold)
	errorBadge   = color.New(color.BgRed, color.FgWhite, color.Bold)
	infoBadge    = color.New(color.FgCyan, color.Bold)
	debugBadge   = color.New(color.FgMagenta)

	successText = color.New(color.FgGreen, color.Bold)
	warningText = color.New(color.FgYellow)
	errorText   = color.New(color.FgRed)
	infoText    = color.New(color.FgCyan)
	mutedText   = color.New(color.FgHiBlack)
	accentText  = color.New(color.FgMagenta, color.Bold)
	neonBlue    = color.New(color.FgHiCyan, color.Bold)

	methodPOST   = color.New(color.BgHiMagenta, color.FgBlack, color.Bold)
	methodGET    = color.New(color.BgHiCyan, color.FgBlack, color.Bold)
	methodPUT    = color.New(color.BgHiYellow, color.FgBlack, color.Bold)
	methodDELETE = color.New(color.BgHiRed, color.FgBlack, color.Bold)
)

// Console writes styled lines to a terminal. It is safe for concurrent use,
// which matters because deliverables finish in parallel.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewConsole writes to out, or stdout when out is nil.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out, now: time.Now}
}

// Disable turns colour off globally, for pipes and CI logs.
func Disable() {
	color.NoColor = true
}

// ══════════════════════════════════════════════════════════════════════════════
// GENERATION PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// Delivered prints one finished deliverable.
// Format: [  OK  ] Flow Diagram  openai  1840ms
func (c *Console) Delivered(kind domain.DeliverableKind, provider domain.ProviderType, latency time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		errorBadge.Fprint(c.out, " FAIL ")
	} else {
		successBadge.Fprint(c.out, "  OK  ")
	}
	fmt.Fprintf(c.out, " %-18s ", kind.Title())
	mutedText.Fprintf(c.out, "%-12s ", provider)
	c.printLatency(latency)
	if err != nil {
		errorText.Fprintf(c.out, " %s", security.Redact(err.Error()))
	}
	fmt.Fprintln(c.out)
}

// KeySwitched logs a failover to the next server key.
// Format: ⚠️ [SWITCHING] openai sk-a...1234 → sk-b...5678
func (c *Console) KeySwitched(provider domain.ProviderType, from, to string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprint(c.out, "⚠️  ")
	warningBadge.Fprint(c.out, "[SWITCHING]")
	fmt.Fprintf(c.out, " %s ", provider)
	mutedText.Fprint(c.out, security.MaskKey(from))
	warningText.Fprint(c.out, " → ")
	accentText.Fprintln(c.out, security.MaskKey(to))
}

// KeyDead logs a key taken out of rotation.
// Format: 💀 [DEAD KEY] sk-a...1234 marked as dead (reason)
func (c *Console) KeyDead(provider domain.ProviderType, key, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprint(c.out, "💀 ")
	errorBadge.Fprint(c.out, " DEAD KEY ")
	fmt.Fprintf(c.out, " %s ", provider)
	errorText.Fprint(c.out, security.MaskKey(key))
	mutedText.Fprintf(c.out, " marked as dead (%s)\n", security.Redact(reason))
}

// Info prints a general notice.
// Format: [BLUEPRINT] message
func (c *Console) Info(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	infoBadge.Fprint(c.out, "[BLUEPRINT]")
	fmt.Fprint(c.out, " ")
	infoText.Fprintln(c.out, msg)
}

// CacheHit logs a response served from the cache.
// Format: ⚡ CACHE HIT | key:9f86...0a08 | 0ms
func (c *Console) CacheHit(cacheKey string, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	neonBlue.Fprint(c.out, "⚡ CACHE HIT ")
	fmt.Fprint(c.out, "| key:")
	mutedText.Fprint(c.out, security.MaskKey(cacheKey))
	fmt.Fprint(c.out, " | ")
	successText.Fprintf(c.out, "%dms\n", latency.Milliseconds())
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST LOGGING
// ══════════════════════════════════════════════════════════════════════════════

// Request logs one HTTP exchange.
// Color-codes status, method, and latency for quick visual parsing.
func (c *Console) Request(method, path string, status int, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	mutedText.Fprintf(c.out, "%s ", c.now().Format("15:04:05"))
	c.printMethodBadge(method)
	fmt.Fprintf(c.out, " %-34s ", truncatePath(path, 34))
	c.printStatusBadge(status)
	fmt.Fprint(c.out, " ")
	c.printLatency(latency)
	fmt.Fprintln(c.out)
}

func (c *Console) printMethodBadge(method string) {
	switch method {
	case "POST":
		methodPOST.Fprintf(c.out, " %-6s", method)
	case "GET":
		methodGET.Fprintf(c.out, " %-6s", method)
	case "PUT":
		methodPUT.Fprintf(c.out, " %-6s", method)
	case "DELETE":
		methodDELETE.Fprintf(c.out, " %-6s", method)
	default:
		debugBadge.Fprintf(c.out, " %-6s", method)
	}
}

func (c *Console) printStatusBadge(status int) {
	switch {
	case status >= 200 && status < 300:
		successBadge.Fprintf(c.out, " %d ", status)
	case status >= 300 && status < 400:
		infoBadge.Fprintf(c.out, " %d ", status)
	case status >= 400 && status < 500:
		warningBadge.Fprintf(c.out, " %d ", status)
	default:
		errorBadge.Fprintf(c.out, " %d ", status)
	}
}

// printLatency colours by how long a vendor round trip usually takes.
// Green: < 5s, Yellow: < 30s, Red: >= 30s
func (c *Console) printLatency(latency time.Duration) {
	ms := latency.Milliseconds()
	s := fmt.Sprintf("%6dms", ms)

	switch {
	case latency < 5*time.Second:
		successText.Fprint(c.out, s)
	case latency < 30*time.Second:
		warningText.Fprint(c.out, s)
	default:
		errorText.Fprint(c.out, s)
	}
}

func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return path[:maxLen-3] + "..."
}

// ══════════════════════════════════════════════════════════════════════════════
// STARTUP MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

// Endpoint is one row of the startup route table.
type Endpoint struct {
	Method, Path, Description string
}

// StartupInfo prints the listen address, the key pools and the route table.
func (c *Console) StartupInfo(addr string, pools []domain.KeyStats, endpoints []Endpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out)
	infoBadge.Fprint(c.out, "[BLUEPRINT]")
	fmt.Fprint(c.out, " Server starting on ")
	neonBlue.Fprintf(c.out, "http://%s\n", addr)

	infoBadge.Fprint(c.out, "[BLUEPRINT]")
	fmt.Fprint(c.out, " Server keys: ")
	if len(pools) == 0 {
		mutedText.Fprintln(c.out, "none (clients must send their own)")
	} else {
		for i, p := range pools {
			if i > 0 {
				mutedText.Fprint(c.out, " | ")
			}
			accentText.Fprintf(c.out, "%s", p.Provider)
			successText.Fprintf(c.out, " %d", p.Active)
		}
		fmt.Fprintln(c.out)
	}

	fmt.Fprintln(c.out)
	mutedText.Fprintln(c.out, "  ┌──────────────────────────────────────────────────────────────────────┐")
	for _, e := range endpoints {
		mutedText.Fprint(c.out, "  │ ")
		c.printMethodBadge(e.Method)
		fmt.Fprintf(c.out, " %-36s", e.Path)
		mutedText.Fprintf(c.out, " %-22s", e.Description)
		mutedText.Fprintln(c.out, " │")
	}
	mutedText.Fprintln(c.out, "  └──────────────────────────────────────────────────────────────────────┘")
	fmt.Fprintln(c.out)
}

// Shutdown prints the shutdown notice.
func (c *Console) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out)
	warningBadge.Fprint(c.out, "[SHUTDOWN]")
	warningText.Fprintln(c.out, " Graceful shutdown initiated...")
}

// Goodbye prints the final line after the server has stopped.
func (c *Console) Goodbye() {
	c.mu.Lock()
	defer c.mu.Unlock()

	successBadge.Fprint(c.out, " OK ")
	fmt.Fprint(c.out, " ")
	successText.Fprintln(c.out, "Server stopped. Goodbye! 👋")
}
