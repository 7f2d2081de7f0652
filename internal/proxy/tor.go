// Package proxy controls the TOR service used to route searches and to
// obtain a fresh network identity between failed attempts.
package proxy

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iksnae/llmcan/internal"
)

// Rotator refreshes the network identity used for outbound searches
type Rotator interface {
	// Rotate obtains a new identity and reports whether the proxy is usable.
	Rotate(ctx context.Context) bool
	// IsActive reports whether the proxy service is running.
	IsActive(ctx context.Context) bool
}

// TorOptions configures TorService
type TorOptions struct {
	Unit          string        // systemd unit, "tor" by default
	UseSudo       bool          // prefix systemctl with sudo
	ActiveTimeout time.Duration // how long to wait for the unit to come back
	PollInterval  time.Duration
	VerifyIP      bool // compare egress IPs before and after a restart
}

// TorService rotates identity by restarting the TOR systemd unit
type TorService struct {
	runner internal.CommandRunner
	ip     *IPChecker
	opts   TorOptions

	mu sync.Mutex
}

// NewTorService creates a TorService. ip may be nil, which disables
// egress verification.
func NewTorService(runner internal.CommandRunner, ip *IPChecker, opts TorOptions) *TorService {
	if opts.Unit == "" {
		opts.Unit = "tor"
	}
	if opts.ActiveTimeout <= 0 {
		opts.ActiveTimeout = 30 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	return &TorService{runner: runner, ip: ip, opts: opts}
}

func (s *TorService) systemctl(ctx context.Context, args ...string) ([]byte, error) {
	if s.opts.UseSudo {
		return s.runner.Run(ctx, "sudo", append([]string{"systemctl"}, args...)...)
	}
	return s.runner.Run(ctx, "systemctl", args...)
}

// IsActive runs `systemctl is-active <unit>`
func (s *TorService) IsActive(ctx context.Context) bool {
	out, err := s.systemctl(ctx, "is-active", s.opts.Unit)
	state := strings.TrimSpace(string(out))
	if err != nil {
		internal.LogDebug("tor is-active: %s (%v)", state, err)
		return false
	}
	return state == "active"
}

// Rotate restarts the unit and waits until it is active again. Concurrent
// callers are serialized so that one restart is not interrupted by another.
func (s *TorService) Rotate(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var before string
	if s.opts.VerifyIP && s.ip != nil {
		before, _ = s.ip.EgressIP(ctx, true)
	}

	internal.LogInfo("restarting %s to obtain a new identity", s.opts.Unit)
	if out, err := s.systemctl(ctx, "restart", s.opts.Unit); err != nil {
		internal.LogError("failed to restart %s: %v %s", s.opts.Unit, err, strings.TrimSpace(string(out)))
		return false
	}

	if !s.waitActive(ctx) {
		internal.LogError("%s did not become active within %s", s.opts.Unit, s.opts.ActiveTimeout)
		return false
	}

	if s.opts.VerifyIP && s.ip != nil {
		after, err := s.ip.EgressIP(ctx, true)
		switch {
		case err != nil:
			internal.LogWarn("could not verify new TOR egress IP: %v", err)
		case before != "" && before == after:
			internal.LogWarn("TOR egress IP unchanged after restart: %s", after)
		default:
			internal.LogInfo("TOR egress IP: %s -> %s", orUnknown(before), after)
		}
	}
	return true
}

func (s *TorService) waitActive(ctx context.Context) bool {
	deadline := time.NewTimer(s.opts.ActiveTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		if s.IsActive(ctx) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-ticker.C:
		}
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
