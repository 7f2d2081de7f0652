package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iksnae/llmcan/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOpts() TorOptions {
	return TorOptions{ActiveTimeout: 200 * time.Millisecond, PollInterval: 5 * time.Millisecond}
}

func TestTorService_Rotate(t *testing.T) {
	runner := testutil.NewFakeRunner().
		On("systemctl restart tor", testutil.RunResult{}).
		On("systemctl is-active tor",
			testutil.RunResult{Output: "activating\n", Err: errors.New("exit status 3")},
			testutil.RunResult{Output: "active\n"},
		)
	s := NewTorService(runner, nil, fastOpts())

	assert.True(t, s.Rotate(context.Background()))
	assert.Equal(t, 1, runner.Count("systemctl restart tor"))
	assert.Equal(t, 2, runner.Count("systemctl is-active tor"))
}

func TestTorService_RotateRestartFails(t *testing.T) {
	runner := testutil.NewFakeRunner().
		On("systemctl restart tor", testutil.RunResult{Output: "Access denied", Err: errors.New("exit status 1")})
	s := NewTorService(runner, nil, fastOpts())

	assert.False(t, s.Rotate(context.Background()))
	assert.Equal(t, 0, runner.Count("systemctl is-active"))
}

func TestTorService_RotateNeverActive(t *testing.T) {
	runner := testutil.NewFakeRunner().
		On("systemctl is-active tor", testutil.RunResult{Output: "failed", Err: errors.New("exit status 3")})
	s := NewTorService(runner, nil, fastOpts())

	assert.False(t, s.Rotate(context.Background()))
	assert.GreaterOrEqual(t, runner.Count("systemctl is-active tor"), 2)
}

func TestTorService_Sudo(t *testing.T) {
	runner := testutil.NewFakeRunner().
		On("sudo", testutil.RunResult{Output: "active"})
	opts := fastOpts()
	opts.UseSudo = true
	opts.Unit = "tor@default"
	s := NewTorService(runner, nil, opts)

	assert.True(t, s.Rotate(context.Background()))
	assert.Equal(t, []string{
		"sudo systemctl restart tor@default",
		"sudo systemctl is-active tor@default",
	}, runner.Calls())
}

func TestTorService_RotateVerifiesIP(t *testing.T) {
	var n int32
	echo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i := atomic.AddInt32(&n, 1)
		fmt.Fprintf(w, `{"ip":"10.0.0.%d"}`, i)
	}))
	defer echo.Close()

	runner := testutil.NewFakeRunner().On("systemctl", testutil.RunResult{Output: "active"})
	ip := &IPChecker{URL: echo.URL, Direct: echo.Client(), Proxied: echo.Client()}
	opts := fastOpts()
	opts.VerifyIP = true
	s := NewTorService(runner, ip, opts)

	require.True(t, s.Rotate(context.Background()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&n))
}

func TestTorService_IsActive(t *testing.T) {
	tests := []struct {
		name   string
		result testutil.RunResult
		want   bool
	}{
		{"active", testutil.RunResult{Output: "active\n"}, true},
		{"inactive", testutil.RunResult{Output: "inactive\n", Err: errors.New("exit status 3")}, false},
		{"unexpected output", testutil.RunResult{Output: "reloading"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := testutil.NewFakeRunner().On("systemctl is-active tor", tt.result)
			s := NewTorService(runner, nil, fastOpts())
			if got := s.IsActive(context.Background()); got != tt.want {
				t.Errorf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}
