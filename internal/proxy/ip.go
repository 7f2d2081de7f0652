package proxy

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/iksnae/llmcan/internal"
	"github.com/tidwall/gjson"
	"golang.org/x/net/proxy"
)

// DefaultIPEchoURL answers with the caller's public address
const DefaultIPEchoURL = "https://api.ipify.org?format=json"

// IPChecker looks up the public egress address directly or through SOCKS
type IPChecker struct {
	URL     string
	Direct  *http.Client
	Proxied *http.Client
}

// NewIPChecker creates a checker whose proxied client dials through the
// SOCKS5 server at socksAddr (e.g. 127.0.0.1:9050).
func NewIPChecker(echoURL, socksAddr string, timeout time.Duration) (*IPChecker, error) {
	if echoURL == "" {
		echoURL = DefaultIPEchoURL
	}
	proxied, err := SOCKSClient(socksAddr, timeout)
	if err != nil {
		return nil, err
	}
	return &IPChecker{
		URL:     echoURL,
		Direct:  &http.Client{Timeout: timeout},
		Proxied: proxied,
	}, nil
}

// SOCKSClient returns an http.Client whose connections go through socksAddr
func SOCKSClient(socksAddr string, timeout time.Duration) (*http.Client, error) {
	dialer, err := proxy.SOCKS5("tcp", socksAddr, nil, &net.Dialer{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer for %s: %w", socksAddr, err)
	}
	transport := &http.Transport{Proxy: nil}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return &http.Client{Transport: transport, Timeout: timeout}, nil
}

// EgressIP returns the public address seen by the echo service
func (c *IPChecker) EgressIP(ctx context.Context, viaProxy bool) (string, error) {
	client := c.Direct
	if viaProxy {
		client = c.Proxied
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ip echo request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ip echo returned status %d", resp.StatusCode)
	}
	return parseIP(body)
}

// parseIP accepts {"ip": "..."} or a bare address
func parseIP(body []byte) (string, error) {
	text := strings.TrimSpace(string(body))
	if gjson.Valid(text) {
		if ip := gjson.Get(text, "ip"); ip.Exists() && net.ParseIP(ip.String()) != nil {
			return ip.String(), nil
		}
	} else if net.ParseIP(text) != nil {
		return text, nil
	}
	return "", &internal.ParseError{Source: "ip-echo", Key: internal.Truncate(text, 64), Err: fmt.Errorf("no IP address in response")}
}

// LocalIP returns the first non-loopback IPv4 address of this host
func LocalIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String(), nil
		}
	}
	return "", fmt.Errorf("no non-loopback IPv4 address found")
}
