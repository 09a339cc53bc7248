// Package http builds outbound HTTP clients with proxy support.
package http

import (
	"crypto/tls"
	"fmt"
	"log"
	"net"
	nethttp "net/http"
	"net/url"
	"strings"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"golang.org/x/net/http/httpproxy"

	"cloudsave/internal/config"
	"cloudsave/internal/constants"
)

// ConfigureHTTPClient configures an HTTP client with proxy settings
func ConfigureHTTPClient(cfg *config.Config) (*nethttp.Client, error) {
	transport := &nethttp.Transport{
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		MaxConnsPerHost:       100,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
	}

	switch strings.ToLower(cfg.Proxy.Mode) {
	case "no-proxy", "":
		transport.Proxy = nil

	case "system":
		// Use system proxy settings from environment
		transport.Proxy = nethttp.ProxyFromEnvironment

	case "ntlm":
		// Fall back to no-proxy if host is missing (incomplete saved config)
		if cfg.Proxy.Host == "" {
			log.Printf("[WARN] Proxy mode is NTLM but host is missing - falling back to no-proxy mode")
			transport.Proxy = nil
			break
		}

		proxyURL := buildProxyURL(&cfg.Proxy)
		transport.Proxy = proxyFuncWithBypass(proxyURL, cfg.Proxy.NoProxy)

		// Wrap transport with NTLM
		return &nethttp.Client{
			Transport: ntlmssp.Negotiator{
				RoundTripper: transport,
			},
			Timeout: constants.HTTPClientTimeout,
		}, nil

	case "basic":
		// Fall back to no-proxy if host is missing (incomplete saved config)
		if cfg.Proxy.Host == "" {
			log.Printf("[WARN] Proxy mode is basic but host is missing - falling back to no-proxy mode")
			transport.Proxy = nil
			break
		}

		proxyURL := buildProxyURL(&cfg.Proxy)
		transport.Proxy = proxyFuncWithBypass(proxyURL, cfg.Proxy.NoProxy)

		if cfg.Proxy.User != "" && cfg.Proxy.Password == "" {
			log.Printf("[WARN] Proxy user configured but password missing - proxy auth disabled until password is set")
		}

	default:
		return nil, fmt.Errorf("unsupported proxy mode: %s", cfg.Proxy.Mode)
	}

	return &nethttp.Client{
		Transport: transport,
		Timeout:   constants.HTTPClientTimeout,
	}, nil
}

// buildProxyURL constructs a proxy URL from proxy settings
func buildProxyURL(p *config.ProxyConfig) *url.URL {
	port := p.Port
	if port == "" {
		port = "8080" // Default proxy port
	}

	proxyURL := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(p.Host, port),
	}

	// Only embed credentials if both user AND password are provided.
	// Empty password in URL can cause auth failures with some proxies.
	if p.User != "" && p.Password != "" {
		proxyURL.User = url.UserPassword(p.User, p.Password)
	}

	return proxyURL
}

// proxyFuncWithBypass returns a proxy function that respects the NoProxy bypass list.
// If noProxy is empty, behaves identically to nethttp.ProxyURL. When noProxy is
// set, uses golang.org/x/net/http/httpproxy to match hosts/CIDRs.
func proxyFuncWithBypass(proxyURL *url.URL, noProxy string) func(*nethttp.Request) (*url.URL, error) {
	if noProxy == "" {
		return nethttp.ProxyURL(proxyURL)
	}
	cfg := httpproxy.Config{
		HTTPProxy:  proxyURL.String(),
		HTTPSProxy: proxyURL.String(),
		NoProxy:    noProxy,
	}
	proxyFunc := cfg.ProxyFunc()
	return func(req *nethttp.Request) (*url.URL, error) {
		return proxyFunc(req.URL)
	}
}

// NeedsProxyPassword returns true if the proxy configuration requires a password
// but one has not been provided. The CLI uses it to warn that proxy auth
// stays disabled until the password is set.
func NeedsProxyPassword(cfg *config.Config) bool {
	mode := strings.ToLower(cfg.Proxy.Mode)
	if mode != "basic" && mode != "ntlm" {
		return false
	}
	return cfg.Proxy.User != "" && cfg.Proxy.Password == ""
}
