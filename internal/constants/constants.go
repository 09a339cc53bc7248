// Package constants centralizes tunables shared across cloudsave packages.
package constants

import "time"

// HTTP transport settings
const (
	HTTPDialTimeout           = 30 * time.Second
	HTTPDialKeepAlive         = 30 * time.Second
	HTTPIdleConnTimeout       = 90 * time.Second
	HTTPTLSHandshakeTimeout   = 30 * time.Second
	HTTPExpectContinueTimeout = 5 * time.Second
	HTTPClientTimeout         = 120 * time.Second
)

// Retry settings for the provider API client
const (
	RetryMax     = 5
	RetryWaitMin = 1 * time.Second
	RetryWaitMax = 30 * time.Second
)

// Event bus buffer sizing
const (
	EventBusDefaultBuffer = 1000
	EventBusMaxBuffer     = 10000
)
