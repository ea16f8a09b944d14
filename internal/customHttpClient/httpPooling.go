package customHttpClient

import (
	"net/http"

	"github.com/huddleapp/huddle/internal/config"
)

var pooledTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

var pooledClient = &http.Client{Transport: pooledTransport}

// Pooled returns a shared client that reuses connections to external APIs.
// Embedding calls happen per chunk batch, so connection setup cost adds up.
func Pooled() *http.Client {
	return pooledClient
}
