// Package client is a small wrapper around net/http for
// the JSON apis the bot talks to.
package client

import (
	"net/http"
	"strings"
	"time"
)

type BaseClient struct {
	baseUrl string
	headers map[string]string
	http    *http.Client
}

// NewBaseClient creates a client sending the requests
// to the provided base url.
func NewBaseClient(baseUrl string, timeout time.Duration) *BaseClient {
	return &BaseClient{
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "rhythmix",
		},
		http: &http.Client{Timeout: timeout},
	}
}

// SetHeader sets a header added to every request
// created by the client.
func (client *BaseClient) SetHeader(k string, v string) *BaseClient {
	client.headers[k] = v
	return client
}
