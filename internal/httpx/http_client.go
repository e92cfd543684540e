package httpx

import (
	"net/http"
	"time"
)

const defaultExternalHTTPTimeout = 30 * time.Second

// externalHTTPClient is shared by every outbound provider call (image search,
// photo search). LLM calls go through the Anthropic SDK's own client.
var externalHTTPClient = &http.Client{
	Timeout: defaultExternalHTTPTimeout,
}

// ExternalHTTPClient returns the shared client for external provider calls.
func ExternalHTTPClient() *http.Client {
	return externalHTTPClient
}

// ConfigureExternalHTTPClient sets the shared client timeout from a
// seconds value. Zero or negative keeps the default. Returns the timeout
// that is now in effect so callers can log it.
func ConfigureExternalHTTPClient(seconds int) time.Duration {
	timeout := defaultExternalHTTPTimeout
	if seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}
	externalHTTPClient.Timeout = timeout
	return timeout
}
