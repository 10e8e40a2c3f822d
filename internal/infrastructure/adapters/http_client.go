package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// maxResponseSize is the maximum allowed response size from an external
// system (10MB)
const maxResponseSize = 10 * 1024 * 1024

// defaultHTTPTimeout bounds a single request to an external system
const defaultHTTPTimeout = 30 * time.Second

// newHTTPClient returns the shared client shape used by all pull adapters
func newHTTPClient(timeoutSeconds int) *http.Client {
	timeout := defaultHTTPTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// fetchBody performs the request and classifies every failure mode so the
// orchestrator can pick the right retry behavior: network errors are
// connectivity (retried), 401/403 are auth (fatal), everything else from the
// remote is connectivity.
func fetchBody(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, syncdomain.NewTimeoutError(err)
		}
		return nil, syncdomain.NewConnectivityError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, syncdomain.NewAuthError(fmt.Errorf("remote rejected credentials: %s", resp.Status))
	case resp.StatusCode >= 400:
		return nil, syncdomain.NewConnectivityError(fmt.Errorf("remote returned %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, syncdomain.NewConnectivityError(fmt.Errorf("reading response: %w", err))
	}
	return body, nil
}
