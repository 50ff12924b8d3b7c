// Copyright © 2021 One Concern

package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// TokenFileEnvVar names a file holding a bearer token used to
	// authenticate requests.
	TokenFileEnvVar = "BUTLERURI_WEBDAV_TOKEN_FILE"

	// Expect100EnvVar enables the "Expect: 100-continue" header on
	// uploads. Required by endpoints which redirect PUT requests.
	Expect100EnvVar = "BUTLERURI_WEBDAV_EXPECT100"

	defaultTimeout = 20 * time.Second

	// maxRetries bounds retries on transport errors and retryable
	// status codes
	maxRetries = 3
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

func bearerToken() (string, error) {
	path := os.Getenv(TokenFileEnvVar)
	if path == "" {
		return "", nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading bearer token from %q: %w", path, err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func useExpect100() bool {
	return os.Getenv(Expect100EnvVar) != ""
}

var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// do executes a request with retries on transport errors and
// retryable statuses. getBody is re-invoked on every attempt so
// request bodies may be replayed, nil means no body.
func (w *webFS) do(ctx context.Context, method, rawurl string,
	getBody func() (io.Reader, error), headers map[string]string,
	followRedirects bool) (*http.Response, error) {

	var resp *http.Response
	operation := func() error {
		var body io.Reader
		if getBody != nil {
			var err error
			if body, err = getBody(); err != nil {
				return backoff.Permanent(err)
			}
		}
		req, err := http.NewRequestWithContext(ctx, method, rawurl, body)
		if err != nil {
			return backoff.Permanent(err)
		}
		if token, terr := bearerToken(); terr != nil {
			return backoff.Permanent(terr)
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		client := w.client
		if !followRedirects {
			client = w.noRedirect
		}
		r, err := client.Do(req)
		if err != nil {
			return err
		}
		if retryableStatus[r.StatusCode] {
			_, _ = io.Copy(io.Discard, r.Body)
			_ = r.Body.Close()
			return fmt.Errorf("%s %s: retryable status %d", method, rawurl, r.StatusCode)
		}
		resp = r
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}
	return resp, nil
}

func drain(r *http.Response) {
	_, _ = io.Copy(io.Discard, r.Body)
	_ = r.Body.Close()
}

var (
	davMu        sync.Mutex
	davEndpoints = make(map[string]bool)
)

// isWebdavEndpoint detects whether the remote endpoint implements
// WebDAV, as advertised by the DAV header on OPTIONS. The verdict is
// cached per endpoint root.
func (w *webFS) isWebdavEndpoint(ctx context.Context) (bool, error) {
	root := w.u.Scheme() + "://" + w.u.Netloc() + "/"

	davMu.Lock()
	verdict, known := davEndpoints[root]
	davMu.Unlock()
	if known {
		return verdict, nil
	}

	resp, err := w.do(ctx, http.MethodOptions, root, nil, nil, true)
	if err != nil {
		return false, err
	}
	drain(resp)
	verdict = resp.Header.Get("DAV") != ""

	davMu.Lock()
	davEndpoints[root] = verdict
	davMu.Unlock()
	return verdict, nil
}
