package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"bootstrapper/internal/shared"
)

const defaultHTTPTimeout = 60 * time.Second
const defaultHTTPRetries = 1
const defaultHTTPRetryDelay = 200 * time.Millisecond
const maxHTTPRetryDelay = 2 * time.Second

// HTTPConfig configures manifest and archive requests. Retries counts
// attempts, so the default of one performs no retry at all.
type HTTPConfig struct {
	TimeoutSec   int
	Retries      int
	RetryDelayMs int
	User         string
	APIKey       string
}

type httpRetryConfig struct {
	timeout   time.Duration
	retries   int
	baseDelay time.Duration
}

func normalizeHTTPConfig(timeoutSec int, retries int, delayMs int) httpRetryConfig {
	timeout := time.Duration(timeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	retryCount := retries
	if retryCount <= 0 {
		retryCount = defaultHTTPRetries
	}
	baseDelay := time.Duration(delayMs) * time.Millisecond
	if baseDelay <= 0 {
		baseDelay = defaultHTTPRetryDelay
	}
	return httpRetryConfig{
		timeout:   timeout,
		retries:   retryCount,
		baseDelay: baseDelay,
	}
}

type httpFetcher struct {
	client *http.Client
	cfg    httpRetryConfig
	user   string
	apiKey string
}

// newHTTPFetcher builds the shared GET client. Streaming clients bound
// only the wait for response headers, since archive bodies may take far
// longer than the timeout to arrive.
func newHTTPFetcher(cfg HTTPConfig, streaming bool) httpFetcher {
	retryCfg := normalizeHTTPConfig(cfg.TimeoutSec, cfg.Retries, cfg.RetryDelayMs)
	client := &http.Client{Timeout: retryCfg.timeout}
	if streaming {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.ResponseHeaderTimeout = retryCfg.timeout
		client = &http.Client{Transport: transport}
	}
	return httpFetcher{
		client: client,
		cfg:    retryCfg,
		user:   cfg.User,
		apiKey: cfg.APIKey,
	}
}

// get performs a GET and returns the body of a 2xx response. Any other
// status is reported as an error carrying shared.HTTPStatusError.
func (f httpFetcher) get(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := f.doRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		code := errbuilder.CodeInternal
		if resp.StatusCode == http.StatusNotFound {
			code = errbuilder.CodeNotFound
		}
		return nil, errbuilder.New().
			WithCode(code).
			WithMsg(fmt.Sprintf("unexpected response fetching %s", url)).
			WithCause(shared.HTTPStatusError{StatusCode: resp.StatusCode, URL: url})
	}
	return resp.Body, nil
}

func (f httpFetcher) doRequest(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < f.cfg.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("request canceled").
				WithCause(ctx.Err())
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid url %q", url)).
				WithCause(err)
		}
		if strings.TrimSpace(f.apiKey) != "" {
			authUser := strings.TrimSpace(f.user)
			if authUser == "" {
				authUser = "api"
			}
			req.SetBasicAuth(authUser, f.apiKey)
		}
		resp, err := f.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("request canceled").
					WithCause(ctx.Err())
			}
			lastErr = err
			if attempt < f.cfg.retries-1 {
				time.Sleep(httpRetryDelay(attempt, f.cfg))
				continue
			}
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("request failed").
				WithCause(err)
		}
		if (resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests) && attempt < f.cfg.retries-1 {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			time.Sleep(httpRetryDelay(attempt, f.cfg))
			continue
		}
		return resp, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("request failed")
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("request failed").
		WithCause(lastErr)
}

func httpRetryDelay(attempt int, cfg httpRetryConfig) time.Duration {
	delay := cfg.baseDelay * time.Duration(1<<attempt)
	if delay > maxHTTPRetryDelay {
		delay = maxHTTPRetryDelay
	}
	jitter := time.Duration(time.Now().UnixNano() % int64(delay/2+1))
	return delay + jitter
}
