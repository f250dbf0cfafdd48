package llm

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"outreach/internal/metrics"
)

// retryTransport retries 429 and 5xx responses and transport errors with
// exponential backoff, honouring Retry-After.
type retryTransport struct {
	next        http.RoundTripper
	maxAttempts int
	baseBackoff time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, errors.Wrap(err, "read request body")
		}
		body = b
	}
	ctx := req.Context()
	backoff := t.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		r := req.Clone(ctx)
		if body != nil {
			r.Body = io.NopCloser(bytes.NewReader(body))
			r.ContentLength = int64(len(body))
		}
		resp, err := t.next.RoundTrip(r)
		if err == nil {
			retryable := resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599)
			if !retryable || attempt == t.maxAttempts {
				return resp, nil
			}
			wait := retryAfter(resp.Header.Get("Retry-After"), backoff)
			_ = resp.Body.Close()
			lastErr = errors.Errorf("status %d", resp.StatusCode)
			metrics.IncAPIRetry(req.URL.Path)
			select {
			case <-time.After(jitter(wait)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
			continue
		}
		lastErr = err
		if attempt == t.maxAttempts {
			break
		}
		metrics.IncAPIRetry(req.URL.Path)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	return nil, errors.Wrapf(lastErr, "request failed after %d attempts", t.maxAttempts)
}

func retryAfter(header string, def time.Duration) time.Duration {
	if header == "" {
		return def
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return def
}

// jitter +/-20%
func jitter(wait time.Duration) time.Duration {
	j := time.Duration(float64(wait) * 0.2)
	if j <= 0 {
		return wait
	}
	return wait - j + time.Duration(time.Now().UnixNano()%int64(2*j))
}
