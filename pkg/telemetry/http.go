package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultHTTPRetryMax     = 3
	defaultHTTPRetryWaitMin = 200 * time.Millisecond
	defaultHTTPRetryWaitMax = 2 * time.Second
	defaultHTTPTimeout      = 5 * time.Second
)

// HTTPSink posts events to a Logstash http input.
type HTTPSink struct {
	url    string
	client *retryablehttp.Client
}

// HTTPError is returned when the endpoint answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return "logstash returned status " + http.StatusText(e.StatusCode)
}

// NewHTTPSink creates a sink posting to url with bounded retries.
func NewHTTPSink(url string, retryMax int) *HTTPSink {
	if retryMax < 0 {
		retryMax = defaultHTTPRetryMax
	}
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.RetryWaitMin = defaultHTTPRetryWaitMin
	client.RetryWaitMax = defaultHTTPRetryWaitMax
	client.HTTPClient.Timeout = defaultHTTPTimeout
	client.Logger = nil
	return &HTTPSink{url: url, client: client}
}

// Emit implements Sink.
func (h *HTTPSink) Emit(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event.Logstash())
	if err != nil {
		return err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("logstash http: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode}
	}
	return nil
}
