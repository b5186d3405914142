package publishers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/doctools/pkg/httpclient"
)

// Headers added to every webhook delivery.
const (
	HeaderJobID          = "X-Doctools-Job"
	HeaderIdempotencyKey = "Idempotency-Key"

	maxErrorSnippet = 512
)

// webhookPublisher posts job results to an HTTP endpoint. Server errors are
// retried with resty's backoff; client errors fail immediately.
type webhookPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  *resty.Client
	log     Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	hc := *cfg.HTTP
	if hc.TimeoutSeconds <= 0 {
		hc.TimeoutSeconds = httpDefaultTimeoutSeconds
	}
	if hc.Method == "" {
		hc.Method = httpDefaultMethod
	}

	client := httpclient.NewRestyHTTPClient(time.Duration(hc.TimeoutSeconds) * time.Second)
	if hc.Retries > 0 {
		client.SetRetryCount(hc.Retries).
			SetRetryWaitTime(200 * time.Millisecond).
			SetRetryMaxWaitTime(2 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() >= http.StatusInternalServerError
			})
	}

	return &webhookPublisher{
		id:      cfg.ID,
		method:  hc.Method,
		url:     hc.URL,
		headers: hc.Headers,
		client:  client,
		log:     loggerOrNop(log),
	}, nil
}

func (w *webhookPublisher) ID() string   { return w.id }
func (w *webhookPublisher) Type() string { return TypeHTTP }

func (w *webhookPublisher) Publish(ctx context.Context, evt Event) error {
	req := w.client.R().
		SetContext(ctx).
		SetHeaders(w.headers).
		SetHeader("Content-Type", "application/json").
		SetHeader(HeaderJobID, evt.JobID).
		SetHeader(HeaderIdempotencyKey, evt.deduplicationID()).
		SetBody(evt)

	resp, err := req.Execute(w.method, w.url)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook status %d: %s", resp.StatusCode(), snippet(resp.Body()))
	}

	w.log.DebugObj("webhook delivery succeeded", "publisher_http_delivery", map[string]any{
		"publisher_id": w.id,
		"job_id":       evt.JobID,
		"status_code":  resp.StatusCode(),
		"attempts":     resp.Request.Attempt,
	})
	return nil
}

func snippet(body []byte) string {
	if len(body) > maxErrorSnippet {
		body = body[:maxErrorSnippet]
	}
	return strings.TrimSpace(string(body))
}
