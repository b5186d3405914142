package publishers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "http2" {
		t.Fatalf("expected only http2 enabled, got %#v", enabled)
	}
}

func TestValidatePublisherConfigRejectsMissingHTTP(t *testing.T) {
	err := validatePublisherConfig(PublisherConfig{
		ID:   "h1",
		Type: TypeHTTP,
	})
	if err == nil {
		t.Fatalf("expected validation error for missing http block")
	}
}

func TestValidatePublisherConfigCloudTypes(t *testing.T) {
	cases := []PublisherConfig{
		{ID: "s1", Type: TypeSNS},
		{ID: "s2", Type: TypeSNS, SNS: &SNSPublisherConfig{TopicARN: "arn"}},
		{ID: "p1", Type: TypePubSub, PubSub: &PubSubPublisherConfig{ProjectID: "proj"}},
		{ID: "q1", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "https://q"}},
	}
	for _, cfg := range cases {
		if err := validatePublisherConfig(cfg); err == nil {
			t.Fatalf("expected validation error for %s", cfg.ID)
		}
	}

	ok := PublisherConfig{ID: "p2", Type: TypePubSub, PubSub: &PubSubPublisherConfig{ProjectID: "proj", Topic: "t"}}
	if err := validatePublisherConfig(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSanitizePublisherConfigDefaults(t *testing.T) {
	cfg := sanitizePublisherConfig(PublisherConfig{
		ID:   " hook ",
		Type: "HTTP",
		HTTP: &HTTPPublisherConfig{URL: " https://example.com ", Headers: map[string]string{" X-A ": " 1 ", "empty": " "}},
		SNS:  &SNSPublisherConfig{TopicARN: " arn ", Region: " us-east-1 "},
	})
	if cfg.ID != "hook" || cfg.Type != TypeHTTP || !cfg.EnabledValue() {
		t.Fatalf("unexpected sanitized config %+v", cfg)
	}
	if cfg.HTTP.Method != "POST" || cfg.HTTP.TimeoutSeconds != 5 || cfg.HTTP.URL != "https://example.com" {
		t.Fatalf("unexpected http defaults %+v", cfg.HTTP)
	}
	if len(cfg.HTTP.Headers) != 1 || cfg.HTTP.Headers["X-A"] != "1" {
		t.Fatalf("unexpected headers %v", cfg.HTTP.Headers)
	}
	if cfg.SNS.TopicARN != "arn" || cfg.SNS.Region != "us-east-1" {
		t.Fatalf("unexpected sns config %+v", cfg.SNS)
	}
}

func TestBuildAllRejectsUnknownType(t *testing.T) {
	_, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{{ID: "k", Type: "kafka"}}, nil)
	if err == nil {
		t.Fatalf("expected error for unknown publisher type")
	}
}

func TestValidatePublisherConfigNamesMissingFields(t *testing.T) {
	err := validatePublisherConfig(PublisherConfig{ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{}})
	if err == nil || err.Error() != `sqs.region, sqs.uri required for publisher "q"` {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSanitizePublisherConfigClampsRetries(t *testing.T) {
	cfg := sanitizePublisherConfig(PublisherConfig{ID: "h", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "u", Retries: 99}})
	if cfg.HTTP.Retries != httpMaxRetries {
		t.Fatalf("expected retries clamped to %d, got %d", httpMaxRetries, cfg.HTTP.Retries)
	}
}

func TestLoadRegistryRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.toml")
	if err := os.WriteFile(path, []byte("publishers = []"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}
