package publishers

import (
	"testing"
	"time"
)

func TestNewEventEmbedsJSONBody(t *testing.T) {
	evt := NewEvent("j", "images", "/a.pdf", "fp", 200, `{"images":[]}`)
	if string(evt.Body) != `{"images":[]}` || evt.RawBody != "" {
		t.Fatalf("expected json body embedded, got %+v", evt)
	}
	if evt.ProcessedAt.IsZero() {
		t.Fatalf("ProcessedAt not set")
	}
}

func TestNewEventKeepsNonJSONBodyAsString(t *testing.T) {
	evt := NewEvent("j", "ocr", "/a.pdf", "fp", 502, "<html>bad gateway</html>")
	if evt.Body != nil || evt.RawBody != "<html>bad gateway</html>" {
		t.Fatalf("expected raw body, got %+v", evt)
	}
}

func TestEventAttributesIncludeStatus(t *testing.T) {
	attrs := NewEvent("j", "ocr", "/a.pdf", "fp", 201, "{}").Attributes()
	if attrs["status_code"] != "201" || attrs["job_id"] != "j" || attrs["operation"] != "ocr" {
		t.Fatalf("unexpected attributes %v", attrs)
	}
}

func TestEventEncodeFailsWhenMetadataTooLarge(t *testing.T) {
	evt := Event{JobID: string(make([]byte, 64))}
	if _, err := evt.encode(16); err == nil {
		t.Fatalf("expected error when even the compact event exceeds the limit")
	}
}

func TestDeduplicationIDFallsBackToJobID(t *testing.T) {
	evt := Event{JobID: "j", ProcessedAt: time.Unix(0, 42)}
	if got := evt.deduplicationID(); got != "j-0-42" {
		t.Fatalf("unexpected dedup id %q", got)
	}
	if got := (Event{JobID: "j", Fingerprint: "fp", StatusCode: 503, ProcessedAt: time.Unix(0, 42)}).deduplicationID(); got != "fp-503-42" {
		t.Fatalf("expected fingerprint-based id, got %q", got)
	}
}
