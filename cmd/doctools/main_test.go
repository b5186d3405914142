package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samvad-hq/doctools/pkg/doctools"
)

const samplePDF = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n"

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, []byte(samplePDF), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

type seen struct{ path, body string }

func newAPI(t *testing.T, status int, reply string) (*httptest.Server, <-chan seen) {
	t.Helper()
	requests := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		requests <- seen{path: r.URL.Path, body: string(raw)}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, requests
}

func TestRunPrintsStatusAndBody(t *testing.T) {
	srv, requests := newAPI(t, http.StatusCreated, `{"pages":1}`)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"--url", srv.URL, "--key", "k", "--resolution", "72", "images", writePDF(t),
	}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	got := <-requests
	if got.path != doctools.PathImages {
		t.Fatalf("path = %s", got.path)
	}
	if !strings.Contains(got.body, `"resolution":72`) {
		t.Fatalf("resolution flag not forwarded: %s", got.body)
	}
	if want := "status: 201\n{\"pages\":1}\n"; stdout.String() != want {
		t.Fatalf("stdout = %q, want %q", stdout.String(), want)
	}
}

func TestRunWritesLogsToInjectedStderr(t *testing.T) {
	srv, requests := newAPI(t, http.StatusOK, `{"text":"hi"}`)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"--url", srv.URL, "--key", "k", "--log_level", "debug", "ocr", writePDF(t),
	}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	<-requests

	if !strings.Contains(stderr.String(), "document tools request completed") {
		t.Fatalf("expected debug log on stderr, got %q", stderr.String())
	}
	if strings.Contains(stdout.String(), "document tools request completed") {
		t.Fatalf("log lines leaked into stdout: %q", stdout.String())
	}
	if want := "status: 200\n{\"text\":\"hi\"}\n"; stdout.String() != want {
		t.Fatalf("stdout = %q, want %q", stdout.String(), want)
	}
}

func TestRunRejectsOCRImageFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"--url", "http://127.0.0.1:1", "--key", "k", "--output", "jpg", "ocr", writePDF(t),
	}, &stdout, &stderr)
	if err == nil {
		t.Fatalf("expected an error for ocr with --output")
	}
	if stdout.Len() != 0 {
		t.Fatalf("stdout should be empty, got %q", stdout.String())
	}
}

func TestRunRequiresOperationAndFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"--url", "http://x", "--key", "k", "ocr"}, &stdout, &stderr)
	if err == nil {
		t.Fatalf("expected an error without a file argument")
	}
	if !strings.HasPrefix(stderr.String(), "usage:") {
		t.Fatalf("expected usage on stderr, got %q", stderr.String())
	}
}

func TestRunReportsUnknownOperation(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"--url", "http://x", "--key", "k", "merge", writePDF(t)}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "unknown operation") {
		t.Fatalf("expected unknown operation error, got %v", err)
	}
}

func TestRunReportsMissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"--url", "http://x", "--key", "k", "ocr", filepath.Join(t.TempDir(), "nope.pdf"),
	}, &stdout, &stderr)
	if !errors.Is(err, doctools.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}
