package jobs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadRegistryYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "jobs.yaml")
	content := `
jobs:
  - id: invoice-pages
    operation: Images
    path: invoices/march.pdf
    resolution: 150
    output: JPG
  - id: invoice-text
    operation: ocr
    path: /abs/march.pdf
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write jobs file: %v", err)
	}

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	all := reg.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(all))
	}
	first := all[0]
	if first.Operation != OperationImages || first.Output != "jpg" || first.Resolution != 150 {
		t.Fatalf("unexpected job %+v", first)
	}
	if first.Path != filepath.Join(dir, "invoices/march.pdf") {
		t.Fatalf("relative path not resolved: %s", first.Path)
	}

	second, ok := reg.ByID("invoice-text")
	if !ok {
		t.Fatalf("expected job invoice-text")
	}
	if second.Path != "/abs/march.pdf" {
		t.Fatalf("absolute path changed: %s", second.Path)
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "jobs.json")
	content := `{"jobs":[{"id":"t1","operation":"thumbnail","path":"a.pdf"}]}`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write jobs file: %v", err)
	}

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if _, ok := reg.ByID("t1"); !ok {
		t.Fatalf("expected job t1")
	}
}

func TestNewRegistryRejectsInvalidJobs(t *testing.T) {
	cases := []struct {
		name string
		jobs []Job
		want string
	}{
		{name: "missing id", jobs: []Job{{Operation: "ocr", Path: "a.pdf"}}, want: "id is required"},
		{name: "missing path", jobs: []Job{{ID: "a", Operation: "ocr"}}, want: "path is required"},
		{name: "unknown op", jobs: []Job{{ID: "a", Operation: "render", Path: "a.pdf"}}, want: "unsupported operation"},
		{name: "ocr with resolution", jobs: []Job{{ID: "a", Operation: "ocr", Path: "a.pdf", Resolution: 72}}, want: "does not take"},
		{name: "duplicate", jobs: []Job{
			{ID: "a", Operation: "ocr", Path: "a.pdf"},
			{ID: "a", Operation: "images", Path: "b.pdf"},
		}, want: "duplicate job id"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRegistry(tc.jobs, "")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadRegistryRejectsEmptyPath(t *testing.T) {
	if _, err := LoadRegistry("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
