package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Supported operations.
const (
	OperationImages    = "images"
	OperationThumbnail = "thumbnail"
	OperationOCR       = "ocr"
)

// Job describes one PDF to send to the document tools API.
type Job struct {
	ID         string `json:"id" yaml:"id"`
	Operation  string `json:"operation" yaml:"operation"`
	Path       string `json:"path" yaml:"path"`
	Resolution int    `json:"resolution" yaml:"resolution"`
	Output     string `json:"output" yaml:"output"`
	// Force reprocesses the job even if the ledger already holds it.
	Force bool `json:"force" yaml:"force"`
}

type fileRegistry struct {
	Jobs []Job `json:"jobs" yaml:"jobs"`
}

// Registry holds the jobs loaded from a jobs file.
type Registry struct {
	mu   sync.RWMutex
	jobs []Job
	idx  map[string]Job
}

// LoadRegistry loads jobs from a YAML or JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("jobs file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open jobs file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read jobs file: %w", err)
	}

	fileReg, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	return NewRegistry(fileReg.Jobs, filepath.Dir(path))
}

// NewRegistry validates jobs and indexes them by id. Relative job paths are
// resolved against baseDir.
func NewRegistry(jobs []Job, baseDir string) (*Registry, error) {
	reg := &Registry{
		jobs: make([]Job, len(jobs)),
		idx:  make(map[string]Job, len(jobs)),
	}

	for i := range jobs {
		j := sanitizeJob(jobs[i], baseDir)
		if err := validateJob(j); err != nil {
			return nil, fmt.Errorf("jobs[%d]: %w", i, err)
		}
		if _, exists := reg.idx[j.ID]; exists {
			return nil, fmt.Errorf("duplicate job id %q", j.ID)
		}
		reg.jobs[i] = j
		reg.idx[j.ID] = j
	}

	return reg, nil
}

func parseRegistry(data []byte, ext string) (fileRegistry, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if reg, err := unmarshalRegistry(d.name, data, d.fn); err == nil {
			return reg, nil
		}
	}

	return fileRegistry{}, errors.New("jobs file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (fileRegistry, error) {
	var reg fileRegistry
	if err := fn(data, &reg); err != nil {
		return fileRegistry{}, fmt.Errorf("decode %s jobs: %w", name, err)
	}
	return reg, nil
}

func sanitizeJob(j Job, baseDir string) Job {
	j.ID = strings.TrimSpace(j.ID)
	j.Operation = strings.ToLower(strings.TrimSpace(j.Operation))
	j.Path = strings.TrimSpace(j.Path)
	j.Output = strings.ToLower(strings.TrimSpace(j.Output))

	if j.Path != "" && !filepath.IsAbs(j.Path) && baseDir != "" {
		j.Path = filepath.Join(baseDir, j.Path)
	}
	if j.Resolution < 0 {
		j.Resolution = 0
	}
	return j
}

func validateJob(j Job) error {
	if j.ID == "" {
		return errors.New("id is required")
	}
	if j.Path == "" {
		return fmt.Errorf("path is required for job %q", j.ID)
	}
	switch j.Operation {
	case OperationImages, OperationThumbnail:
	case OperationOCR:
		if j.Resolution != 0 || j.Output != "" {
			return fmt.Errorf("ocr job %q does not take resolution or output", j.ID)
		}
	case "":
		return fmt.Errorf("operation is required for job %q", j.ID)
	default:
		return fmt.Errorf("unsupported operation %q for job %q", j.Operation, j.ID)
	}
	return nil
}

// All returns a copy of the loaded jobs in file order.
func (r *Registry) All() []Job {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Job, len(r.jobs))
	copy(out, r.jobs)
	return out
}

// ByID returns the job with the given id.
func (r *Registry) ByID(id string) (Job, bool) {
	if r == nil {
		return Job{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Job{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.idx[id]
	return j, ok
}
