package batch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/samvad-hq/doctools/internal/jobs"
)

// Fingerprint identifies a job by file content and request parameters, so
// renaming a file does not trigger reprocessing but changing the dpi does.
func Fingerprint(job jobs.Job) (string, error) {
	f, err := os.Open(job.Path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", job.Path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", job.Path, err)
	}
	h.Write([]byte{0})
	h.Write([]byte(job.Operation))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(job.Resolution)))
	h.Write([]byte{0})
	h.Write([]byte(job.Output))
	return hex.EncodeToString(h.Sum(nil)), nil
}
