package runner

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/formrunner/pkg/logging"
)

// Recorder captures the audit trail of viewport screenshots. Captures are
// JPEG at a configured quality and viewport-only: full-page captures are
// slower and the audit trail only needs what the user would have seen.
type Recorder struct {
	quality int
	save    bool
	dir     string
	logger  *logging.Logger
}

// NewRecorder builds a screenshot recorder. When save is true, every
// capture is also written under dir with a collision-resistant name.
func NewRecorder(quality int, save bool, dir string, logger *logging.Logger) *Recorder {
	return &Recorder{
		quality: quality,
		save:    save,
		dir:     dir,
		logger:  logger,
	}
}

// Capture takes a screenshot and returns it base64-encoded. Failure is
// non-fatal by contract: the error is logged, a *ScreenshotError is
// returned alongside an empty placeholder, and callers carry on.
func (r *Recorder) Capture(page Page, label string) (string, error) {
	raw, err := page.Screenshot(r.quality)
	if err != nil {
		r.logger.Warnf("Screenshot failed for %s: %v", label, err)
		return "", &ScreenshotError{Label: label, Err: err}
	}

	if r.save {
		if err := r.persist(raw, label); err != nil {
			// Disk persistence is debugging convenience, never run-fatal
			r.logger.Warnf("Could not save screenshot %s to disk: %v", label, err)
		}
	}

	r.logger.Debugf("Screenshot captured: %s (%.1fKB)", label, float64(len(raw))/1024)
	return base64.StdEncoding.EncodeToString(raw), nil
}

// persist writes the capture to disk with a timestamped, uuid-suffixed
// filename so concurrent runs never collide.
func (r *Recorder) persist(raw []byte, label string) error {
	if err := os.MkdirAll(r.dir, 0750); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	timestamp := time.Now().UTC().Format("20060102_150405.000")
	filename := fmt.Sprintf("screenshot_%s_%s_%s.jpg", timestamp, label, uuid.New().String()[:8])
	path := filepath.Join(r.dir, filename)

	if err := os.WriteFile(path, raw, 0640); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}

	r.logger.Debugf("Screenshot saved: %s", filename)
	return nil
}
