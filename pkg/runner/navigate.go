package runner

import (
	"time"

	"github.com/entrhq/formrunner/pkg/logging"
)

// Navigator opens a URL with a bounded retry budget. Target sites are
// non-deterministic in load time but usually succeed within a short
// window on retry, so several short attempts beat one long timeout:
// genuinely broken runs fail fast instead of hanging out a full minute.
type Navigator struct {
	attempts  int
	timeoutMs float64
	delay     time.Duration
	logger    *logging.Logger
}

// NewNavigator builds a navigator. attempts is the total number of tries,
// timeoutMs bounds each individual attempt, and delay separates attempts.
func NewNavigator(attempts int, timeoutMs float64, delay time.Duration, logger *logging.Logger) *Navigator {
	if attempts < 1 {
		attempts = 1
	}
	return &Navigator{
		attempts:  attempts,
		timeoutMs: timeoutMs,
		delay:     delay,
		logger:    logger,
	}
}

// Navigate drives the page to url, retrying on timeout or network error.
// The first attempt that completes wins. Exhausting the budget returns a
// *NavigationError carrying the last underlying error.
func (n *Navigator) Navigate(page Page, url string) error {
	var lastErr error

	for attempt := 1; attempt <= n.attempts; attempt++ {
		if attempt > 1 {
			n.logger.Warnf("Retry attempt %d/%d after %s delay", attempt-1, n.attempts-1, n.delay)
			time.Sleep(n.delay)
		}

		if err := page.Goto(url, n.timeoutMs); err != nil {
			lastErr = err
			n.logger.Warnf("Navigation attempt %d/%d failed: %v", attempt, n.attempts, err)
			continue
		}

		n.logger.Infof("Navigation successful (attempt %d/%d)", attempt, n.attempts)
		return nil
	}

	n.logger.Errorf("Navigation to %s failed after %d attempts", url, n.attempts)
	return &NavigationError{URL: url, Attempts: n.attempts, Err: lastErr}
}
