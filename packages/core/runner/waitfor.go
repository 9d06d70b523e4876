package runner

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// WaitForConfig describes a readiness probe run before the requests.
type WaitForConfig struct {
	URL      string
	Status   int
	Timeout  time.Duration
	Interval time.Duration
}

// WaitFor polls cfg.URL until it returns cfg.Status or cfg.Timeout elapses.
func (r *Runner) WaitFor(ctx context.Context, cfg WaitForConfig) error {
	if cfg.Status == 0 {
		cfg.Status = http.StatusOK
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	r.logger.Debug("waiting for service", "url", cfg.URL, "status", cfg.Status, "timeout", cfg.Timeout)

	client := &http.Client{Timeout: 5 * time.Second}
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	var lastErr error
	var lastStatus int
	for {
		status, err := probe(ctx, client, cfg.URL)
		if ctx.Err() == nil {
			lastStatus, lastErr = status, err
		}
		if err == nil && status == cfg.Status {
			r.logger.Debug("service is ready", "url", cfg.URL)
			return nil
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("service %s not ready after %v: %w", cfg.URL, cfg.Timeout, lastErr)
			}
			return fmt.Errorf("service %s not ready after %v: got status %d, expected %d",
				cfg.URL, cfg.Timeout, lastStatus, cfg.Status)
		case <-ticker.C:
		}
	}
}

func probe(ctx context.Context, client *http.Client, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
