package testrequests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/okian/matchgate/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	reportPermission    = 0600
)

// readinessHeader mirrors the gateway's /healthz readiness header.
const readinessHeader = "X-Gateway-Ready"

// Run executes the complete request test and returns its report.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	report := &Report{StartTime: time.Now(), StatusCounts: map[int]int{}}

	logger.Get().Info(ctx, "starting matchgate request test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.NumRequests),
		logger.Int("candidates", cfg.Candidates),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()),
		logger.Bool("verbose", cfg.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, cfg); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate requests
	reqs, err := generateRequests(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("request generation failed: %w", err)
	}
	report.Generated = len(reqs)

	// Step 3: Submit requests concurrently
	outcomes, err := submitRequests(ctx, cfg, reqs)
	if err != nil {
		return nil, fmt.Errorf("request submission failed: %w", err)
	}

	// Step 4: Summarize
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	summarize(report, outcomes)

	// Step 5: Save report
	if cfg.OutputFile != "" {
		if err := saveReport(ctx, cfg.OutputFile, report); err != nil {
			logger.Get().Warn(ctx, "failed to save report", logger.Error(err))
		}
	}

	displayFinalStats(ctx, report)
	return report, nil
}

// checkServiceHealth verifies the gateway is running and configured.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	logger.Get().Info(ctx, "checking service health")

	resp, err := newHTTPClient(cfg.Timeout).Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", errUnhealthy, resp.StatusCode)
	}
	if resp.Header.Get(readinessHeader) == "false" {
		logger.Get().Warn(ctx, "gateway reports it is not configured; scoring requests will fail")
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

func summarize(report *Report, outcomes []Outcome) {
	latencies := make([]time.Duration, 0, len(outcomes))
	for _, o := range outcomes {
		report.Submitted++
		if o.StatusCode == 0 {
			report.TransportErrs++
			continue
		}
		report.StatusCounts[o.StatusCode]++
		latencies = append(latencies, o.Latency)
		switch {
		case o.ParseError != "":
			report.InvalidResult++
		case len(o.Results) > 0:
			report.ParsedResults++
		}
	}
	report.Outcomes = outcomes

	if len(latencies) == 0 {
		return
	}
	slices.Sort(latencies)
	report.LatencyP50 = percentile(latencies, 50)
	report.LatencyP95 = percentile(latencies, 95)
	report.LatencyMax = latencies[len(latencies)-1]
}

// percentile expects sorted input.
func percentile(sorted []time.Duration, p int) time.Duration {
	idx := (len(sorted)*p + 99) / 100
	return sorted[min(max(idx-1, 0), len(sorted)-1)]
}

func saveReport(ctx context.Context, filename string, report *Report) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, data, reportPermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	logger.Get().Info(ctx, "report saved to file", logger.String("filename", filename))
	return nil
}

func displayFinalStats(ctx context.Context, report *Report) {
	var successRate, requestsPerSecond float64
	if report.Submitted > 0 {
		successRate = float64(report.StatusCounts[http.StatusOK]) / float64(report.Submitted) * 100
	}
	if report.Duration > 0 {
		requestsPerSecond = float64(report.Submitted) / report.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("generated", report.Generated),
		logger.Int("submitted", report.Submitted),
		logger.Any("statusCounts", report.StatusCounts),
		logger.Int("transportErrors", report.TransportErrs),
		logger.Int("parsedResults", report.ParsedResults),
		logger.Int("invalidResults", report.InvalidResult),
		logger.Duration("p50", report.LatencyP50),
		logger.Duration("p95", report.LatencyP95),
		logger.Duration("max", report.LatencyMax),
		logger.String("duration", report.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
