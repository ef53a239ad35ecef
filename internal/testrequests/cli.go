package testrequests

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/matchgate/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging sends logs to both stdout and a file. An empty logFile gets
// a timestamped name. The returned closer releases the file.
func SetupLogging(logFile string) (io.Closer, error) {
	if logFile == "" {
		logFile = "test_log_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.InitWithWriter(io.MultiWriter(os.Stdout, file), logger.FormatText); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

// ShowHelp prints usage information for the request test tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Matchgate Request Test Tool
===========================

Sends generated scoring requests to a running gateway and reports status
codes, latencies and how many match results parsed as valid rankings.

Usage:
  go run cmd/test-requests/main.go [options]

Options:
  -url string
        Base URL of the gateway (default "http://localhost:9080")
  -requests int
        Number of requests to send (default 20)
  -candidates int
        Candidates per match request (default 5)
  -types string
        Comma separated request types: manufacturer-match, influencer-match,
        summary, contract (default: all four)
  -workers int
        Number of concurrent workers (default 4)
  -timeout duration
        HTTP request timeout (default 3m)
  -seed uint
        Seed for generated profiles (default 1)
  -output string
        Output file for the JSON report (default: none)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Log every request
  -help
        Show this help message

Examples:
  # Score a handful of manufacturer matches
  go run cmd/test-requests/main.go -types manufacturer-match -requests 5

  # Mixed load with a report
  go run cmd/test-requests/main.go -requests 100 -workers 8 -output report.json
`)
}
