package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/matchgate/internal/testrequests"
	"github.com/okian/matchgate/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumRequests = 20
	defaultCandidates  = 5
	defaultWorkers     = 4
	defaultTimeout     = 3 * time.Minute
	defaultTestTimeout = 30 * time.Minute
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the gateway")
		numRequests = flag.Int("requests", defaultNumRequests, "Number of requests to send")
		candidates  = flag.Int("candidates", defaultCandidates, "Candidates per match request")
		types       = flag.String("types", "", "Comma separated request types (default: all)")
		workers     = flag.Int("workers", defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed        = flag.Uint64("seed", 1, "Seed for generated profiles")
		outputFile  = flag.String("output", "", "Output file for the JSON report")
		logFile     = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Log every request")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testrequests.ShowHelp()
		return 0
	}

	parsedTypes, err := testrequests.ParseTypes(*types)
	if err != nil {
		_, _ = os.Stderr.WriteString("Invalid -types: " + err.Error() + "\n")
		return 2
	}

	closer, err := testrequests.SetupLogging(*logFile)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = closer.Close() }()
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &testrequests.Config{
		BaseURL:     *baseURL,
		NumRequests: *numRequests,
		Candidates:  *candidates,
		Workers:     *workers,
		Timeout:     *timeout,
		Types:       parsedTypes,
		Seed:        *seed,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	if _, err := testrequests.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "test failed", logger.Error(err))
		return 1
	}
	return 0
}
