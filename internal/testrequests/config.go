// Package testrequests drives a running gateway with generated scoring
// requests and reports status codes, latencies and result validity.
package testrequests

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/matchgate/internal/domain/scoring"
)

// Config holds configuration for the request test.
type Config struct {
	BaseURL     string              // Base URL of the gateway
	NumRequests int                 // Number of requests to generate
	Candidates  int                 // Candidates per match request
	Workers     int                 // Number of concurrent workers
	Timeout     time.Duration       // HTTP request timeout
	Types       []scoring.MatchType // Match types to rotate through; empty means all
	Seed        uint64              // Seed for generated profiles
	OutputFile  string              // Output file for the JSON report
	LogFile     string              // Log file for test output
	Verbose     bool                // Log every request
}

// Request is the wire body posted to the gateway.
type Request struct {
	Type         string         `json:"type"`
	BrandProfile map[string]any `json:"brandProfile,omitempty"`
	Candidates   any            `json:"candidates"`
}

// Outcome records what happened to one request.
type Outcome struct {
	Index      int                   `json:"index"`
	Type       string                `json:"type"`
	StatusCode int                   `json:"statusCode"`
	Latency    time.Duration         `json:"latencyNs"`
	Error      string                `json:"error,omitempty"`
	Results    []scoring.ScoreResult `json:"results,omitempty"`
	ParseError string                `json:"parseError,omitempty"`
}

// Report summarizes a test run.
type Report struct {
	StartTime     time.Time     `json:"startTime"`
	EndTime       time.Time     `json:"endTime"`
	Duration      time.Duration `json:"durationNs"`
	Generated     int           `json:"generated"`
	Submitted     int           `json:"submitted"`
	StatusCounts  map[int]int   `json:"statusCounts"`
	TransportErrs int           `json:"transportErrors"`
	ParsedResults int           `json:"parsedResults"`
	InvalidResult int           `json:"invalidResults"`
	LatencyP50    time.Duration `json:"latencyP50Ns"`
	LatencyP95    time.Duration `json:"latencyP95Ns"`
	LatencyMax    time.Duration `json:"latencyMaxNs"`
	Outcomes      []Outcome     `json:"outcomes"`
}

// ParseTypes parses a comma separated list of request types. An empty
// string selects every type.
func ParseTypes(s string) ([]scoring.MatchType, error) {
	if strings.TrimSpace(s) == "" {
		return scoring.MatchTypes(), nil
	}
	var out []scoring.MatchType
	for _, part := range strings.Split(s, ",") {
		t, err := scoring.ParseMatchType(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", errUnknownType, part)
		}
		out = append(out, t)
	}
	return out, nil
}
