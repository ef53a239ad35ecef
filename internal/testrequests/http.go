package testrequests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/okian/matchgate/internal/domain/scoring"
	"github.com/okian/matchgate/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// maxResponseBytes caps how much of a gateway reply is read.
const maxResponseBytes = 4 << 20

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

type scoreReply struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

// submitRequests posts every request with at most cfg.Workers in flight.
// A request that fails never aborts the others; its outcome records why.
func submitRequests(ctx context.Context, cfg *Config, reqs []Request) ([]Outcome, error) {
	log := logger.Get()
	log.Info(ctx, "submitting requests", logger.Int("count", len(reqs)), logger.Int("workers", cfg.Workers))

	client := newHTTPClient(cfg.Timeout)
	url := cfg.BaseURL + "/score"
	outcomes := make([]Outcome, len(reqs))

	var done atomic.Int64
	progressEvery := int64(max(len(reqs)/10, 1))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = submitOne(gctx, client, url, i, reqs[i])
			if cfg.Verbose {
				log.Debug(gctx, "request finished",
					logger.Int("index", i),
					logger.String("type", outcomes[i].Type),
					logger.Int("status", outcomes[i].StatusCode),
					logger.Duration("latency", outcomes[i].Latency))
			}
			if n := done.Add(1); n%progressEvery == 0 {
				log.Info(gctx, "progress", logger.Int("done", int(n)), logger.Int("total", len(reqs)))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, fmt.Errorf("submission interrupted: %w", err)
	}
	return outcomes, nil
}

func submitOne(ctx context.Context, client *HTTPClient, url string, index int, req Request) Outcome {
	out := Outcome{Index: index, Type: req.Type}
	start := time.Now()

	resp, err := client.Post(ctx, url, req)
	if err != nil {
		out.Latency = time.Since(start)
		out.Error = err.Error()
		return out
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	out.Latency = time.Since(start)
	out.StatusCode = resp.StatusCode
	if err != nil {
		out.Error = err.Error()
		return out
	}

	var reply scoreReply
	if err := json.Unmarshal(body, &reply); err != nil {
		out.Error = fmt.Sprintf("decode reply: %v", err)
		return out
	}
	if resp.StatusCode != http.StatusOK {
		out.Error = reply.Error
		return out
	}

	if t, err := scoring.ParseMatchType(req.Type); err == nil && t.IsMatch() {
		results, err := scoring.ParseResults(reply.Result)
		if err != nil {
			out.ParseError = err.Error()
			return out
		}
		out.Results = results
	}
	return out
}
