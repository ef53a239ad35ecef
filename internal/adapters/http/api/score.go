package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/matchgate/internal/app"
	"github.com/okian/matchgate/internal/config"
	"github.com/okian/matchgate/internal/domain/scoring"
	"github.com/okian/matchgate/pkg/logger"
)

// Caller-facing messages. Upstream bodies and codes never reach the client.
const (
	msgRateLimited     = "Rate limit exceeded after retries. Please try again in a minute."
	msgPaymentRequired = "AI credits required. Please add funds to your OpenAI account."
	msgGatewayFailed   = "AI gateway request failed"
	msgNotConfigured   = "AI gateway is not configured"
	maxRequestBytes    = 1 << 20
)

// scoreRequest mirrors the OpenAPI schema for POST /score. Candidates is an
// array for the match types and a string for summary and contract.
type scoreRequest struct {
	Type         string          `json:"type"`
	BrandProfile json.RawMessage `json:"brandProfile"`
	Candidates   json.RawMessage `json:"candidates"`
}

type scoreResponse struct {
	Result string `json:"result"`
}

// ScoreHandler handles scoring gateway requests.
type ScoreHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps Dependencies, l logger.Logger) *ScoreHandler {
	return &ScoreHandler{deps: deps, logger: l}
}

// HandleScore handles POST / and POST /score.
func (h *ScoreHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		writeError(w, http.StatusMethodNotAllowed, ErrMethodNotAllowed.Error())
		return
	}

	ctx := r.Context()
	log := h.logger.With(logger.String("request_id", RequestIDFromContext(ctx)))

	if err := h.deps.Ready(); err != nil {
		log.Error(ctx, "scoring request rejected: gateway misconfigured", logger.Error(err))
		writeError(w, http.StatusInternalServerError, configMessage(err))
		return
	}

	var in scoreRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: invalid JSON body", ErrBadRequest))
		return
	}

	req, err := scoring.DecodeRequest(in.Type, in.BrandProfile, in.Candidates)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	text, err := h.deps.Score(ctx, req)
	if err != nil {
		status, msg := classify(err)
		log.Warn(ctx, "scoring request failed",
			logger.String("type", in.Type),
			logger.Int("status", status),
			logger.Error(err),
		)
		writeError(w, status, msg)
		return
	}

	log.Debug(ctx, "scoring request completed",
		logger.String("type", in.Type),
		logger.Int("resultChars", len(text)),
	)
	writeJSON(w, http.StatusOK, scoreResponse{Result: text})
}

// classify maps a gateway failure to the caller-facing status and message.
func classify(err error) (int, string) {
	var gwErr *service.GatewayError
	if !errors.As(err, &gwErr) {
		return http.StatusInternalServerError, msgGatewayFailed
	}

	switch gwErr.Kind {
	case service.KindRateLimited:
		return http.StatusTooManyRequests, msgRateLimited
	case service.KindPaymentRequired:
		return http.StatusPaymentRequired, msgPaymentRequired
	case service.KindMalformedRequest:
		if gwErr.Err == nil {
			return http.StatusBadRequest, scoring.ErrMalformedRequest.Error()
		}
		return http.StatusBadRequest, gwErr.Err.Error()
	case service.KindConfig:
		return http.StatusInternalServerError, configMessage(gwErr.Err)
	default:
		return http.StatusInternalServerError, msgGatewayFailed
	}
}

func configMessage(err error) string {
	if errors.Is(err, config.ErrMissingSecret) {
		return err.Error()
	}
	return msgNotConfigured
}
