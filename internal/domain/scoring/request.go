package scoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxCandidates caps the candidate list of a match request.
const MaxCandidates = 200

// Request is one of MatchRequest or TextRequest.
type Request interface {
	Kind() MatchType
}

// MatchRequest scores a list of candidates against a requester profile.
type MatchRequest struct {
	Type       MatchType         `json:"type" validate:"required"`
	Profile    json.RawMessage   `json:"brandProfile" validate:"required"`
	Candidates []json.RawMessage `json:"candidates" validate:"required,max=200,dive,required"`
}

// Kind implements Request.
func (r MatchRequest) Kind() MatchType { return r.Type }

// TextRequest carries a free-text instruction for the summary and contract modes.
type TextRequest struct {
	Type        MatchType `json:"type" validate:"required"`
	Instruction string    `json:"candidates" validate:"required"`
}

// Kind implements Request.
func (r TextRequest) Kind() MatchType { return r.Type }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the struct-level shape of a request variant.
func Validate(req Request) error {
	if req == nil {
		return fmt.Errorf("%w: empty request", ErrMalformedRequest)
	}
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedRequest, describeValidation(err))
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "max" {
			return fmt.Sprintf("%s must have at most %s entries", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s is %s", fe.Field(), fe.Tag())
	}
	return err.Error()
}

// DecodeRequest builds the request variant for typ from the raw wire fields.
// Match modes need profile to be a JSON object and candidates a JSON array.
// Text modes need candidates to be a non-empty JSON string.
func DecodeRequest(typ string, profile, candidates json.RawMessage) (Request, error) {
	t, err := ParseMatchType(typ)
	if err != nil {
		return nil, err
	}

	var req Request
	switch t {
	case ManufacturerMatch, InfluencerMatch:
		if !isJSONKind(profile, '{') {
			return nil, fmt.Errorf("%w: brandProfile must be a JSON object", ErrMalformedRequest)
		}
		if !isJSONKind(candidates, '[') {
			return nil, fmt.Errorf("%w: candidates must be a JSON array for %s", ErrMalformedRequest, t)
		}
		list := make([]json.RawMessage, 0)
		if err := json.Unmarshal(candidates, &list); err != nil {
			return nil, fmt.Errorf("%w: candidates: %w", ErrMalformedRequest, err)
		}
		req = MatchRequest{Type: t, Profile: profile, Candidates: list}
	case Summary, Contract:
		if !isJSONKind(candidates, '"') {
			return nil, fmt.Errorf("%w: candidates must be a JSON string for %s", ErrMalformedRequest, t)
		}
		var text string
		if err := json.Unmarshal(candidates, &text); err != nil {
			return nil, fmt.Errorf("%w: candidates: %w", ErrMalformedRequest, err)
		}
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: candidates must not be blank for %s", ErrMalformedRequest, t)
		}
		req = TextRequest{Type: t, Instruction: text}
	}

	if err := Validate(req); err != nil {
		return nil, err
	}
	return req, nil
}

func isJSONKind(raw json.RawMessage, open byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == open
}
