package scoring

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ScoreResult is one entry of the array the match prompts ask for.
type ScoreResult struct {
	CandidateID string  `json:"candidateId"`
	MatchScore  float64 `json:"matchScore"`
	Explanation string  `json:"explanation"`
}

const resultsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["candidateId", "matchScore", "explanation"],
    "properties": {
      "candidateId": {"type": "string", "minLength": 1},
      "matchScore": {"type": "number", "minimum": 0, "maximum": 100},
      "explanation": {"type": "string"}
    }
  }
}`

var resultsLoader = gojsonschema.NewStringLoader(resultsSchema)

// ParseResults decodes the text returned for a match request. Markdown code
// fences around the array are tolerated. Results come back sorted by score,
// highest first, with ties kept in their original order.
func ParseResults(text string) ([]ScoreResult, error) {
	payload := stripFences(text)
	if payload == "" {
		return nil, fmt.Errorf("%w: empty result", ErrInvalidResults)
	}

	res, err := gojsonschema.Validate(resultsLoader, gojsonschema.NewStringLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResults, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, desc := range res.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidResults, strings.Join(msgs, "; "))
	}

	var out []ScoreResult
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResults, err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	return out, nil
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
