package scoring

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Prompt is the instruction pair sent to the completion API.
type Prompt struct {
	System string
	User   string
}

// Empty reports whether both halves of the prompt are empty.
func (p Prompt) Empty() bool { return p.System == "" && p.User == "" }

// Builder turns a request variant into a deterministic prompt.
type Builder struct{}

// NewBuilder creates a prompt builder.
func NewBuilder() *Builder { return &Builder{} }

// Build returns the prompt for req. Unknown types and variants that do not
// belong to their type yield an empty Prompt and ErrMalformedRequest.
func (b *Builder) Build(req Request) (Prompt, error) {
	if err := Validate(req); err != nil {
		return Prompt{}, err
	}

	switch t := req.Kind(); t {
	case ManufacturerMatch, InfluencerMatch:
		mr, ok := req.(MatchRequest)
		if !ok {
			return Prompt{}, fmt.Errorf("%w: %s needs a candidate list", ErrMalformedRequest, t)
		}
		return buildMatch(mr)
	case Summary, Contract:
		tr, ok := req.(TextRequest)
		if !ok {
			return Prompt{}, fmt.Errorf("%w: %s needs an instruction", ErrMalformedRequest, t)
		}
		return Prompt{System: textRoles[t], User: tr.Instruction}, nil
	default:
		return Prompt{}, fmt.Errorf("%w: unknown type %q", ErrMalformedRequest, t)
	}
}

var matchRoles = map[MatchType]struct{ role, subject string }{
	ManufacturerMatch: {
		role:    "You are an expert B2B sourcing analyst who matches brands with manufacturers.",
		subject: "manufacturer",
	},
	InfluencerMatch: {
		role:    "You are an expert influencer marketing analyst who matches brands with influencers.",
		subject: "influencer",
	},
}

var textRoles = map[MatchType]string{
	Summary:  "You are a business analyst. Write clear, concise and factual summaries for marketplace users.",
	Contract: "You are a legal assistant. Draft and review commercial agreements in plain, precise language.",
}

func buildMatch(req MatchRequest) (Prompt, error) {
	role := matchRoles[req.Type]
	rubric := RubricFor(req.Type)

	var sys strings.Builder
	sys.WriteString(role.role)
	sys.WriteString("\n\nScore each ")
	sys.WriteString(role.subject)
	sys.WriteString(" against the brand profile using these weighted criteria:\n")
	for i, c := range rubric {
		fmt.Fprintf(&sys, "%d. %s (%d%%): %s\n", i+1, c.Name, c.Weight, c.Description)
	}
	sys.WriteString("\nRate every criterion from 0 to 100, then compute the composite matchScore as the weighted sum, rounded to an integer between 0 and 100.\n")
	sys.WriteString("Return a JSON array sorted by matchScore in descending order.")

	profile, err := indentJSON(req.Profile)
	if err != nil {
		return Prompt{}, fmt.Errorf("%w: brandProfile: %w", ErrMalformedRequest, err)
	}
	candidates, err := json.MarshalIndent(req.Candidates, "", "  ")
	if err != nil {
		return Prompt{}, fmt.Errorf("%w: candidates: %w", ErrMalformedRequest, err)
	}

	var user strings.Builder
	user.WriteString("Brand profile:\n")
	user.Write(profile)
	fmt.Fprintf(&user, "\n\n%s candidates:\n", capitalize(role.subject))
	user.Write(candidates)
	user.WriteString("\n\nReturn ONLY a JSON array of objects with the fields ")
	user.WriteString(`"candidateId" (string), "matchScore" (number 0-100) and "explanation" (one short sentence). `)
	user.WriteString("Do not wrap the array in markdown or add any other text.")

	return Prompt{System: sys.String(), User: user.String()}, nil
}

func indentJSON(raw json.RawMessage) ([]byte, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.MarshalIndent(v, "", "  ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
