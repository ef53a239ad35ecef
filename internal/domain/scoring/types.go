// Package scoring holds the match-scoring protocol: match types, their fixed
// weighted rubrics, request variants, the prompt builder and the result
// contract the prompts ask the model to honor.
package scoring

import (
	"fmt"
	"strings"
)

// MatchType selects the rubric and prompt pair for a request.
type MatchType string

// Recognized match types.
const (
	ManufacturerMatch MatchType = "manufacturer-match"
	InfluencerMatch   MatchType = "influencer-match"
	Summary           MatchType = "summary"
	Contract          MatchType = "contract"
)

// MatchTypes lists every recognized match type.
func MatchTypes() []MatchType {
	return []MatchType{ManufacturerMatch, InfluencerMatch, Summary, Contract}
}

// ParseMatchType converts the wire value into a MatchType.
func ParseMatchType(s string) (MatchType, error) {
	t := MatchType(strings.TrimSpace(s))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown type %q", ErrMalformedRequest, s)
	}
	return t, nil
}

// Valid reports whether t is one of the recognized match types.
func (t MatchType) Valid() bool {
	switch t {
	case ManufacturerMatch, InfluencerMatch, Summary, Contract:
		return true
	}
	return false
}

// IsMatch reports whether t scores a candidate list, as opposed to free text.
func (t MatchType) IsMatch() bool {
	return t == ManufacturerMatch || t == InfluencerMatch
}

func (t MatchType) String() string { return string(t) }

// CriterionWeight is one line of a scoring rubric. Weight is a percentage.
type CriterionWeight struct {
	Name        string
	Weight      int
	Description string
}

// Rubric is the ordered list of weighted criteria for a match type.
type Rubric []CriterionWeight

// Total returns the sum of all weights.
func (r Rubric) Total() int {
	total := 0
	for _, c := range r {
		total += c.Weight
	}
	return total
}

var manufacturerRubric = Rubric{
	{Name: "Category Overlap", Weight: 30, Description: "how well the manufacturer's product categories match the brand's needs"},
	{Name: "Certifications Match", Weight: 25, Description: "whether the manufacturer holds the certifications the brand requires"},
	{Name: "Location Proximity", Weight: 20, Description: "geographic fit with the brand's preferred sourcing regions"},
	{Name: "MOQ Compatibility", Weight: 15, Description: "whether the minimum order quantity fits the brand's order volume"},
	{Name: "Production Capacity", Weight: 10, Description: "ability to handle the brand's expected production scale"},
}

var influencerRubric = Rubric{
	{Name: "Niche Alignment", Weight: 30, Description: "how closely the influencer's niche matches the brand's industry"},
	{Name: "Platform Match", Weight: 25, Description: "presence on the platforms the brand targets"},
	{Name: "Location Relevance", Weight: 20, Description: "audience location relative to the brand's target markets"},
	{Name: "Engagement Potential", Weight: 15, Description: "likely audience engagement based on follower count and activity"},
	{Name: "Content Quality", Weight: 10, Description: "quality and consistency of the influencer's content"},
}

// RubricFor returns a copy of the rubric of a match mode, or nil for the
// free-text modes and unknown types.
func RubricFor(t MatchType) Rubric {
	var r Rubric
	switch t {
	case ManufacturerMatch:
		r = manufacturerRubric
	case InfluencerMatch:
		r = influencerRubric
	default:
		return nil
	}
	out := make(Rubric, len(r))
	copy(out, r)
	return out
}
