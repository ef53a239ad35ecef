package scoring_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/okian/matchgate/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

const brandProfile = `{"name":"Acme Apparel","categories":["apparel","textiles"],"location":"Portugal"}`

func mustDecode(t *testing.T, typ, profile, candidates string) scoring.Request {
	t.Helper()
	req, err := scoring.DecodeRequest(typ, json.RawMessage(profile), json.RawMessage(candidates))
	if err != nil {
		t.Fatalf("decode %s: %v", typ, err)
	}
	return req
}

func TestParseMatchType(t *testing.T) {
	Convey("Given wire match type values", t, func() {
		Convey("Recognized values parse", func() {
			for _, mt := range scoring.MatchTypes() {
				got, err := scoring.ParseMatchType(string(mt))
				So(err, ShouldBeNil)
				So(got, ShouldEqual, mt)
			}
		})

		Convey("Unknown values are malformed requests", func() {
			for _, bad := range []string{"", "brand-match", "Summary", "manufacturer_match"} {
				_, err := scoring.ParseMatchType(bad)
				So(errors.Is(err, scoring.ErrMalformedRequest), ShouldBeTrue)
			}
		})

		Convey("Only the two match modes carry candidate lists", func() {
			So(scoring.ManufacturerMatch.IsMatch(), ShouldBeTrue)
			So(scoring.InfluencerMatch.IsMatch(), ShouldBeTrue)
			So(scoring.Summary.IsMatch(), ShouldBeFalse)
			So(scoring.Contract.IsMatch(), ShouldBeFalse)
		})
	})
}

func TestRubrics(t *testing.T) {
	Convey("Given the rubric of each match mode", t, func() {
		Convey("Manufacturer weights sum to 100", func() {
			r := scoring.RubricFor(scoring.ManufacturerMatch)
			So(r, ShouldHaveLength, 5)
			So(r.Total(), ShouldEqual, 100)
			So(r[0].Name, ShouldEqual, "Category Overlap")
			So(r[0].Weight, ShouldEqual, 30)
			So(r[4].Name, ShouldEqual, "Production Capacity")
			So(r[4].Weight, ShouldEqual, 10)
		})

		Convey("Influencer weights sum to 100", func() {
			r := scoring.RubricFor(scoring.InfluencerMatch)
			So(r, ShouldHaveLength, 5)
			So(r.Total(), ShouldEqual, 100)
			So(r[0].Name, ShouldEqual, "Niche Alignment")
			So(r[1].Name, ShouldEqual, "Platform Match")
		})

		Convey("Free-text modes have no rubric", func() {
			So(scoring.RubricFor(scoring.Summary), ShouldBeNil)
			So(scoring.RubricFor(scoring.Contract), ShouldBeNil)
		})

		Convey("Returned rubrics are copies", func() {
			r := scoring.RubricFor(scoring.ManufacturerMatch)
			r[0].Weight = 99
			So(scoring.RubricFor(scoring.ManufacturerMatch)[0].Weight, ShouldEqual, 30)
		})
	})
}

func TestDecodeRequest(t *testing.T) {
	Convey("Given raw wire fields", t, func() {
		Convey("A match request takes an object profile and an array of candidates", func() {
			req, err := scoring.DecodeRequest("manufacturer-match",
				json.RawMessage(brandProfile), json.RawMessage(`[{"id":"m1"},{"id":"m2"}]`))
			So(err, ShouldBeNil)
			mr, ok := req.(scoring.MatchRequest)
			So(ok, ShouldBeTrue)
			So(mr.Kind(), ShouldEqual, scoring.ManufacturerMatch)
			So(mr.Candidates, ShouldHaveLength, 2)
		})

		Convey("An empty candidate array is allowed", func() {
			req, err := scoring.DecodeRequest("influencer-match", json.RawMessage(brandProfile), json.RawMessage(`[]`))
			So(err, ShouldBeNil)
			So(req.(scoring.MatchRequest).Candidates, ShouldHaveLength, 0)
		})

		Convey("A text request takes a string", func() {
			req, err := scoring.DecodeRequest("summary", nil, json.RawMessage(`"  Summarize this RFQ.  "`))
			So(err, ShouldBeNil)
			tr, ok := req.(scoring.TextRequest)
			So(ok, ShouldBeTrue)
			So(tr.Instruction, ShouldEqual, "  Summarize this RFQ.  ")
		})

		Convey("A blank text request is malformed", func() {
			_, err := scoring.DecodeRequest("contract", nil, json.RawMessage(`"  \n\t "`))
			So(errors.Is(err, scoring.ErrMalformedRequest), ShouldBeTrue)
		})

		Convey("Shape mismatches are malformed", func() {
			cases := []struct{ typ, profile, candidates string }{
				{"manufacturer-match", brandProfile, `"free text"`},
				{"manufacturer-match", `["not","object"]`, `[]`},
				{"influencer-match", ``, `[]`},
				{"influencer-match", brandProfile, ``},
				{"summary", ``, `[{"id":"x"}]`},
				{"contract", ``, `"   "`},
				{"unknown", brandProfile, `[]`},
			}
			for _, c := range cases {
				_, err := scoring.DecodeRequest(c.typ, json.RawMessage(c.profile), json.RawMessage(c.candidates))
				So(errors.Is(err, scoring.ErrMalformedRequest), ShouldBeTrue)
			}
		})

		Convey("More than the maximum number of candidates is rejected", func() {
			items := make([]string, scoring.MaxCandidates+1)
			for i := range items {
				items[i] = fmt.Sprintf(`{"id":"c%d"}`, i)
			}
			_, err := scoring.DecodeRequest("manufacturer-match", json.RawMessage(brandProfile),
				json.RawMessage("["+strings.Join(items, ",")+"]"))
			So(errors.Is(err, scoring.ErrMalformedRequest), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "candidates must have at most 200 entries")
		})
	})
}

func TestBuilder_Build(t *testing.T) {
	Convey("Given a prompt builder", t, func() {
		b := scoring.NewBuilder()

		Convey("Every recognized type produces a non-empty prompt pair", func() {
			reqs := []scoring.Request{
				mustDecode(t, "manufacturer-match", brandProfile, `[{"id":"m1"}]`),
				mustDecode(t, "influencer-match", brandProfile, `[{"id":"i1"}]`),
				mustDecode(t, "summary", "", `"Summarize the campaign."`),
				mustDecode(t, "contract", "", `"Draft an NDA."`),
			}
			for _, req := range reqs {
				p, err := b.Build(req)
				So(err, ShouldBeNil)
				So(p.System, ShouldNotBeEmpty)
				So(p.User, ShouldNotBeEmpty)
			}
		})

		Convey("Unknown types produce an empty pair and an explicit error", func() {
			p, err := b.Build(scoring.MatchRequest{
				Type:       scoring.MatchType("brand-match"),
				Profile:    json.RawMessage(brandProfile),
				Candidates: []json.RawMessage{},
			})
			So(errors.Is(err, scoring.ErrMalformedRequest), ShouldBeTrue)
			So(p.System, ShouldEqual, "")
			So(p.User, ShouldEqual, "")
			So(p.Empty(), ShouldBeTrue)
		})

		Convey("A variant that does not belong to its type is rejected", func() {
			p, err := b.Build(scoring.TextRequest{Type: scoring.ManufacturerMatch, Instruction: "hi"})
			So(errors.Is(err, scoring.ErrMalformedRequest), ShouldBeTrue)
			So(p.Empty(), ShouldBeTrue)
		})

		Convey("Manufacturer prompts carry the weighted criteria and output contract", func() {
			p, err := b.Build(mustDecode(t, "manufacturer-match", brandProfile, `[{"id":"m1"}]`))
			So(err, ShouldBeNil)
			So(p.System, ShouldContainSubstring, "Category Overlap (30%)")
			So(p.System, ShouldContainSubstring, "Certifications Match (25%)")
			So(p.System, ShouldContainSubstring, "Location Proximity (20%)")
			So(p.System, ShouldContainSubstring, "MOQ Compatibility (15%)")
			So(p.System, ShouldContainSubstring, "Production Capacity (10%)")
			So(p.System, ShouldContainSubstring, "descending")
			So(p.User, ShouldContainSubstring, `"Acme Apparel"`)
			So(p.User, ShouldContainSubstring, `"m1"`)
			So(p.User, ShouldContainSubstring, "Return ONLY a JSON array")
			So(p.User, ShouldContainSubstring, "candidateId")
		})

		Convey("Influencer prompts use the influencer rubric", func() {
			p, err := b.Build(mustDecode(t, "influencer-match", brandProfile, `[]`))
			So(err, ShouldBeNil)
			So(p.System, ShouldContainSubstring, "Niche Alignment (30%)")
			So(p.System, ShouldContainSubstring, "Content Quality (10%)")
			So(p.System, ShouldNotContainSubstring, "MOQ")
		})

		Convey("Text modes pass the instruction through verbatim", func() {
			p, err := b.Build(mustDecode(t, "contract", "", `"Draft an NDA between Acme and Beta."`))
			So(err, ShouldBeNil)
			So(p.System, ShouldContainSubstring, "legal assistant")
			So(p.User, ShouldEqual, "Draft an NDA between Acme and Beta.")

			p, err = b.Build(mustDecode(t, "summary", "", `"\n  Summarize.\n"`))
			So(err, ShouldBeNil)
			So(p.System, ShouldContainSubstring, "business analyst")
			So(p.User, ShouldEqual, "\n  Summarize.\n")
		})

		Convey("Building is deterministic", func() {
			req := mustDecode(t, "manufacturer-match", brandProfile, `[{"id":"m1","moq":500},{"id":"m2"}]`)
			first, err := b.Build(req)
			So(err, ShouldBeNil)
			for range 5 {
				again, err := b.Build(req)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, first)
			}
		})
	})
}

func TestParseResults(t *testing.T) {
	Convey("Given completion text for a match request", t, func() {
		Convey("A plain array is parsed and sorted by score", func() {
			out, err := scoring.ParseResults(`[
				{"candidateId":"a","matchScore":40,"explanation":"weak"},
				{"candidateId":"b","matchScore":92,"explanation":"strong"},
				{"candidateId":"c","matchScore":40,"explanation":"tie"}
			]`)
			So(err, ShouldBeNil)
			So(out, ShouldHaveLength, 3)
			So(out[0].CandidateID, ShouldEqual, "b")
			So(out[1].CandidateID, ShouldEqual, "a")
			So(out[2].CandidateID, ShouldEqual, "c")
		})

		Convey("Markdown fences are stripped", func() {
			out, err := scoring.ParseResults("```json\n[{\"candidateId\":\"a\",\"matchScore\":10,\"explanation\":\"x\"}]\n```")
			So(err, ShouldBeNil)
			So(out, ShouldHaveLength, 1)
			So(out[0].MatchScore, ShouldEqual, 10)
		})

		Convey("Out of range scores violate the contract", func() {
			_, err := scoring.ParseResults(`[{"candidateId":"a","matchScore":120,"explanation":"x"}]`)
			So(errors.Is(err, scoring.ErrInvalidResults), ShouldBeTrue)
		})

		Convey("Missing fields violate the contract", func() {
			_, err := scoring.ParseResults(`[{"candidateId":"a","matchScore":20}]`)
			So(errors.Is(err, scoring.ErrInvalidResults), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "explanation")
		})

		Convey("Empty and non-JSON text are rejected", func() {
			_, err := scoring.ParseResults("   ")
			So(errors.Is(err, scoring.ErrInvalidResults), ShouldBeTrue)
			_, err = scoring.ParseResults("Sorry, I cannot help with that.")
			So(errors.Is(err, scoring.ErrInvalidResults), ShouldBeTrue)
		})
	})
}
