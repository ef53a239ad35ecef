package upstream

import (
	"context"
	"errors"
	"net/http"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"google.golang.org/genai"
)

type fakeModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	model  string
	config *genai.GenerateContentConfig
	user   string
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.user = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func TestGemini_Complete(t *testing.T) {
	Convey("Given a Gemini transport over a fake model client", t, func() {
		fake := &fakeModels{}
		g := &Gemini{models: fake}
		completion := Completion{Model: "gemini-2.5-flash", Temperature: 0.2, System: "sys", User: "usr"}

		Convey("When the model answers", func() {
			fake.resp = &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: &genai.Content{Parts: []*genai.Part{{Text: "[{\"candidateId\":"}, {Text: "\"a\"}]"}}},
				}},
			}
			reply, err := g.Complete(context.Background(), completion)

			Convey("Then the parts of the first candidate are joined", func() {
				So(err, ShouldBeNil)
				So(reply.StatusCode, ShouldEqual, http.StatusOK)
				So(reply.Text, ShouldEqual, `[{"candidateId":"a"}]`)
			})

			Convey("And the system prompt and temperature are set", func() {
				So(fake.model, ShouldEqual, "gemini-2.5-flash")
				So(fake.user, ShouldEqual, "usr")
				So(fake.config.SystemInstruction.Parts[0].Text, ShouldEqual, "sys")
				So(*fake.config.Temperature, ShouldAlmostEqual, 0.2, 0.0001)
			})
		})

		Convey("When there are no candidates", func() {
			fake.resp = &genai.GenerateContentResponse{}
			reply, err := g.Complete(context.Background(), completion)
			So(err, ShouldBeNil)
			So(reply.Text, ShouldEqual, "")
		})

		Convey("When the API rate limits", func() {
			fake.err = genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED", Message: "quota"}
			reply, err := g.Complete(context.Background(), completion)

			Convey("Then the code becomes the reply status", func() {
				So(err, ShouldBeNil)
				So(reply.RateLimited(), ShouldBeTrue)
				So(string(reply.Body), ShouldContainSubstring, "quota")
			})
		})

		Convey("When the call fails without an API error", func() {
			fake.err = errors.New("dial tcp: timeout")
			_, err := g.Complete(context.Background(), completion)
			So(errors.Is(err, ErrTransport), ShouldBeTrue)
		})
	})

	Convey("Given a missing key", t, func() {
		_, err := NewGemini(context.Background(), " ")
		So(errors.Is(err, ErrMissingAPIKey), ShouldBeTrue)
	})
}
