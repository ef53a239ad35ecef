package testrequests

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/okian/matchgate/internal/domain/scoring"
	"github.com/okian/matchgate/pkg/logger"
)

var (
	categories     = []string{"apparel", "textiles", "cosmetics", "packaging", "electronics", "furniture", "food", "footwear"}
	certifications = []string{"ISO 9001", "GOTS", "OEKO-TEX", "BSCI", "FSC", "GMP", "Fair Trade"}
	locations      = []string{"Portugal", "Vietnam", "Turkey", "Mexico", "India", "Poland", "Bangladesh", "USA"}
	niches         = []string{"fashion", "beauty", "fitness", "tech", "home", "food", "travel", "parenting"}
	platforms      = []string{"instagram", "tiktok", "youtube", "pinterest", "twitch"}
)

// generator builds deterministic request bodies for a seed. IDs come from
// uuid so repeated runs never collide in downstream logs.
type generator struct {
	rng *rand.Rand
}

func newGenerator(seed uint64) *generator {
	return &generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))} //nolint:gosec // test data
}

func (g *generator) pick(list []string) string {
	return list[g.rng.IntN(len(list))]
}

func (g *generator) pickN(list []string, n int) []string {
	out := make([]string, 0, n)
	for _, i := range g.rng.Perm(len(list))[:min(n, len(list))] {
		out = append(out, list[i])
	}
	return out
}

func (g *generator) brandProfile() map[string]any {
	return map[string]any{
		"id":                     uuid.NewString(),
		"name":                   fmt.Sprintf("Brand %d", g.rng.IntN(10_000)),
		"industry":               g.pick(niches),
		"categories":             g.pickN(categories, 2),
		"requiredCertifications": g.pickN(certifications, 2),
		"preferredLocations":     g.pickN(locations, 2),
		"orderVolume":            100 * (1 + g.rng.IntN(50)),
		"targetPlatforms":        g.pickN(platforms, 2),
	}
}

func (g *generator) manufacturer() map[string]any {
	return map[string]any{
		"id":                 uuid.NewString(),
		"categories":         g.pickN(categories, 1+g.rng.IntN(3)),
		"certifications":     g.pickN(certifications, g.rng.IntN(4)),
		"location":           g.pick(locations),
		"moq":                50 * (1 + g.rng.IntN(40)),
		"productionCapacity": 1000 * (1 + g.rng.IntN(100)),
	}
}

func (g *generator) influencer() map[string]any {
	return map[string]any{
		"id":             uuid.NewString(),
		"niche":          g.pick(niches),
		"platforms":      g.pickN(platforms, 1+g.rng.IntN(3)),
		"location":       g.pick(locations),
		"followers":      1000 * (1 + g.rng.IntN(2000)),
		"engagementRate": float64(g.rng.IntN(1000)) / 100,
	}
}

func (g *generator) request(t scoring.MatchType, candidates int) Request {
	switch t {
	case scoring.ManufacturerMatch, scoring.InfluencerMatch:
		list := make([]map[string]any, 0, candidates)
		for range candidates {
			if t == scoring.ManufacturerMatch {
				list = append(list, g.manufacturer())
			} else {
				list = append(list, g.influencer())
			}
		}
		return Request{Type: t.String(), BrandProfile: g.brandProfile(), Candidates: list}
	case scoring.Contract:
		return Request{
			Type: t.String(),
			Candidates: fmt.Sprintf("Draft a supply agreement between %s and a manufacturer in %s for %d units per month.",
				g.brandProfile()["name"], g.pick(locations), 100*(1+g.rng.IntN(50))),
		}
	default:
		return Request{
			Type: scoring.Summary.String(),
			Candidates: fmt.Sprintf("Summarize this RFQ: %s brand seeks %s suppliers certified %s.",
				g.pick(niches), g.pick(categories), g.pick(certifications)),
		}
	}
}

// generateRequests builds cfg.NumRequests bodies, rotating through cfg.Types.
func generateRequests(ctx context.Context, cfg *Config) ([]Request, error) {
	if cfg.NumRequests <= 0 {
		return nil, fmt.Errorf("number of requests must be positive, got %d", cfg.NumRequests)
	}
	if cfg.Candidates < 0 || cfg.Candidates > scoring.MaxCandidates {
		return nil, fmt.Errorf("candidates per request must be within [0, %d], got %d", scoring.MaxCandidates, cfg.Candidates)
	}

	types := cfg.Types
	if len(types) == 0 {
		types = scoring.MatchTypes()
	}

	g := newGenerator(cfg.Seed)
	reqs := make([]Request, 0, cfg.NumRequests)
	for i := range cfg.NumRequests {
		reqs = append(reqs, g.request(types[i%len(types)], cfg.Candidates))
	}

	logger.Get().Info(ctx, "generated requests",
		logger.Int("count", len(reqs)),
		logger.Int("types", len(types)),
		logger.Int("candidatesPerMatch", cfg.Candidates))
	return reqs, nil
}
