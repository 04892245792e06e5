package ideas

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TobiSchelling/reelforge/internal/llm"
	"github.com/TobiSchelling/reelforge/internal/persona"
	"github.com/TobiSchelling/reelforge/internal/research"
)

// Synthesizer generates content ideas from research material and persona
// history. Model failures never propagate; the worst case is an empty idea
// list.
type Synthesizer struct {
	provider llm.Provider
	retries  int
	log      *zap.SugaredLogger
	now      func() time.Time
}

// NewSynthesizer creates a synthesizer. A nil provider is allowed; it makes
// every generation produce an empty list.
func NewSynthesizer(provider llm.Provider, retries int, log *zap.SugaredLogger) *Synthesizer {
	return &Synthesizer{
		provider: provider,
		retries:  retries,
		log:      log,
		now:      time.Now,
	}
}

// FromResearch generates up to count ideas grounded in the research bundle.
// priorIdeaTitles carries titles from earlier runs so they are not repeated.
func (s *Synthesizer) FromResearch(ctx context.Context, p *persona.Persona, bundle research.Bundle, count int, priorIdeaTitles []string) []Idea {
	count = ClampCount(count)
	suppressed, avoid := suppressedTitles(p, priorIdeaTitles, p.RecentReelTitles(s.now(), dedupWindowDays))

	prompt := s.researchPrompt(p, bundle, count, avoid)
	return s.generate(ctx, p, prompt, count, suppressed, OriginResearch)
}

// FromInsights generates up to count ideas from the persona's own learned
// patterns, with no external research.
func (s *Synthesizer) FromInsights(ctx context.Context, p *persona.Persona, count int, priorIdeaTitles []string) []Idea {
	count = ClampCount(count)
	suppressed, avoid := suppressedTitles(p, priorIdeaTitles, p.RecentReelTitles(s.now(), dedupWindowDays))

	prompt := s.insightsPrompt(p, count, avoid)
	return s.generate(ctx, p, prompt, count, suppressed, OriginInsights)
}

func (s *Synthesizer) generate(ctx context.Context, p *persona.Persona, prompt string, count int, suppressed map[string]bool, origin string) []Idea {
	if s.provider == nil {
		s.log.Warnw("no model provider, skipping idea synthesis", "persona", p.PersonaID)
		return nil
	}

	budget := TokenBudget(count)
	text, err := llm.GenerateWithRetry(ctx, s.provider, prompt, budget, s.retries)
	if err != nil {
		s.log.Errorw("idea synthesis failed", "persona", p.PersonaID, "origin", origin, "error", err)
		return nil
	}

	records := llm.ParseObjectList(text)
	if len(records) == 0 {
		s.log.Warnw("idea synthesis produced no parseable records",
			"persona", p.PersonaID, "origin", origin, "response_len", len(text))
		return nil
	}

	ideas := validate(records, count, suppressed, origin)
	s.log.Infow("ideas synthesized",
		"persona", p.PersonaID, "origin", origin,
		"requested", count, "parsed", len(records), "kept", len(ideas))
	return ideas
}

// validate turns parsed records into Ideas: non-empty unique titles only,
// suppressed titles dropped, missing fields defaulted, capped at count.
func validate(records []map[string]any, count int, suppressed map[string]bool, origin string) []Idea {
	seen := make(map[string]bool)
	var out []Idea
	for _, rec := range records {
		if len(out) >= count {
			break
		}
		title := strings.TrimSpace(llm.GetString(rec, "title", ""))
		if title == "" || seen[title] || suppressed[title] {
			continue
		}
		seen[title] = true

		out = append(out, Idea{
			Title:                title,
			Concept:              llm.GetString(rec, "concept", ""),
			Hook:                 llm.GetString(rec, "hook", ""),
			KeyPoints:            llm.GetStringList(rec, "key_points"),
			EngagementPrediction: llm.GetString(rec, "engagement_prediction", "medium"),
			Status:               StatusPending,
			Source:               origin,
		})
	}
	return out
}

func (s *Synthesizer) researchPrompt(p *persona.Persona, bundle research.Bundle, count int, avoid []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You write short-form video content ideas for a creator.\n\n")
	fmt.Fprintf(&b, "Creator profile:\n%s\n", p.StyleSummary())
	fmt.Fprintf(&b, "Current research material:\n%s\n", digestBundle(bundle))
	writeAvoid(&b, avoid)
	fmt.Fprintf(&b, "Generate exactly %d reel ideas grounded in the research above.\n", count)
	writeFormat(&b)
	return b.String()
}

func (s *Synthesizer) insightsPrompt(p *persona.Persona, count int, avoid []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You write short-form video content ideas for a creator.\n\n")
	fmt.Fprintf(&b, "Creator profile:\n%s\n", p.StyleSummary())
	fmt.Fprintf(&b, "Average engagement rate: %.3f\n", p.LearnedPatterns.AvgEngagementRate)
	fmt.Fprintf(&b, "Average script length: %.0f words\n\n", p.LearnedPatterns.AvgScriptLength)
	writeAvoid(&b, avoid)
	fmt.Fprintf(&b, "Generate exactly %d reel ideas that double down on what already works for this creator.\n", count)
	writeFormat(&b)
	return b.String()
}

func writeAvoid(b *strings.Builder, avoid []string) {
	if len(avoid) == 0 {
		return
	}
	fmt.Fprintf(b, "Do NOT reuse any of these titles:\n")
	for _, t := range avoid {
		fmt.Fprintf(b, "- %s\n", t)
	}
	b.WriteString("\n")
}

func writeFormat(b *strings.Builder) {
	b.WriteString(`Respond with a JSON array only, no prose. Each element:
{"title": "...", "concept": "...", "hook": "...", "key_points": ["..."], "engagement_prediction": "high|medium|low"}
`)
}
