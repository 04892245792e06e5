package ideas

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/TobiSchelling/reelforge/internal/persona"
	"github.com/TobiSchelling/reelforge/internal/research"
)

type scriptedProvider struct {
	response   string
	err        error
	lastPrompt string
	lastBudget int
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	p.lastPrompt = prompt
	p.lastBudget = maxTokens
	return p.response, p.err
}

func (p *scriptedProvider) IsConfigured() bool { return true }

func satPersona() *persona.Persona {
	return &persona.Persona{
		PersonaID: "sat_coach",
		BasicInfo: persona.BasicInfo{Niche: "SAT Exam Preparation", Tone: "encouraging"},
	}
}

func TestTokenBudget(t *testing.T) {
	if got := TokenBudget(3); got != 2000 {
		t.Errorf("expected budget 2000 for 3 ideas, got %d", got)
	}
	if got := TokenBudget(20); got != 8000 {
		t.Errorf("expected capped budget 8000, got %d", got)
	}
	if got := TokenBudget(1); got != 1000 {
		t.Errorf("expected budget 1000 for 1 idea, got %d", got)
	}
}

func TestClampCount(t *testing.T) {
	if ClampCount(0) != 1 || ClampCount(-5) != 1 {
		t.Error("counts below 1 must clamp to 1")
	}
	if ClampCount(100) != 20 {
		t.Error("counts above 20 must clamp to 20")
	}
	if ClampCount(7) != 7 {
		t.Error("in-range counts must pass through")
	}
}

func TestFromResearchBudgetAndCount(t *testing.T) {
	p := &scriptedProvider{
		response: `[{"title": "A"}, {"title": "B"}, {"title": "C"}, {"title": "D"}]`,
	}
	s := NewSynthesizer(p, 0, zap.NewNop().Sugar())

	bundle := research.Bundle{
		research.SourceForum: {
			{Title: "Thread 1"}, {Title: "Thread 2"}, {Title: "Thread 3"},
		},
	}
	got := s.FromResearch(context.Background(), satPersona(), bundle, 3, nil)

	if p.lastBudget != 2000 {
		t.Errorf("expected requested token budget 2000, got %d", p.lastBudget)
	}
	if len(got) != 3 {
		t.Fatalf("expected at most 3 ideas, got %d", len(got))
	}
	titles := make(map[string]bool)
	for _, idea := range got {
		if idea.Title == "" {
			t.Error("idea with empty title slipped through")
		}
		if titles[idea.Title] {
			t.Errorf("duplicate title %q", idea.Title)
		}
		titles[idea.Title] = true
		if idea.Status != StatusPending {
			t.Errorf("expected pending status, got %q", idea.Status)
		}
		if idea.Source != OriginResearch {
			t.Errorf("expected research origin, got %q", idea.Source)
		}
	}
}

func TestFromResearchSuppressesHistoryTitles(t *testing.T) {
	p := &scriptedProvider{
		response: `[{"title": "Old favorite"}, {"title": "Brand new"}]`,
	}
	s := NewSynthesizer(p, 0, zap.NewNop().Sugar())

	pers := satPersona()
	pers.ExistingReels = []persona.Reel{
		{ID: "reel_001", Title: "Old favorite", Date: time.Now().Format(persona.DateLayout)},
	}

	got := s.FromResearch(context.Background(), pers, research.Bundle{}, 5, nil)
	if len(got) != 1 || got[0].Title != "Brand new" {
		t.Fatalf("expected only the new title to survive, got %v", got)
	}
}

func TestFromResearchSuppressesPriorRunTitles(t *testing.T) {
	p := &scriptedProvider{
		response: `[{"title": "Seen last run"}, {"title": "Fresh"}]`,
	}
	s := NewSynthesizer(p, 0, zap.NewNop().Sugar())

	got := s.FromResearch(context.Background(), satPersona(), research.Bundle{}, 5,
		[]string{"Seen last run"})
	if len(got) != 1 || got[0].Title != "Fresh" {
		t.Fatalf("expected prior-run title suppressed, got %v", got)
	}
}

func TestPromptAvoidListBounded(t *testing.T) {
	p := &scriptedProvider{response: `[]`}
	s := NewSynthesizer(p, 0, zap.NewNop().Sugar())

	var prior []string
	for i := 0; i < 40; i++ {
		prior = append(prior, fmt.Sprintf("Prior title %02d", i))
	}
	s.FromResearch(context.Background(), satPersona(), research.Bundle{}, 3, prior)

	listed := strings.Count(p.lastPrompt, "- Prior title")
	if listed != 20 {
		t.Errorf("expected avoid list truncated to 20 entries, got %d", listed)
	}
	if !strings.Contains(p.lastPrompt, "Prior title 00") {
		t.Error("expected most recent entries kept")
	}
	if strings.Contains(p.lastPrompt, "Prior title 25") {
		t.Error("expected older entries truncated")
	}
}

func TestGenerateFailureReturnsEmpty(t *testing.T) {
	p := &scriptedProvider{err: errors.New("network down")}
	s := NewSynthesizer(p, 1, zap.NewNop().Sugar())

	got := s.FromResearch(context.Background(), satPersona(), research.Bundle{}, 3, nil)
	if len(got) != 0 {
		t.Errorf("expected empty ideas on model failure, got %v", got)
	}
}

func TestNilProviderReturnsEmpty(t *testing.T) {
	s := NewSynthesizer(nil, 0, zap.NewNop().Sugar())
	got := s.FromResearch(context.Background(), satPersona(), research.Bundle{}, 3, nil)
	if len(got) != 0 {
		t.Errorf("expected empty ideas without a provider, got %v", got)
	}
}

func TestTruncatedResponseSalvaged(t *testing.T) {
	p := &scriptedProvider{
		response: `[{"title": "Whole", "concept": "c"}, {"title": "Cut of`,
	}
	s := NewSynthesizer(p, 0, zap.NewNop().Sugar())

	got := s.FromResearch(context.Background(), satPersona(), research.Bundle{}, 3, nil)
	if len(got) != 1 || got[0].Title != "Whole" {
		t.Fatalf("expected the complete record salvaged, got %v", got)
	}
}

func TestFromInsightsTagsOrigin(t *testing.T) {
	p := &scriptedProvider{response: `[{"title": "Lean into vocab"}]`}
	s := NewSynthesizer(p, 0, zap.NewNop().Sugar())

	got := s.FromInsights(context.Background(), satPersona(), 2, nil)
	if len(got) != 1 || got[0].Source != OriginInsights {
		t.Fatalf("expected insights-tagged idea, got %v", got)
	}
}

func TestDigestBundleCapsPerSource(t *testing.T) {
	var items []research.Item
	for i := 0; i < 15; i++ {
		items = append(items, research.Item{Title: fmt.Sprintf("Item %02d", i)})
	}
	digest := digestBundle(research.Bundle{research.SourceNews: items})

	if strings.Count(digest, "- Item") != 10 {
		t.Errorf("expected digest capped at 10 items per source, got %d", strings.Count(digest, "- Item"))
	}
}

func TestDefaultsFilled(t *testing.T) {
	recs := []map[string]any{{"title": "Bare"}}
	out := validate(recs, 5, nil, OriginResearch)
	if len(out) != 1 {
		t.Fatalf("expected 1 idea, got %d", len(out))
	}
	idea := out[0]
	if idea.EngagementPrediction != "medium" || idea.Status != StatusPending || idea.Concept != "" {
		t.Errorf("unexpected defaults: %+v", idea)
	}
}
