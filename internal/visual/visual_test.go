package visual

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/TobiSchelling/reelforge/internal/ideas"
	"github.com/TobiSchelling/reelforge/internal/persona"
	"github.com/TobiSchelling/reelforge/internal/script"
)

type scriptedProvider struct {
	response string
	err      error
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return p.response, p.err
}

func (p *scriptedProvider) IsConfigured() bool { return true }

func testScript() script.Script {
	return script.Script{
		Title:             "Pacing tricks",
		Hook:              "Stop losing points to the clock.",
		FullScript:        "Stop losing points to the clock. Here is the fix. Follow along.",
		WordCount:         12,
		EstimatedDuration: 30,
		Status:            script.StatusDraft,
	}
}

func TestPlanParsesResponse(t *testing.T) {
	p := &scriptedProvider{
		response: `{"b_roll": ["Stopwatch macro shot"], "text_overlays": [{"time": "0s", "text": "Clock check"}], "animations": ["Zoom"], "color_scheme": {"background": "#101010", "text": "#FAFAFA", "accent": "#00FF88", "mood": "Energetic"}, "music_suggestions": ["Fast drums"], "shot_list": [{"number": 1, "duration_seconds": 30, "description": "Full take", "shot_type": "medium"}]}`,
	}
	pl := NewPlanner(p, 0, 2, zap.NewNop().Sugar())

	plan := pl.Plan(context.Background(), &persona.Persona{}, testScript(), ideas.Idea{Title: "Pacing tricks"})

	if plan.Status != StatusPlanned {
		t.Errorf("expected planned status, got %q", plan.Status)
	}
	if plan.Title != "Pacing tricks" {
		t.Errorf("expected title carried from script, got %q", plan.Title)
	}
	if plan.ColorScheme.Accent != "#00FF88" {
		t.Errorf("unexpected accent: %q", plan.ColorScheme.Accent)
	}
	if len(plan.BRoll) != 1 || plan.BRoll[0] != "Stopwatch macro shot" {
		t.Errorf("unexpected b-roll: %v", plan.BRoll)
	}
}

func TestPlanFallbackFullyPopulated(t *testing.T) {
	p := &scriptedProvider{err: errors.New("timeout")}
	pl := NewPlanner(p, 0, 2, zap.NewNop().Sugar())

	plan := pl.Plan(context.Background(), &persona.Persona{}, testScript(), ideas.Idea{})

	if plan.Status != StatusDefault {
		t.Errorf("expected default status, got %q", plan.Status)
	}
	if len(plan.BRoll) == 0 || len(plan.TextOverlays) == 0 || len(plan.Animations) == 0 ||
		len(plan.MusicSuggestions) == 0 || len(plan.ShotList) == 0 {
		t.Errorf("fallback plan must be fully populated: %+v", plan)
	}
	if plan.ColorScheme.Background != "#000000" || plan.ColorScheme.Text != "#FFFFFF" ||
		plan.ColorScheme.Accent != "#FF0000" || plan.ColorScheme.Mood != "Neutral" {
		t.Errorf("unexpected default color scheme: %+v", plan.ColorScheme)
	}
	if plan.TextOverlays[0].Text != "Stop losing points to the clock." {
		t.Errorf("expected hook as opening overlay, got %q", plan.TextOverlays[0].Text)
	}
}

func TestPlanFallbackShotListSpansDuration(t *testing.T) {
	pl := NewPlanner(nil, 0, 2, zap.NewNop().Sugar())

	plan := pl.Plan(context.Background(), &persona.Persona{}, testScript(), ideas.Idea{})

	var total float64
	for _, shot := range plan.ShotList {
		total += shot.Duration
	}
	if total < 29.9 || total > 30.1 {
		t.Errorf("shot list should span the 30s estimate, got %f", total)
	}
}

func TestPlanUsesPersonaPreferencesInDefaults(t *testing.T) {
	pl := NewPlanner(nil, 0, 2, zap.NewNop().Sugar())
	p := &persona.Persona{
		StyleGuide: persona.StyleGuide{
			VisualPreferences: persona.VisualPreferences{
				ColorMood:   "Warm",
				MusicStyles: []string{"Lo-fi piano"},
			},
		},
	}

	plan := pl.Plan(context.Background(), p, testScript(), ideas.Idea{})

	if plan.ColorScheme.Mood != "Warm" {
		t.Errorf("expected persona color mood, got %q", plan.ColorScheme.Mood)
	}
	if len(plan.MusicSuggestions) != 1 || plan.MusicSuggestions[0] != "Lo-fi piano" {
		t.Errorf("expected persona music styles, got %v", plan.MusicSuggestions)
	}
}

func TestPlanUnparseableResponseFallsBack(t *testing.T) {
	p := &scriptedProvider{response: "here are some nice visuals for you"}
	pl := NewPlanner(p, 0, 2, zap.NewNop().Sugar())

	plan := pl.Plan(context.Background(), &persona.Persona{}, testScript(), ideas.Idea{})
	if plan.Status != StatusDefault {
		t.Errorf("expected default status, got %q", plan.Status)
	}
}

func TestPlanAllOrderPreserved(t *testing.T) {
	pl := NewPlanner(nil, 0, 3, zap.NewNop().Sugar())

	scripts := []script.Script{
		{Title: "First", EstimatedDuration: 20},
		{Title: "Second", EstimatedDuration: 25},
		{Title: "Third", EstimatedDuration: 30},
	}
	plans := pl.PlanAll(context.Background(), &persona.Persona{}, scripts, nil)

	if len(plans) != 3 {
		t.Fatalf("expected 3 plans, got %d", len(plans))
	}
	for i, want := range []string{"First", "Second", "Third"} {
		if plans[i].Title != want {
			t.Errorf("plan %d: expected %q, got %q", i, want, plans[i].Title)
		}
	}
}
