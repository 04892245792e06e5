package render

import (
	"strings"
	"testing"

	"github.com/TobiSchelling/reelforge/internal/ideas"
	"github.com/TobiSchelling/reelforge/internal/pipeline"
	"github.com/TobiSchelling/reelforge/internal/research"
	"github.com/TobiSchelling/reelforge/internal/script"
	"github.com/TobiSchelling/reelforge/internal/visual"
)

func testArtifact() *pipeline.RunArtifact {
	return &pipeline.RunArtifact{
		ID:        "2026-08-31_120000_sat_coach",
		Date:      "2026-08-31",
		PersonaID: "sat_coach",
		Niche:     "SAT Exam Preparation",
		ResearchData: research.Bundle{
			research.SourceForum: {
				{Source: "forum", Title: "Scoring | strategies thread", Likes: 42},
			},
		},
		ContentIdeas: []ideas.Idea{
			{Title: "Beat the clock", Concept: "Pacing drills", Source: "research", EngagementPrediction: "high"},
		},
		Scripts: []script.Script{
			{Title: "Beat the clock", FullScript: "Hook. Body. CTA.", WordCount: 3, EstimatedDuration: 1.2, Status: "draft"},
		},
		Visuals: []visual.Plan{
			{
				Title:            "Beat the clock",
				BRoll:            []string{"Stopwatch"},
				MusicSuggestions: []string{"Drums"},
				ColorScheme:      visual.ColorScheme{Background: "#000000", Text: "#FFFFFF", Accent: "#FF0000", Mood: "Neutral"},
				ShotList:         []visual.Shot{{Number: 1, Duration: 1.2, Description: "Full take", Type: "medium"}},
			},
		},
		Metadata: pipeline.Metadata{State: pipeline.StatePersisted},
	}
}

func TestMarkdownContainsAllSections(t *testing.T) {
	out := Markdown(testArtifact())

	for _, want := range []string{
		"# Content run 2026-08-31_120000_sat_coach",
		"## Research",
		"## Ideas",
		"## Script: Beat the clock",
		"## Visuals: Beat the clock",
		"Pacing drills",
		"Hook. Body. CTA.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownEscapesTablePipes(t *testing.T) {
	out := Markdown(testArtifact())
	if !strings.Contains(out, `Scoring \| strategies thread`) {
		t.Error("pipe in research title should be escaped in table")
	}
}

func TestMarkdownSkipsEmptySections(t *testing.T) {
	artifact := &pipeline.RunArtifact{ID: "x", PersonaID: "p"}
	out := Markdown(artifact)
	if strings.Contains(out, "## Research") || strings.Contains(out, "## Ideas") {
		t.Error("empty sections should be omitted")
	}
}

func TestHTMLWrapsRenderedMarkdown(t *testing.T) {
	out, err := HTML(testArtifact())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "<!DOCTYPE html>") {
		t.Error("expected full HTML document")
	}
	if !strings.Contains(out, "<h1") || !strings.Contains(out, "Beat the clock") {
		t.Error("expected converted markdown content")
	}
	if !strings.Contains(out, "<table>") {
		t.Error("expected research table rendered via GFM")
	}
}
