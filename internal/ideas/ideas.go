// Package ideas turns research bundles and persona history into ranked
// content ideas via a generative model.
package ideas

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/reelforge/internal/persona"
	"github.com/TobiSchelling/reelforge/internal/research"
)

// Idea statuses. New ideas start pending; review actions move them on.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Idea origins.
const (
	OriginResearch = "research"
	OriginInsights = "insights"
)

// Idea is one proposed piece of content.
type Idea struct {
	Title                string   `json:"title"`
	Concept              string   `json:"concept"`
	Hook                 string   `json:"hook"`
	KeyPoints            []string `json:"key_points,omitempty"`
	EngagementPrediction string   `json:"engagement_prediction"`
	Status               string   `json:"status"`
	Source               string   `json:"source"`
}

// Idea count bounds per run.
const (
	MinIdeas = 1
	MaxIdeas = 20
)

// Token budget parameters: a fixed overhead plus a per-idea allowance,
// capped.
const (
	tokenBase      = 500
	tokenPerIdea   = 500
	tokenBudgetCap = 8000
)

// ClampCount bounds a requested idea count.
func ClampCount(n int) int {
	if n < MinIdeas {
		return MinIdeas
	}
	if n > MaxIdeas {
		return MaxIdeas
	}
	return n
}

// TokenBudget computes the model output budget for n ideas.
func TokenBudget(n int) int {
	budget := tokenPerIdea*n + tokenBase
	if budget > tokenBudgetCap {
		return tokenBudgetCap
	}
	return budget
}

// Digest parameters.
const (
	maxItemsPerSource = 10
	maxAvoidEntries   = 20
	dedupWindowDays   = 30
)

// digestBundle condenses a research bundle into a compact prompt fragment,
// capped per source.
func digestBundle(bundle research.Bundle) string {
	if bundle.TotalItems() == 0 {
		return "(no research material available)"
	}

	var b strings.Builder
	for _, source := range []string{
		research.SourceSocial, research.SourceNews, research.SourceVideo,
		research.SourceWebSearch, research.SourceForum,
	} {
		items := bundle[source]
		if len(items) == 0 {
			continue
		}
		if len(items) > maxItemsPerSource {
			items = items[:maxItemsPerSource]
		}
		fmt.Fprintf(&b, "[%s]\n", source)
		for _, it := range items {
			fmt.Fprintf(&b, "- %s", it.Title)
			if it.Summary != "" {
				fmt.Fprintf(&b, ": %s", it.Summary)
			}
			if it.Views > 0 || it.Likes > 0 {
				fmt.Fprintf(&b, " (views %d, likes %d)", it.Views, it.Likes)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// suppressedTitles builds the full dedup set and the bounded, most-recent
// slice embedded in prompts. Priority order: prior run ideas, reels from the
// dedup window, then the rest of the history.
func suppressedTitles(p *persona.Persona, priorIdeaTitles, recentReelTitles []string) (map[string]bool, []string) {
	set := make(map[string]bool)
	var ordered []string
	add := func(title string) {
		title = strings.TrimSpace(title)
		if title == "" || set[title] {
			return
		}
		set[title] = true
		ordered = append(ordered, title)
	}

	for _, t := range priorIdeaTitles {
		add(t)
	}
	for _, t := range recentReelTitles {
		add(t)
	}
	for _, t := range p.ReelTitles() {
		add(t)
	}

	avoid := ordered
	if len(avoid) > maxAvoidEntries {
		avoid = avoid[:maxAvoidEntries]
	}
	return set, avoid
}
