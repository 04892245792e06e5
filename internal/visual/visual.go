// Package visual plans the production side of a reel: b-roll, overlays,
// colors, music, and a shot list.
package visual

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/reelforge/internal/ideas"
	"github.com/TobiSchelling/reelforge/internal/llm"
	"github.com/TobiSchelling/reelforge/internal/persona"
	"github.com/TobiSchelling/reelforge/internal/script"
)

// Plan statuses.
const (
	StatusPlanned = "planned"
	StatusDefault = "default"
)

// TextOverlay is on-screen text at a point in the reel.
type TextOverlay struct {
	Time string `json:"time"`
	Text string `json:"text"`
}

// Shot is one entry in the shot list.
type Shot struct {
	Number      int     `json:"number"`
	Duration    float64 `json:"duration_seconds"`
	Description string  `json:"description"`
	Type        string  `json:"shot_type"`
}

// ColorScheme is the reel's palette and mood.
type ColorScheme struct {
	Background string `json:"background"`
	Text       string `json:"text"`
	Accent     string `json:"accent"`
	Mood       string `json:"mood"`
}

// Plan is the visual production plan for one script.
type Plan struct {
	Title            string        `json:"title"`
	BRoll            []string      `json:"b_roll"`
	TextOverlays     []TextOverlay `json:"text_overlays"`
	Animations       []string      `json:"animations"`
	ColorScheme      ColorScheme   `json:"color_scheme"`
	MusicSuggestions []string      `json:"music_suggestions"`
	ShotList         []Shot        `json:"shot_list"`
	Status           string        `json:"status"`
}

// Planner produces visual plans, one independent model call per script.
type Planner struct {
	provider    llm.Provider
	retries     int
	concurrency int
	maxTokens   int
	log         *zap.SugaredLogger
}

// NewPlanner creates a planner. A nil provider makes every plan fall back to
// the populated default.
func NewPlanner(provider llm.Provider, retries, concurrency int, log *zap.SugaredLogger) *Planner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Planner{
		provider:    provider,
		retries:     retries,
		concurrency: concurrency,
		maxTokens:   900,
		log:         log,
	}
}

// PlanAll produces one plan per script, in input order, pairing each script
// with its source idea by title.
func (pl *Planner) PlanAll(ctx context.Context, p *persona.Persona, scripts []script.Script, ideaList []ideas.Idea) []Plan {
	if len(scripts) == 0 {
		return nil
	}
	byTitle := make(map[string]ideas.Idea, len(ideaList))
	for _, idea := range ideaList {
		byTitle[idea.Title] = idea
	}

	plans := make([]Plan, len(scripts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pl.concurrency)
	for i, s := range scripts {
		g.Go(func() error {
			plans[i] = pl.Plan(gctx, p, s, byTitle[s.Title])
			return nil
		})
	}
	g.Wait()
	return plans
}

// Plan produces a visual plan for one script.
func (pl *Planner) Plan(ctx context.Context, p *persona.Persona, s script.Script, idea ideas.Idea) Plan {
	if pl.provider == nil {
		return pl.fallback(p, s, "no model provider")
	}

	text, err := llm.GenerateWithRetry(ctx, pl.provider, pl.prompt(p, s, idea), pl.maxTokens, pl.retries)
	if err != nil {
		return pl.fallback(p, s, err.Error())
	}

	var plan Plan
	if uerr := json.Unmarshal([]byte(llm.StripFences(text)), &plan); uerr != nil {
		return pl.fallback(p, s, "unparseable response")
	}

	plan.Title = s.Title
	plan.Status = StatusPlanned
	fillDefaults(&plan, p, s)
	return plan
}

// fallback returns a fully populated default plan so downstream consumers
// never have to branch on missing visuals.
func (pl *Planner) fallback(p *persona.Persona, s script.Script, cause string) Plan {
	pl.log.Warnw("visual planning fell back to default",
		"persona", p.PersonaID, "script", s.Title, "cause", cause)

	plan := Plan{Title: s.Title, Status: StatusDefault}
	fillDefaults(&plan, p, s)
	return plan
}

// fillDefaults populates any section the model left empty.
func fillDefaults(plan *Plan, p *persona.Persona, s script.Script) {
	if len(plan.BRoll) == 0 {
		plan.BRoll = []string{
			"Talking-head close-up",
			"Screen capture or whiteboard insert",
			"Relevant stock footage matching the topic",
		}
	}
	if len(plan.TextOverlays) == 0 {
		hook := s.Hook
		if hook == "" {
			hook = s.Title
		}
		plan.TextOverlays = []TextOverlay{{Time: "0s", Text: hook}}
	}
	if len(plan.Animations) == 0 {
		plan.Animations = []string{"Quick cuts between shots", "Keyword pop-in on beat"}
	}
	if plan.ColorScheme == (ColorScheme{}) {
		plan.ColorScheme = ColorScheme{
			Background: "#000000",
			Text:       "#FFFFFF",
			Accent:     "#FF0000",
			Mood:       "Neutral",
		}
		if mood := p.StyleGuide.VisualPreferences.ColorMood; mood != "" {
			plan.ColorScheme.Mood = mood
		}
	}
	if len(plan.MusicSuggestions) == 0 {
		if styles := p.StyleGuide.VisualPreferences.MusicStyles; len(styles) > 0 {
			plan.MusicSuggestions = styles
		} else {
			plan.MusicSuggestions = []string{"Upbeat instrumental", "Trending low-key beat"}
		}
	}
	if len(plan.ShotList) == 0 {
		plan.ShotList = defaultShotList(s)
	}
}

// defaultShotList splits the script's estimated duration across hook, body,
// and close.
func defaultShotList(s script.Script) []Shot {
	total := s.EstimatedDuration
	if total <= 0 {
		total = 30
	}
	return []Shot{
		{Number: 1, Duration: total * 0.15, Description: "Hook, direct to camera", Type: "close-up"},
		{Number: 2, Duration: total * 0.7, Description: "Main content with b-roll cutaways", Type: "medium"},
		{Number: 3, Duration: total * 0.15, Description: "Call to action", Type: "close-up"},
	}
}

func (pl *Planner) prompt(p *persona.Persona, s script.Script, idea ideas.Idea) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You plan visuals for short vertical videos.\n\n")
	fmt.Fprintf(&b, "Creator niche: %s\n", p.BasicInfo.Niche)
	if pace := p.StyleGuide.VisualPreferences.Pace; pace != "" {
		fmt.Fprintf(&b, "Preferred pace: %s\n", pace)
	}
	fmt.Fprintf(&b, "\nScript (%.0fs, %d words):\n%s\n", s.EstimatedDuration, s.WordCount, s.FullScript)
	if idea.Concept != "" {
		fmt.Fprintf(&b, "\nUnderlying concept: %s\n", idea.Concept)
	}
	b.WriteString(`
Respond with a JSON object only:
{"b_roll": ["..."], "text_overlays": [{"time": "0s", "text": "..."}], "animations": ["..."], "color_scheme": {"background": "#000000", "text": "#FFFFFF", "accent": "#FF0000", "mood": "..."}, "music_suggestions": ["..."], "shot_list": [{"number": 1, "duration_seconds": 5, "description": "...", "shot_type": "..."}]}
`)
	return b.String()
}
