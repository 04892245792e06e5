// Package persona manages creator profiles: their style guide, reel history,
// and the patterns derived from that history.
package persona

import (
	"fmt"
	"strings"
	"time"
)

// Persona is a configured creator profile that parameterizes generation.
type Persona struct {
	PersonaID       string          `json:"persona_id"`
	BasicInfo       BasicInfo       `json:"basic_info"`
	StyleGuide      StyleGuide      `json:"style_guide"`
	ExistingReels   []Reel          `json:"existing_reels"`
	LearnedPatterns LearnedPatterns `json:"learned_patterns"`
	CreatedAt       string          `json:"created_at,omitempty"`
}

// BasicInfo holds the persona's positioning.
type BasicInfo struct {
	Niche          string   `json:"niche"`
	TargetAudience string   `json:"target_audience"`
	Tone           string   `json:"tone"`
	Hashtags       []string `json:"hashtags,omitempty"`
}

// StyleGuide describes how the persona writes and what it avoids.
type StyleGuide struct {
	HookStyle         string            `json:"hook_style"`
	ContentStyle      string            `json:"content_style"`
	CTAStyle          string            `json:"cta_style"`
	Avoid             []string          `json:"avoid,omitempty"`
	VisualPreferences VisualPreferences `json:"visual_preferences"`
}

// VisualPreferences steer the visual planner's defaults.
type VisualPreferences struct {
	Pace        string   `json:"pace,omitempty"`
	TextHeavy   bool     `json:"text_heavy,omitempty"`
	ColorMood   string   `json:"color_mood,omitempty"`
	MusicStyles []string `json:"music_styles,omitempty"`
}

// Reel is one published piece of the persona's history. Append-only; only the
// engagement numbers may be updated after the fact.
type Reel struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Script     string     `json:"script"`
	Engagement Engagement `json:"engagement"`
	Date       string     `json:"date"`
}

// Engagement holds raw audience-response counts for a reel.
type Engagement struct {
	Views    int `json:"views"`
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Shares   int `json:"shares"`
	Saves    int `json:"saves"`
}

// LearnedPatterns is derived wholesale from ExistingReels on every learning
// trigger; it is never incrementally merged.
type LearnedPatterns struct {
	AvgScriptLength     float64  `json:"avg_script_length"`
	CommonTopics        []string `json:"common_topics"`
	BestPerformingHooks []string `json:"best_performing_hooks"`
	AvgEngagementRate   float64  `json:"avg_engagement_rate"`
}

// DateLayout is the calendar-date form used for reels, cache keys, and run
// artifacts.
const DateLayout = "2006-01-02"

// NextReelID returns the id the next appended reel will receive.
func (p *Persona) NextReelID() string {
	return fmt.Sprintf("reel_%03d", len(p.ExistingReels)+1)
}

// ReelTitles returns the titles of every reel in the persona's history.
func (p *Persona) ReelTitles() []string {
	titles := make([]string, 0, len(p.ExistingReels))
	for _, r := range p.ExistingReels {
		titles = append(titles, r.Title)
	}
	return titles
}

// RecentReelTitles returns titles of reels dated within the last `days`
// calendar days relative to now. Reels with unparseable dates are treated as
// recent so they are never accidentally resurfaced.
func (p *Persona) RecentReelTitles(now time.Time, days int) []string {
	cutoff := now.AddDate(0, 0, -days)
	var titles []string
	for _, r := range p.ExistingReels {
		d, err := time.Parse(DateLayout, r.Date)
		if err != nil || !d.Before(cutoff) {
			titles = append(titles, r.Title)
		}
	}
	return titles
}

// StyleSummary renders the persona's voice as a compact prompt fragment.
func (p *Persona) StyleSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Niche: %s\n", p.BasicInfo.Niche)
	fmt.Fprintf(&b, "Target audience: %s\n", p.BasicInfo.TargetAudience)
	fmt.Fprintf(&b, "Tone: %s\n", p.BasicInfo.Tone)
	fmt.Fprintf(&b, "Hook style: %s\n", p.StyleGuide.HookStyle)
	fmt.Fprintf(&b, "Content style: %s\n", p.StyleGuide.ContentStyle)
	fmt.Fprintf(&b, "Call-to-action style: %s\n", p.StyleGuide.CTAStyle)
	if len(p.StyleGuide.Avoid) > 0 {
		fmt.Fprintf(&b, "Avoid: %s\n", strings.Join(p.StyleGuide.Avoid, ", "))
	}
	if len(p.LearnedPatterns.BestPerformingHooks) > 0 {
		fmt.Fprintf(&b, "Hooks that performed well before:\n")
		for _, h := range p.LearnedPatterns.BestPerformingHooks {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	if len(p.LearnedPatterns.CommonTopics) > 0 {
		fmt.Fprintf(&b, "Recurring topics: %s\n", strings.Join(p.LearnedPatterns.CommonTopics, ", "))
	}
	return b.String()
}

// SampleScripts returns up to n of the most recent reel scripts, newest first,
// for use as style exemplars in prompts.
func (p *Persona) SampleScripts(n int) []string {
	var scripts []string
	for i := len(p.ExistingReels) - 1; i >= 0 && len(scripts) < n; i-- {
		if s := strings.TrimSpace(p.ExistingReels[i].Script); s != "" {
			scripts = append(scripts, s)
		}
	}
	return scripts
}
