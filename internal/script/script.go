// Package script turns approved content ideas into reel scripts in the
// persona's voice.
package script

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/reelforge/internal/ideas"
	"github.com/TobiSchelling/reelforge/internal/llm"
	"github.com/TobiSchelling/reelforge/internal/persona"
)

// Script statuses.
const (
	StatusDraft       = "draft"
	StatusNeedsReview = "needs_review"
)

// WordsPerSecond is the speaking rate used to estimate reel duration.
const WordsPerSecond = 2.5

// maxExemplars bounds how many prior reel scripts are embedded in prompts.
const maxExemplars = 3

// Script is a composed reel script derived from one Idea.
type Script struct {
	Title             string  `json:"title"`
	Hook              string  `json:"hook"`
	MainContent       string  `json:"main_content"`
	CTA               string  `json:"cta"`
	FullScript        string  `json:"full_script"`
	WordCount         int     `json:"word_count"`
	EstimatedDuration float64 `json:"estimated_duration_seconds"`
	Status            string  `json:"status"`
}

// Composer writes scripts for ideas, one independent model call per idea,
// bounded by a concurrency limit.
type Composer struct {
	provider    llm.Provider
	retries     int
	concurrency int
	maxTokens   int
	log         *zap.SugaredLogger
}

// NewComposer creates a composer. A nil provider makes every composition
// fall back to the flagged default.
func NewComposer(provider llm.Provider, retries, concurrency int, log *zap.SugaredLogger) *Composer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Composer{
		provider:    provider,
		retries:     retries,
		concurrency: concurrency,
		maxTokens:   1200,
		log:         log,
	}
}

// ComposeAll writes one script per idea, in input order. Rejected ideas are
// skipped. Individual failures yield flagged default scripts, never errors.
func (c *Composer) ComposeAll(ctx context.Context, p *persona.Persona, ideaList []ideas.Idea) []Script {
	var kept []ideas.Idea
	for _, idea := range ideaList {
		if idea.Status != ideas.StatusRejected {
			kept = append(kept, idea)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	scripts := make([]Script, len(kept))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, idea := range kept {
		g.Go(func() error {
			scripts[i] = c.Compose(gctx, p, idea)
			return nil
		})
	}
	g.Wait()
	return scripts
}

// Compose writes a single script for an idea.
func (c *Composer) Compose(ctx context.Context, p *persona.Persona, idea ideas.Idea) Script {
	if c.provider == nil {
		return c.fallback(p, idea, "no model provider")
	}

	prompt := c.prompt(p, idea)
	text, err := llm.GenerateWithRetry(ctx, c.provider, prompt, c.maxTokens, c.retries)
	if err != nil {
		return c.fallback(p, idea, err.Error())
	}

	parsed := llm.ParseObject(text)
	if parsed == nil {
		return c.fallback(p, idea, "unparseable response")
	}

	s := Script{
		Title:       idea.Title,
		Hook:        llm.GetString(parsed, "hook", idea.Hook),
		MainContent: llm.GetString(parsed, "main_content", ""),
		CTA:         llm.GetString(parsed, "cta", ""),
		FullScript:  llm.GetString(parsed, "full_script", ""),
		WordCount:   llm.GetInt(parsed, "word_count", 0),
		Status:      StatusDraft,
	}
	finalize(&s)
	return s
}

// fallback builds a clearly-flagged default script echoing the idea's fields.
func (c *Composer) fallback(p *persona.Persona, idea ideas.Idea, cause string) Script {
	c.log.Warnw("script composition fell back to default",
		"persona", p.PersonaID, "idea", idea.Title, "cause", cause)

	s := Script{
		Title:       idea.Title,
		Hook:        idea.Hook,
		MainContent: idea.Concept,
		CTA:         "",
		Status:      StatusNeedsReview,
	}
	finalize(&s)
	return s
}

// finalize fills derived fields: assembled full script, word count, and
// estimated duration at the fixed speaking rate.
func finalize(s *Script) {
	if s.FullScript == "" {
		parts := []string{}
		for _, part := range []string{s.Hook, s.MainContent, s.CTA} {
			if strings.TrimSpace(part) != "" {
				parts = append(parts, strings.TrimSpace(part))
			}
		}
		s.FullScript = strings.Join(parts, "\n\n")
	}
	if s.WordCount == 0 {
		s.WordCount = len(strings.Fields(s.FullScript))
	}
	if s.EstimatedDuration == 0 {
		s.EstimatedDuration = float64(s.WordCount) / WordsPerSecond
	}
}

func (c *Composer) prompt(p *persona.Persona, idea ideas.Idea) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You write scripts for short vertical videos.\n\n")
	fmt.Fprintf(&b, "Creator profile:\n%s\n", p.StyleSummary())
	fmt.Fprintf(&b, "Idea to script:\nTitle: %s\nConcept: %s\nHook direction: %s\n", idea.Title, idea.Concept, idea.Hook)
	if len(idea.KeyPoints) > 0 {
		fmt.Fprintf(&b, "Key points: %s\n", strings.Join(idea.KeyPoints, "; "))
	}
	b.WriteString("\n")

	if exemplars := p.SampleScripts(maxExemplars); len(exemplars) > 0 {
		b.WriteString("Prior scripts in this creator's voice:\n")
		for i, ex := range exemplars {
			fmt.Fprintf(&b, "--- example %d ---\n%s\n", i+1, ex)
		}
		b.WriteString("\n")
	}

	b.WriteString(`Write a 30-60 second script. Respond with a JSON object only:
{"hook": "...", "main_content": "...", "cta": "...", "full_script": "...", "word_count": 0}
`)
	return b.String()
}
