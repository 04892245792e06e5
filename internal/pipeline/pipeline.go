// Package pipeline orchestrates a full content run: research, idea
// synthesis, script composition, visual planning, and artifact persistence.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TobiSchelling/reelforge/internal/ideas"
	"github.com/TobiSchelling/reelforge/internal/persona"
	"github.com/TobiSchelling/reelforge/internal/research"
	"github.com/TobiSchelling/reelforge/internal/script"
	"github.com/TobiSchelling/reelforge/internal/store"
	"github.com/TobiSchelling/reelforge/internal/visual"
)

// State is the orchestrator's position in a run.
type State string

// Run states, in order. Failed is reachable only from a persistence error.
const (
	StateStarted         State = "started"
	StateResearching     State = "researching"
	StateSynthesizing    State = "synthesizing"
	StateComposing       State = "composing"
	StatePlanningVisuals State = "planning_visuals"
	StatePersisted       State = "persisted"
	StateFailed          State = "failed"
)

// Metadata records how a run went.
type Metadata struct {
	RunID         string            `json:"run_id"`
	State         State             `json:"state"`
	SkipResearch  bool              `json:"skip_research"`
	StartedAt     string            `json:"started_at"`
	FinishedAt    string            `json:"finished_at"`
	StageDuration map[string]string `json:"stage_durations"`
	Counts        map[string]int    `json:"counts"`
}

// RunArtifact is the complete, immutable output of one pipeline run.
type RunArtifact struct {
	ID           string          `json:"id"`
	Date         string          `json:"date"`
	PersonaID    string          `json:"persona_id"`
	Niche        string          `json:"niche"`
	ResearchData research.Bundle `json:"research_data"`
	ContentIdeas []ideas.Idea    `json:"content_ideas"`
	Scripts      []script.Script `json:"scripts"`
	Visuals      []visual.Plan   `json:"visuals"`
	Metadata     Metadata        `json:"metadata"`
}

// Orchestrator wires the stages together. Upstream failures degrade to empty
// sections of the artifact; only persona lookup and persistence can fail a
// run.
type Orchestrator struct {
	personas       *persona.Store
	aggregator     *research.Aggregator
	synthesizer    *ideas.Synthesizer
	composer       *script.Composer
	planner        *visual.Planner
	backend        store.Store
	itemsPerSource int
	log            *zap.SugaredLogger
	now            func() time.Time
}

// New creates an orchestrator.
func New(
	personas *persona.Store,
	aggregator *research.Aggregator,
	synthesizer *ideas.Synthesizer,
	composer *script.Composer,
	planner *visual.Planner,
	backend store.Store,
	itemsPerSource int,
	log *zap.SugaredLogger,
) *Orchestrator {
	if itemsPerSource <= 0 {
		itemsPerSource = 10
	}
	return &Orchestrator{
		personas:       personas,
		aggregator:     aggregator,
		synthesizer:    synthesizer,
		composer:       composer,
		planner:        planner,
		backend:        backend,
		itemsPerSource: itemsPerSource,
		log:            log,
		now:            time.Now,
	}
}

// Run executes the full pipeline for one persona. With skipResearch set, the
// synthesizer works from the persona's learned patterns instead of fresh
// research. The returned artifact is persisted before Run returns; the only
// failure modes are an unknown persona, cancellation, and persistence.
func (o *Orchestrator) Run(ctx context.Context, personaID string, ideasCount int, skipResearch bool) (*RunArtifact, error) {
	started := o.now()
	state := StateStarted
	o.log.Infow("run started", "persona", personaID, "ideas", ideasCount, "skip_research", skipResearch)

	p, err := o.personas.Get(ctx, personaID)
	if err != nil {
		return nil, fmt.Errorf("loading persona %s: %w", personaID, err)
	}

	artifact := &RunArtifact{
		ID:           fmt.Sprintf("%s_%s_%s", started.Format(persona.DateLayout), started.Format("150405"), personaID),
		Date:         started.Format(persona.DateLayout),
		PersonaID:    personaID,
		Niche:        p.BasicInfo.Niche,
		ResearchData: research.Bundle{},
		Metadata: Metadata{
			RunID:         uuid.NewString(),
			SkipResearch:  skipResearch,
			StartedAt:     started.Format(time.RFC3339),
			StageDuration: make(map[string]string),
			Counts:        make(map[string]int),
		},
	}
	priorTitles := o.priorIdeaTitles(ctx, personaID)

	// Researching.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	state = StateResearching
	if !skipResearch {
		o.timed(artifact, state, func() {
			artifact.ResearchData = o.aggregator.Fetch(ctx, p.BasicInfo.Niche, o.itemsPerSource)
		})
	}
	artifact.Metadata.Counts["research_items"] = artifact.ResearchData.TotalItems()

	// Synthesizing.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	state = StateSynthesizing
	o.timed(artifact, state, func() {
		if skipResearch {
			artifact.ContentIdeas = o.synthesizer.FromInsights(ctx, p, ideasCount, priorTitles)
		} else {
			artifact.ContentIdeas = o.synthesizer.FromResearch(ctx, p, artifact.ResearchData, ideasCount, priorTitles)
		}
	})
	artifact.Metadata.Counts["ideas"] = len(artifact.ContentIdeas)

	// Composing.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	state = StateComposing
	o.timed(artifact, state, func() {
		artifact.Scripts = o.composer.ComposeAll(ctx, p, artifact.ContentIdeas)
	})
	artifact.Metadata.Counts["scripts"] = len(artifact.Scripts)

	// PlanningVisuals.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	state = StatePlanningVisuals
	o.timed(artifact, state, func() {
		artifact.Visuals = o.planner.PlanAll(ctx, p, artifact.Scripts, artifact.ContentIdeas)
	})
	artifact.Metadata.Counts["visuals"] = len(artifact.Visuals)

	// Persisting. Everything upstream has produced at least an empty result,
	// so the artifact is well-formed regardless of partial failures.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	artifact.Metadata.State = StatePersisted
	artifact.Metadata.FinishedAt = o.now().Format(time.RFC3339)
	if err := store.PutJSON(ctx, o.backend, store.CollectionArtifacts, artifact.ID, artifact); err != nil {
		artifact.Metadata.State = StateFailed
		o.log.Errorw("run failed to persist", "persona", personaID, "artifact", artifact.ID, "error", err)
		return nil, fmt.Errorf("persisting run artifact: %w", err)
	}

	o.log.Infow("run persisted",
		"persona", personaID, "artifact", artifact.ID,
		"ideas", len(artifact.ContentIdeas), "scripts", len(artifact.Scripts))
	return artifact, nil
}

func (o *Orchestrator) timed(artifact *RunArtifact, state State, fn func()) {
	begin := o.now()
	fn()
	artifact.Metadata.StageDuration[string(state)] = o.now().Sub(begin).Round(time.Millisecond).String()
}

// priorIdeaTitles collects idea titles from this persona's earlier run
// artifacts so the synthesizer can avoid repeating them. Best-effort: a read
// failure just yields an empty list.
func (o *Orchestrator) priorIdeaTitles(ctx context.Context, personaID string) []string {
	records, err := o.backend.List(ctx, store.CollectionArtifacts, "")
	if err != nil {
		o.log.Warnw("could not list prior artifacts", "error", err)
		return nil
	}

	var titles []string
	for i := len(records) - 1; i >= 0; i-- {
		var prior RunArtifact
		if err := json.Unmarshal(records[i], &prior); err != nil || prior.PersonaID != personaID {
			continue
		}
		for _, idea := range prior.ContentIdeas {
			titles = append(titles, idea.Title)
		}
	}
	return titles
}

// LoadArtifact reads a persisted run artifact by id.
func LoadArtifact(ctx context.Context, backend store.Store, id string) (*RunArtifact, error) {
	var artifact RunArtifact
	if err := store.GetJSON(ctx, backend, store.CollectionArtifacts, id, &artifact); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// ListArtifacts reads all persisted run artifacts, optionally filtered by a
// date prefix.
func ListArtifacts(ctx context.Context, backend store.Store, datePrefix string) ([]RunArtifact, error) {
	records, err := backend.List(ctx, store.CollectionArtifacts, datePrefix)
	if err != nil {
		return nil, err
	}
	artifacts := make([]RunArtifact, 0, len(records))
	for _, raw := range records {
		var a RunArtifact
		if err := json.Unmarshal(raw, &a); err != nil {
			continue
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}
