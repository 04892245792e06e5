package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/TobiSchelling/reelforge/internal/ideas"
	"github.com/TobiSchelling/reelforge/internal/persona"
	"github.com/TobiSchelling/reelforge/internal/research"
	"github.com/TobiSchelling/reelforge/internal/script"
	"github.com/TobiSchelling/reelforge/internal/store"
	"github.com/TobiSchelling/reelforge/internal/visual"
)

type fakeSource struct {
	name string
	err  error
}

func (f *fakeSource) Name() string       { return f.name }
func (f *fakeSource) IsConfigured() bool { return true }

func (f *fakeSource) Fetch(ctx context.Context, topic string, limit int) ([]research.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []research.Item{{Source: f.name, Title: f.name + " item about " + topic}}, nil
}

type fakeProvider struct {
	response string
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return f.response, nil
}

func (f *fakeProvider) IsConfigured() bool { return true }

// failingStore wraps a working store but refuses artifact writes.
type failingStore struct {
	store.Store
}

func (f *failingStore) Put(ctx context.Context, collection, id string, record json.RawMessage) error {
	if collection == store.CollectionArtifacts {
		return &store.PersistenceError{Op: "put", Err: errors.New("disk full")}
	}
	return f.Store.Put(ctx, collection, id, record)
}

func newOrchestrator(t *testing.T, backend store.Store, sources []research.Source, ideaResponse string) *Orchestrator {
	t.Helper()
	log := zap.NewNop().Sugar()

	personas := persona.NewStore(backend, log)
	if err := personas.Create(context.Background(), persona.Persona{
		PersonaID: "sat_coach",
		BasicInfo: persona.BasicInfo{Niche: "SAT Exam Preparation"},
	}); err != nil {
		t.Fatalf("creating persona: %v", err)
	}

	provider := &fakeProvider{response: ideaResponse}
	return New(
		personas,
		research.NewAggregator(sources, log),
		ideas.NewSynthesizer(provider, 0, log),
		script.NewComposer(provider, 0, 2, log),
		visual.NewPlanner(nil, 0, 2, log),
		backend,
		10,
		log,
	)
}

func fiveSources(failing string) []research.Source {
	var sources []research.Source
	for _, name := range []string{
		research.SourceSocial, research.SourceNews, research.SourceVideo,
		research.SourceWebSearch, research.SourceForum,
	} {
		src := &fakeSource{name: name}
		if name == failing {
			src.err = errors.New("upstream down")
		}
		sources = append(sources, src)
	}
	return sources
}

func TestRunReachesPersistedDespiteSourceFailure(t *testing.T) {
	ctx := context.Background()
	backend, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating backend: %v", err)
	}
	o := newOrchestrator(t, backend, fiveSources(research.SourceNews),
		`[{"title": "Idea one", "hook": "H"}, {"title": "Idea two"}]`)

	artifact, err := o.Run(ctx, "sat_coach", 2, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if artifact.Metadata.State != StatePersisted {
		t.Errorf("expected persisted state, got %q", artifact.Metadata.State)
	}
	if len(artifact.ResearchData[research.SourceNews]) != 0 {
		t.Errorf("failed source should be empty, got %v", artifact.ResearchData[research.SourceNews])
	}
	for _, name := range []string{research.SourceSocial, research.SourceVideo, research.SourceWebSearch, research.SourceForum} {
		if len(artifact.ResearchData[name]) == 0 {
			t.Errorf("source %s should have results", name)
		}
	}
	if len(artifact.ContentIdeas) != 2 || len(artifact.Scripts) != 2 || len(artifact.Visuals) != 2 {
		t.Errorf("unexpected section sizes: %d ideas, %d scripts, %d visuals",
			len(artifact.ContentIdeas), len(artifact.Scripts), len(artifact.Visuals))
	}

	loaded, err := LoadArtifact(ctx, backend, artifact.ID)
	if err != nil {
		t.Fatalf("loading artifact: %v", err)
	}
	if loaded.PersonaID != "sat_coach" || loaded.Niche != "SAT Exam Preparation" {
		t.Errorf("unexpected persisted artifact: %+v", loaded)
	}
}

func TestRunArtifactIDShape(t *testing.T) {
	backend, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating backend: %v", err)
	}
	o := newOrchestrator(t, backend, fiveSources(""), `[{"title": "A"}]`)

	artifact, err := o.Run(context.Background(), "sat_coach", 1, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	parts := strings.Split(artifact.ID, "_")
	if len(parts) < 3 {
		t.Fatalf("expected date_time_persona id, got %q", artifact.ID)
	}
	if parts[0] != artifact.Date {
		t.Errorf("id should start with the run date: %q vs %q", parts[0], artifact.Date)
	}
	if len(parts[1]) != 6 {
		t.Errorf("expected HHMMSS time component, got %q", parts[1])
	}
	if !strings.HasSuffix(artifact.ID, "sat_coach") {
		t.Errorf("id should end with the persona id: %q", artifact.ID)
	}
}

func TestRunPersistenceFailurePropagates(t *testing.T) {
	inner, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating backend: %v", err)
	}
	backend := &failingStore{Store: inner}
	o := newOrchestrator(t, backend, fiveSources(""), `[{"title": "A"}]`)

	_, err = o.Run(context.Background(), "sat_coach", 1, false)
	if err == nil {
		t.Fatal("expected persistence failure to propagate")
	}
	var perr *store.PersistenceError
	if !errors.As(err, &perr) {
		t.Errorf("expected a persistence error, got %v", err)
	}
}

func TestRunUnknownPersona(t *testing.T) {
	backend, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating backend: %v", err)
	}
	o := newOrchestrator(t, backend, fiveSources(""), `[]`)

	if _, err := o.Run(context.Background(), "nobody", 1, false); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestRunSkipResearch(t *testing.T) {
	backend, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating backend: %v", err)
	}
	o := newOrchestrator(t, backend, fiveSources(""), `[{"title": "From patterns"}]`)

	artifact, err := o.Run(context.Background(), "sat_coach", 1, true)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if artifact.ResearchData.TotalItems() != 0 {
		t.Errorf("expected no research items, got %d", artifact.ResearchData.TotalItems())
	}
	if len(artifact.ContentIdeas) != 1 || artifact.ContentIdeas[0].Source != ideas.OriginInsights {
		t.Errorf("expected insights-tagged ideas, got %v", artifact.ContentIdeas)
	}
}

func TestRunSuppressesPriorRunTitles(t *testing.T) {
	ctx := context.Background()
	backend, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating backend: %v", err)
	}
	o := newOrchestrator(t, backend, fiveSources(""), `[{"title": "Repeat me"}]`)

	first, err := o.Run(ctx, "sat_coach", 1, false)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first.ContentIdeas) != 1 {
		t.Fatalf("expected 1 idea in first run, got %d", len(first.ContentIdeas))
	}

	second, err := o.Run(ctx, "sat_coach", 1, false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second.ContentIdeas) != 0 {
		t.Errorf("expected repeated title suppressed in second run, got %v", second.ContentIdeas)
	}
}

func TestRunCancellation(t *testing.T) {
	backend, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating backend: %v", err)
	}
	o := newOrchestrator(t, backend, fiveSources(""), `[]`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := o.Run(ctx, "sat_coach", 1, false); !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation error, got %v", err)
	}
}

func TestListArtifactsByDatePrefix(t *testing.T) {
	ctx := context.Background()
	backend, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating backend: %v", err)
	}
	o := newOrchestrator(t, backend, fiveSources(""), `[{"title": "A"}]`)

	artifact, err := o.Run(ctx, "sat_coach", 1, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	listed, err := ListArtifacts(ctx, backend, artifact.Date)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != artifact.ID {
		t.Errorf("expected the run artifact listed, got %v", listed)
	}
}
