package persona

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TobiSchelling/reelforge/internal/store"
)

// ErrExists is returned by Create when the persona id is already taken.
var ErrExists = errors.New("persona already exists")

// ErrReelNotFound is returned when an engagement update names an unknown reel.
var ErrReelNotFound = errors.New("reel not found")

// Store persists personas and serializes mutations per persona id, so a
// learning recomputation never races an append for the same profile.
type Store struct {
	backend store.Store
	log     *zap.SugaredLogger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a persona store over the given persistence backend.
func NewStore(backend store.Store, log *zap.SugaredLogger) *Store {
	return &Store{
		backend: backend,
		log:     log,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *Store) lockFor(personaID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[personaID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[personaID] = l
	}
	return l
}

// Create stores a new persona. Fails if the id is already taken.
func (s *Store) Create(ctx context.Context, p Persona) error {
	if p.PersonaID == "" {
		return errors.New("persona id must not be empty")
	}

	l := s.lockFor(p.PersonaID)
	l.Lock()
	defer l.Unlock()

	_, err := s.backend.Get(ctx, store.CollectionPersonas, p.PersonaID)
	if err == nil {
		return fmt.Errorf("%w: %s", ErrExists, p.PersonaID)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if p.CreatedAt == "" {
		p.CreatedAt = time.Now().Format(DateLayout)
	}
	p.LearnedPatterns = Recompute(p.ExistingReels)

	if err := store.PutJSON(ctx, s.backend, store.CollectionPersonas, p.PersonaID, p); err != nil {
		return err
	}
	s.log.Infow("persona created", "persona", p.PersonaID, "niche", p.BasicInfo.Niche)
	return nil
}

// Get loads a persona by id.
func (s *Store) Get(ctx context.Context, personaID string) (*Persona, error) {
	var p Persona
	if err := store.GetJSON(ctx, s.backend, store.CollectionPersonas, personaID, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all stored personas ordered by id.
func (s *Store) List(ctx context.Context) ([]Persona, error) {
	records, err := s.backend.List(ctx, store.CollectionPersonas, "")
	if err != nil {
		return nil, err
	}
	personas := make([]Persona, 0, len(records))
	for _, raw := range records {
		var p Persona
		if err := json.Unmarshal(raw, &p); err != nil {
			s.log.Warnw("skipping undecodable persona record", "error", err)
			continue
		}
		personas = append(personas, p)
	}
	return personas, nil
}

// AppendReel adds a reel to the persona's history and recomputes the learned
// patterns from the full history. The whole update is one atomic
// read-modify-write for the persona.
func (s *Store) AppendReel(ctx context.Context, personaID, title, script string, e Engagement) (*Reel, error) {
	l := s.lockFor(personaID)
	l.Lock()
	defer l.Unlock()

	p, err := s.Get(ctx, personaID)
	if err != nil {
		return nil, err
	}

	reel := Reel{
		ID:         p.NextReelID(),
		Title:      title,
		Script:     script,
		Engagement: e,
		Date:       time.Now().Format(DateLayout),
	}
	p.ExistingReels = append(p.ExistingReels, reel)
	p.LearnedPatterns = Recompute(p.ExistingReels)

	if err := store.PutJSON(ctx, s.backend, store.CollectionPersonas, personaID, p); err != nil {
		return nil, err
	}
	s.log.Infow("reel appended", "persona", personaID, "reel", reel.ID, "title", title)
	return &reel, nil
}

// UpdateEngagement replaces a reel's engagement numbers by reel id and
// recomputes the learned patterns.
func (s *Store) UpdateEngagement(ctx context.Context, personaID, reelID string, e Engagement) error {
	l := s.lockFor(personaID)
	l.Lock()
	defer l.Unlock()

	p, err := s.Get(ctx, personaID)
	if err != nil {
		return err
	}

	found := false
	for i := range p.ExistingReels {
		if p.ExistingReels[i].ID == reelID {
			p.ExistingReels[i].Engagement = e
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s/%s", ErrReelNotFound, personaID, reelID)
	}

	p.LearnedPatterns = Recompute(p.ExistingReels)
	return store.PutJSON(ctx, s.backend, store.CollectionPersonas, personaID, p)
}
