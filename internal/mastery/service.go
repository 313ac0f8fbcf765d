package mastery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/jurisprep/internal/config"
)

// Repo is the persistence surface the service needs. The bool result of
// Get distinguishes "no record yet" from an error.
type Repo interface {
	Get(ctx context.Context, learnerID, skillID string) (State, bool, error)
	Save(ctx context.Context, s State) error
}

// Service is the single writer for mastery state. Concurrent attempts on
// the same (learner, skill) are serialized with a per-key mutex: the
// update rule is not commutative under read-modify-write, so a lost
// update would be a correctness bug rather than a performance nuance.
type Service struct {
	repo Repo
	cfg  config.Mastery

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a mastery service over the given repo.
func NewService(repo Repo, cfg config.Mastery) *Service {
	return &Service{
		repo:  repo,
		cfg:   cfg,
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *Service) keyLock(learnerID, skillID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := learnerID + "\x00" + skillID
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// Get returns the mastery record, or a default-prior record if the skill
// has never been attempted. The default record is not persisted until the
// first attempt.
func (s *Service) Get(ctx context.Context, learnerID, skillID string) (State, error) {
	st, ok, err := s.repo.Get(ctx, learnerID, skillID)
	if err != nil {
		return State{}, fmt.Errorf("load mastery state: %w", err)
	}
	if !ok {
		return NewState(learnerID, skillID, s.cfg.PriorNeutral, time.Time{}), nil
	}
	return st, nil
}

// RecordAttempt folds one graded attempt into the learner's state for a
// skill and persists the result. Returns the updated state.
func (s *Service) RecordAttempt(ctx context.Context, learnerID, skillID string, scoreNorm float64, now time.Time) (State, error) {
	l := s.keyLock(learnerID, skillID)
	l.Lock()
	defer l.Unlock()

	st, ok, err := s.repo.Get(ctx, learnerID, skillID)
	if err != nil {
		return State{}, fmt.Errorf("load mastery state: %w", err)
	}
	if !ok {
		st = NewState(learnerID, skillID, s.cfg.PriorNeutral, now)
	}

	updated, err := Apply(st, scoreNorm, now, s.cfg)
	if err != nil {
		return State{}, err
	}

	if err := s.repo.Save(ctx, updated); err != nil {
		return State{}, fmt.Errorf("save mastery state: %w", err)
	}
	return updated, nil
}

// RecordVerification handles a dedicated verification attempt: the
// regular update rule applies, and the skill is additionally marked
// verified when the score clears the bar. Verification never un-verifies.
func (s *Service) RecordVerification(ctx context.Context, learnerID, skillID string, scoreNorm float64, now time.Time) (State, error) {
	l := s.keyLock(learnerID, skillID)
	l.Lock()
	defer l.Unlock()

	st, ok, err := s.repo.Get(ctx, learnerID, skillID)
	if err != nil {
		return State{}, fmt.Errorf("load mastery state: %w", err)
	}
	if !ok {
		st = NewState(learnerID, skillID, s.cfg.PriorNeutral, now)
	}

	updated, err := Apply(st, scoreNorm, now, s.cfg)
	if err != nil {
		return State{}, err
	}
	if scoreNorm >= s.cfg.VerifyBar {
		updated.IsVerified = true
	}

	if err := s.repo.Save(ctx, updated); err != nil {
		return State{}, fmt.Errorf("save mastery state: %w", err)
	}
	return updated, nil
}

// SeedPriors persists onboarding-seeded states for skills with no record
// yet. Existing records are never overwritten: re-running onboarding must
// not erase practice history.
func (s *Service) SeedPriors(ctx context.Context, learnerID string, skillIDs []string, assessments map[string]Strength, now time.Time) error {
	for _, st := range SeedStates(learnerID, skillIDs, assessments, now, s.cfg) {
		l := s.keyLock(learnerID, st.SkillID)
		l.Lock()
		_, exists, err := s.repo.Get(ctx, learnerID, st.SkillID)
		if err == nil && !exists {
			err = s.repo.Save(ctx, st)
		}
		l.Unlock()
		if err != nil {
			return fmt.Errorf("seed prior for %s: %w", st.SkillID, err)
		}
	}
	return nil
}
