// Package practice is the attempt-submission pipeline: grade, persist
// atomically, then kick off background work the caller never waits on.
package practice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/jurisprep/internal/attempt"
	"github.com/abhisek/jurisprep/internal/config"
	"github.com/abhisek/jurisprep/internal/mastery"
	"github.com/abhisek/jurisprep/internal/remediation"
	"github.com/abhisek/jurisprep/internal/spacedrep"
	"github.com/abhisek/jurisprep/internal/tasks"
)

// Tx groups repository writes into one atomic unit.
type Tx interface {
	Atomically(ctx context.Context, fn func(ctx context.Context) error) error
}

// AttemptLog is the append-only attempt store.
type AttemptLog interface {
	Append(ctx context.Context, a attempt.Attempt) error
	Count(ctx context.Context, learnerID string) (int64, error)
}

// CardStore reads and writes spaced-repetition cards.
type CardStore interface {
	Get(ctx context.Context, learnerID, contentID string) (spacedrep.Card, bool, error)
	Save(ctx context.Context, c spacedrep.Card) error
}

// MasteryUpdater folds graded attempts into mastery state.
type MasteryUpdater interface {
	RecordAttempt(ctx context.Context, learnerID, skillID string, scoreNorm float64, now time.Time) (mastery.State, error)
	RecordVerification(ctx context.Context, learnerID, skillID string, scoreNorm float64, now time.Time) (mastery.State, error)
}

// Submission is one graded attempt coming in from the caller. The item
// has already been graded; ScoreNorm is the grader's normalized score.
type Submission struct {
	LearnerID string
	ItemID    string
	SkillIDs  []string
	Format    attempt.Format
	Mode      attempt.Mode
	Activity  attempt.Activity
	ScoreNorm float64
	ErrorTags []string
	// ContentID ties flashcard submissions to their review card.
	ContentID string
	// Quality overrides the score-derived 0-5 recall rating for
	// flashcard reviews when the learner self-rated.
	Quality *int
	// UnitID seeds a new card when this content has none yet.
	UnitID string
}

// Result reports what the submission changed.
type Result struct {
	Attempt attempt.Attempt
	// States holds the updated mastery state per target skill.
	States map[string]mastery.State
	// Card is set when a flashcard review updated scheduling.
	Card *spacedrep.Card
}

// Service runs the submission pipeline.
type Service struct {
	tx       Tx
	attempts AttemptLog
	cards    CardStore
	mastery  MasteryUpdater
	cache    *remediation.Cache
	queue    *tasks.Queue
	cfg      config.Config
	now      config.Clock
	log      *zap.SugaredLogger

	// RegeneratePlan is enqueued after every Nth attempt; nil disables.
	RegeneratePlan func(ctx context.Context, learnerID string) error
	// PreloadContent warms the next items; nil disables.
	PreloadContent func(ctx context.Context, learnerID string) error
}

func NewService(
	tx Tx,
	attempts AttemptLog,
	cards CardStore,
	masteryUpdater MasteryUpdater,
	cache *remediation.Cache,
	queue *tasks.Queue,
	cfg config.Config,
	now config.Clock,
	log *zap.SugaredLogger,
) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{
		tx:       tx,
		attempts: attempts,
		cards:    cards,
		mastery:  masteryUpdater,
		cache:    cache,
		queue:    queue,
		cfg:      cfg,
		now:      now,
		log:      log,
	}
}

func (s *Service) validate(sub Submission) error {
	if sub.LearnerID == "" {
		return errors.New("missing learner id")
	}
	if len(sub.SkillIDs) == 0 {
		return errors.New("attempt targets no skills")
	}
	if sub.ScoreNorm < 0 || sub.ScoreNorm > 1 {
		return fmt.Errorf("score %.3f outside [0,1]", sub.ScoreNorm)
	}
	if sub.Quality != nil && (*sub.Quality < 0 || *sub.Quality > 5) {
		return fmt.Errorf("quality %d outside [0,5]", *sub.Quality)
	}
	if sub.Format == attempt.FormatFlashcard && sub.ContentID == "" {
		return errors.New("flashcard submission without content id")
	}
	return nil
}

// Submit records one graded attempt. The attempt row, every mastery
// update, and any card update commit or roll back together, so a failed
// submission is safe to retry. Background side effects are enqueued
// after commit and never affect the result.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Result, error) {
	if err := s.validate(sub); err != nil {
		return nil, err
	}

	now := s.now()
	a := attempt.Attempt{
		ID:        uuid.NewString(),
		LearnerID: sub.LearnerID,
		ItemID:    sub.ItemID,
		SkillIDs:  sub.SkillIDs,
		Format:    sub.Format,
		Mode:      sub.Mode,
		Activity:  sub.Activity,
		ScoreNorm: sub.ScoreNorm,
		Timestamp: now,
		ErrorTags: sub.ErrorTags,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	result := &Result{Attempt: a, States: make(map[string]mastery.State)}

	err := s.tx.Atomically(ctx, func(txCtx context.Context) error {
		if err := s.attempts.Append(txCtx, a); err != nil {
			return err
		}

		for _, skillID := range sub.SkillIDs {
			var (
				st  mastery.State
				err error
			)
			if sub.Activity == attempt.ActivityVerification {
				st, err = s.mastery.RecordVerification(txCtx, sub.LearnerID, skillID, sub.ScoreNorm, now)
			} else {
				st, err = s.mastery.RecordAttempt(txCtx, sub.LearnerID, skillID, sub.ScoreNorm, now)
			}
			if err != nil {
				return fmt.Errorf("mastery update for %s: %w", skillID, err)
			}
			result.States[skillID] = st
		}

		if sub.Format == attempt.FormatFlashcard {
			card, err := s.reviewCard(txCtx, sub, now)
			if err != nil {
				return err
			}
			result.Card = card
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(sub)
	return result, nil
}

func (s *Service) reviewCard(ctx context.Context, sub Submission, now time.Time) (*spacedrep.Card, error) {
	card, found, err := s.cards.Get(ctx, sub.LearnerID, sub.ContentID)
	if err != nil {
		return nil, err
	}
	if !found {
		skillID := sub.SkillIDs[0]
		card = spacedrep.NewCard(sub.LearnerID, sub.ContentID, skillID, sub.UnitID, now)
	}

	quality := qualityFromScore(sub.ScoreNorm)
	if sub.Quality != nil {
		quality = *sub.Quality
	}

	reviewed, err := spacedrep.Review(card, quality, now, s.cfg.SpacedRep)
	if err != nil {
		return nil, fmt.Errorf("review card %s: %w", sub.ContentID, err)
	}
	if err := s.cards.Save(ctx, reviewed); err != nil {
		return nil, err
	}
	return &reviewed, nil
}

// qualityFromScore maps a normalized score onto the 0-5 recall scale
// when the learner didn't self-rate.
func qualityFromScore(score float64) int {
	q := int(math.Round(score * 5))
	if q < 0 {
		q = 0
	}
	if q > 5 {
		q = 5
	}
	return q
}

// afterCommit invalidates caches and enqueues fire-and-forget work.
// Nothing here can fail the submission.
func (s *Service) afterCommit(sub Submission) {
	if s.cache != nil {
		for _, skillID := range sub.SkillIDs {
			s.cache.Invalidate(sub.LearnerID, skillID)
		}
	}
	if s.queue == nil {
		return
	}

	if s.PreloadContent != nil {
		s.queue.Enqueue(tasks.Task{
			Name: "preload-content",
			Run: func(ctx context.Context) error {
				return s.PreloadContent(ctx, sub.LearnerID)
			},
		})
	}

	if s.RegeneratePlan != nil {
		every := s.cfg.Session.RegenerateEveryAttempts
		s.queue.Enqueue(tasks.Task{
			Name: "maybe-regenerate-plan",
			Run: func(ctx context.Context) error {
				n, err := s.attempts.Count(ctx, sub.LearnerID)
				if err != nil {
					return err
				}
				if every <= 0 || n%int64(every) != 0 {
					return nil
				}
				return s.RegeneratePlan(ctx, sub.LearnerID)
			},
		})
	}
}
