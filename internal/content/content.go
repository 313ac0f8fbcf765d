// Package content declares the contracts the engine needs from its
// external collaborators: item generation, grading, and the exam
// calendar. The engine never implements generation or natural-language
// grading itself; only the multiple-choice case is handled inline.
package content

import (
	"context"
	"errors"
	"strings"

	"github.com/abhisek/jurisprep/internal/attempt"
)

// Item is a gradable unit of content delivered by the provider. Every
// item carries either a correct-answer reference (choice formats) or a
// rubric (free-text formats).
type Item struct {
	ID         string
	SkillID    string
	Format     attempt.Format
	Difficulty attempt.Difficulty
	Prompt     string
	// Choices is populated for mcq items.
	Choices       []string
	CorrectAnswer string
	// Rubric guides the external grader for written/oral/drafting items.
	Rubric string
}

// Provider generates or fetches gradable items for a skill.
type Provider interface {
	GenerateOrFetchItems(ctx context.Context, skillID string, format attempt.Format, difficulty attempt.Difficulty, count int) ([]Item, error)
}

// GradeResult is a normalized grading outcome.
type GradeResult struct {
	ScoreNorm float64
	Feedback  string
	// ErrorTags are classified mistake categories for pattern tracking.
	ErrorTags []string
}

// Grader scores free-text responses against an item's rubric.
type Grader interface {
	Grade(ctx context.Context, item Item, learnerResponse string) (GradeResult, error)
}

// ErrNoExamProfile signals the learner has not completed onboarding; the
// orchestrator surfaces this as a distinct condition, not a generic
// failure.
var ErrNoExamProfile = errors.New("no exam profile for learner")

// ExamCalendar supplies days until the learner's written exam. The
// engine treats the value as an opaque integer input.
type ExamCalendar interface {
	DaysUntilWritten(ctx context.Context, learnerID string) (int, error)
}

// GradeMCQ grades a multiple-choice response inline by equality. No
// external grader round-trip for a string compare.
func GradeMCQ(item Item, learnerResponse string) GradeResult {
	if strings.EqualFold(strings.TrimSpace(learnerResponse), strings.TrimSpace(item.CorrectAnswer)) {
		return GradeResult{ScoreNorm: 1}
	}
	return GradeResult{ScoreNorm: 0, Feedback: "Incorrect. The right answer was: " + item.CorrectAnswer}
}
