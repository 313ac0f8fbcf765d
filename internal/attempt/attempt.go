package attempt

import (
	"fmt"
	"time"
)

// Format is how the learner produced the answer.
type Format string

const (
	FormatMCQ       Format = "mcq"
	FormatWritten   Format = "written"
	FormatOral      Format = "oral"
	FormatDrafting  Format = "drafting"
	FormatFlashcard Format = "flashcard"
)

// Mode is the setting the attempt happened in.
type Mode string

const (
	ModePractice Mode = "practice"
	ModeTimed    Mode = "timed"
	ModeExamSim  Mode = "exam_sim"
)

// Activity is the activity type that produced the attempt; gates and
// remediation prescriptions are keyed by it.
type Activity string

const (
	ActivityFlashcards      Activity = "flashcards"
	ActivityMemoryCheck     Activity = "memory_check"
	ActivityQuiz            Activity = "quiz"
	ActivityRuleDrill       Activity = "rule_drill"
	ActivityIssueSpotter    Activity = "issue_spotter"
	ActivityErrorCorrection Activity = "error_correction"
	ActivityReading         Activity = "reading"
	ActivityEssayOutline    Activity = "essay_outline"
	ActivityEssay           Activity = "essay"
	ActivityVerification    Activity = "verification"
)

// Difficulty of an item or prescribed activity.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Attempt is an immutable graded-attempt fact. Appended once, never
// updated; all downstream state is recomputed from these.
type Attempt struct {
	ID        string
	LearnerID string
	ItemID    string
	// SkillIDs is non-empty; an item may exercise several skills.
	SkillIDs  []string
	Format    Format
	Mode      Mode
	Activity  Activity
	ScoreNorm float64
	Timestamp time.Time
	// ErrorTags are classified mistake categories attached by grading.
	ErrorTags []string
}

// TargetsSkill reports whether the attempt exercised the given skill.
func (a Attempt) TargetsSkill(skillID string) bool {
	for _, id := range a.SkillIDs {
		if id == skillID {
			return true
		}
	}
	return false
}

// Validate rejects malformed attempts before any state mutation.
func (a Attempt) Validate() error {
	if a.LearnerID == "" {
		return fmt.Errorf("attempt missing learner ID")
	}
	if a.ItemID == "" {
		return fmt.Errorf("attempt missing item ID")
	}
	if len(a.SkillIDs) == 0 {
		return fmt.Errorf("attempt targets no skills")
	}
	if a.ScoreNorm < 0 || a.ScoreNorm > 1 {
		return fmt.Errorf("attempt score %.3f outside [0,1]", a.ScoreNorm)
	}
	switch a.Format {
	case FormatMCQ, FormatWritten, FormatOral, FormatDrafting, FormatFlashcard:
	default:
		return fmt.Errorf("unknown attempt format %q", a.Format)
	}
	switch a.Mode {
	case ModePractice, ModeTimed, ModeExamSim:
	default:
		return fmt.Errorf("unknown attempt mode %q", a.Mode)
	}
	return nil
}
