package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Clock returns the current time. Injected everywhere "today" matters so
// tests can pin the calendar.
type Clock func() time.Time

// Config holds every tunable the engine uses. There are no module-level
// constants in the domain packages; callers build a Config (usually
// Default, optionally overlaid from a YAML file) and pass it down.
type Config struct {
	Mastery     Mastery     `yaml:"mastery"`
	SpacedRep   SpacedRep   `yaml:"spaced_repetition"`
	Gates       Gates       `yaml:"gates"`
	Remediation Remediation `yaml:"remediation"`
	Session     Session     `yaml:"session"`
	Pacing      Pacing      `yaml:"pacing"`
}

// Mastery configures the per-attempt mastery update rule.
type Mastery struct {
	// Gain is the fraction of the (score - pMastery) error applied per attempt.
	Gain float64 `yaml:"gain"`
	// MaxRise caps a single attempt's upward movement of pMastery.
	MaxRise float64 `yaml:"max_rise"`
	// MaxDrop caps a single attempt's downward movement of pMastery.
	MaxDrop float64 `yaml:"max_drop"`
	// CorrectBar is the normalized score at or above which an attempt
	// counts as correct.
	CorrectBar float64 `yaml:"correct_bar"`
	// StabilityGrowth multiplies stability on every attempt.
	StabilityGrowth float64 `yaml:"stability_growth"`
	// StabilityCapDays bounds stability.
	StabilityCapDays float64 `yaml:"stability_cap_days"`
	// Priors seed pMastery at onboarding, keyed by self-assessed strength.
	PriorStrong  float64 `yaml:"prior_strong"`
	PriorNeutral float64 `yaml:"prior_neutral"`
	PriorWeak    float64 `yaml:"prior_weak"`
	// VerifyBar is the score a dedicated verification attempt must clear
	// to mark the skill verified.
	VerifyBar float64 `yaml:"verify_bar"`
}

// SpacedRep configures the SM-2 card model.
type SpacedRep struct {
	MinEasiness     float64 `yaml:"min_easiness"`
	MaxIntervalDays int     `yaml:"max_interval_days"`
	// SecondIntervalDays is the interval after the second consecutive success.
	SecondIntervalDays int `yaml:"second_interval_days"`
	// NewCardFreezeDays is the window before the exam inside which no new
	// cards are introduced.
	NewCardFreezeDays int `yaml:"new_card_freeze_days"`
	// WeakUnitBonus is added to a card's exam-optimizer score when its
	// content belongs to a weak unit.
	WeakUnitBonus float64 `yaml:"weak_unit_bonus"`
	// MatureExamWindowDays is the pre-exam window inside which mature
	// cards earn a consolidation bonus.
	MatureExamWindowDays int `yaml:"mature_exam_window_days"`
}

// Gates configures per-activity-type pass thresholds.
type Gates struct {
	MemoryCheck  float64 `yaml:"memory_check"`
	Quiz         float64 `yaml:"quiz"`
	IssueSpotter float64 `yaml:"issue_spotter"`
	RuleDrill    float64 `yaml:"rule_drill"`
	LookbackDays int     `yaml:"lookback_days"`
}

// Remediation configures severity diagnosis.
type Remediation struct {
	// SevereMasteryBelow and ModerateMasteryBelow are pMastery floors.
	SevereMasteryBelow   float64 `yaml:"severe_mastery_below"`
	ModerateMasteryBelow float64 `yaml:"moderate_mastery_below"`
	// RecurringTagMinCount is how many sightings of the same error tag
	// make a recurring pattern.
	RecurringTagMinCount int `yaml:"recurring_tag_min_count"`
	// SeverePatternCount recurring patterns escalate to severe.
	SeverePatternCount int `yaml:"severe_pattern_count"`
	// ConsecutiveFailLimit failed attempts in a row escalate to severe.
	ConsecutiveFailLimit int     `yaml:"consecutive_fail_limit"`
	FailScore            float64 `yaml:"fail_score"`
	PatternLookbackDays  int     `yaml:"pattern_lookback_days"`
	// MildBump is the count added to flashcard/memory-check activities
	// when a mild prescription is blended into a plan.
	MildBump int `yaml:"mild_bump"`
	// ActivityMinutes estimates per-item minutes by activity type;
	// anything absent falls back to FallbackMinutes.
	ActivityMinutes map[string]int `yaml:"activity_minutes"`
	FallbackMinutes int            `yaml:"fallback_minutes"`
}

// Phase is one exam-proximity bucket with its time-budget split.
type Phase struct {
	Name           string  `yaml:"name"`
	NewRatio       float64 `yaml:"new_ratio"`
	ReviewRatio    float64 `yaml:"review_ratio"`
	PracticeRatio  float64 `yaml:"practice_ratio"`
	DailyMinutes   int     `yaml:"daily_minutes"`
	SessionsPerDay int     `yaml:"sessions_per_day"`
}

// Session configures the daily orchestrator.
type Session struct {
	Foundation Phase `yaml:"foundation"`
	Intensive  Phase `yaml:"intensive"`
	Revision   Phase `yaml:"revision"`
	Final      Phase `yaml:"final"`
	// Phase boundaries in days before the written exam.
	FoundationAboveDays int `yaml:"foundation_above_days"`
	IntensiveAboveDays  int `yaml:"intensive_above_days"`
	RevisionAboveDays   int `yaml:"revision_above_days"`
	// Per-item minute costs used during budget allocation.
	ReviewItemMinutes   int `yaml:"review_item_minutes"`
	NewItemMinutes      int `yaml:"new_item_minutes"`
	PracticeItemMinutes int `yaml:"practice_item_minutes"`
	// RegenerateEveryAttempts triggers background plan regeneration.
	RegenerateEveryAttempts int `yaml:"regenerate_every_attempts"`
}

// Pacing configures the live-session monitor.
type Pacing struct {
	ExtendedSessionMinutes int `yaml:"extended_session_minutes"`
	ExtendedBreakMinutes   int `yaml:"extended_break_minutes"`
	LongSessionMinutes     int `yaml:"long_session_minutes"`
	LongBreakMinutes       int `yaml:"long_break_minutes"`
	PomodoroMinutes        int `yaml:"pomodoro_minutes"`
	PomodoroBreakMinutes   int `yaml:"pomodoro_break_minutes"`
	// FatigueWrongStreak wrong answers in a row suggest a short break.
	FatigueWrongStreak  int     `yaml:"fatigue_wrong_streak"`
	FatigueBreakMinutes int     `yaml:"fatigue_break_minutes"`
	ScoreDropThreshold  float64 `yaml:"score_drop_threshold"`
	// SwitchWrongStreak wrong answers on the same skill trigger the
	// switch advisor.
	SwitchWrongStreak int `yaml:"switch_wrong_streak"`
}

// Default returns the engine defaults. These are the tuned production
// values; tests and deployments overlay what they need.
func Default() Config {
	return Config{
		Mastery: Mastery{
			Gain:             0.15,
			MaxRise:          0.10,
			MaxDrop:          0.12,
			CorrectBar:       0.60,
			StabilityGrowth:  1.3,
			StabilityCapDays: 30,
			PriorStrong:      0.25,
			PriorNeutral:     0.10,
			PriorWeak:        0.05,
			VerifyBar:        0.70,
		},
		SpacedRep: SpacedRep{
			MinEasiness:          1.3,
			MaxIntervalDays:      365,
			SecondIntervalDays:   6,
			NewCardFreezeDays:    14,
			WeakUnitBonus:        50,
			MatureExamWindowDays: 30,
		},
		Gates: Gates{
			MemoryCheck:  0.70,
			Quiz:         0.60,
			IssueSpotter: 0.50,
			RuleDrill:    0.60,
			LookbackDays: 30,
		},
		Remediation: Remediation{
			SevereMasteryBelow:   0.40,
			ModerateMasteryBelow: 0.70,
			RecurringTagMinCount: 2,
			SeverePatternCount:   3,
			ConsecutiveFailLimit: 3,
			FailScore:            0.60,
			PatternLookbackDays:  30,
			MildBump:             2,
			ActivityMinutes: map[string]int{
				"reading":       10,
				"essay_outline": 15,
				"issue_spotter": 10,
			},
			FallbackMinutes: 3,
		},
		Session: Session{
			Foundation: Phase{Name: "foundation", NewRatio: 0.6, ReviewRatio: 0.2, PracticeRatio: 0.2, DailyMinutes: 90, SessionsPerDay: 6},
			Intensive:  Phase{Name: "intensive", NewRatio: 0.4, ReviewRatio: 0.3, PracticeRatio: 0.3, DailyMinutes: 120, SessionsPerDay: 8},
			Revision:   Phase{Name: "revision", NewRatio: 0.2, ReviewRatio: 0.4, PracticeRatio: 0.4, DailyMinutes: 150, SessionsPerDay: 10},
			Final:      Phase{Name: "final", NewRatio: 0.1, ReviewRatio: 0.5, PracticeRatio: 0.4, DailyMinutes: 150, SessionsPerDay: 10},

			FoundationAboveDays: 180,
			IntensiveAboveDays:  60,
			RevisionAboveDays:   14,

			ReviewItemMinutes:   15,
			NewItemMinutes:      25,
			PracticeItemMinutes: 20,

			RegenerateEveryAttempts: 5,
		},
		Pacing: Pacing{
			ExtendedSessionMinutes: 120,
			ExtendedBreakMinutes:   30,
			LongSessionMinutes:     90,
			LongBreakMinutes:       15,
			PomodoroMinutes:        25,
			PomodoroBreakMinutes:   5,
			FatigueWrongStreak:     2,
			FatigueBreakMinutes:    5,
			ScoreDropThreshold:     0.30,
			SwitchWrongStreak:      3,
		},
	}
}

// Load reads a YAML file and overlays it on the defaults. A missing path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks structural invariants that would otherwise surface as
// subtle planning bugs.
func (c Config) Validate() error {
	for _, p := range []Phase{c.Session.Foundation, c.Session.Intensive, c.Session.Revision, c.Session.Final} {
		sum := p.NewRatio + p.ReviewRatio + p.PracticeRatio
		if sum < 0.99 || sum > 1.01 {
			return fmt.Errorf("phase %q ratios sum to %.2f, want 1.0", p.Name, sum)
		}
		if p.SessionsPerDay <= 0 {
			return fmt.Errorf("phase %q sessions_per_day must be positive", p.Name)
		}
	}
	if c.Mastery.Gain <= 0 || c.Mastery.MaxRise <= 0 || c.Mastery.MaxDrop <= 0 {
		return fmt.Errorf("mastery gain and caps must be positive")
	}
	if c.SpacedRep.MinEasiness < 1.0 {
		return fmt.Errorf("spaced repetition min_easiness %.2f below 1.0", c.SpacedRep.MinEasiness)
	}
	return nil
}
