package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/jurisprep/internal/attempt"
	"github.com/abhisek/jurisprep/internal/content"
	"github.com/abhisek/jurisprep/internal/practice"
	"github.com/abhisek/jurisprep/internal/spacedrep"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Record a flashcard review",
	RunE: func(cmd *cobra.Command, args []string) error {
		contentID, _ := cmd.Flags().GetString("content")
		skill, _ := cmd.Flags().GetString("skill")
		quality, _ := cmd.Flags().GetInt("quality")

		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		s, err := e.graph.Skill(skill)
		if err != nil {
			return err
		}

		// Quality maps onto the score the mastery rule consumes. A
		// failed recall (q < 3) counts as an incorrect attempt.
		res, err := e.practice.Submit(cmd.Context(), practice.Submission{
			LearnerID: learnerID(cmd),
			ItemID:    contentID,
			SkillIDs:  []string{skill},
			Format:    attempt.FormatFlashcard,
			Mode:      attempt.ModePractice,
			Activity:  attempt.ActivityFlashcards,
			ScoreNorm: float64(quality) / 5,
			ContentID: contentID,
			Quality:   &quality,
			UnitID:    s.UnitID,
		})
		if err != nil {
			return err
		}

		c := res.Card
		fmt.Printf("Card %s: EF %.2f, interval %d day(s), next review %s\n",
			c.ContentID, c.EasinessFactor, c.IntervalDays, c.NextReviewDate.Format("2006-01-02"))
		return nil
	},
}

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List cards due for review",
	Long: `Lists due cards in review order. With --exam-optimized the list is
rescored for the approaching exam: overdue and weak-unit cards first,
and a recommended count of brand-new cards that drops to zero in the
final stretch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		optimized, _ := cmd.Flags().GetBool("exam-optimized")

		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		ctx := cmd.Context()
		learner := learnerID(cmd)
		now := e.now()

		cards, err := e.store.CardRepo().CardsForLearner(ctx, learner)
		if err != nil {
			return err
		}

		var (
			due     []spacedrep.Card
			newRecs int
		)
		if optimized {
			days, err := e.exams.DaysUntilWritten(ctx, learner)
			if errors.Is(err, content.ErrNoExamProfile) {
				return fmt.Errorf("no exam profile; run `jurisprep onboard` first")
			}
			if err != nil {
				return err
			}
			weak, err := weakUnits(ctx, e, learner)
			if err != nil {
				return err
			}
			examPlan := spacedrep.OptimizeForExam(cards, days, weak, limit, now, e.cfg.SpacedRep)
			due = examPlan.Cards
			newRecs = examPlan.NewCardCount
		} else {
			due = spacedrep.DueCards(cards, now, limit)
		}

		if len(due) == 0 {
			fmt.Println("Nothing due.")
		} else {
			fmt.Printf("%-24s  %-16s  %-5s  %-4s  %s\n", "Content", "Unit", "EF", "Reps", "Overdue")
			fmt.Println(strings.Repeat("─", 70))
			for _, c := range due {
				fmt.Printf("%-24s  %-16s  %-5.2f  %-4d  %.0fd\n",
					c.ContentID, c.UnitID, c.EasinessFactor, c.Repetitions, c.OverdueDays(now))
			}
		}
		if optimized && newRecs > 0 {
			fmt.Printf("\nRoom for %d new card(s) today.\n", newRecs)
		}
		return nil
	},
}

// weakUnits derives the learner's weak units from mastery: a unit is
// weak when its mean mastery sits below the moderate remediation bar.
func weakUnits(ctx context.Context, e *engine, learner string) (map[string]bool, error) {
	states, err := e.store.MasteryRepo().ListForLearner(ctx, learner)
	if err != nil {
		return nil, err
	}
	bySkill := make(map[string]float64, len(states))
	for _, st := range states {
		bySkill[st.SkillID] = st.PMastery
	}

	weak := make(map[string]bool)
	for _, u := range e.graph.Units() {
		var sum float64
		var n int
		for _, s := range e.graph.ByUnit(u.ID) {
			if p, ok := bySkill[s.ID]; ok {
				sum += p
				n++
			}
		}
		if n > 0 && sum/float64(n) < e.cfg.Remediation.ModerateMasteryBelow {
			weak[u.ID] = true
		}
	}
	return weak, nil
}

func init() {
	reviewCmd.Flags().String("content", "", "Content ID of the card")
	reviewCmd.Flags().String("skill", "", "Skill the card exercises")
	reviewCmd.Flags().Int("quality", 0, "Recall quality 0-5 (5 = effortless, <3 = failed)")
	_ = reviewCmd.MarkFlagRequired("content")
	_ = reviewCmd.MarkFlagRequired("skill")
	_ = reviewCmd.MarkFlagRequired("quality")

	dueCmd.Flags().Int("limit", 20, "Maximum cards to list")
	dueCmd.Flags().Bool("exam-optimized", false, "Score the queue for the approaching exam")
}
