package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/jurisprep/internal/attempt"
	"github.com/abhisek/jurisprep/internal/practice"
)

var attemptCmd = &cobra.Command{
	Use:   "attempt",
	Short: "Record a graded attempt",
	Long: `Records one graded attempt: appends the attempt fact, updates
mastery for every target skill, and kicks off background plan
maintenance. The score is the grader's normalized 0-1 result.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		skills, _ := cmd.Flags().GetStringSlice("skill")
		item, _ := cmd.Flags().GetString("item")
		score, _ := cmd.Flags().GetFloat64("score")
		format, _ := cmd.Flags().GetString("format")
		mode, _ := cmd.Flags().GetString("mode")
		activity, _ := cmd.Flags().GetString("activity")
		tags, _ := cmd.Flags().GetStringSlice("error-tag")

		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		learner := learnerID(cmd)
		for _, id := range skills {
			if _, err := e.graph.Skill(id); err != nil {
				return err
			}
		}

		res, err := e.practice.Submit(cmd.Context(), practice.Submission{
			LearnerID: learner,
			ItemID:    item,
			SkillIDs:  skills,
			Format:    attempt.Format(format),
			Mode:      attempt.Mode(mode),
			Activity:  attempt.Activity(activity),
			ScoreNorm: score,
			ErrorTags: tags,
		})
		if err != nil {
			return err
		}

		for _, id := range skills {
			st := res.States[id]
			verified := ""
			if st.IsVerified {
				verified = "  (verified)"
			}
			fmt.Printf("%-24s  mastery %.2f  next review %s%s\n",
				id, st.PMastery, st.NextReviewDate.Format("2006-01-02"), verified)
		}
		return nil
	},
}

func init() {
	attemptCmd.Flags().StringSlice("skill", nil, "Target skill ID (repeatable)")
	attemptCmd.Flags().String("item", "", "Item ID the attempt answered")
	attemptCmd.Flags().Float64("score", 0, "Normalized score in [0,1]")
	attemptCmd.Flags().String("format", "mcq", "Format: mcq|written|oral|drafting|flashcard")
	attemptCmd.Flags().String("mode", "practice", "Mode: practice|timed|exam_sim")
	attemptCmd.Flags().String("activity", "quiz", "Activity: flashcards|memory_check|quiz|rule_drill|issue_spotter|error_correction|reading|essay_outline|essay|verification")
	attemptCmd.Flags().StringSlice("error-tag", nil, "Classified mistake category (repeatable)")
	_ = attemptCmd.MarkFlagRequired("skill")
	_ = attemptCmd.MarkFlagRequired("item")
	_ = attemptCmd.MarkFlagRequired("score")
}
