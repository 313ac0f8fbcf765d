package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/jurisprep/internal/mastery"
	"github.com/abhisek/jurisprep/internal/store"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Create an exam profile and seed mastery priors",
	Long: `Records the written exam date and seeds initial mastery from the
learner's self-assessment. Units listed under --strong start at a higher
prior than --weak ones; everything else gets the neutral prior.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		examDate, _ := cmd.Flags().GetString("exam-date")
		strongUnits, _ := cmd.Flags().GetStringSlice("strong")
		weakUnits, _ := cmd.Flags().GetStringSlice("weak")

		date, err := time.Parse("2006-01-02", examDate)
		if err != nil {
			return fmt.Errorf("parse --exam-date: %w", err)
		}

		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		ctx := cmd.Context()
		learner := learnerID(cmd)

		for _, unitID := range append(append([]string{}, strongUnits...), weakUnits...) {
			if _, err := e.graph.Unit(unitID); err != nil {
				return err
			}
		}

		if err := e.exams.SaveProfile(ctx, store.ExamProfileRow{
			LearnerID:       learner,
			WrittenExamDate: date,
		}); err != nil {
			return err
		}

		strength := make(map[string]mastery.Strength)
		var skillIDs []string
		for _, s := range e.graph.AllSkills() {
			skillIDs = append(skillIDs, s.ID)
			strength[s.ID] = mastery.StrengthNeutral
		}
		for _, unitID := range strongUnits {
			for _, s := range e.graph.ByUnit(unitID) {
				strength[s.ID] = mastery.StrengthStrong
			}
		}
		for _, unitID := range weakUnits {
			for _, s := range e.graph.ByUnit(unitID) {
				strength[s.ID] = mastery.StrengthWeak
			}
		}

		if err := e.mastery.SeedPriors(ctx, learner, skillIDs, strength, e.now()); err != nil {
			return fmt.Errorf("seed priors: %w", err)
		}

		fmt.Printf("Profile saved. Written exam on %s; priors seeded for %d skills.\n",
			date.Format("2006-01-02"), len(skillIDs))
		return nil
	},
}

func init() {
	onboardCmd.Flags().String("exam-date", "", "Written exam date (YYYY-MM-DD)")
	onboardCmd.Flags().StringSlice("strong", nil, "Unit IDs the learner rates as strong")
	onboardCmd.Flags().StringSlice("weak", nil, "Unit IDs the learner rates as weak")
	_ = onboardCmd.MarkFlagRequired("exam-date")
}
