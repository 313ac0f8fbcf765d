package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show mastery and coverage per unit",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		ctx := cmd.Context()
		learner := learnerID(cmd)

		states, err := e.store.MasteryRepo().ListForLearner(ctx, learner)
		if err != nil {
			return err
		}
		bySkill := make(map[string]float64, len(states))
		verified := make(map[string]bool, len(states))
		for _, st := range states {
			bySkill[st.SkillID] = st.PMastery
			verified[st.SkillID] = st.IsVerified
		}

		practiced, err := e.store.PlanRepo().PracticedSkills(ctx, learner)
		if err != nil {
			return err
		}

		fmt.Printf("%-26s  %-8s  %-9s  %s\n", "Unit", "Mastery", "Coverage", "Verified")
		fmt.Println(strings.Repeat("─", 60))

		for _, u := range e.graph.Units() {
			skills := e.graph.ByUnit(u.ID)
			var sum float64
			tracked, covered, verifiedCount := 0, 0, 0
			for _, s := range skills {
				if p, ok := bySkill[s.ID]; ok {
					sum += p
					tracked++
				}
				if practiced[s.ID] {
					covered++
				}
				if verified[s.ID] {
					verifiedCount++
				}
			}
			mean := "-"
			if tracked > 0 {
				mean = fmt.Sprintf("%.2f", sum/float64(tracked))
			}
			fmt.Printf("%-26s  %-8s  %d/%-7d  %d/%d\n",
				u.Name, mean, covered, len(skills), verifiedCount, len(skills))
		}
		return nil
	},
}
