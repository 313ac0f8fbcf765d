package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/jurisprep/internal/session"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show today's study plan, building it if needed",
	RunE: func(cmd *cobra.Command, args []string) error {
		regen, _ := cmd.Flags().GetBool("regenerate")

		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		ctx := cmd.Context()
		learner := learnerID(cmd)

		var plan *session.Plan
		if regen {
			plan, err = e.orch.Regenerate(ctx, learner)
		} else {
			plan, err = e.orch.DailyPlan(ctx, learner)
		}
		if errors.Is(err, session.ErrNeedsOnboarding) {
			fmt.Println("No exam profile yet. Run `jurisprep onboard --exam-date YYYY-MM-DD` first.")
			return nil
		}
		if err != nil {
			return err
		}

		printPlan(e, plan)
		return nil
	},
}

func printPlan(e *engine, plan *session.Plan) {
	fmt.Printf("Plan for %s (%s phase, %d min)\n",
		plan.Date.Format("2006-01-02"), plan.Phase, plan.TotalMinutes())
	if len(plan.Degraded) > 0 {
		fmt.Printf("Built with partial data: %s\n", strings.Join(plan.Degraded, "; "))
	}
	fmt.Printf("%-3s  %-12s  %-40s  %-5s  %-11s  %s\n",
		"#", "Category", "Skill", "Min", "Status", "Why")
	fmt.Println(strings.Repeat("─", 110))

	for _, it := range plan.Items {
		name := it.SkillID
		if s, err := e.graph.Skill(it.SkillID); err == nil {
			name = s.Name
		}
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		fmt.Printf("%-3d  %-12s  %-40s  %-5d  %-11s  %s\n",
			it.Priority, it.Category, name, it.EstimatedMinutes, it.Status, it.Rationale)
	}
}

func init() {
	planCmd.Flags().Bool("regenerate", false, "Rebuild today's plan from current state")
}
