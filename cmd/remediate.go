package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/jurisprep/internal/gates"
	"github.com/abhisek/jurisprep/internal/remediation"
)

var remediateCmd = &cobra.Command{
	Use:   "remediate <skill-id>",
	Short: "Evaluate gates and diagnose remediation for a skill",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		skillID := args[0]
		applyFlag, _ := cmd.Flags().GetBool("apply")

		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		ctx := cmd.Context()
		learner := learnerID(cmd)
		now := e.now()

		skill, err := e.graph.Skill(skillID)
		if err != nil {
			return err
		}

		cutoff := now.AddDate(0, 0, -e.cfg.Remediation.PatternLookbackDays)
		attempts, err := e.store.AttemptRepo().SinceForSkill(ctx, learner, skillID, cutoff)
		if err != nil {
			return err
		}
		state, err := e.mastery.Get(ctx, learner, skillID)
		if err != nil {
			return err
		}

		report := gates.Evaluate(skillID, attempts, now, e.cfg.Gates)
		printGateReport(skill.Name, report)

		prescription, cached := e.cache.Get(learner, skillID)
		if !cached {
			prescription = remediation.Diagnose(remediation.Snapshot{
				LearnerID: learner,
				SkillID:   skillID,
				Mastery:   state,
				Gate:      report,
				Attempts:  attempts,
				Now:       now,
			}, e.cfg.Remediation)
			e.cache.Put(learner, skillID, prescription)
		}

		if prescription == nil {
			fmt.Println("\nNo remediation needed.")
			return nil
		}
		printPrescription(prescription)

		if applyFlag {
			plan, err := e.orch.DailyPlan(ctx, learner)
			if err != nil {
				return err
			}
			e.orch.ApplyRemediation(plan, skillID, prescription, e.cfg.Remediation)
			for _, it := range plan.Items {
				if it.SkillID != skillID {
					continue
				}
				if err := e.store.PlanRepo().UpdateItemActivities(ctx, plan.ID, it.ID, it.Activities, it.Rationale); err != nil {
					return err
				}
			}
			fmt.Println("\nApplied to today's plan.")
		}
		return nil
	},
}

func printGateReport(name string, r gates.Report) {
	fmt.Printf("Gates for %s\n", name)
	for _, cr := range []gates.CategoryResult{r.MemoryCheck, r.Quiz, r.RuleDrill, r.IssueSpotter} {
		status := "pass"
		if !cr.Passing {
			status = "FAIL"
		}
		if cr.Attempts == 0 {
			status = "no signal"
		}
		fmt.Printf("  %-18s  mean %.2f / bar %.2f  (%d attempts)  %s\n",
			cr.Activity, cr.Mean, cr.Threshold, cr.Attempts, status)
	}
	overall := "passing"
	if !r.OverallPassing {
		overall = "not passing"
	}
	fmt.Printf("  overall: %s\n", overall)
}

func printPrescription(p *remediation.Prescription) {
	fmt.Printf("\nSeverity: %s (~%d min)\n", p.Severity, p.EstimatedMinutes)
	for _, reason := range p.Reasons {
		fmt.Printf("  - %s\n", reason)
	}
	if len(p.FocusAreas) > 0 {
		fmt.Printf("Focus: %s\n", strings.Join(p.FocusAreas, ", "))
	}
	fmt.Println("Prescribed:")
	for _, d := range p.Activities {
		fmt.Printf("  %dx %s (%s)\n", d.Count, d.Activity, d.Difficulty)
	}
}

func init() {
	remediateCmd.Flags().Bool("apply", false, "Blend the prescription into today's plan")
}
