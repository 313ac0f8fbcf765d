package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/jurisprep/internal/config"
	"github.com/abhisek/jurisprep/internal/logging"
	"github.com/abhisek/jurisprep/internal/mastery"
	"github.com/abhisek/jurisprep/internal/practice"
	"github.com/abhisek/jurisprep/internal/remediation"
	"github.com/abhisek/jurisprep/internal/session"
	"github.com/abhisek/jurisprep/internal/skillgraph"
	"github.com/abhisek/jurisprep/internal/store"
	"github.com/abhisek/jurisprep/internal/tasks"
)

var rootCmd = &cobra.Command{
	Use:   "jurisprep",
	Short: "Adaptive bar-exam preparation engine",
	Long:  "Jurisprep plans daily study sessions, schedules spaced review, and prescribes remediation from graded practice.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides JURISPREP_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().String("curriculum", "", "Path to curriculum JSON (defaults to the bundled bar-exam curriculum)")
	rootCmd.PersistentFlags().String("learner", "local", "Learner ID")
	rootCmd.PersistentFlags().String("log", "dev", "Log mode: dev or prod")

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(attemptCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(dueCmd)
	rootCmd.AddCommand(remediateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then JURISPREP_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, nil
	}
	return store.DefaultDBPath()
}

// engine bundles the wired services behind the CLI commands.
type engine struct {
	store    *store.Store
	cfg      config.Config
	log      *zap.SugaredLogger
	graph    *skillgraph.Graph
	mastery  *mastery.Service
	orch     *session.Orchestrator
	practice *practice.Service
	exams    *store.ExamRepo
	cache    *remediation.Cache
	queue    *tasks.Queue
	now      config.Clock
}

// openEngine builds the full service graph for one command invocation.
func openEngine(cmd *cobra.Command) (*engine, error) {
	mode, _ := cmd.Flags().GetString("log")
	log, err := logging.New(mode)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var graph *skillgraph.Graph
	if p, _ := cmd.Flags().GetString("curriculum"); p != "" {
		graph, err = skillgraph.Load(p)
	} else {
		graph, err = skillgraph.DefaultGraph()
	}
	if err != nil {
		return nil, fmt.Errorf("load curriculum: %w", err)
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	now := config.Clock(time.Now)
	masterySvc := mastery.NewService(st.MasteryRepo(), cfg.Mastery)
	examRepo := st.ExamRepo(now)
	planRepo := st.PlanRepo()
	cache := remediation.NewCache()
	queue := tasks.NewQueue(2, 64, 30*time.Second, log)

	orch := session.NewOrchestrator(graph, st.CardRepo(), planRepo, planRepo, examRepo, cfg.Session, now, log)

	practiceSvc := practice.NewService(st, st.AttemptRepo(), st.CardRepo(), masterySvc, cache, queue, cfg, now, log)
	practiceSvc.RegeneratePlan = func(ctx context.Context, learnerID string) error {
		_, err := orch.Regenerate(ctx, learnerID)
		return err
	}

	return &engine{
		store:    st,
		cfg:      cfg,
		log:      log,
		graph:    graph,
		mastery:  masterySvc,
		orch:     orch,
		practice: practiceSvc,
		exams:    examRepo,
		cache:    cache,
		queue:    queue,
		now:      now,
	}, nil
}

// close drains background work before the process exits.
func (e *engine) close() {
	e.queue.Close()
	if err := e.store.Close(); err != nil {
		e.log.Warnw("close store", "error", err)
	}
	_ = e.log.Sync()
}

func learnerID(cmd *cobra.Command) string {
	id, _ := cmd.Flags().GetString("learner")
	return id
}
